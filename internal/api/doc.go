// Package api implements the provider's REST endpoints: historical trade
// series, the exchange list, and the instrument catalog.
//
// These are simple request/response fetchers. Unlike the streaming path,
// they carry no recovery logic of their own; callers decide whether and
// when to retry.
package api
