// Package feed implements the provider-facing streaming client.
//
// Each Open is one connection attempt: WebSocket transport, a single hello
// frame declaring the credential and asset universe, then a read loop that
// decodes trade frames into canonical price updates. An attempt ends in
// exactly one of three ways: an error (transport or provider-signaled), a
// remote graceful close, or an external Cancel, and a canceled handle emits
// nothing further.
package feed
