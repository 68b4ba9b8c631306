// Package supervisor keeps exactly one streaming feed connection alive.
//
// The loop is a three-state machine: Idle, Active (one connection open),
// and PendingRestart (a delay counting down). Each connection ends exactly
// once (error, remote completion, or forced rotation after a maximum
// lifetime) and each ending schedules exactly one restart with a delay
// chosen by cause.
package supervisor
