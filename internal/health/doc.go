// Package health provides composable probes and the liveness and readiness
// handlers served on the ops port.
//
// The server is ready once a content snapshot is active ([Readiness] over the
// content manager) and stops being ready as soon as [ShutdownGate] is set, so
// the load balancer drains it before the listeners close.
package health
