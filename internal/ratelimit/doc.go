// Package ratelimit is per-IP request limiting for the public listener.
//
// It is in-memory and per-instance: it keeps one client from exhausting the
// server's goroutines and gives a log line and a counter per offender. It
// does nothing against distributed floods; that belongs upstream.
package ratelimit
