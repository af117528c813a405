// Package liveness holds the single source of truth for heartbeat state.
//
// A Tracker records heartbeats and the last known location, arms and disarms
// monitoring, and hands out consistent snapshots. Every operation runs in a
// short critical section without I/O, so request handlers and the monitor
// loop can call it concurrently.
package liveness
