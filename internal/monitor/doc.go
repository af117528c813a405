// Package monitor runs the background loop that turns heartbeat silence into
// exactly one automatic alert per disconnection episode.
package monitor
