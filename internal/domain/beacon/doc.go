// Package beacon contains core domain types for the personal safety beacon.
//
// It defines Coordinates and Location (where the monitored person was seen),
// Snapshot (a consistent view of liveness state) and AlertContext (everything
// needed to render one outbound emergency message), with Clone helpers to
// avoid leaking internal references.
package beacon
