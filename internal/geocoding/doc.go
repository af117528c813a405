// Package geocoding turns coordinates into a human-readable address.
//
// Lookups are best-effort: Client.Resolve never returns an error and falls
// back to a "Lat: x, Lon: y" string whenever the backend fails.
package geocoding
