// Package beacon implements the JSON HTTP transport for the safety beacon.
//
// Routes mirror the browser-facing endpoints: heartbeats, manual alerts,
// arm and disarm, plus a status view, a health probe and the Prometheus
// scrape endpoint.
package beacon
