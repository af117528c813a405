// Package config defines the settings used by the beacon binaries and provides
// helpers to load, validate and save them in YAML format.
//
// Secrets for the outbound channels can also come from the environment
// (TWILIO_*, EMERGENCY_CONTACT, PUSHOVER_*, NATS_URL), which take precedence
// over the file.
package config
