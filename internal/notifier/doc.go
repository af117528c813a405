// Package notifier delivers emergency messages to the fixed contact.
//
// A Notifier wraps exactly one Channel (Twilio WhatsApp, Pushover, ntfy, NATS
// or the log) and reduces every failure to a false return value, so callers
// only need to know whether the message went out.
package notifier
