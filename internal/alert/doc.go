// Package alert renders and dispatches emergency messages.
//
// Composer turns an AlertContext into message text. Dispatcher is the chain
// shared by the manual path and the monitor loop: resolve the address,
// compose, send, record the outcome.
package alert
