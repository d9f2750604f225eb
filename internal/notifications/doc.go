// Package notifications delivers run events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never need to check whether notifications are enabled. Delivery
// failures are returned to the caller, which logs them as warnings; a failed
// notification never changes the outcome of a run.
package notifications
