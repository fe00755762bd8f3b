// Package notifications delivers clearance events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover decisions, terminal outcomes, and
// certificate issuance so the coordinator can emit consistent messages
// without duplicating HTTP glue.
//
// Delivery is fire-and-forget: failures are logged by the caller, never
// propagated into the decision path.
package notifications
