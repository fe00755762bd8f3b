// Package workflow coordinates the clearance lifecycle around the pure
// transition engine: it serializes decisions per application, persists the
// stage update, derived status, and audit entry in one transaction, and
// dispatches side effects (certificate generation, notifications) after the
// lock is released.
//
// Side effects are at-least-once with idempotent retry: certificate rows are
// unique per application and notification claims are deduplicated by
// (application, event, ref), so a crashed dispatcher can be retried without
// issuing duplicates.
package workflow
