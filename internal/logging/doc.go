// Package logging constructs slog loggers for the clearance system and
// standardizes the structured fields components attach to their records.
//
// Loggers are carried through context so the orchestrator, store, and side
// effect dispatchers all tag records with the same application and request
// identifiers.
package logging
