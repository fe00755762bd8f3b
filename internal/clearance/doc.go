// Package clearance persists no-dues applications in SQLite and defines the
// domain types the workflow components share.
//
// The Store manages database connections, schema initialization, application
// and stage rows, the append-only audit log, certificate references, and the
// notification dedup ledger. Application creation and stage seeding happen in
// a single transaction so no application ever exists with zero or partial
// stages.
//
// Treat this package as the single source of truth for clearance semantics;
// when you add new states or columns, update schema.sql and bump schemaVersion.
package clearance
