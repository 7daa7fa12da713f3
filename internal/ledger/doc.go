// Package ledger provides SQLite-backed durable storage for authoritative
// practice-session records.
//
// Three tables are authoritative: sessions, templates (keyed by content
// hash), and analysis_units (one graded club batch per session, unique on
// session/club/template). A fourth table, projection_cache, holds derived
// snapshots and may be dropped at any time without affecting any
// authoritative read.
//
// # Invariants
//
//   - Append-only: BEFORE UPDATE and BEFORE DELETE triggers on every
//     authoritative table RAISE(ABORT), so no caller, including raw SQL,
//     can mutate or remove a committed row.
//   - Hash-once: templates arrive with a caller-computed hash. The ledger
//     stores and trusts it; no read or write path canonicalizes or hashes.
//   - Unit uniqueness: UNIQUE(session_id, club, template_hash). Re-analyzing
//     with a new template creates an independent row; the old one stands.
//   - Percentage/tier pairing: a_percentage is NULL exactly when the
//     validity tier is insufficient_data, checked in Go and by the schema.
//
// Each insert runs in a single exclusive transaction: it fully commits or
// fully aborts. Reads are pure lookups and may run concurrently.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: enforce referential integrity
package ledger
