// Package store is the embedded relational store behind promptreg. It holds
// catalogs, the artifacts indexed from their manifests and the installation
// records of materialized artifacts, plus an FTS5 index over artifact text.
//
// The schema evolves through an ordered list of additive migrations gated by
// the schema_version table. Every step checks its own marker before acting,
// so opening an already migrated store is a no-op.
//
// Every write that touches more than one table runs inside a transaction;
// readers never observe a half-replaced artifact set.
package store
