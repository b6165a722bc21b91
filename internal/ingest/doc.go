// Package ingest reads raw record files and drives them through the resolver.
//
// A run groups records by entity type, loads each type's persisted snapshot
// once, and resolves the records of a type in input order, committing every
// decision in its own transaction before the next record is scored. Types are
// processed concurrently.
package ingest
