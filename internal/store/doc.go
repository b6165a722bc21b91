// Package store persists canonical entities, aliases and pending matches in
// SQLite.
//
// Every resolution decision is written by ApplyDecision in its own
// transaction, so an interrupted run leaves only whole records behind. Review
// transitions (ApprovePending, RejectPending) write the alias or entity and the
// status change together; a failure rolls everything back and leaves the row
// pending.
//
// Schema changes bump schemaVersion in schema.go. Databases created by an older
// version are refused with ErrSchemaMismatch.
package store
