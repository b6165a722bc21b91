// Package entity defines the data model shared by the resolver, the store and
// the review queue: entity types, raw records, canonical entities and aliases.
//
// Record.Prepare is the single validation point for raw input; it returns an
// *InputError scoped to the offending record.
package entity
