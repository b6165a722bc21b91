// Package review adjudicates pending matches.
//
// A pending match moves from pending to approved or rejected exactly once.
// Approving maps the raw key onto a chosen candidate; rejecting creates a new
// canonical entity for it. Transitions take a per-entity-type lock, held both
// in-process and through a lock file in the data directory, and are committed
// by the store in a single transaction.
package review
