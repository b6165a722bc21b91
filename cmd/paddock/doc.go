// Command paddock resolves raw racing records into canonical drivers, teams,
// circuits and rounds, and manages the review queue of ambiguous matches.
//
// Typical usage:
//
//	paddock config init
//	paddock resolve --source ergast drivers.json
//	paddock review list --min-score 0.6
//	paddock review approve <pending-id>
//	paddock review bulk-approve-above 0.8
//	paddock review export pending.csv --format csv
package main
