// Package normalize turns raw display strings into the forms the matchers
// compare: folded names, sponsor-free event names, expanded circuit codes and
// canonical country codes.
//
// Every function is pure, deterministic and total. Stored names keep their
// diacritics; only comparison inputs pass through here.
package normalize
