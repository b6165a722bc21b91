// Package config loads, normalizes, and validates paddock configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PADDOCK_DATA_DIR. The Config type carries every matching threshold, feature
// weight override and normalization table the resolver needs, and is passed
// explicitly to each component rather than held in package state.
//
// Validation happens before any record is processed so a bad threshold or band
// table fails the process at startup with a ConfigurationError.
package config
