package config

import (
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Feature weights are checked when
// the matcher registry is built since only the matchers know their feature sets.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	if err := c.validateReview(); err != nil {
		return err
	}
	return c.validateIngest()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return invalid("paths.data_dir", "must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return invalid("logging.format", fmt.Sprintf("must be console or json, got %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", fmt.Sprintf("must be debug, info, warn, or error, got %q", c.Logging.Level))
	}
	return nil
}

func (c *Config) validateThresholds() error {
	m := c.Matching
	if err := ensureUnit("matching.auto_accept_threshold", m.AutoAcceptThreshold); err != nil {
		return err
	}
	if err := ensureUnit("matching.auto_reject_threshold", m.AutoRejectThreshold); err != nil {
		return err
	}
	if m.AutoRejectThreshold >= m.AutoAcceptThreshold {
		return invalid("matching.auto_reject_threshold", "must be below matching.auto_accept_threshold")
	}
	if m.TieEpsilon < 0 || m.TieEpsilon >= 0.5 {
		return invalid("matching.tie_epsilon", "must be in [0, 0.5)")
	}
	if m.MaxQueuedCandidates <= 0 {
		return invalid("matching.max_queued_candidates", "must be positive")
	}
	return nil
}

func (c *Config) validateScoring() error {
	m := c.Matching
	if err := ensureUnit("matching.unknown_nationality_score", m.UnknownNationalityScore); err != nil {
		return err
	}
	if err := ensureUnit("matching.unknown_abbreviation_score", m.UnknownAbbreviationScore); err != nil {
		return err
	}
	if m.DateWindowDays <= 0 {
		return invalid("matching.date_window_days", "must be positive")
	}
	if len(m.DistanceBands) == 0 {
		return invalid("matching.distance_bands", "must contain at least one band")
	}
	prev := 0.0
	for i, band := range m.DistanceBands {
		field := fmt.Sprintf("matching.distance_bands[%d]", i)
		if band.MaxKM <= prev {
			return invalid(field+".max_km", "must be positive and strictly increasing")
		}
		if err := ensureUnit(field+".score", band.Score); err != nil {
			return err
		}
		prev = band.MaxKM
	}
	if m.Prefilter.TeamYearSlack < 0 {
		return invalid("matching.prefilter.team_year_slack", "must be non-negative")
	}
	return nil
}

func (c *Config) validateReview() error {
	switch c.Review.ExportFormat {
	case "json", "csv", "yaml":
		return nil
	default:
		return invalid("review.export_format", fmt.Sprintf("must be json, csv, or yaml, got %q", c.Review.ExportFormat))
	}
}

func (c *Config) validateIngest() error {
	switch c.Ingest.Strategy {
	case "scored", "exact":
		return nil
	default:
		return invalid("ingest.strategy", fmt.Sprintf("must be scored or exact, got %q", c.Ingest.Strategy))
	}
}

func ensureUnit(field string, value float64) error {
	if value < 0 || value > 1 {
		return invalid(field, "must be between 0 and 1")
	}
	return nil
}
