package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeMatching()
	c.normalizeNormalization()
	c.normalizeReview()
	c.Ingest.Strategy = strings.ToLower(strings.TrimSpace(c.Ingest.Strategy))
	if c.Ingest.Strategy == "" {
		c.Ingest.Strategy = defaultStrategy
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("PADDOCK_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DataDir = value
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("PADDOCK_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format == "" {
		format = defaultLogFormat
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

func (c *Config) normalizeMatching() {
	sort.SliceStable(c.Matching.DistanceBands, func(i, j int) bool {
		return c.Matching.DistanceBands[i].MaxKM < c.Matching.DistanceBands[j].MaxKM
	})
	c.Matching.Weights.Driver = lowerKeys(c.Matching.Weights.Driver)
	c.Matching.Weights.Team = lowerKeys(c.Matching.Weights.Team)
	c.Matching.Weights.Circuit = lowerKeys(c.Matching.Weights.Circuit)
	c.Matching.Weights.Round = lowerKeys(c.Matching.Weights.Round)
}

func (c *Config) normalizeNormalization() {
	seen := make(map[string]struct{}, len(c.Normalization.SponsorTokens))
	tokens := c.Normalization.SponsorTokens[:0]
	for _, token := range c.Normalization.SponsorTokens {
		token = strings.TrimSpace(token)
		key := strings.ToLower(token)
		if token == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, token)
	}
	c.Normalization.SponsorTokens = tokens

	if len(c.Normalization.Abbreviations) > 0 {
		abbreviations := make(map[string]string, len(c.Normalization.Abbreviations))
		for code, name := range c.Normalization.Abbreviations {
			code = strings.TrimSpace(code)
			name = strings.TrimSpace(name)
			if code == "" || name == "" {
				continue
			}
			abbreviations[code] = name
		}
		c.Normalization.Abbreviations = abbreviations
	}
}

func (c *Config) normalizeReview() {
	c.Review.Actor = strings.TrimSpace(c.Review.Actor)
	if c.Review.Actor == "" {
		if user, ok := os.LookupEnv("USER"); ok && strings.TrimSpace(user) != "" {
			c.Review.Actor = strings.TrimSpace(user)
		} else {
			c.Review.Actor = defaultActor
		}
	}
	c.Review.ExportFormat = strings.ToLower(strings.TrimSpace(c.Review.ExportFormat))
	if c.Review.ExportFormat == "" {
		c.Review.ExportFormat = defaultExportFormat
	}
}

func lowerKeys(in map[string]float64) map[string]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]float64, len(in))
	for key, value := range in {
		out[strings.ToLower(strings.TrimSpace(key))] = value
	}
	return out
}
