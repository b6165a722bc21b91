package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains on-disk locations used by the CLI.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// DistanceBand maps a coordinate distance ceiling to a feature score.
type DistanceBand struct {
	MaxKM float64 `toml:"max_km"`
	Score float64 `toml:"score"`
}

// Weights holds per-matcher feature weight overrides. Keys are feature names;
// absent features keep their built-in weight.
type Weights struct {
	Driver  map[string]float64 `toml:"driver"`
	Team    map[string]float64 `toml:"team"`
	Circuit map[string]float64 `toml:"circuit"`
	Round   map[string]float64 `toml:"round"`
}

// Prefilter toggles the cheap candidate narrowing rules applied before scoring.
type Prefilter struct {
	DriverNameInitial bool `toml:"driver_name_initial"`
	DriverNationality bool `toml:"driver_nationality"`
	TeamYearOverlap   bool `toml:"team_year_overlap"`
	TeamYearSlack     int  `toml:"team_year_slack"`
	CircuitCountry    bool `toml:"circuit_country"`
	RoundSeason       bool `toml:"round_season"`
}

// Matching contains decision thresholds and scoring parameters.
type Matching struct {
	AutoAcceptThreshold      float64        `toml:"auto_accept_threshold"`
	AutoRejectThreshold      float64        `toml:"auto_reject_threshold"`
	TieEpsilon               float64        `toml:"tie_epsilon"`
	MaxQueuedCandidates      int            `toml:"max_queued_candidates"`
	UnknownNationalityScore  float64        `toml:"unknown_nationality_score"`
	UnknownAbbreviationScore float64        `toml:"unknown_abbreviation_score"`
	DateWindowDays           int            `toml:"date_window_days"`
	DistanceBands            []DistanceBand `toml:"distance_bands"`
	Weights                  Weights        `toml:"weights"`
	Prefilter                Prefilter      `toml:"prefilter"`
}

// Normalization extends the built-in boilerplate and abbreviation tables.
type Normalization struct {
	SponsorTokens []string          `toml:"sponsor_tokens"`
	Abbreviations map[string]string `toml:"abbreviations"`
}

// Review contains review queue defaults.
type Review struct {
	Actor        string `toml:"actor"`
	ExportFormat string `toml:"export_format"`
}

// Ingest contains defaults for resolve runs.
type Ingest struct {
	Strategy string `toml:"strategy"`
	Progress bool   `toml:"progress"`
}

// Config encapsulates all configuration values for paddock.
//
// Configuration sections by subsystem:
//   - Paths: database, lock and log locations
//   - Logging: log format and level
//   - Matching: thresholds, weights, pre-filter rules
//   - Normalization: sponsor tokens and abbreviation tables
//   - Review: reviewer identity and export defaults
//   - Ingest: resolve strategy and progress output
type Config struct {
	Paths         Paths         `toml:"paths"`
	Logging       Logging       `toml:"logging"`
	Matching      Matching      `toml:"matching"`
	Normalization Normalization `toml:"normalization"`
	Review        Review        `toml:"review"`
	Ingest        Ingest        `toml:"ingest"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("paddock.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, lock and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.LockDir(), c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "paddock.db")
}

// LockDir returns the directory holding review lock files.
func (c *Config) LockDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}
