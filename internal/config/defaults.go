package config

const (
	defaultConfigPath              = "~/.config/paddock/config.toml"
	defaultDataDir                 = "~/.local/share/paddock"
	defaultLogDir                  = "~/.local/share/paddock/logs"
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultAutoAcceptThreshold     = 0.85
	defaultAutoRejectThreshold     = 0.40
	defaultTieEpsilon              = 0.02
	defaultMaxQueuedCandidates     = 3
	defaultUnknownNationalityScore = 0.5
	defaultUnknownAbbrevScore      = 0.5
	defaultDateWindowDays          = 7
	defaultTeamYearSlack           = 1
	defaultExportFormat            = "json"
	defaultStrategy                = "scored"
	defaultActor                   = "cli"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Matching: Matching{
			AutoAcceptThreshold:      defaultAutoAcceptThreshold,
			AutoRejectThreshold:      defaultAutoRejectThreshold,
			TieEpsilon:               defaultTieEpsilon,
			MaxQueuedCandidates:      defaultMaxQueuedCandidates,
			UnknownNationalityScore:  defaultUnknownNationalityScore,
			UnknownAbbreviationScore: defaultUnknownAbbrevScore,
			DateWindowDays:           defaultDateWindowDays,
			DistanceBands: []DistanceBand{
				{MaxKM: 1, Score: 1.0},
				{MaxKM: 10, Score: 0.5},
			},
			Prefilter: Prefilter{
				DriverNameInitial: true,
				TeamYearOverlap:   true,
				TeamYearSlack:     defaultTeamYearSlack,
				CircuitCountry:    true,
				RoundSeason:       true,
			},
		},
		Review: Review{
			ExportFormat: defaultExportFormat,
		},
		Ingest: Ingest{
			Strategy: defaultStrategy,
		},
	}
}
