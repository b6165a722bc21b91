package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"paddock/internal/config"
	"paddock/internal/logging"
	"paddock/internal/matching"
	"paddock/internal/normalize"
	"paddock/internal/resolver"
	"paddock/internal/review"
	"paddock/internal/store"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
			if err := cfg.Validate(); err != nil {
				c.configErr = usageError("--log-level: %v", err)
				return
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the database for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store, *slog.Logger) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st, logger)
}

// withReview builds the review service over an open store.
func (c *commandContext) withReview(fn func(*review.Service, *store.Store) error) error {
	return c.withStore(func(cfg *config.Config, st *store.Store, logger *slog.Logger) error {
		return fn(review.NewService(cfg, st, logger), st)
	})
}

// newResolver builds the matcher registry and resolver; weight errors surface
// here before any record is read.
func newResolver(cfg *config.Config, logger *slog.Logger) (*resolver.Resolver, error) {
	registry, err := matching.NewRegistry(cfg.Matching, normalize.New(cfg.Normalization))
	if err != nil {
		return nil, err
	}
	return resolver.New(cfg, registry, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// progressWriter returns the command's stderr when it is a terminal.
func progressWriter(cmd *cobra.Command) io.Writer {
	w := cmd.ErrOrStderr()
	f, ok := w.(*os.File)
	if !ok {
		return nil
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return nil
	}
	return f
}

// usageError marks a bad flag or argument value.
func usageError(format string, args ...any) error {
	return fmt.Errorf("invalid argument: "+format, args...)
}
