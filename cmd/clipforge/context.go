package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/kiranshivaraju/clipforge/internal/backend"
	"github.com/kiranshivaraju/clipforge/internal/config"
	"github.com/kiranshivaraju/clipforge/internal/dashboard"
)

type globalFlags struct {
	config     string
	backendURL string
	json       bool
	verbose    bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.LoadFile(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if u := strings.TrimRight(strings.TrimSpace(c.flags.backendURL), "/"); u != "" {
			cfg.Backend.BaseURL = u
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to stderr so stdout stays parseable.
func (c *commandContext) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.flags.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// newSession returns a fresh dashboard session talking to the configured
// backend. Each invocation is its own session.
func (c *commandContext) newSession(cmd *cobra.Command) (*dashboard.Session, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := backend.NewClient(cfg.Backend)
	if err != nil {
		return nil, err
	}
	return dashboard.New(client, dashboard.WithLogger(c.logger(cmd))), nil
}
