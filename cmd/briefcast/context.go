package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"briefcast/internal/config"
	"briefcast/internal/content"
	"briefcast/internal/logging"
	"briefcast/internal/pipeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger() (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.NewFromValues(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
}

// withStore opens the content store for the duration of fn.
func (c *commandContext) withStore(fn func(*config.Config, *content.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := content.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(cfg, store)
}

// withEngine wires the full pipeline for the duration of fn.
func (c *commandContext) withEngine(ctx context.Context, fn func(*config.Config, *content.Store, *pipeline.Engine) error) error {
	return c.withStore(func(cfg *config.Config, store *content.Store) error {
		logger, err := c.newLogger()
		if err != nil {
			return err
		}
		engine, err := pipeline.BuildEngine(ctx, cfg, store, logger)
		if err != nil {
			return err
		}
		return fn(cfg, store, engine)
	})
}
