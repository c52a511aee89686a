package main

import (
	"log/slog"
	"strings"
	"sync"

	"picksort/internal/app"
	"picksort/internal/config"
	"picksort/internal/logging"
	"picksort/internal/store"
)

type commandContext struct {
	dataDirFlag  *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Store
	configErr  error
}

func newCommandContext(dataDirFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		dataDirFlag:  dataDirFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Store, error) {
	c.configOnce.Do(func() {
		dir := "."
		if c.dataDirFlag != nil && strings.TrimSpace(*c.dataDirFlag) != "" {
			dir = strings.TrimSpace(*c.dataDirFlag)
		}
		cfg, err := config.Load(dir)
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

func (c *commandContext) newLogger() *slog.Logger {
	level := "warn"
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		level = strings.TrimSpace(*c.logLevelFlag)
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      "text",
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

// withApp opens the store for the duration of fn. The store takes an advisory
// lock, so each command holds it as briefly as possible.
func (c *commandContext) withApp(fn func(*app.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger := c.newLogger()
	st, err := store.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(app.New(st, cfg, logger))
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
