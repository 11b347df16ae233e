package main

import (
	"fmt"

	"github.com/danmuck/hdmirx/internal/config"
	"github.com/danmuck/hdmirx/internal/logging"
	"github.com/rs/zerolog/log"
)

type ConfigInitCmd struct {
	Path  string `arg:"" optional:"" help:"Where to write the config" default:"hdmirx.toml" type:"path"`
	Force bool   `help:"Overwrite an existing file"`
}

func (c *ConfigInitCmd) Run() error {
	logging.ConfigureRuntime()
	if err := config.WriteTemplate(c.Path, c.Force); err != nil {
		return err
	}
	log.Info().Str("path", c.Path).Msg("config written")
	return nil
}

type ConfigValidateCmd struct {
	Path string `arg:"" help:"Config file to validate" type:"existingfile"`
}

func (c *ConfigValidateCmd) Run() error {
	logging.ConfigureRuntime()
	cfg, err := config.Load(c.Path)
	if err != nil {
		return err
	}
	sc, err := cfg.StimulusConfig()
	if err != nil {
		return err
	}
	log.Info().
		Str("path", c.Path).
		Str("node", cfg.Node).
		Int("oversample", cfg.Receiver.Oversample).
		Int("max_delay", cfg.Receiver.MaxDelay).
		Int("lock_run", cfg.Receiver.LockRun).
		Str("timing", fmt.Sprintf("%s %dx%d", sc.Timing.Name, sc.Timing.HTotal(), sc.Timing.VTotal())).
		Str("pattern", sc.Pattern.Name()).
		Msg("config ok")
	return nil
}
