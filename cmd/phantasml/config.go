// SPDX-License-Identifier: Unlicense OR MIT

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/ey6es/phantasml-sub002/pbrrn"
)

// Config is the top-level shape of a phantasml YAML config file. Exactly
// one of PBRRN or BRH should be set; Mode picks which.
type Config struct {
	Mode       string        `mapstructure:"mode"`
	Steps      int           `mapstructure:"steps"`
	Reward     float32       `mapstructure:"reward"`
	PrintEvery int           `mapstructure:"printEvery"`
	Debug      DebugConfig   `mapstructure:"debug"`
	PBRRN      *ModelConfig  `mapstructure:"pbrrn"`
	BRH        []LevelConfig `mapstructure:"brh"`
}

// ModelConfig mirrors pbrrn.Options for YAML loading.
type ModelConfig struct {
	Width             int     `mapstructure:"width"`
	Height            int     `mapstructure:"height"`
	ProbabilityLimit  float32 `mapstructure:"probabilityLimit"`
	HistoryDecayRate  float32 `mapstructure:"historyDecayRate"`
	DisableSelfInputs bool    `mapstructure:"disableSelfInputs"`
}

// Options converts a ModelConfig into pbrrn.Options, applying defaults for
// anything left at its YAML zero value.
func (m ModelConfig) Options() pbrrn.Options {
	o := pbrrn.Options{
		Width:             m.Width,
		Height:            m.Height,
		ProbabilityLimit:  m.ProbabilityLimit,
		HistoryDecayRate:  m.HistoryDecayRate,
		DisableSelfInputs: m.DisableSelfInputs,
	}
	defaults := pbrrn.DefaultOptions()
	if o.ProbabilityLimit == 0 {
		o.ProbabilityLimit = defaults.ProbabilityLimit
	}
	if o.HistoryDecayRate == 0 {
		o.HistoryDecayRate = defaults.HistoryDecayRate
	}
	return o
}

// LevelConfig mirrors brh.Level for YAML loading: a ModelConfig plus the
// edge-strip widths connecting that depth to its parent.
type LevelConfig struct {
	ModelConfig      `mapstructure:",squash"`
	ParentInputBits  int `mapstructure:"parentInputBits"`
	ParentOutputBits int `mapstructure:"parentOutputBits"`
}

// DebugConfig controls the optional visualiser websocket server.
type DebugConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Addr       string           `mapstructure:"addr"`
	Locations  []LocationConfig `mapstructure:"locations"`
	NodePath   string           `mapstructure:"nodePath"`
	TextureTap string           `mapstructure:"textureTap"`
}

// LocationConfig is one tracked (x,y) cell.
type LocationConfig struct {
	X int `mapstructure:"x"`
	Y int `mapstructure:"y"`
}

// loadConfig reads path with viper, the way the example pack's
// reinforcement.FromYaml does: a fresh *viper.Viper per call (no global
// singleton, so re-reading a different file in tests or a second run never
// observes stale state), split into directory and base name so viper can
// watch either, decoded straight into Config via mapstructure tags.
func loadConfig(path string) (*Config, error) {
	vp := viper.New()
	vp.SetConfigFile(filepath.Base(path))
	vp.SetConfigType("yaml")
	vp.AddConfigPath(filepath.Dir(path))
	if err := vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("phantasml: reading config %s: %w", path, err)
	}
	cfg := &Config{PrintEvery: 1}
	if err := vp.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("phantasml: decoding config: %w", err)
	}
	if cfg.Steps < 1 {
		return nil, fmt.Errorf("phantasml: config steps=%d must be >= 1", cfg.Steps)
	}
	if cfg.PrintEvery < 1 {
		cfg.PrintEvery = 1
	}
	return cfg, nil
}
