/*
Package config manages TOML config for the keypredict engine and its
demo IPC server.

InitConfig handles automatic config file creation and loading with fallback to defaults.
LoadConfig and SaveConfig provide direct fs access for runtime changes.
Update allows targeted parameter changes with persistence.
*/
package config

import (
	"fmt"
	"path/filepath"

	"github.com/bastiangx/keypredict/internal/utils"
	"github.com/charmbracelet/log"
)

// Config holds the entire config structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Engine   EngineConfig   `toml:"engine"`
	Personal PersonalConfig `toml:"personal"`
	Ngram    NgramConfig    `toml:"ngram"`
	CLI      CliConfig      `toml:"cli"`
}

// ServerConfig has demo-server (cmd/keyserve) related options.
type ServerConfig struct {
	MaxLimit     int  `toml:"max_limit"`
	MinPrefix    int  `toml:"min_prefix"`
	EnableFilter bool `toml:"enable_filter"`
}

// EngineConfig holds suggestion-engine scoring and cap knobs.
type EngineConfig struct {
	MaxSuggestions    int     `toml:"max_suggestions"`
	MaxSpellSuggestions int   `toml:"max_spell_suggestions"`
	AutoCommitConfidence float64 `toml:"auto_commit_confidence"`
	AutoCommitMinFreq int     `toml:"auto_commit_min_freq"`
	MaxEditDistance   int     `toml:"max_edit_distance"`
	MaxSweepCandidates int    `toml:"max_sweep_candidates"`
}

// PersonalConfig holds personal-store decay/saturation knobs.
type PersonalConfig struct {
	LearnIncrement       int     `toml:"learn_increment"`
	MaxFrequency         int     `toml:"max_frequency"`
	PenalizeDecay        float64 `toml:"penalize_decay"`
	MaxContextWords      int     `toml:"max_context_words"`
}

// NgramConfig holds n-gram prediction window/weighting knobs.
type NgramConfig struct {
	MaxNgramSize   int     `toml:"max_ngram_size"`
	MaxCandidates  int     `toml:"max_candidates"`
	RecencyWindow  int     `toml:"recency_window"`
	WeightTime     float64 `toml:"weight_time"`
	WeightCount    float64 `toml:"weight_count"`
	WeightHistory  float64 `toml:"weight_history"`
}

// CliConfig holds debug-REPL interface options.
type CliConfig struct {
	DefaultLimit    int  `toml:"default_limit"`
	DefaultMinLen   int  `toml:"default_min_len"`
	DefaultNoFilter bool `toml:"default_no_filter"`
}

// DefaultConfig returns a Config with the spec's default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			MaxLimit:     64,
			MinPrefix:    2,
			EnableFilter: true,
		},
		Engine: EngineConfig{
			MaxSuggestions:       5,
			MaxSpellSuggestions:  3,
			AutoCommitConfidence: 0.7,
			AutoCommitMinFreq:    100,
			MaxEditDistance:      2,
			MaxSweepCandidates:   2000,
		},
		Personal: PersonalConfig{
			LearnIncrement:  5,
			MaxFrequency:    255,
			PenalizeDecay:   0.95,
			MaxContextWords: 3,
		},
		Ngram: NgramConfig{
			MaxNgramSize:  3,
			MaxCandidates: 5,
			RecencyWindow: 300,
			WeightTime:    0.45,
			WeightCount:   0.10,
			WeightHistory: 0.45,
		},
		CLI: CliConfig{
			DefaultLimit:    5,
			DefaultMinLen:   2,
			DefaultNoFilter: false,
		},
	}
}

// InitConfig loads config from file or creates default if missing.
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)
	dirStatus := utils.CheckDirStatus(configDir)
	if dirStatus.Error != nil {
		return nil, fmt.Errorf("config dir %s: %w", configDir, dirStatus.Error)
	}
	if !dirStatus.Writable {
		log.Warnf("config dir %s is not writable, config changes will not persist", utils.GetAbsolutePath(configDir))
	}
	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			return nil, err
		}
		log.Debugf("created default config file at: ( %s )", utils.GetAbsolutePath(configPath))
		return config, nil
	}
	config, err := LoadConfig(configPath)
	if err != nil {
		log.Warnf("failed to load config, using defaults: %v", err)
		return DefaultConfig(), nil
	}
	return config, nil
}

// LoadConfig loads from a TOML file.
func LoadConfig(configPath string) (*Config, error) {
	var config Config
	if err := utils.LoadTOMLFile(configPath, &config); err != nil {
		log.Errorf("failed to decode config file: %v", err)
		return nil, err
	}
	return &config, nil
}

// SaveConfig saves into a TOML file.
func SaveConfig(config *Config, configPath string) error {
	if err := utils.SaveTOMLFile(config, configPath); err != nil {
		log.Errorf("failed to save config file: %v", err)
		return err
	}
	return nil
}

// Update changes selected engine config values and saves to file.
func (c *Config) Update(configPath string, maxSuggestions *int, autoCommitConfidence *float64, enableFilter *bool) error {
	if maxSuggestions != nil {
		c.Engine.MaxSuggestions = *maxSuggestions
	}
	if autoCommitConfidence != nil {
		c.Engine.AutoCommitConfidence = *autoCommitConfidence
	}
	if enableFilter != nil {
		c.Server.EnableFilter = *enableFilter
	}
	return SaveConfig(c, configPath)
}
