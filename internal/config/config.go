// Package config loads engine configuration from file and environment via
// viper. Values here are process-wide defaults; each debate carries its
// own copy resolved at creation time, so a config reload never changes a
// debate mid-flight.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete praetor configuration.
type Config struct {
	Debate      DebateConfig      `mapstructure:"debate"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	Server      ServerConfig      `mapstructure:"server"`
}

// DebateConfig holds the per-debate defaults applied when a caller does
// not override them at initiation.
type DebateConfig struct {
	// Algorithm selects the consensus algorithm.
	// Options: "majority", "weighted", "unanimous", "quorum"
	Algorithm string `mapstructure:"algorithm"`
	// QuorumThreshold is the agreeing fraction of registered participants
	// required under the quorum algorithm.
	QuorumThreshold float64 `mapstructure:"quorum_threshold"`
	// WeightedMargin is the minimum normalized lead required under the
	// weighted algorithm.
	WeightedMargin float64 `mapstructure:"weighted_margin"`
	// MaxRounds bounds deliberation before voting is forced.
	MaxRounds int `mapstructure:"max_rounds"`
	// TurnTimeoutSeconds is the per-turn speaking timeout.
	TurnTimeoutSeconds int `mapstructure:"turn_timeout_seconds"`
	// MaxMediationAttempts bounds the mediation ladder before human escalation.
	MaxMediationAttempts int `mapstructure:"max_mediation_attempts"`
	// AppealWindowHours is how long after a verdict an appeal is admissible.
	AppealWindowHours int `mapstructure:"appeal_window_hours"`
	// MaxClaimLength bounds argument claim text, in bytes.
	MaxClaimLength int `mapstructure:"max_claim_length"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	// Level is one of DEBUG, INFO, WARN, ERROR.
	Level string `mapstructure:"level"`
	// Dir is where engine.log is written; empty means stderr.
	Dir string `mapstructure:"dir"`
}

// PersistenceConfig selects the audit store.
type PersistenceConfig struct {
	// Driver is one of "none", "file", "postgres".
	Driver string `mapstructure:"driver"`
	// Dir is the archive directory for the file driver.
	Dir string `mapstructure:"dir"`
	// DatabaseURL is the Postgres connection string for the postgres driver.
	DatabaseURL string `mapstructure:"database_url"`
}

// ServerConfig controls the optional HTTP adapter.
type ServerConfig struct {
	// ListenAddr is the address `praetor serve` binds to.
	ListenAddr string `mapstructure:"listen_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debate: DebateConfig{
			Algorithm:            "majority",
			QuorumThreshold:      0.66,
			WeightedMargin:       0.1,
			MaxRounds:            5,
			TurnTimeoutSeconds:   30,
			MaxMediationAttempts: 2,
			AppealWindowHours:    24,
			MaxClaimLength:       4000,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Persistence: PersistenceConfig{
			Driver: "none",
		},
		Server: ServerConfig{
			ListenAddr: ":8713",
		},
	}
}

// TurnTimeout returns the per-turn timeout as a duration.
func (d DebateConfig) TurnTimeout() time.Duration {
	return time.Duration(d.TurnTimeoutSeconds) * time.Second
}

// AppealWindow returns the appeal window as a duration.
func (d DebateConfig) AppealWindow() time.Duration {
	return time.Duration(d.AppealWindowHours) * time.Hour
}

// Load reads configuration from praetor.yaml in the given directory (or
// the current directory when empty), layered over Default. Environment
// variables prefixed PRAETOR_ override both, with dots replaced by
// underscores (PRAETOR_DEBATE_MAX_ROUNDS). A missing config file is not
// an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("praetor")
	v.SetConfigType("yaml")
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)

	v.SetEnvPrefix("PRAETOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers defaults so env-only overrides still unmarshal
// complete structs.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("debate.algorithm", cfg.Debate.Algorithm)
	v.SetDefault("debate.quorum_threshold", cfg.Debate.QuorumThreshold)
	v.SetDefault("debate.weighted_margin", cfg.Debate.WeightedMargin)
	v.SetDefault("debate.max_rounds", cfg.Debate.MaxRounds)
	v.SetDefault("debate.turn_timeout_seconds", cfg.Debate.TurnTimeoutSeconds)
	v.SetDefault("debate.max_mediation_attempts", cfg.Debate.MaxMediationAttempts)
	v.SetDefault("debate.appeal_window_hours", cfg.Debate.AppealWindowHours)
	v.SetDefault("debate.max_claim_length", cfg.Debate.MaxClaimLength)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.dir", cfg.Logging.Dir)
	v.SetDefault("persistence.driver", cfg.Persistence.Driver)
	v.SetDefault("persistence.dir", cfg.Persistence.Dir)
	v.SetDefault("persistence.database_url", cfg.Persistence.DatabaseURL)
	v.SetDefault("server.listen_addr", cfg.Server.ListenAddr)
}
