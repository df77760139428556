package config

import (
	"fmt"
)

var validAlgorithms = map[string]bool{
	"majority":  true,
	"weighted":  true,
	"unanimous": true,
	"quorum":    true,
}

var validDrivers = map[string]bool{
	"none":     true,
	"file":     true,
	"postgres": true,
}

// Validate checks a configuration for values the engine cannot operate
// with. It returns the first problem found.
func Validate(cfg *Config) error {
	d := cfg.Debate
	if !validAlgorithms[d.Algorithm] {
		return fmt.Errorf("debate.algorithm: unknown algorithm %q", d.Algorithm)
	}
	if d.QuorumThreshold <= 0 || d.QuorumThreshold > 1 {
		return fmt.Errorf("debate.quorum_threshold: %v outside (0, 1]", d.QuorumThreshold)
	}
	if d.WeightedMargin < 0 || d.WeightedMargin >= 1 {
		return fmt.Errorf("debate.weighted_margin: %v outside [0, 1)", d.WeightedMargin)
	}
	if d.MaxRounds < 1 {
		return fmt.Errorf("debate.max_rounds: %d must be at least 1", d.MaxRounds)
	}
	if d.TurnTimeoutSeconds < 1 {
		return fmt.Errorf("debate.turn_timeout_seconds: %d must be at least 1", d.TurnTimeoutSeconds)
	}
	if d.MaxMediationAttempts < 1 {
		return fmt.Errorf("debate.max_mediation_attempts: %d must be at least 1", d.MaxMediationAttempts)
	}
	if d.AppealWindowHours < 1 {
		return fmt.Errorf("debate.appeal_window_hours: %d must be at least 1", d.AppealWindowHours)
	}
	if d.MaxClaimLength < 1 {
		return fmt.Errorf("debate.max_claim_length: %d must be at least 1", d.MaxClaimLength)
	}

	p := cfg.Persistence
	if !validDrivers[p.Driver] {
		return fmt.Errorf("persistence.driver: unknown driver %q", p.Driver)
	}
	if p.Driver == "file" && p.Dir == "" {
		return fmt.Errorf("persistence.dir: required for the file driver")
	}
	if p.Driver == "postgres" && p.DatabaseURL == "" {
		return fmt.Errorf("persistence.database_url: required for the postgres driver")
	}
	return nil
}
