package settings

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings is the top-level, immutable runtime configuration: the
// policy document plus the handful of process-level knobs the teacher's
// Config carried directly (environment name, run paths).
type Settings struct {
	Env           string
	RunID         string
	ArtifactsRoot string
	Policy        Policy
}

// Load reads .env (if present), loads the YAML policy document at
// path (when non-empty and present on disk; otherwise DefaultPolicy is
// used as the base), and layers environment variable overrides on top.
// Mirrors the teacher's Load() pattern (internal/gateway/config/config.go):
// godotenv first, then env vars win over file/defaults.
func Load(policyPath string) (*Settings, error) {
	_ = godotenv.Load()

	policy := DefaultPolicy()
	if policyPath != "" {
		if data, err := os.ReadFile(policyPath); err == nil {
			loaded := DefaultPolicy()
			if err := yaml.Unmarshal(data, &loaded); err != nil {
				return nil, fmt.Errorf("settings: parsing policy file %s: %w", policyPath, err)
			}
			policy = loaded
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("settings: reading policy file %s: %w", policyPath, err)
		}
	}

	if err := applyEnvOverrides(&policy); err != nil {
		return nil, err
	}

	env := strings.TrimSpace(os.Getenv("TAXONOMY_ENV"))
	if env == "" {
		env = "local"
	}
	runID := strings.TrimSpace(os.Getenv("TAXONOMY_RUN_ID"))
	artifactsRoot := firstNonEmpty(strings.TrimSpace(os.Getenv("TAXONOMY_ARTIFACTS_ROOT")), "artifacts")

	return &Settings{
		Env:           env,
		RunID:         runID,
		ArtifactsRoot: artifactsRoot,
		Policy:        policy,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides layers TAXONOMY_POLICY__<DOTTED.PATH> environment
// variables over the loaded policy for the handful of knobs most
// commonly tuned between runs (thresholds, LLM provider, seeds). Full
// structural overrides (lists, maps) are left to the YAML document;
// env overrides exist for scalar knee-jerk tuning, the same scope the
// teacher's config.go env layering covers.
func applyEnvOverrides(p *Policy) error {
	overrides := []struct {
		env string
		set func(string) error
	}{
		{"TAXONOMY_POLICY__LLM.PROVIDER", setString(&p.LLM.Provider)},
		{"TAXONOMY_POLICY__LLM.MODEL", setString(&p.LLM.Model)},
		{"TAXONOMY_POLICY__LLM.TEMPERATURE", setFloat(&p.LLM.Temperature)},
		{"TAXONOMY_POLICY__LLM.SEED", setInt64(&p.LLM.Seed)},
		{"TAXONOMY_POLICY__LLM.MAX_TOKENS", setInt(&p.LLM.MaxTokens)},
		{"TAXONOMY_POLICY__LLM.CALL_TIMEOUT", setDuration(&p.LLM.CallTimeout)},
		{"TAXONOMY_POLICY__LLM.RETRY_ATTEMPTS", setInt(&p.LLM.RetryAttempts)},
		{"TAXONOMY_POLICY__LLM.QUARANTINE_AFTER_ATTEMPTS", setInt(&p.LLM.QuarantineAfterAttempts)},
		{"TAXONOMY_POLICY__LLM.RATE_LIMIT_RPS", setFloat(&p.LLM.RateLimitRPS)},
		{"TAXONOMY_POLICY__DEDUP.MIN_SIMILARITY_THRESHOLD", setFloat(&p.Dedup.MinSimilarityThreshold)},
		{"TAXONOMY_POLICY__DEDUP.L0_L1_THRESHOLD", setFloat(&p.Dedup.L0L1Threshold)},
		{"TAXONOMY_POLICY__DEDUP.L2_L3_THRESHOLD", setFloat(&p.Dedup.L2L3Threshold)},
		{"TAXONOMY_POLICY__VALIDATION.TIE_BREAK_CONSERVATIVE", setBool(&p.Validation.TieBreakConservative)},
		{"TAXONOMY_POLICY__VALIDATION.TIE_BREAK_MIN_STRENGTH", setFloat(&p.Validation.TieBreakMinStrength)},
		{"TAXONOMY_POLICY__HIERARCHY.ORPHAN_POLICY", setString(&p.Hierarchy.OrphanPolicy)},
		{"TAXONOMY_POLICY__OBSERVABILITY.SEED", setInt64(&p.Observability.Seed)},
		{"TAXONOMY_POLICY__OBSERVABILITY.SAMPLING_RATE", setFloat(&p.Observability.SamplingRate)},
	}
	for _, o := range overrides {
		raw, ok := os.LookupEnv(o.env)
		if !ok || strings.TrimSpace(raw) == "" {
			continue
		}
		if err := o.set(strings.TrimSpace(raw)); err != nil {
			return fmt.Errorf("settings: invalid value for %s: %w", o.env, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error { *dst = v; return nil }
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setInt64(dst *int64) func(string) error {
	return func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setFloat(dst *float64) func(string) error {
	return func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func setDuration(dst *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}
