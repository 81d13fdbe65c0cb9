package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "SERVER_PORT")
	unsetEnvWithCleanup(t, "PORT")
	unsetEnvWithCleanup(t, "DAILY_AMOUNT_CENTS")
	unsetEnvWithCleanup(t, "DAILY_AMOUNT")
	unsetEnvWithCleanup(t, "ALLOCATION_JOB_SCHEDULE")
	unsetEnvWithCleanup(t, "FUNDING_JOB_SCHEDULE")
	unsetEnvWithCleanup(t, "REDIS_RATE_LIMIT_PREFIX")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("expected default ServerPort 8080, got %q", cfg.ServerPort)
	}
	if cfg.DailyAmountCents != 2740 {
		t.Errorf("expected default DailyAmountCents 2740, got %d", cfg.DailyAmountCents)
	}
	if cfg.AllocationSchedule != "0 6 * * *" {
		t.Errorf("expected default allocation schedule, got %q", cfg.AllocationSchedule)
	}
	if cfg.FundingSchedule != "30 6 * * *" {
		t.Errorf("expected default funding schedule, got %q", cfg.FundingSchedule)
	}
	if cfg.RedisRateLimitPrefix != "save2740:rate_limit" {
		t.Errorf("expected default rate limit prefix, got %q", cfg.RedisRateLimitPrefix)
	}
}

func TestLoadConfig_PortOverridesServerPort(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8080")
	setEnvWithCleanup(t, "PORT", "9999")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9999" {
		t.Fatalf("expected PORT to win, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_UsesSavingsServiceInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "SAVINGS_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_InternalAPIKeyTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INTERNAL_API_KEY", "primary-key")
	setEnvWithCleanup(t, "SAVINGS_SERVICE_INTERNAL_API_KEY", "alias-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "primary-key" {
		t.Fatalf("expected InternalAPIKey to prioritize INTERNAL_API_KEY, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_DailyAmountWholeUnitsOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "DAILY_AMOUNT_CENTS", "5000")
	setEnvWithCleanup(t, "DAILY_AMOUNT", "27.40")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DailyAmountCents != 2740 {
		t.Fatalf("expected DAILY_AMOUNT=27.40 to resolve to 2740 cents, got %d", cfg.DailyAmountCents)
	}
}

func TestLoadConfig_NonPositiveDailyAmountFallsBack(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "DAILY_AMOUNT")
	setEnvWithCleanup(t, "DAILY_AMOUNT_CENTS", "-100")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.DailyAmountCents != 2740 {
		t.Fatalf("expected non-positive daily amount to fall back to 2740, got %d", cfg.DailyAmountCents)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
