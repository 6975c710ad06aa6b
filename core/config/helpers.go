package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// GetAllSettings returns the non-secret settings currently loaded in memory.
func GetAllSettings() map[string]any {
	if Global == nil {
		return map[string]any{}
	}
	return map[string]any{
		"app_debug":                    Global.App.Debug,
		"app_version":                  Global.App.Version,
		"db_driver":                    Global.Database.Driver,
		"valkey_enabled":               Global.Valkey.Enabled,
		"scheduler_enabled":            Global.Scheduler.Enabled,
		"scheduler_sweep_spec":         Global.Scheduler.SweepSpec,
		"scheduler_claim_ttl":          Global.Scheduler.ClaimTTL.String(),
		"scheduler_conflict_window":    Global.Scheduler.ConflictWindow.String(),
		"scheduler_auto_resolve":       Global.Scheduler.AutoResolve,
		"scheduler_batch_size":         Global.Scheduler.BatchSize,
		"scheduler_resolve_attempts":   Global.Scheduler.ResolveAttempts,
		"optimizer_default_range_days": Global.Optimizer.DefaultRangeDays,
		"notify_webhooks":              len(Global.Notify.WebhookURLs),
		"notify_nats":                  Global.Notify.NatsURL != "",
		"insights_enabled":             Global.Insights.BaseURL != "",
	}
}

// Helpers
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		vLower := strings.ToLower(v)
		return vLower == "1" || vLower == "true" || vLower == "yes" || vLower == "on"
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
