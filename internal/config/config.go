// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates gradewatch's process-wide
// configuration (spec.md §6). It is read once at startup via
// github.com/spf13/viper, layering environment variables over an optional
// settings file, and handed to every constructor explicitly — never
// consulted from arbitrary call sites as a global singleton, per Design
// Notes §9 "Global configuration."
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully validated, immutable configuration for one process
// run.
type Config struct {
	APIKey    string
	APISecret string
	APIDomain string

	ScrapeTimes []string

	StoragePath      string
	StorageTimeout   time.Duration
	RetryMaxAttempts int
	RetryDelay       time.Duration

	JournalPath           string
	JournalRetentionDays  int

	Notifications map[string]map[string]string

	HealthcheckURL string
	LogLevel       string
}

// defaults mirrors the default column of spec.md §6's configuration table.
func defaults(v *viper.Viper) {
	v.SetDefault("storage.timeout_ms", 30000)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.delay_ms", 5000)
	v.SetDefault("journal.retention_days", 90)
	v.SetDefault("log.level", "info")
}

// Load builds a Config from environment variables and, if present, a
// settings file at path (empty path skips file loading). Returns a wrapped
// error on any missing-required-value or malformed-value condition; the
// caller is expected to treat that as a fatal configuration error (exit 1),
// per spec.md §7.
func Load(path string) (Config, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	cfg := Config{
		APIKey:               v.GetString("api.key"),
		APISecret:            v.GetString("api.secret"),
		APIDomain:            v.GetString("api.domain"),
		StoragePath:          v.GetString("storage.path"),
		StorageTimeout:       time.Duration(v.GetInt("storage.timeout_ms")) * time.Millisecond,
		RetryMaxAttempts:     v.GetInt("retry.max_attempts"),
		RetryDelay:           time.Duration(v.GetInt("retry.delay_ms")) * time.Millisecond,
		JournalPath:          v.GetString("journal.path"),
		JournalRetentionDays: v.GetInt("journal.retention_days"),
		HealthcheckURL:       v.GetString("healthcheck.url"),
		LogLevel:             v.GetString("log.level"),
	}

	if raw := v.GetString("scrape_times"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			cfg.ScrapeTimes = append(cfg.ScrapeTimes, strings.TrimSpace(t))
		}
	}

	cfg.Notifications = parseNotifications(v)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// parseNotifications extracts every notifications.<provider>.<key> entry
// into a nested map, since the set of providers and their keys is not
// known up front. This only sees keys viper already knows about — i.e.
// ones present in the settings file — because AutomaticEnv cannot discover
// arbitrary unbound environment variable names. The provider constructors
// in internal/notify/providers do not read the environment either, so
// provider settings come from the settings file only.
func parseNotifications(v *viper.Viper) map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, key := range v.AllKeys() {
		const prefix = "notifications."
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		rest := strings.TrimPrefix(key, prefix)
		parts := strings.SplitN(rest, ".", 2)
		if len(parts) != 2 {
			continue
		}

		provider, field := parts[0], parts[1]
		if out[provider] == nil {
			out[provider] = map[string]string{}
		}
		out[provider][field] = v.GetString(key)
	}

	return out
}

func (c Config) validate() error {
	if c.APIKey == "" || c.APISecret == "" || c.APIDomain == "" {
		return fmt.Errorf("config: api.key, api.secret, and api.domain are all required")
	}
	if c.StoragePath == "" {
		return fmt.Errorf("config: storage.path is required")
	}
	if c.JournalPath == "" {
		return fmt.Errorf("config: journal.path is required")
	}
	if c.RetryMaxAttempts < 1 {
		return fmt.Errorf("config: retry.max_attempts must be >= 1, got %d", c.RetryMaxAttempts)
	}
	if c.JournalRetentionDays < 0 {
		return fmt.Errorf("config: journal.retention_days must be >= 0, got %d", c.JournalRetentionDays)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level must be one of debug|info|warn|error, got %q", c.LogLevel)
	}

	for _, t := range c.ScrapeTimes {
		var hour, minute int
		if _, err := fmt.Sscanf(t, "%d:%d", &hour, &minute); err != nil {
			return fmt.Errorf("config: malformed scrape_times entry %q: %w", t, err)
		}
		if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
			return fmt.Errorf("config: scrape_times entry %q out of range", t)
		}
	}

	return nil
}

// NotificationAvailable reports whether provider has any configuration at
// all, the narrowest useful precondition check a Provider's Available
// method can delegate to.
func (c Config) NotificationAvailable(provider string) bool {
	fields, ok := c.Notifications[provider]

	return ok && len(fields) > 0
}
