package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings holds the tunables for the favorites engine. Defaults mirror the
// hard-coded values the feature shipped with; a workspace config.toml or
// STARKEEP_* environment variables can override them.
type Settings struct {
	ItemsPerPage  int
	BatchSize     int
	SwitchTimeout time.Duration
	ClearBudget   time.Duration
	ClearInterval time.Duration
	BatchYield    time.Duration
	RefreshDelay  time.Duration
	SweepInterval time.Duration
	SettleDelay   time.Duration
	Notifications bool
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		ItemsPerPage:  5,
		BatchSize:     20,
		SwitchTimeout: 5 * time.Second,
		ClearBudget:   2000 * time.Millisecond,
		ClearInterval: 50 * time.Millisecond,
		BatchYield:    16 * time.Millisecond,
		RefreshDelay:  150 * time.Millisecond,
		SweepInterval: 15 * time.Second,
		SettleDelay:   100 * time.Millisecond,
		Notifications: true,
	}
}

// LoadSettings resolves settings for a workspace: defaults, then
// .starkeep/config.toml if present, then STARKEEP_ environment overrides.
func LoadSettings(workspaceRoot string) (Settings, error) {
	k := koanf.New(".")

	defaults := DefaultSettings()
	k.Load(confmap.Provider(map[string]interface{}{
		"panel.items_per_page":      defaults.ItemsPerPage,
		"preview.batch_size":        defaults.BatchSize,
		"preview.switch_timeout_ms": int(defaults.SwitchTimeout / time.Millisecond),
		"preview.clear_budget_ms":   int(defaults.ClearBudget / time.Millisecond),
		"preview.clear_interval_ms": int(defaults.ClearInterval / time.Millisecond),
		"preview.batch_yield_ms":    int(defaults.BatchYield / time.Millisecond),
		"sync.refresh_delay_ms":     int(defaults.RefreshDelay / time.Millisecond),
		"sync.sweep_interval_ms":    int(defaults.SweepInterval / time.Millisecond),
		"host.settle_delay_ms":      int(defaults.SettleDelay / time.Millisecond),
		"notify.enabled":            defaults.Notifications,
	}, "."), nil)

	if workspaceRoot != "" {
		cfgPath := filepath.Join(workspaceRoot, ".starkeep", "config.toml")
		if _, err := os.Stat(cfgPath); err == nil {
			if err := k.Load(file.Provider(cfgPath), toml.Parser()); err != nil {
				return Settings{}, fmt.Errorf("load config: %w", err)
			}
		}
	}

	k.Load(env.Provider("STARKEEP_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "STARKEEP_")
		return strings.Replace(strings.ToLower(s), "_", ".", 1)
	}), nil)

	ms := func(key string) time.Duration {
		return time.Duration(k.Int(key)) * time.Millisecond
	}

	return Settings{
		ItemsPerPage:  k.Int("panel.items_per_page"),
		BatchSize:     k.Int("preview.batch_size"),
		SwitchTimeout: ms("preview.switch_timeout_ms"),
		ClearBudget:   ms("preview.clear_budget_ms"),
		ClearInterval: ms("preview.clear_interval_ms"),
		BatchYield:    ms("preview.batch_yield_ms"),
		RefreshDelay:  ms("sync.refresh_delay_ms"),
		SweepInterval: ms("sync.sweep_interval_ms"),
		SettleDelay:   ms("host.settle_delay_ms"),
		Notifications: k.Bool("notify.enabled"),
	}, nil
}
