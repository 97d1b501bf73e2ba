// Package config loads and saves the panemux configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/panemux/panemux/internal/encoding"
)

// Config is the contents of panemux.json.
type Config struct {
	Shell             []string `json:"shell"`                       // Command spawned in each pane
	ListenHost        string   `json:"listen_host"`                 // SSH listen address
	ListenPort        int      `json:"listen_port"`                 // SSH listen port
	HostKeyPath       string   `json:"host_key_path"`               // PEM host key for the SSH server
	DefaultEncoding   string   `json:"default_encoding"`            // Encoding new panes start in
	IdleSweepSchedule string   `json:"idle_sweep_schedule"`         // Cron spec for the idle sweep, empty disables
	IdleLimitMinutes  int      `json:"idle_limit_minutes,omitempty"` // Idle minutes before a pane is reaped
	PickerKey         string   `json:"picker_key"`                  // Key that cycles the pane encoding, e.g. "ctrl+e"
}

// Default returns the configuration written on first run.
func Default() Config {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return Config{
		Shell:             []string{shell, "-l"},
		ListenHost:        "127.0.0.1",
		ListenPort:        2022,
		HostKeyPath:       "panemux_host_key",
		DefaultEncoding:   "utf-8",
		IdleSweepSchedule: "@every 1m",
		IdleLimitMinutes:  120,
		PickerKey:         "ctrl+e",
	}
}

// TriggerByte resolves PickerKey to the raw byte the session watches for.
// Accepted forms are "ctrl+x" for a control chord and a single printable
// character. Empty or unparseable values disable the key (zero byte).
func (c Config) TriggerByte() byte {
	key := strings.ToLower(strings.TrimSpace(c.PickerKey))
	if key == "" {
		return 0
	}
	if rest, ok := strings.CutPrefix(key, "ctrl+"); ok {
		if len(rest) == 1 && rest[0] >= 'a' && rest[0] <= 'z' {
			return rest[0] & 0x1f
		}
		log.Printf("WARN: Unrecognized picker key %q, trigger disabled", c.PickerKey)
		return 0
	}
	if len(key) == 1 && key[0] >= 0x20 && key[0] < 0x7f {
		return key[0]
	}
	log.Printf("WARN: Unrecognized picker key %q, trigger disabled", c.PickerKey)
	return 0
}

// Load reads the config file at path. A missing file is not an error: the
// defaults are written there and returned.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		if saveErr := Save(path, cfg); saveErr != nil {
			return cfg, fmt.Errorf("write default config: %w", saveErr)
		}
		log.Printf("INFO: Wrote default configuration to %s", path)
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if _, err := encoding.Parse(cfg.DefaultEncoding); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if len(cfg.Shell) == 0 {
		cfg.Shell = Default().Shell
	}
	return cfg, nil
}

// Save writes cfg to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Encoding resolves DefaultEncoding to its identifier. Load has already
// validated the name, so unknown values only appear when the caller built
// the Config by hand; they fall back to UTF-8.
func (c Config) Encoding() encoding.Encoding {
	enc, err := encoding.Parse(c.DefaultEncoding)
	if err != nil {
		log.Printf("WARN: Unknown default encoding %q, using UTF-8", c.DefaultEncoding)
		return encoding.Utf8
	}
	return enc
}
