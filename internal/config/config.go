/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in
// the user scope. Environment variables are treated as read-only overrides
// at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.

type GeneralConfig struct {
	Theme          string `yaml:"theme"`  // "system" | "light" | "dark"
	Locale         string `yaml:"locale"` // BCP 47 tag, e.g. "en", "de"
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	EnableServer   bool   `yaml:"enable_server"`
}

type EditorConfig struct {
	FontSize          int  `yaml:"font_size"`
	ShowLineNumbers   bool `yaml:"show_line_numbers"`
	AutoSave          bool `yaml:"auto_save"`
	AutoSaveIntervalS int  `yaml:"auto_save_interval_s"`
}

// SyncConfig exposes the scroll synchronization tunables. The timing values
// are empirically chosen defaults, not load-bearing constants.
type SyncConfig struct {
	Enabled     bool    `yaml:"enabled"`
	DebounceMs  int     `yaml:"debounce_ms"`
	Threshold   float64 `yaml:"threshold"`
	PollMs      int     `yaml:"poll_ms"`
	SettleMs    int     `yaml:"settle_ms"`
	CmdSettleMs int     `yaml:"cmd_settle_ms"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	PostgresDSN string `yaml:"postgres_dsn"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Sync          SyncConfig    `yaml:"sync"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", Locale: "en", TelemetryOptIn: false, EnableServer: false},
		Editor:        EditorConfig{FontSize: 12, ShowLineNumbers: true, AutoSave: false, AutoSaveIntervalS: 60},
		Sync:          SyncConfig{Enabled: true, DebounceMs: 50, Threshold: 0.003, PollMs: 100, SettleMs: 150, CmdSettleMs: 100},
		Backend:       BackendConfig{BaseURL: "http://localhost:8080", TimeoutMs: 15000, TLSInsecure: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendURL       = "MDP_BACKEND_URL"
	EnvBackendPgDSN     = "MDP_BACKEND_PG_DSN"
	EnvBackendTimeoutMs = "MDP_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "MDP_TLS_INSECURE"
	EnvTelemetryOptIn   = "MDP_TELEMETRY_OPT_IN"
	EnvEnableServer     = "MDP_ENABLE_SERVER"
	EnvLocale           = "MDP_LOCALE"
	EnvSyncEnabled      = "MDP_SYNC_ENABLED"
	// Logging envs
	EnvLogLevel  = "MDP_LOG_LEVEL"
	EnvLogFormat = "MDP_LOG_FORMAT"
	EnvLogSource = "MDP_LOG_SOURCE"
	EnvLogFile   = "MDP_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "mdpad"
	keyringToken   = "backend_token"
)

// tokenStore abstracts the OS keyring so tests can stub it.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "mdpad")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "mdpad")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "mdpad")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The backend token is loaded from the OS keyring and
// returned separately; it is never kept inside AppConfig.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		_ = mergeFile(&cfg, data)
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// DeleteToken removes the backend token from the OS keyring.
func DeleteToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

// fileConfig mirrors AppConfig with pointer booleans so a key omitted from
// the YAML file is distinguishable from an explicit false. Without this, a
// partial config file would silently disable default-on settings.
type fileConfig struct {
	ConfigVersion int `yaml:"config_version"`
	General       struct {
		Theme          string `yaml:"theme"`
		Locale         string `yaml:"locale"`
		TelemetryOptIn *bool  `yaml:"telemetry_opt_in"`
		EnableServer   *bool  `yaml:"enable_server"`
	} `yaml:"general"`
	Editor struct {
		FontSize          int   `yaml:"font_size"`
		ShowLineNumbers   *bool `yaml:"show_line_numbers"`
		AutoSave          *bool `yaml:"auto_save"`
		AutoSaveIntervalS int   `yaml:"auto_save_interval_s"`
	} `yaml:"editor"`
	Sync struct {
		Enabled     *bool   `yaml:"enabled"`
		DebounceMs  int     `yaml:"debounce_ms"`
		Threshold   float64 `yaml:"threshold"`
		PollMs      int     `yaml:"poll_ms"`
		SettleMs    int     `yaml:"settle_ms"`
		CmdSettleMs int     `yaml:"cmd_settle_ms"`
	} `yaml:"sync"`
	Backend struct {
		BaseURL     string `yaml:"base_url"`
		PostgresDSN string `yaml:"postgres_dsn"`
		TimeoutMs   int    `yaml:"timeout_ms"`
		TLSInsecure *bool  `yaml:"tls_insecure"`
	} `yaml:"backend"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Source *bool  `yaml:"source"`
		File   string `yaml:"file"`
	} `yaml:"logging"`
}

func mergeFile(dst *AppConfig, data []byte) error {
	var src fileConfig
	if err := yaml.Unmarshal(data, &src); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// general
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	if src.General.Locale != "" {
		dst.General.Locale = src.General.Locale
	}
	if src.General.TelemetryOptIn != nil {
		dst.General.TelemetryOptIn = *src.General.TelemetryOptIn
	}
	if src.General.EnableServer != nil {
		dst.General.EnableServer = *src.General.EnableServer
	}
	// editor
	if src.Editor.FontSize != 0 {
		dst.Editor.FontSize = src.Editor.FontSize
	}
	if src.Editor.ShowLineNumbers != nil {
		dst.Editor.ShowLineNumbers = *src.Editor.ShowLineNumbers
	}
	if src.Editor.AutoSave != nil {
		dst.Editor.AutoSave = *src.Editor.AutoSave
	}
	if src.Editor.AutoSaveIntervalS != 0 {
		dst.Editor.AutoSaveIntervalS = src.Editor.AutoSaveIntervalS
	}
	// sync
	if src.Sync.Enabled != nil {
		dst.Sync.Enabled = *src.Sync.Enabled
	}
	if src.Sync.DebounceMs != 0 {
		dst.Sync.DebounceMs = src.Sync.DebounceMs
	}
	if src.Sync.Threshold != 0 {
		dst.Sync.Threshold = src.Sync.Threshold
	}
	if src.Sync.PollMs != 0 {
		dst.Sync.PollMs = src.Sync.PollMs
	}
	if src.Sync.SettleMs != 0 {
		dst.Sync.SettleMs = src.Sync.SettleMs
	}
	if src.Sync.CmdSettleMs != 0 {
		dst.Sync.CmdSettleMs = src.Sync.CmdSettleMs
	}
	// backend
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.PostgresDSN != "" {
		dst.Backend.PostgresDSN = src.Backend.PostgresDSN
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	if src.Backend.TLSInsecure != nil {
		dst.Backend.TLSInsecure = *src.Backend.TLSInsecure
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	if src.Logging.Source != nil {
		dst.Logging.Source = *src.Logging.Source
	}
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendPgDSN)); v != "" {
		cfg.Backend.PostgresDSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTLSInsec)); v != "" {
		cfg.Backend.TLSInsecure = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		cfg.General.TelemetryOptIn = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLocale)); v != "" {
		cfg.General.Locale = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvSyncEnabled)); v != "" {
		cfg.Sync.Enabled = truthy(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "backend.base_url":
		env = EnvBackendURL
	case "backend.postgres_dsn":
		env = EnvBackendPgDSN
	case "backend.timeout_ms":
		env = EnvBackendTimeoutMs
	case "backend.tls_insecure":
		env = EnvBackendTLSInsec
	case "general.telemetry_opt_in":
		env = EnvTelemetryOptIn
	case "general.enable_server":
		env = EnvEnableServer
	case "general.locale":
		env = EnvLocale
	case "sync.enabled":
		env = EnvSyncEnabled
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}

// EffectiveTimeout returns the backend timeout as a duration string for http.Client setup.
func (b BackendConfig) EffectiveTimeout() string {
	if b.TimeoutMs <= 0 {
		return fmt.Sprintf("%dms", Defaults().Backend.TimeoutMs)
	}
	return fmt.Sprintf("%dms", b.TimeoutMs)
}
