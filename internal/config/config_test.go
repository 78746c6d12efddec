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
	"os"
	"testing"
)

// fakeStore keeps the token in memory so tests never touch the OS keyring.
type fakeStore struct{ m map[string]string }

func (f *fakeStore) Get(service, key string) (string, error)   { return f.m[service+"/"+key], nil }
func (f *fakeStore) Set(service, key, value string) error      { f.m[service+"/"+key] = value; return nil }
func (f *fakeStore) Delete(service, key string) error          { delete(f.m, service+"/"+key); return nil }

func withFakeKeyring(t *testing.T) *fakeStore {
	t.Helper()
	old := tokenStore
	f := &fakeStore{m: map[string]string{}}
	tokenStore = f
	t.Cleanup(func() { tokenStore = old })
	return f
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Sync.DebounceMs != 50 || cfg.Sync.Threshold != 0.003 || cfg.Sync.PollMs != 100 {
		t.Fatalf("unexpected sync defaults: %#v", cfg.Sync)
	}
	if !cfg.Sync.Enabled {
		t.Fatal("sync should be enabled by default")
	}
	if cfg.Editor.FontSize != 12 || cfg.Editor.AutoSaveIntervalS != 60 {
		t.Fatalf("unexpected editor defaults: %#v", cfg.Editor)
	}
}

func TestEnvOverridesBackendURL(t *testing.T) {
	withFakeKeyring(t)
	old := os.Getenv(EnvBackendURL)
	_ = os.Setenv(EnvBackendURL, "https://example.test:8443")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendURL, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.BaseURL, "https://example.test:8443"; got != want {
		t.Fatalf("Backend.BaseURL = %q, want %q", got, want)
	}
}

func TestEnvOverridesLocaleAndSync(t *testing.T) {
	withFakeKeyring(t)
	oldLoc := os.Getenv(EnvLocale)
	oldSync := os.Getenv(EnvSyncEnabled)
	_ = os.Setenv(EnvLocale, "de")
	_ = os.Setenv(EnvSyncEnabled, "0")
	t.Cleanup(func() {
		_ = os.Setenv(EnvLocale, oldLoc)
		_ = os.Setenv(EnvSyncEnabled, oldSync)
	})
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.General.Locale != "de" {
		t.Fatalf("Locale = %q, want de", cfg.General.Locale)
	}
	if cfg.Sync.Enabled {
		t.Fatal("Sync.Enabled expected false from env override")
	}
}

func TestMergeSyncTunables(t *testing.T) {
	cfg := Defaults()
	data := []byte("sync:\n  debounce_ms: 80\n  threshold: 0.01\n  settle_ms: 250\n")
	if err := mergeFile(&cfg, data); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.Sync.DebounceMs != 80 || cfg.Sync.Threshold != 0.01 || cfg.Sync.SettleMs != 250 {
		t.Fatalf("sync tunables not merged: %#v", cfg.Sync)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	cfg := Defaults()
	data := []byte("logging:\n  level: DEBUG\n  format: json\n  source: true\n  file: /tmp/mdpad.log\n")
	if err := mergeFile(&cfg, data); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "/tmp/mdpad.log" {
		t.Fatalf("logging fields not merged correctly: %#v", cfg.Logging)
	}
}

func TestMergePartialFileKeepsBoolDefaults(t *testing.T) {
	cfg := Defaults()
	data := []byte("general:\n  locale: de\n")
	if err := mergeFile(&cfg, data); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.General.Locale != "de" {
		t.Fatalf("Locale = %q, want de", cfg.General.Locale)
	}
	if !cfg.Sync.Enabled {
		t.Fatal("Sync.Enabled flipped to false by a file that never mentions it")
	}
	if !cfg.Editor.ShowLineNumbers {
		t.Fatal("Editor.ShowLineNumbers flipped to false by a file that never mentions it")
	}
}

func TestMergeExplicitFalseWins(t *testing.T) {
	cfg := Defaults()
	data := []byte("sync:\n  enabled: false\neditor:\n  show_line_numbers: false\n")
	if err := mergeFile(&cfg, data); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.Sync.Enabled {
		t.Fatal("explicit sync.enabled: false ignored")
	}
	if cfg.Editor.ShowLineNumbers {
		t.Fatal("explicit editor.show_line_numbers: false ignored")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	f := withFakeKeyring(t)
	if err := tokenStore.Set(keyringService, keyringToken, "s3cret"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := tokenStore.Get(keyringService, keyringToken)
	if err != nil || got != "s3cret" {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if err := DeleteToken(); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if len(f.m) != 0 {
		t.Fatalf("token not deleted: %v", f.m)
	}
}

func TestEnvOverrideFor(t *testing.T) {
	old := os.Getenv(EnvLogLevel)
	_ = os.Setenv(EnvLogLevel, "error")
	t.Cleanup(func() { _ = os.Setenv(EnvLogLevel, old) })
	if env, ok := EnvOverrideFor("logging.level"); !ok || env != EnvLogLevel {
		t.Fatalf("EnvOverrideFor(logging.level) = %q, %v", env, ok)
	}
	if _, ok := EnvOverrideFor("nonexistent.key"); ok {
		t.Fatal("unexpected override for unknown key")
	}
}
