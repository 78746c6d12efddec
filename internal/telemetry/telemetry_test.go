/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package telemetry

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

func TestClientEventAndUploadCrash(t *testing.T) {
	var mu sync.Mutex
	var events [][]byte
	var crashes [][]byte

	mux := http.NewServeMux()
	mux.HandleFunc("/events", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		events = append(events, append([]byte(nil), b...))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/crash", func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()
		mu.Lock()
		crashes = append(crashes, append([]byte(nil), b...))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := Config{OptIn: true, EventsURL: srv.URL + "/events", CrashURL: srv.URL + "/crash", Timeout: 2 * time.Second}
	c := New(cfg)
	defer c.Close()

	if !c.Enabled() {
		t.Fatalf("expected client to be enabled")
	}

	c.DocumentExported("pdf")
	c.Flush(context.Background())

	c.UploadCrash([]byte("panic: boom"))

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		ne, nc := len(events), len(crashes)
		mu.Unlock()
		if ne >= 1 && nc >= 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting: events=%d crashes=%d", ne, nc)
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	var ev map[string]any
	if err := json.Unmarshal(events[0], &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if ev["name"] != "document_exported" || ev["format"] != "pdf" {
		t.Fatalf("unexpected event payload: %v", ev)
	}
	if ev["version"] == "" || ev["os"] == "" {
		t.Fatalf("missing build fields in payload: %v", ev)
	}
	if string(crashes[0]) != "panic: boom" {
		t.Fatalf("unexpected crash body: %q", crashes[0])
	}
}

func TestClientDisabledDropsEverything(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer srv.Close()

	c := New(Config{OptIn: false, EventsURL: srv.URL, CrashURL: srv.URL, Timeout: time.Second})
	defer c.Close()

	if c.Enabled() {
		t.Fatal("client should be disabled")
	}
	c.DocumentSaved()
	c.SearchPerformed("local")
	c.UploadCrash([]byte("ignored"))
	c.Flush(context.Background())
	time.Sleep(50 * time.Millisecond)
	if hits != 0 {
		t.Fatalf("server got %d hits, want 0", hits)
	}
}

func TestOptInWithoutURLIsNoop(t *testing.T) {
	c := New(Config{OptIn: true, Timeout: time.Second})
	defer c.Close()
	if c.Enabled() {
		t.Fatal("no endpoint configured, should be disabled")
	}
}

func TestInitFromConfigHonorsFileOptIn(t *testing.T) {
	t.Setenv("MDP_TELEMETRY_OPT_IN", "")
	t.Setenv("MDP_TELEMETRY_URL", "https://example.test/events")
	InitFromConfig(true)
	if !Enabled() {
		t.Fatal("config file opt-in should enable telemetry")
	}
	InitFromConfig(false)
	if Enabled() {
		t.Fatal("telemetry enabled without any opt-in")
	}
}

func TestFromEnvParsesTimeout(t *testing.T) {
	t.Setenv("MDP_TELEMETRY_OPT_IN", "yes")
	t.Setenv("MDP_TELEMETRY_URL", "https://example.test/events")
	t.Setenv("MDP_TELEMETRY_TIMEOUT_MS", "250")
	cfg := FromEnv()
	if !cfg.OptIn || cfg.EventsURL != "https://example.test/events" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Fatalf("Timeout = %v, want 250ms", cfg.Timeout)
	}
}
