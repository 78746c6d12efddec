/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package telemetry provides a tiny, privacy-respecting, opt-in sender for
// anonymous editor usage events and optional crash uploads. The event
// vocabulary is fixed: document opened, saved, exported (with the export
// format) and search performed. No paths, titles, or document content are
// ever sent.
package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	applog "mdpad/internal/log"
	"mdpad/internal/version"
)

// Config holds runtime configuration for telemetry and crash uploads.
// All telemetry is strictly opt-in and disabled by default.
//
// Environment variables (read by FromEnv):
// - MDP_TELEMETRY_OPT_IN: "1", "true", "yes" to enable metrics
// - MDP_TELEMETRY_URL: base URL to POST JSON events to
// - MDP_CRASH_UPLOAD_URL: URL to POST crash reports to
// - MDP_TELEMETRY_TIMEOUT_MS: optional request timeout, default 1500ms
// - MDP_TELEMETRY_DEBUG: if set, logs event send attempts
//
// If no URLs are set, events are dropped (no-ops), even if opt-in is true.
type Config struct {
	OptIn        bool
	EventsURL    string
	CrashURL     string
	Timeout      time.Duration
	DebugLogging bool
}

func FromEnv() Config {
	cfg := Config{
		OptIn:        parseBool(os.Getenv("MDP_TELEMETRY_OPT_IN")),
		EventsURL:    strings.TrimSpace(os.Getenv("MDP_TELEMETRY_URL")),
		CrashURL:     strings.TrimSpace(os.Getenv("MDP_CRASH_UPLOAD_URL")),
		Timeout:      1500 * time.Millisecond,
		DebugLogging: os.Getenv("MDP_TELEMETRY_DEBUG") != "",
	}
	if ms := strings.TrimSpace(os.Getenv("MDP_TELEMETRY_TIMEOUT_MS")); ms != "" {
		if v, err := time.ParseDuration(ms + "ms"); err == nil {
			cfg.Timeout = v
		}
	}
	return cfg
}

func parseBool(v string) bool {
	s := strings.ToLower(strings.TrimSpace(v))
	return s == "1" || s == "true" || s == "yes" || s == "on"
}

// event is the wire payload. Only coarse, non-identifying fields leave the
// machine.
type event struct {
	Name    string `json:"name"`
	TS      string `json:"ts"`
	Version string `json:"version"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	Format  string `json:"format,omitempty"` // export format, e.g. "pdf"
	Scope   string `json:"scope,omitempty"`  // search scope, "local" or "library"
}

// Client is a minimal async sender; it drops events silently on errors.
// It never blocks the UI; the queue is bounded.
type Client struct {
	cfg    Config
	log    *slog.Logger
	cli    *http.Client
	q      chan event
	once   sync.Once
	closed chan struct{}
}

var defaultClient *Client
var defaultOnce sync.Once

// InitDefault initializes the package-level default client from env when first used.
func InitDefault() {
	defaultOnce.Do(func() {
		if defaultClient == nil {
			NewDefault(FromEnv())
		}
	})
}

// InitFromConfig installs the default client. The config file controls
// opt-in; endpoints and timeout still come from the environment.
func InitFromConfig(optIn bool) {
	cfg := FromEnv()
	cfg.OptIn = cfg.OptIn || optIn
	NewDefault(cfg)
}

// NewDefault creates and installs the default client with cfg.
func NewDefault(cfg Config) {
	defaultClient = New(cfg)
}

// New constructs a client.
func New(cfg Config) *Client {
	c := &Client{
		cfg:    cfg,
		log:    applog.WithComponent("telemetry"),
		cli:    &http.Client{Timeout: cfg.Timeout},
		q:      make(chan event, 64),
		closed: make(chan struct{}),
	}
	go c.loop()
	return c
}

// Enabled reports whether anonymous telemetry is enabled and an endpoint is configured.
func (c *Client) Enabled() bool { return c != nil && c.cfg.OptIn && c.cfg.EventsURL != "" }

// Enabled reports whether anonymous telemetry is enabled using the default client.
func Enabled() bool {
	InitDefault()
	return defaultClient.Enabled()
}

// DocumentOpened records that a document was opened.
func (c *Client) DocumentOpened() { c.emit(event{Name: "document_opened"}) }

// DocumentSaved records that a document was written to disk.
func (c *Client) DocumentSaved() { c.emit(event{Name: "document_saved"}) }

// DocumentExported records an export and its target format.
func (c *Client) DocumentExported(format string) {
	c.emit(event{Name: "document_exported", Format: format})
}

// SearchPerformed records a full-text search. scope is "local" for the
// on-disk index or "library" for the remote backend; the query itself is
// never sent.
func (c *Client) SearchPerformed(scope string) {
	c.emit(event{Name: "search_performed", Scope: scope})
}

func (c *Client) emit(ev event) {
	if !c.Enabled() {
		return
	}
	ev.TS = time.Now().UTC().Format(time.RFC3339Nano)
	ev.Version = version.String()
	ev.OS = runtime.GOOS
	ev.Arch = runtime.GOARCH
	select {
	case c.q <- ev:
	default:
		// drop if queue full
	}
}

// Default-client counterparts.
func DocumentOpened() { InitDefault(); defaultClient.DocumentOpened() }

func DocumentSaved() { InitDefault(); defaultClient.DocumentSaved() }

func DocumentExported(format string) { InitDefault(); defaultClient.DocumentExported(format) }

func SearchPerformed(scope string) { InitDefault(); defaultClient.SearchPerformed(scope) }

// Flush waits briefly for the default client's queue to drain.
func Flush(ctx context.Context) { InitDefault(); defaultClient.Flush(ctx) }

// Flush waits briefly for the queue to drain.
func (c *Client) Flush(ctx context.Context) {
	deadline := time.Now().Add(500 * time.Millisecond)
	for {
		if len(c.q) == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Close stops the background goroutine.
func (c *Client) Close() { c.once.Do(func() { close(c.closed) }) }

func (c *Client) loop() {
	for {
		select {
		case <-c.closed:
			return
		case ev := <-c.q:
			c.send(ev)
		}
	}
}

func (c *Client) send(ev event) {
	buf, _ := json.Marshal(ev)
	req, err := http.NewRequest(http.MethodPost, c.cfg.EventsURL, bytes.NewReader(buf))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		if c.cfg.DebugLogging {
			c.log.Debug("telemetry send failed", slog.Any("err", err))
		}
		return
	}
	_ = resp.Body.Close()
	if c.cfg.DebugLogging {
		c.log.Debug("telemetry event sent")
	}
}

// UploadCrash posts an already-serialized crash report to the configured crash URL if opt-in.
func (c *Client) UploadCrash(report []byte) {
	if c == nil || !c.cfg.OptIn || c.cfg.CrashURL == "" {
		return
	}
	go func(b []byte) {
		req, err := http.NewRequest(http.MethodPost, c.cfg.CrashURL, bytes.NewReader(b))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "text/plain; charset=utf-8")
		resp, err := c.cli.Do(req)
		if err != nil {
			if c.cfg.DebugLogging {
				c.log.Debug("crash upload failed", slog.Any("err", err))
			}
			return
		}
		_ = resp.Body.Close()
		if c.cfg.DebugLogging {
			c.log.Debug("crash report uploaded")
		}
	}(append([]byte(nil), report...))
}

// UploadCrash using default client.
func UploadCrash(report []byte) { InitDefault(); defaultClient.UploadCrash(report) }
