/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package backend talks to an optional shared document library server.
// It is only active when the server feature flag is enabled in the
// configuration; the rest of the application works fully offline.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client is a minimal HTTP client for the document library API.
// It supports the read-only operations used by the desktop app under a
// feature flag.
type Client struct {
	BaseURL string
	Token   string // bearer token
	client  *http.Client
}

// NewClient creates a new backend client. baseURL may include a trailing
// slash; it will be normalized. A non-positive timeout falls back to 10s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) doJSON(ctx context.Context, method, path string, dest any) error {
	u, err := url.Parse(c.BaseURL + path)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server %s %s: %s", method, u.Path, resp.Status)
	}
	if dest == nil {
		return nil
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(dest)
}

// Health checks the server liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/healthz", nil)
}

// Document is a minimal projection for listing library entries.
type Document struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int64     `json:"version"`
}

// ListDocuments returns the documents available in the shared library.
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	var list []Document
	if err := c.doJSON(ctx, http.MethodGet, "/api/documents", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// DocumentEnvelope matches the server response for a single document fetch.
type DocumentEnvelope struct {
	Document
	Text string `json:"text"`
}

// GetDocument fetches a document including its markdown text.
func (c *Client) GetDocument(ctx context.Context, id int64) (*DocumentEnvelope, error) {
	var env DocumentEnvelope
	path := fmt.Sprintf("/api/documents/%d", id)
	if err := c.doJSON(ctx, http.MethodGet, path, &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// RemoteResult is a single server-side search hit.
type RemoteResult struct {
	DocID   int64  `json:"doc_id"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// SearchDocuments runs a full-text query on the server.
func (c *Client) SearchDocuments(ctx context.Context, query string) ([]RemoteResult, error) {
	var list []RemoteResult
	path := "/api/documents/search?q=" + url.QueryEscape(query)
	if err := c.doJSON(ctx, http.MethodGet, path, &list); err != nil {
		return nil, err
	}
	return list, nil
}
