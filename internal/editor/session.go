/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"log/slog"

	applog "mdpad/internal/log"
)

// Session binds a buffer to a file on disk and tracks whether the buffer has
// diverged from it.
type Session struct {
	buf *Buffer
	log *slog.Logger

	mu       sync.Mutex
	path     string
	modified bool
}

// NewSession returns a session over an empty untitled buffer.
func NewSession() *Session {
	s := &Session{buf: NewBuffer(""), log: applog.WithComponent("editor")}
	s.buf.OnChange(s.markModified)
	return s
}

func (s *Session) markModified() {
	s.mu.Lock()
	s.modified = true
	s.mu.Unlock()
}

// Buffer returns the session's buffer.
func (s *Session) Buffer() *Buffer { return s.buf }

// Path returns the file backing the session, empty for untitled buffers.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Modified reports whether the buffer has unsaved changes.
func (s *Session) Modified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified
}

// Open loads the file into the buffer and resets the modified flag.
func (s *Session) Open(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	s.buf.SetText(string(data))
	s.mu.Lock()
	s.path = path
	s.modified = false
	s.mu.Unlock()
	s.log.Info("document opened", slog.String("path", path), slog.Int("bytes", len(data)))
	return nil
}

// Save writes the buffer to its backing file. It fails for untitled buffers;
// use SaveAs to pick a path first.
func (s *Session) Save() error {
	s.mu.Lock()
	path := s.path
	s.mu.Unlock()
	if path == "" {
		return errors.New("no file path; use SaveAs")
	}
	return s.SaveAs(path)
}

// SaveAs writes the buffer to path atomically (temp file then rename) and
// makes path the session's backing file.
func (s *Session) SaveAs(path string) error {
	text := s.buf.Text()
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".mdpad-*.tmp")
	if err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("save document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save document: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save document: %w", err)
	}
	s.mu.Lock()
	s.path = path
	s.modified = false
	s.mu.Unlock()
	s.log.Info("document saved", slog.String("path", path), slog.Int("bytes", len(text)))
	return nil
}

// Snapshot captures the current text and path for crash recovery.
func (s *Session) Snapshot() (path, text string) {
	s.mu.Lock()
	path = s.path
	s.mu.Unlock()
	return path, s.buf.Text()
}
