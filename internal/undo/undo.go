/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package undo provides an in-memory undo/redo stack per open document with
// memory safeguards.
package undo

import (
	"sync"
	"time"
)

// Snapshot is the document text captured before a mutation. Undoing restores
// it; the text being left is recorded on the opposite stack. Size is
// estimated as len(Text); TS is when the snapshot was captured.
type Snapshot struct {
	Path string
	Text string
	TS   time.Time
}

// Config controls memory and depth caps and coalescing behavior.
type Config struct {
	// MaxBytes is a soft cap; older entries are pruned when exceeded.
	MaxBytes int
	// MaxPerDoc limits snapshots kept per document (0 means unlimited).
	MaxPerDoc int
	// MinInterval coalesces snapshots captured within the interval for the
	// same document, replacing the previous one instead of pushing new.
	MinInterval time.Duration
}

// Manager keeps per-document undo/redo stacks. It is safe for concurrent use.
type Manager struct {
	cfg Config
	mu  sync.Mutex
	// per-document stacks
	undo map[string][]Snapshot
	redo map[string][]Snapshot
	// accounting
	totalBytes int
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 16 * 1024 * 1024 // 16 MiB
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg, undo: make(map[string][]Snapshot), redo: make(map[string][]Snapshot)}
}

// Push records the text as it was before a mutation. Within MinInterval of
// the previous snapshot for the same document the earlier before-state is
// kept (rapid typing collapses into a single undo step). Any push clears
// the document's redo stack.
func (m *Manager) Push(s Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[s.Path]
	if n := len(stack); n > 0 {
		last := stack[n-1]
		if s.TS.Sub(last.TS) < m.cfg.MinInterval {
			stack[n-1].TS = s.TS
			m.redo[s.Path] = nil
			return
		}
	}
	m.undo[s.Path] = append(stack, s)
	m.totalBytes += len(s.Text)
	m.redo[s.Path] = nil
	m.enforceCapsLocked(s.Path)
}

// Undo pops the newest before-state for the document and records current,
// the text being left, on the redo stack so Redo can restore it.
func (m *Manager) Undo(path, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stack := m.undo[path]
	if len(stack) == 0 {
		return Snapshot{}, false
	}
	s := stack[len(stack)-1]
	m.undo[path] = stack[:len(stack)-1]
	m.totalBytes -= len(s.Text)
	m.redo[path] = append(m.redo[path], Snapshot{Path: path, Text: current, TS: time.Now()})
	return s, true
}

// Redo pops the newest redo entry and records current back onto the undo
// stack.
func (m *Manager) Redo(path, current string) (Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.redo[path]
	if len(r) == 0 {
		return Snapshot{}, false
	}
	s := r[len(r)-1]
	m.redo[path] = r[:len(r)-1]
	m.undo[path] = append(m.undo[path], Snapshot{Path: path, Text: current, TS: time.Now()})
	m.totalBytes += len(current)
	m.enforceCapsLocked(path)
	return s, true
}

// Clear drops both stacks for a document to free memory (file closed).
func (m *Manager) Clear(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.undo[path] {
		m.totalBytes -= len(s.Text)
	}
	delete(m.undo, path)
	delete(m.redo, path)
	if m.totalBytes < 0 {
		m.totalBytes = 0
	}
}

// Stats returns current sizes for diagnostics.
func (m *Manager) Stats() (totalBytes, docs, totalSnapshots int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs = len(m.undo)
	for _, v := range m.undo {
		totalSnapshots += len(v)
	}
	return m.totalBytes, docs, totalSnapshots
}

func (m *Manager) enforceCapsLocked(path string) {
	if m.cfg.MaxPerDoc > 0 {
		stack := m.undo[path]
		if len(stack) > m.cfg.MaxPerDoc {
			toDrop := len(stack) - m.cfg.MaxPerDoc
			for i := 0; i < toDrop; i++ {
				m.totalBytes -= len(stack[i].Text)
			}
			m.undo[path] = append([]Snapshot{}, stack[toDrop:]...)
		}
	}
	// Global memory cap: prune oldest across all documents.
	for m.cfg.MaxBytes > 0 && m.totalBytes > m.cfg.MaxBytes {
		oldestPath := ""
		oldestIdx := -1
		var oldestTS time.Time
		for p, stack := range m.undo {
			if len(stack) == 0 {
				continue
			}
			if oldestIdx == -1 || stack[0].TS.Before(oldestTS) {
				oldestPath = p
				oldestIdx = 0
				oldestTS = stack[0].TS
			}
		}
		if oldestIdx == -1 {
			break
		}
		stack := m.undo[oldestPath]
		m.totalBytes -= len(stack[0].Text)
		m.undo[oldestPath] = stack[1:]
		if len(m.undo[oldestPath]) == 0 {
			delete(m.undo, oldestPath)
		}
	}
}
