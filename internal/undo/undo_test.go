/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerDoc: 10, MinInterval: 10 * time.Millisecond})
	doc := "/docs/a.md"
	// Before-states for edits "a"->"ab"->"abc".
	m.Push(Snapshot{Path: doc, Text: "a", TS: time.Now()})
	m.Push(Snapshot{Path: doc, Text: "ab", TS: time.Now().Add(20 * time.Millisecond)})
	if _, docs, total := m.Stats(); docs != 1 || total != 2 {
		t.Fatalf("expected 1 doc and 2 snapshots, got docs=%d total=%d", docs, total)
	}
	s, ok := m.Undo(doc, "abc")
	if !ok || s.Text != "ab" {
		t.Fatalf("undo expected 'ab', got ok=%v text=%q", ok, s.Text)
	}
	s, ok = m.Redo(doc, s.Text)
	if !ok || s.Text != "abc" {
		t.Fatalf("redo expected 'abc', got ok=%v text=%q", ok, s.Text)
	}
}

func TestFirstUndoRestoresPriorText(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	doc := "/docs/f.md"
	t0 := time.Now()
	m.Push(Snapshot{Path: doc, Text: "", TS: t0})
	m.Push(Snapshot{Path: doc, Text: "# Title", TS: t0.Add(10 * time.Millisecond)})
	cur := "# Title\n\nbody"
	s, ok := m.Undo(doc, cur)
	if !ok || s.Text != "# Title" {
		t.Fatalf("first undo = %q, %v; want %q", s.Text, ok, "# Title")
	}
	if s.Text == cur {
		t.Fatal("undo returned the current text; nothing would change")
	}
	s, ok = m.Redo(doc, s.Text)
	if !ok || s.Text != cur {
		t.Fatalf("redo = %q, %v; want %q", s.Text, ok, cur)
	}
}

func TestCoalesce(t *testing.T) {
	m := NewManager(Config{MaxBytes: 1024 * 1024, MaxPerDoc: 10, MinInterval: 50 * time.Millisecond})
	doc := "/docs/b.md"
	t0 := time.Now()
	m.Push(Snapshot{Path: doc, Text: "1", TS: t0})
	m.Push(Snapshot{Path: doc, Text: "12", TS: t0.Add(10 * time.Millisecond)}) // coalesce
	_, _, total := m.Stats()
	if total != 1 {
		t.Fatalf("expected coalesced to 1 snapshot, got %d", total)
	}
	// Coalescing keeps the earliest before-state so the burst undoes as one.
	s, ok := m.Undo(doc, "123")
	if !ok || s.Text != "1" {
		t.Fatalf("expected coalesced snapshot '1', got ok=%v text=%q", ok, s.Text)
	}
}

func TestCaps(t *testing.T) {
	m := NewManager(Config{MaxBytes: 20, MaxPerDoc: 2, MinInterval: 1 * time.Millisecond})
	doc := "/docs/c.md"
	for i := 0; i < 10; i++ {
		m.Push(Snapshot{Path: doc, Text: "xxxxx", TS: time.Now().Add(time.Duration(i) * time.Millisecond)})
	}
	_, _, total := m.Stats()
	if total > 2 {
		t.Fatalf("expected MaxPerDoc cap to limit to 2, got %d", total)
	}
}

func TestPushClearsRedo(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	doc := "/docs/d.md"
	t0 := time.Now()
	m.Push(Snapshot{Path: doc, Text: "one", TS: t0})
	m.Push(Snapshot{Path: doc, Text: "two", TS: t0.Add(10 * time.Millisecond)})
	if _, ok := m.Undo(doc, "three"); !ok {
		t.Fatal("undo failed")
	}
	m.Push(Snapshot{Path: doc, Text: "two", TS: t0.Add(30 * time.Millisecond)})
	if _, ok := m.Redo(doc, "four"); ok {
		t.Fatal("redo survived a new push")
	}
}

func TestClear(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Millisecond})
	doc := "/docs/e.md"
	m.Push(Snapshot{Path: doc, Text: "data", TS: time.Now()})
	m.Clear(doc)
	if bytes, docs, total := m.Stats(); bytes != 0 || docs != 0 || total != 0 {
		t.Fatalf("clear left residue: bytes=%d docs=%d total=%d", bytes, docs, total)
	}
	if _, ok := m.Undo(doc, ""); ok {
		t.Fatal("undo possible after clear")
	}
}
