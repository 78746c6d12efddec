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
	"os"
	"path/filepath"
	"testing"
)

func TestBufferReplaceAndSelection(t *testing.T) {
	b := NewBuffer("hello world")
	b.Replace(6, 11, "there")
	if got := b.Text(); got != "hello there" {
		t.Fatalf("Replace = %q", got)
	}
	start, end := b.Selection()
	if start != 11 || end != 11 {
		t.Fatalf("cursor after Replace = (%d, %d), want (11, 11)", start, end)
	}

	b.Select(20, -3) // clamped and normalized
	start, end = b.Selection()
	if start != 0 || end != 11 {
		t.Fatalf("clamped selection = (%d, %d)", start, end)
	}
}

func TestBufferRuneOffsets(t *testing.T) {
	b := NewBuffer("héllo wörld")
	b.Select(6, 11)
	if got := b.SelectedText(); got != "wörld" {
		t.Fatalf("SelectedText = %q", got)
	}
	b.ReplaceSelection("welt")
	if got := b.Text(); got != "héllo welt" {
		t.Fatalf("ReplaceSelection = %q", got)
	}
	if got := b.SelectedText(); got != "welt" {
		t.Fatalf("inserted text not selected: %q", got)
	}
}

func TestLineBounds(t *testing.T) {
	b := NewBuffer("first\nsecond\nthird")
	start, end := b.LineBounds(8)
	if start != 6 || end != 12 {
		t.Fatalf("LineBounds(8) = (%d, %d), want (6, 12)", start, end)
	}
	start, end = b.LineBounds(0)
	if start != 0 || end != 5 {
		t.Fatalf("LineBounds(0) = (%d, %d), want (0, 5)", start, end)
	}
	start, end = b.LineBounds(18)
	if start != 13 || end != 18 {
		t.Fatalf("LineBounds(18) = (%d, %d), want (13, 18)", start, end)
	}

	prev, ok := b.PreviousLine(8)
	if !ok || prev != "first" {
		t.Fatalf("PreviousLine(8) = (%q, %v)", prev, ok)
	}
	if _, ok := b.PreviousLine(2); ok {
		t.Fatal("PreviousLine on first line should report none")
	}
}

func TestOnChange(t *testing.T) {
	b := NewBuffer("")
	var fired int
	b.OnChange(func() { fired++ })
	b.Insert(0, "a")
	b.SetText("b")
	b.Delete(0, 1)
	if fired != 3 {
		t.Fatalf("change callback fired %d times, want 3", fired)
	}
	b.Select(0, 0) // selection moves are not content changes
	if fired != 3 {
		t.Fatalf("selection change fired a content callback")
	}
}

func TestSessionOpenSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	if err := os.WriteFile(path, []byte("# Title\n\nbody\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewSession()
	if err := s.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Modified() {
		t.Fatal("freshly opened session reports modified")
	}
	if s.Path() != path {
		t.Fatalf("Path = %q", s.Path())
	}

	s.Buffer().Insert(s.Buffer().Len(), "more\n")
	if !s.Modified() {
		t.Fatal("edit did not mark session modified")
	}

	if err := s.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Modified() {
		t.Fatal("session still modified after save")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "# Title\n\nbody\nmore\n" {
		t.Fatalf("saved content = %q", data)
	}
}

func TestSessionSaveUntitled(t *testing.T) {
	s := NewSession()
	s.Buffer().SetText("draft")
	if err := s.Save(); err == nil {
		t.Fatal("Save on untitled session must fail")
	}
	path := filepath.Join(t.TempDir(), "draft.md")
	if err := s.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	if s.Path() != path {
		t.Fatalf("Path after SaveAs = %q", s.Path())
	}
}
