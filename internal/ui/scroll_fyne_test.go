//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// These tests validate the Fyne scroll channel adapters. They are gated
// behind the "fyne" build tag so CI (which is headless) does not need Fyne
// or a display. To run locally:
//
//	go test -tags fyne ./internal/ui
package ui

import (
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
)

// tallScroll builds a 100pt viewport over 1100pt of content, giving a
// 1000pt scrollable range.
func tallScroll() *container.Scroll {
	rect := canvas.NewRectangle(color.Black)
	rect.SetMinSize(fyne.NewSize(200, 1100))
	sc := container.NewVScroll(rect)
	sc.Resize(fyne.NewSize(200, 100))
	return sc
}

func TestScrollEditorExtent(t *testing.T) {
	sc := tallScroll()
	sc.Offset = fyne.NewPos(0, 250)
	ch := &scrollEditor{sc: sc}
	value, upper, page, err := ch.Extent()
	if err != nil {
		t.Fatalf("Extent: %v", err)
	}
	if value != 250 || upper != 1100 || page != 100 {
		t.Fatalf("Extent = (%v, %v, %v)", value, upper, page)
	}

	if err := ch.SetOffset(500); err != nil {
		t.Fatalf("SetOffset: %v", err)
	}
	if got := sc.Offset.Y; got != 500 {
		t.Fatalf("offset after SetOffset = %v", got)
	}
}

func TestScrollEditorExtentUnsized(t *testing.T) {
	rect := canvas.NewRectangle(color.Black)
	sc := container.NewVScroll(rect)
	// no Resize: viewport height is zero
	ch := &scrollEditor{sc: sc}
	if _, _, _, err := ch.Extent(); err == nil {
		t.Fatal("expected error for unsized scroll container")
	}
}

func TestScrollEditorNotify(t *testing.T) {
	sc := tallScroll()
	ch := &scrollEditor{sc: sc}
	fired := 0
	ch.Notify(func() { fired++ })
	if sc.OnScrolled == nil {
		t.Fatal("Notify did not register OnScrolled")
	}
	sc.OnScrolled(fyne.NewPos(0, 10))
	if fired != 1 {
		t.Fatalf("callback fired %d times, want 1", fired)
	}
}

func TestScrollPreviewCommandAndReadBack(t *testing.T) {
	sc := tallScroll()
	ch := &scrollPreview{sc: sc}
	if err := ch.Command(0.5); err != nil {
		t.Fatalf("Command: %v", err)
	}
	if got := sc.Offset.Y; got != 500 {
		t.Fatalf("offset after Command(0.5) = %v", got)
	}
	pct, ok := ch.ReadBack()
	if !ok || pct != 0.5 {
		t.Fatalf("ReadBack = (%v, %v)", pct, ok)
	}
}

func TestScrollPreviewZeroRange(t *testing.T) {
	rect := canvas.NewRectangle(color.Black)
	rect.SetMinSize(fyne.NewSize(200, 50))
	sc := container.NewVScroll(rect)
	sc.Resize(fyne.NewSize(200, 100)) // content shorter than viewport
	ch := &scrollPreview{sc: sc}
	if err := ch.Command(0.8); err != nil {
		t.Fatalf("Command: %v", err)
	}
	if got := sc.Offset.Y; got != 0 {
		t.Fatalf("offset for zero-range content = %v, want 0", got)
	}
	pct, ok := ch.ReadBack()
	if !ok || pct != 0 {
		t.Fatalf("ReadBack = (%v, %v), want (0, true)", pct, ok)
	}
}

func TestDocumentTitle(t *testing.T) {
	cases := []struct {
		text, path, want string
	}{
		{"# My Notes\n\nbody", "/tmp/x.md", "My Notes"},
		{"plain text", "/tmp/notes.md", "notes"},
		{"### Deep Heading", "", "Deep Heading"},
		{"", "", "Untitled"},
	}
	for _, c := range cases {
		if got := documentTitle(c.text, c.path); got != c.want {
			t.Errorf("documentTitle(%q, %q) = %q, want %q", c.text, c.path, got, c.want)
		}
	}
}
