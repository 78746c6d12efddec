/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package editor holds the text buffer and the markdown formatting operations
// applied to it. The buffer is UI-toolkit agnostic: a widget mirrors it via
// change notifications, and all offsets are rune offsets so multi-byte text
// behaves the same everywhere.
package editor

import "sync"

// Buffer is a text buffer with a selection. Selection start and end are rune
// offsets with start <= end; when they are equal the selection is a cursor.
// It is safe for concurrent use.
type Buffer struct {
	mu        sync.Mutex
	text      []rune
	selStart  int
	selEnd    int
	listeners []func()
}

// NewBuffer returns a buffer holding the given text with the cursor at 0.
func NewBuffer(text string) *Buffer {
	return &Buffer{text: []rune(text)}
}

// OnChange registers a callback fired after every text mutation. Callbacks
// run outside the buffer lock, in registration order.
func (b *Buffer) OnChange(fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.listeners = append(b.listeners, fn)
	b.mu.Unlock()
}

func (b *Buffer) notify() {
	b.mu.Lock()
	fns := append([]func(){}, b.listeners...)
	b.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.text)
}

// Len returns the buffer length in runes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.text)
}

// SetText replaces the whole content and collapses the selection to 0.
func (b *Buffer) SetText(text string) {
	b.mu.Lock()
	b.text = []rune(text)
	b.selStart, b.selEnd = 0, 0
	b.mu.Unlock()
	b.notify()
}

// Select sets the selection, clamping to the buffer bounds and normalizing
// so start <= end.
func (b *Buffer) Select(start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start = clampOffset(start, len(b.text))
	end = clampOffset(end, len(b.text))
	if start > end {
		start, end = end, start
	}
	b.selStart, b.selEnd = start, end
}

// SetCursor collapses the selection to a cursor at the given offset.
func (b *Buffer) SetCursor(offset int) {
	b.Select(offset, offset)
}

// Selection returns the current selection bounds.
func (b *Buffer) Selection() (start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selStart, b.selEnd
}

// HasSelection reports whether a non-empty range is selected.
func (b *Buffer) HasSelection() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selStart < b.selEnd
}

// SelectedText returns the text within the selection.
func (b *Buffer) SelectedText() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.text[b.selStart:b.selEnd])
}

// Insert places text at the given offset and moves the cursor behind it.
func (b *Buffer) Insert(offset int, s string) {
	b.Replace(offset, offset, s)
}

// Delete removes the given range.
func (b *Buffer) Delete(start, end int) {
	b.Replace(start, end, "")
}

// Replace substitutes the given range with s and places the cursor behind
// the inserted text. Out-of-range offsets are clamped.
func (b *Buffer) Replace(start, end int, s string) {
	b.mu.Lock()
	start = clampOffset(start, len(b.text))
	end = clampOffset(end, len(b.text))
	if start > end {
		start, end = end, start
	}
	ins := []rune(s)
	out := make([]rune, 0, len(b.text)-(end-start)+len(ins))
	out = append(out, b.text[:start]...)
	out = append(out, ins...)
	out = append(out, b.text[end:]...)
	b.text = out
	cursor := start + len(ins)
	b.selStart, b.selEnd = cursor, cursor
	b.mu.Unlock()
	b.notify()
}

// ReplaceSelection substitutes the selected range (or inserts at the cursor)
// and leaves the inserted text selected, so chained formatting keeps working
// on the same span.
func (b *Buffer) ReplaceSelection(s string) {
	b.mu.Lock()
	start, end := b.selStart, b.selEnd
	ins := []rune(s)
	out := make([]rune, 0, len(b.text)-(end-start)+len(ins))
	out = append(out, b.text[:start]...)
	out = append(out, ins...)
	out = append(out, b.text[end:]...)
	b.text = out
	b.selStart, b.selEnd = start, start+len(ins)
	b.mu.Unlock()
	b.notify()
}

// LineBounds returns the rune offsets of the start and end of the line
// containing offset. The end excludes the trailing newline.
func (b *Buffer) LineBounds(offset int) (start, end int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	offset = clampOffset(offset, len(b.text))
	start = offset
	for start > 0 && b.text[start-1] != '\n' {
		start--
	}
	end = offset
	for end < len(b.text) && b.text[end] != '\n' {
		end++
	}
	return start, end
}

// CursorLineBounds returns the bounds of the line the cursor sits on.
func (b *Buffer) CursorLineBounds() (start, end int) {
	b.mu.Lock()
	cursor := b.selStart
	b.mu.Unlock()
	return b.LineBounds(cursor)
}

// PreviousLine returns the text of the line above the one containing offset,
// or false when there is none.
func (b *Buffer) PreviousLine(offset int) (string, bool) {
	start, _ := b.LineBounds(offset)
	if start == 0 {
		return "", false
	}
	prevStart, prevEnd := b.LineBounds(start - 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.text[prevStart:prevEnd]), true
}

func clampOffset(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}
