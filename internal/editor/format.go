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
	"fmt"
	"regexp"
	"strings"
)

var numberedPrefix = regexp.MustCompile(`^(\d+)\.\s+`)

// WrapSelection surrounds the selected text with prefix and suffix. Without
// a selection it inserts a placeholder wrapped the same way, selected so the
// user can overtype it.
func (b *Buffer) WrapSelection(prefix, suffix string) {
	if b.HasSelection() {
		b.ReplaceSelection(prefix + b.SelectedText() + suffix)
		return
	}
	start, _ := b.Selection()
	b.Insert(start, prefix+"text"+suffix)
	b.Select(start+len([]rune(prefix)), start+len([]rune(prefix))+4)
}

// Bold wraps the selection in ** markers.
func (b *Buffer) Bold() { b.WrapSelection("**", "**") }

// Italic wraps the selection in * markers.
func (b *Buffer) Italic() { b.WrapSelection("*", "*") }

// Strikethrough wraps the selection in ~~ markers.
func (b *Buffer) Strikethrough() { b.WrapSelection("~~", "~~") }

// InlineCode wraps the selection in backticks.
func (b *Buffer) InlineCode() { b.WrapSelection("`", "`") }

// SetHeading turns the cursor's line into a heading of the given level,
// replacing any existing heading markers.
func (b *Buffer) SetHeading(level int) {
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	start, end := b.CursorLineBounds()
	line := b.textRange(start, end)
	stripped := strings.TrimLeft(strings.TrimLeft(line, "#"), " ")
	b.Replace(start, end, strings.Repeat("#", level)+" "+stripped)
}

// BulletList converts the selected lines to a bullet list, replacing any
// existing bullet or number markers. Without a selection it starts a bullet
// on the current line, or on a new line when the cursor sits mid-text.
func (b *Buffer) BulletList() {
	if b.HasSelection() {
		lines := strings.Split(b.SelectedText(), "\n")
		out := make([]string, len(lines))
		for i, line := range lines {
			stripped := strings.TrimLeft(line, " \t")
			if stripped == "" {
				out[i] = ""
				continue
			}
			out[i] = "- " + stripListMarker(stripped)
		}
		b.ReplaceSelection(strings.Join(out, "\n"))
		return
	}

	cursor, _ := b.Selection()
	start, end := b.CursorLineBounds()
	line := b.textRange(start, end)
	if strings.TrimSpace(line) == "" || cursor == start {
		b.Insert(start, "- ")
		return
	}
	b.Insert(cursor, "\n- ")
}

// NumberedList converts the selected lines to a numbered list, renumbering
// from 1 and skipping blank lines. Without a selection it starts an item on
// the current line, continuing the previous line's numbering when there is
// one.
func (b *Buffer) NumberedList() {
	if b.HasSelection() {
		lines := strings.Split(b.SelectedText(), "\n")
		out := make([]string, len(lines))
		n := 1
		for i, line := range lines {
			stripped := strings.TrimLeft(line, " \t")
			if stripped == "" {
				out[i] = ""
				continue
			}
			out[i] = fmt.Sprintf("%d. %s", n, stripListMarker(stripped))
			n++
		}
		b.ReplaceSelection(strings.Join(out, "\n"))
		return
	}

	cursor, _ := b.Selection()
	start, end := b.CursorLineBounds()
	line := b.textRange(start, end)
	if strings.TrimSpace(line) == "" || cursor == start {
		b.Insert(start, "1. ")
		return
	}
	next := 1
	if prev, ok := b.PreviousLine(cursor); ok {
		if m := numberedPrefix.FindStringSubmatch(strings.TrimLeft(prev, " \t")); m != nil {
			var prevNum int
			fmt.Sscanf(m[1], "%d", &prevNum)
			next = prevNum + 1
		}
	}
	b.Insert(cursor, fmt.Sprintf("\n%d. ", next))
}

// stripListMarker removes one leading bullet or number marker.
func stripListMarker(s string) string {
	if strings.HasPrefix(s, "- ") || strings.HasPrefix(s, "* ") {
		return s[2:]
	}
	return numberedPrefix.ReplaceAllString(s, "")
}

// BlockQuote prefixes every selected line with "> ", or inserts a quote
// placeholder at the cursor.
func (b *Buffer) BlockQuote() {
	if b.HasSelection() {
		lines := strings.Split(b.SelectedText(), "\n")
		for i, line := range lines {
			lines[i] = "> " + line
		}
		b.ReplaceSelection(strings.Join(lines, "\n"))
		return
	}
	start, _ := b.Selection()
	b.Insert(start, "\n> Quote text here\n")
}

// CodeBlock fences the selection, or inserts an empty fenced block.
func (b *Buffer) CodeBlock() {
	if b.HasSelection() {
		b.ReplaceSelection("\n```\n" + b.SelectedText() + "\n```\n")
		return
	}
	start, _ := b.Selection()
	b.Insert(start, "\n```\ncode here\n```\n")
}

// InsertLink turns the selection into link text, or inserts a placeholder
// link at the cursor.
func (b *Buffer) InsertLink() {
	if b.HasSelection() {
		b.ReplaceSelection("[" + b.SelectedText() + "](url)")
		return
	}
	start, _ := b.Selection()
	b.Insert(start, "[link text](url)")
}

// InsertImage inserts an image placeholder at the cursor.
func (b *Buffer) InsertImage() {
	start, _ := b.Selection()
	b.Insert(start, "![alt text](image-url)")
}

const tableTemplate = `
| Column 1 | Column 2 | Column 3 |
|----------|----------|----------|
| Cell 1   | Cell 2   | Cell 3   |
| Cell 4   | Cell 5   | Cell 6   |
`

// InsertTable inserts a 3x2 table skeleton at the cursor.
func (b *Buffer) InsertTable() {
	start, _ := b.Selection()
	b.Insert(start, tableTemplate)
}

const mermaidTemplate = "\n```mermaid\ngraph TD\n    A[Start] --> B[Process]\n    B --> C[End]\n```\n"

// InsertMermaid inserts a mermaid diagram skeleton at the cursor.
func (b *Buffer) InsertMermaid() {
	start, _ := b.Selection()
	b.Insert(start, mermaidTemplate)
}

const latexTemplate = "\n$$\nx = \\frac{-b \\pm \\sqrt{b^2 - 4ac}}{2a}\n$$\n"

// InsertMathBlock inserts a display math block at the cursor.
func (b *Buffer) InsertMathBlock() {
	start, _ := b.Selection()
	b.Insert(start, latexTemplate)
}

// textRange returns the text between two rune offsets.
func (b *Buffer) textRange(start, end int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	start = clampOffset(start, len(b.text))
	end = clampOffset(end, len(b.text))
	if start > end {
		start, end = end, start
	}
	return string(b.text[start:end])
}
