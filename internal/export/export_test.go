/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mdpad/internal/theme"
)

const sampleDoc = `# Title

Intro paragraph with **bold** and a [link](https://example.com).

## Section

> A wise quote
> spanning lines.

- first
- second
  - nested

1. one
2. two

` + "```go\nfmt.Println(\"hi\")\n```" + `

---

Closing words.
`

func TestBlocks(t *testing.T) {
	blocks := Blocks([]byte(sampleDoc))

	var kinds []Kind
	for _, b := range blocks {
		kinds = append(kinds, b.Kind)
	}
	want := []Kind{
		KindHeading, KindParagraph, KindHeading, KindQuote,
		KindListItem, KindListItem, KindListItem,
		KindListItem, KindListItem,
		KindCode, KindRule, KindParagraph,
	}
	if len(kinds) != len(want) {
		t.Fatalf("got %d blocks (%v), want %d", len(kinds), kinds, len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("block %d kind = %v, want %v (all: %v)", i, kinds[i], want[i], kinds)
		}
	}

	if blocks[0].Level != 1 || blocks[0].Text != "Title" {
		t.Fatalf("heading block = %+v", blocks[0])
	}
	// Inline markup reduced to plain text.
	if blocks[1].Text != "Intro paragraph with bold and a link." {
		t.Fatalf("paragraph text = %q", blocks[1].Text)
	}
	// Soft line break inside the quote collapses to a space.
	if blocks[3].Text != "A wise quote spanning lines." {
		t.Fatalf("quote text = %q", blocks[3].Text)
	}
	// Nested bullet carries its depth.
	if blocks[6].Text != "nested" || blocks[6].Indent != 1 {
		t.Fatalf("nested item = %+v", blocks[6])
	}
	// Ordered items are numbered from the list start.
	if !blocks[7].Ordered || blocks[7].Index != 1 || blocks[8].Index != 2 {
		t.Fatalf("ordered items = %+v, %+v", blocks[7], blocks[8])
	}
	if blocks[9].Text != "fmt.Println(\"hi\")" {
		t.Fatalf("code text = %q", blocks[9].Text)
	}
}

func TestBlocksOrderedStart(t *testing.T) {
	blocks := Blocks([]byte("5. five\n6. six\n"))
	if len(blocks) != 2 || blocks[0].Index != 5 || blocks[1].Index != 6 {
		t.Fatalf("ordered start not honored: %+v", blocks)
	}
}

func TestWriteHTML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "sub", "doc.html")
	err := WriteHTML([]byte(sampleDoc), out, HTMLOptions{
		Title:      "Sample",
		Theme:      theme.Dark,
		IncludeCSS: true,
		Mermaid:    true,
	})
	if err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<strong>bold</strong>") {
		t.Fatalf("body not rendered: %q", html)
	}
	if !strings.Contains(html, "#1e1e1e") {
		t.Fatal("dark theme missing")
	}
	if !strings.Contains(html, "mermaid.min.js") {
		t.Fatal("mermaid script missing")
	}
}

func TestWritePDF(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.pdf")
	if err := WritePDF([]byte(sampleDoc), out, PDFOptions{Title: "Sample"}); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("output is not a PDF (starts %q)", data[:8])
	}
	if len(data) < 1000 {
		t.Fatalf("implausibly small PDF: %d bytes", len(data))
	}
}

func TestWritePNG(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc.png")
	if err := WritePNG([]byte(sampleDoc), out, PNGOptions{Width: 400, Theme: theme.Light}); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("output is not a PNG")
	}
}

func TestWritePNGEmptyDoc(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.png")
	if err := WritePNG(nil, out, PNGOptions{}); err != nil {
		t.Fatalf("WritePNG on empty doc: %v", err)
	}
}

func TestBatchExport(t *testing.T) {
	dir := t.TempDir()
	err := BatchExport([]byte(sampleDoc), BatchOptions{
		Preset:  PresetShare,
		Theme:   theme.Light,
		OutDir:  dir,
		DocPath: "/home/user/notes.md",
	})
	if err != nil {
		t.Fatalf("BatchExport: %v", err)
	}
	for _, name := range []string{"notes.html", "notes.png"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	// Share preset HTML must not pull CDN scripts.
	data, err := os.ReadFile(filepath.Join(dir, "notes.html"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "cdn.jsdelivr.net") {
		t.Fatal("share preset included CDN scripts")
	}

	if err := BatchExport(nil, BatchOptions{Formats: []string{"docx"}, OutDir: dir}); err == nil {
		t.Fatal("unknown format accepted")
	}
}
