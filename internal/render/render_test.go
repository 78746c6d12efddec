/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package render

import (
	"strings"
	"testing"

	"mdpad/internal/theme"
)

func TestRenderExtensions(t *testing.T) {
	r := New(Default())

	cases := []struct {
		label  string
		source string
		want   string
	}{
		{"heading", "# Title", "<h1"},
		{"table", "| a | b |\n|---|---|\n| 1 | 2 |", "<table>"},
		{"strikethrough", "~~gone~~", "<del>gone</del>"},
		{"autolink", "visit https://example.com now", `<a href="https://example.com"`},
		{"tasklist", "- [x] done", `type="checkbox"`},
		{"footnote", "text[^1]\n\n[^1]: note", "footnote"},
	}
	for _, tc := range cases {
		got, err := r.Render([]byte(tc.source))
		if err != nil {
			t.Fatalf("%s: Render: %v", tc.label, err)
		}
		if !strings.Contains(got, tc.want) {
			t.Errorf("%s: output %q missing %q", tc.label, got, tc.want)
		}
	}
}

func TestRenderPlainCommonMark(t *testing.T) {
	r := New(Options{})
	got, err := r.Render([]byte("~~kept~~"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "<del>") {
		t.Fatalf("strikethrough rendered without the extension: %q", got)
	}
}

func TestRenderUnsafeHTML(t *testing.T) {
	r := New(Default())
	got, err := r.Render([]byte("<div class=\"x\">raw</div>"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(got, "<div class=\"x\">") {
		t.Fatalf("raw HTML stripped in preview mode: %q", got)
	}

	safe := New(Options{})
	got, err = safe.Render([]byte("<div>raw</div>"))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "<div>") {
		t.Fatalf("raw HTML passed through in safe mode: %q", got)
	}
}

func TestDocumentTheming(t *testing.T) {
	doc := Document("<p>hi</p>", DocumentOptions{
		Title:      "My <Doc>",
		Theme:      theme.Dark,
		IncludeCSS: true,
	})
	if !strings.Contains(doc, "<!DOCTYPE html>") || !strings.Contains(doc, "<p>hi</p>") {
		t.Fatalf("document structure broken: %q", doc)
	}
	if !strings.Contains(doc, "My &lt;Doc&gt;") {
		t.Fatal("title not escaped")
	}
	if !strings.Contains(doc, "background: #1e1e1e") {
		t.Fatal("dark background not applied")
	}
	if !strings.Contains(doc, "color: #d4d4d4") {
		t.Fatal("dark text color not applied")
	}
	// CSS variables substituted with theme colors.
	if strings.Contains(doc, "var(--link-color") {
		t.Fatal("CSS variables left unsubstituted")
	}
	if !strings.Contains(doc, "#4fc3f7") {
		t.Fatal("dark link color missing from stylesheet")
	}
	// No CDN scripts unless requested.
	if strings.Contains(doc, "mermaid") || strings.Contains(doc, "mathjax") {
		t.Fatal("scripts included without being requested")
	}
}

func TestDocumentScripts(t *testing.T) {
	doc := Document("<p>x</p>", DocumentOptions{
		Theme:   theme.Dark,
		Mermaid: true,
		MathJax: true,
	})
	if !strings.Contains(doc, "mermaid.min.js") || !strings.Contains(doc, "theme: 'dark'") {
		t.Fatal("mermaid script or theme missing")
	}
	if !strings.Contains(doc, "tex-mml-chtml.js") {
		t.Fatal("mathjax script missing")
	}
	if !strings.Contains(doc, "Exported Document") {
		t.Fatal("default title missing")
	}

	light := Document("<p>x</p>", DocumentOptions{Theme: theme.Light, Mermaid: true})
	if !strings.Contains(light, "theme: 'default'") {
		t.Fatal("light mermaid theme missing")
	}
}
