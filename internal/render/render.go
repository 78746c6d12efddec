/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package render converts markdown to HTML for the preview pane and the
// exporters.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Options selects the markdown extensions. The zero value renders plain
// CommonMark; Default() matches the preview's configuration.
type Options struct {
	Table         bool
	Strikethrough bool
	Autolink      bool
	TaskList      bool
	Footnotes     bool
	Typographer   bool
	UnsafeHTML    bool
}

// Default returns the extension set used by the preview and exporters.
func Default() Options {
	return Options{
		Table:         true,
		Strikethrough: true,
		Autolink:      true,
		TaskList:      true,
		Footnotes:     true,
		UnsafeHTML:    true, // the preview renders local, user-authored documents
	}
}

// Renderer converts markdown to HTML with a fixed extension set. It is safe
// for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds a renderer from the given options.
func New(opts Options) *Renderer {
	var exts []goldmark.Extender
	if opts.Table {
		exts = append(exts, extension.Table)
	}
	if opts.Strikethrough {
		exts = append(exts, extension.Strikethrough)
	}
	if opts.Autolink {
		exts = append(exts, extension.Linkify)
	}
	if opts.TaskList {
		exts = append(exts, extension.TaskList)
	}
	if opts.Footnotes {
		exts = append(exts, extension.Footnote)
	}
	if opts.Typographer {
		exts = append(exts, extension.Typographer)
	}
	var ropts []renderer.Option
	if opts.UnsafeHTML {
		ropts = append(ropts, gmhtml.WithUnsafe())
	}
	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(ropts...),
	)
	return &Renderer{md: md}
}

// Render converts markdown source to an HTML fragment.
func (r *Renderer) Render(source []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(source, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
