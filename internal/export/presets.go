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
	"fmt"
	"path/filepath"
	"strings"

	"mdpad/internal/theme"
)

// PresetName represents a named export preset.
type PresetName string

const (
	// PresetWeb produces a styled HTML document with the CDN diagram and
	// math renderers enabled.
	PresetWeb PresetName = "web"
	// PresetPrint produces a paginated PDF.
	PresetPrint PresetName = "print"
	// PresetShare produces offline-viewable HTML plus a PNG snapshot.
	PresetShare PresetName = "share"
)

// BatchOptions controls exporting one document to multiple formats at once.
//
// Path semantics:
//   - Output files are named <base>.<ext> inside OutDir, where base is the
//     document file name without extension (or "document" when untitled).
//   - OutDir is created if missing.
type BatchOptions struct {
	Preset  PresetName
	Formats []string // allowed: html, pdf, png; empty means preset defaults
	Title   string
	Theme   theme.Theme
	OutDir  string
	// DocPath names the source file; only its base name is used.
	DocPath string
}

// BatchExport writes the document to every requested format.
func BatchExport(source []byte, opt BatchOptions) error {
	formats := opt.Formats
	if len(formats) == 0 {
		formats = presetDefaultFormats(opt.Preset)
	}
	for i := range formats {
		formats[i] = strings.ToLower(strings.TrimSpace(formats[i]))
	}

	base := "document"
	if opt.DocPath != "" {
		name := filepath.Base(opt.DocPath)
		base = strings.TrimSuffix(name, filepath.Ext(name))
	}
	title := opt.Title
	if title == "" {
		title = base
	}
	scripts := presetIncludeScripts(opt.Preset)

	for _, f := range formats {
		out := filepath.Join(opt.OutDir, base+"."+f)
		switch f {
		case "html":
			ho := HTMLOptions{
				Title:      title,
				Theme:      opt.Theme,
				IncludeCSS: true,
				Mermaid:    scripts,
				MathJax:    scripts,
			}
			if err := WriteHTML(source, out, ho); err != nil {
				return fmt.Errorf("html: %w", err)
			}
		case "pdf":
			if err := WritePDF(source, out, PDFOptions{Title: title}); err != nil {
				return fmt.Errorf("pdf: %w", err)
			}
		case "png":
			if err := WritePNG(source, out, PNGOptions{Theme: opt.Theme}); err != nil {
				return fmt.Errorf("png: %w", err)
			}
		default:
			return fmt.Errorf("unknown format: %s", f)
		}
	}
	return nil
}

func presetDefaultFormats(p PresetName) []string {
	switch p {
	case PresetWeb:
		return []string{"html"}
	case PresetPrint:
		return []string{"pdf"}
	case PresetShare:
		return []string{"html", "png"}
	default:
		return []string{"html", "pdf"}
	}
}

// presetIncludeScripts reports whether CDN-backed Mermaid/MathJax belong in
// the preset's HTML output. Share output must work offline.
func presetIncludeScripts(p PresetName) bool {
	return p == PresetWeb
}
