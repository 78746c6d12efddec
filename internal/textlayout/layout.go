/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package textlayout measures and wraps text for the raster exporter. It
// deliberately avoids shaping and hyphenation: line breaking happens on
// spaces only, which is exact enough for plain-text document rendering and
// keeps the output deterministic across platforms.
package textlayout

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Metrics are the resolved face metrics in pixels.
type Metrics struct {
	Ascent, Descent, LineGap int
}

// LineHeight is the vertical advance between baselines.
func (m Metrics) LineHeight() int { return m.Ascent + m.Descent + m.LineGap }

// Provider maps a style request to a concrete font.Face. The raster exporter
// uses it so a TTF-backed provider can replace the built-in bitmap face
// without touching the layout code.
type Provider interface {
	Resolve() (font.Face, Metrics)
}

// BasicProvider resolves to the x/image Face7x13 bitmap face, which needs no
// font files and renders identically everywhere.
type BasicProvider struct{}

func (BasicProvider) Resolve() (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  m.Ascent.Round(),
		Descent: m.Descent.Round(),
		LineGap: m.Height.Round() - m.Ascent.Round() - m.Descent.Round(),
	}
}

// Width measures the horizontal advance of s in pixels.
func Width(face font.Face, s string) int {
	d := &font.Drawer{Face: face}
	return d.MeasureString(s).Ceil()
}

// Wrap breaks text into lines no wider than maxWidth pixels. Explicit
// newlines are honored; a single word wider than maxWidth gets its own line
// rather than being split. maxWidth <= 0 disables wrapping.
func Wrap(face font.Face, text string, maxWidth int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		if maxWidth <= 0 || para == "" {
			out = append(out, para)
			continue
		}
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}
		cur := words[0]
		for _, w := range words[1:] {
			if Width(face, cur+" "+w) <= maxWidth {
				cur += " " + w
				continue
			}
			out = append(out, cur)
			cur = w
		}
		out = append(out, cur)
	}
	return out
}
