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
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	applog "mdpad/internal/log"
	"mdpad/internal/textlayout"
	"mdpad/internal/theme"
)

// PNGOptions controls the raster export. The document is rendered as themed
// plain text with the deterministic bitmap face, so output is identical
// across platforms.
type PNGOptions struct {
	Width   int // pixels, default 800
	Padding int // pixels, default 24
	Theme   theme.Theme
}

// WritePNG rasterizes the markdown source into a single PNG at outPath.
func WritePNG(source []byte, outPath string, opt PNGOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "png")
	width := opt.Width
	if width <= 0 {
		width = 800
	}
	pad := opt.Padding
	if pad <= 0 {
		pad = 24
	}

	face, metrics := textlayout.BasicProvider{}.Resolve()
	lineH := metrics.LineHeight()
	textW := width - 2*pad

	lines := blockLines(Blocks(source), face, textW)
	height := len(lines)*lineH + 2*pad
	if height < lineH+2*pad {
		height = lineH + 2*pad
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: hexColor(opt.Theme.Colors.Background, color.RGBA{255, 255, 255, 255})}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: hexColor(opt.Theme.Colors.Text, color.RGBA{30, 30, 30, 255})},
		Face: face,
	}
	y := pad + metrics.Ascent
	for _, line := range lines {
		d.Dot = fixed.P(pad+line.indent, y)
		d.DrawString(line.text)
		y += lineH
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	l.Info("png exported", slog.String("path", outPath), slog.Int("width", width), slog.Int("height", height))
	return nil
}

type rasterLine struct {
	text   string
	indent int
}

// blockLines converts blocks into wrapped raster lines with plain-text
// decorations: heading underlines, quote bars, list markers.
func blockLines(blocks []Block, face font.Face, maxWidth int) []rasterLine {
	var out []rasterLine
	blank := func() {
		if len(out) > 0 {
			out = append(out, rasterLine{})
		}
	}
	for _, b := range blocks {
		switch b.Kind {
		case KindHeading:
			blank()
			for _, l := range textlayout.Wrap(face, b.Text, maxWidth) {
				out = append(out, rasterLine{text: l})
			}
			if b.Level <= 2 {
				mark := "="
				if b.Level == 2 {
					mark = "-"
				}
				out = append(out, rasterLine{text: strings.Repeat(mark, minInt(len(b.Text), 40))})
			}
		case KindParagraph:
			blank()
			for _, l := range textlayout.Wrap(face, b.Text, maxWidth) {
				out = append(out, rasterLine{text: l})
			}
		case KindQuote:
			blank()
			for _, l := range textlayout.Wrap(face, b.Text, maxWidth-16) {
				out = append(out, rasterLine{text: "| " + l})
			}
		case KindCode:
			blank()
			for _, l := range strings.Split(b.Text, "\n") {
				out = append(out, rasterLine{text: l, indent: 16})
			}
		case KindListItem:
			marker := "- "
			if b.Ordered {
				marker = strconv.Itoa(b.Index) + ". "
			}
			indent := 16 * b.Indent
			wrapped := textlayout.Wrap(face, b.Text, maxWidth-indent-textlayout.Width(face, marker))
			for i, l := range wrapped {
				if i == 0 {
					out = append(out, rasterLine{text: marker + l, indent: indent})
				} else {
					out = append(out, rasterLine{text: strings.Repeat(" ", len(marker)) + l, indent: indent})
				}
			}
		case KindRule:
			blank()
			out = append(out, rasterLine{text: strings.Repeat("-", 40)})
		}
	}
	return out
}

// hexColor parses "#rrggbb", falling back when malformed.
func hexColor(s string, fallback color.RGBA) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return fallback
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return fallback
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
