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
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	applog "mdpad/internal/log"
)

// PDFOptions controls PDF export behavior. Units are points.
// Built-in Helvetica and Courier keep the text vector without font embedding.
type PDFOptions struct {
	Title    string
	FontSize float64 // body size, default 11
	Margin   float64 // all four margins, default 54 (0.75")
	PageSize string  // gofpdf size string, default "A4"
}

// WritePDF typesets the markdown source into a paginated PDF at outPath.
// Inline markup is flattened to plain text; tables and embedded images are
// not rendered.
func WritePDF(source []byte, outPath string, opt PDFOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "pdf")
	fs := opt.FontSize
	if fs <= 0 {
		fs = 11
	}
	margin := opt.Margin
	if margin <= 0 {
		margin = 54
	}
	size := opt.PageSize
	if size == "" {
		size = "A4"
	}

	pdf := gofpdf.New("P", "pt", size, "")
	pdf.SetTitle(opt.Title, true)
	pdf.SetAuthor("mdpad", false)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, _ := pdf.GetPageSize()
	bodyW := pageW - 2*margin

	for _, b := range Blocks(source) {
		switch b.Kind {
		case KindHeading:
			size := headingSize(fs, b.Level)
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(bodyW, size*1.35, tr(b.Text), "", "L", false)
			pdf.Ln(size * 0.5)
		case KindParagraph:
			pdf.SetFont("Helvetica", "", fs)
			pdf.MultiCell(bodyW, fs*1.5, tr(b.Text), "", "L", false)
			pdf.Ln(fs * 0.7)
		case KindQuote:
			pdf.SetFont("Helvetica", "I", fs)
			pdf.SetLeftMargin(margin + 18)
			pdf.SetX(margin + 18)
			pdf.MultiCell(bodyW-18, fs*1.5, tr(b.Text), "", "L", false)
			pdf.SetLeftMargin(margin)
			pdf.Ln(fs * 0.7)
		case KindCode:
			pdf.SetFont("Courier", "", fs-1)
			for _, line := range strings.Split(b.Text, "\n") {
				pdf.MultiCell(bodyW, (fs-1)*1.4, tr(line), "", "L", false)
			}
			pdf.Ln(fs * 0.7)
		case KindListItem:
			pdf.SetFont("Helvetica", "", fs)
			indent := margin + float64(b.Indent)*14
			marker := "\x95 " // bullet in cp1252
			if b.Ordered {
				marker = fmt.Sprintf("%d. ", b.Index)
			}
			pdf.SetLeftMargin(indent)
			pdf.SetX(indent)
			pdf.MultiCell(bodyW-float64(b.Indent)*14, fs*1.5, marker+tr(b.Text), "", "L", false)
			pdf.SetLeftMargin(margin)
		case KindRule:
			y := pdf.GetY() + fs*0.5
			pdf.SetDrawColor(160, 160, 160)
			pdf.SetLineWidth(0.5)
			pdf.Line(margin, y, pageW-margin, y)
			pdf.SetY(y + fs*0.5)
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf exported", slog.String("path", outPath))
	return nil
}

func headingSize(body float64, level int) float64 {
	switch level {
	case 1:
		return body * 2
	case 2:
		return body * 1.6
	case 3:
		return body * 1.3
	default:
		return body * 1.15
	}
}
