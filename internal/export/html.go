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

	applog "mdpad/internal/log"
	"mdpad/internal/render"
	"mdpad/internal/theme"
)

// HTMLOptions controls the standalone HTML export.
type HTMLOptions struct {
	Title      string
	Theme      theme.Theme
	IncludeCSS bool
	Mermaid    bool
	MathJax    bool
	// Render selects the markdown extensions; the zero value means the
	// preview's default set.
	Render render.Options
}

// WriteHTML renders markdown to a complete themed HTML document at outPath.
func WriteHTML(source []byte, outPath string, opt HTMLOptions) error {
	l := applog.WithOperation(applog.WithComponent("export"), "html")
	ropts := opt.Render
	if ropts == (render.Options{}) {
		ropts = render.Default()
	}
	body, err := render.New(ropts).Render(source)
	if err != nil {
		return err
	}
	doc := render.Document(body, render.DocumentOptions{
		Title:      opt.Title,
		Theme:      opt.Theme,
		IncludeCSS: opt.IncludeCSS,
		Mermaid:    opt.Mermaid,
		MathJax:    opt.MathJax,
	})
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	l.Info("html exported", slog.String("path", outPath), slog.Int("bytes", len(doc)))
	return nil
}
