/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mdpad/internal/backend"
	"mdpad/internal/config"
	"mdpad/internal/crash"
	"mdpad/internal/editor"
	"mdpad/internal/export"
	applog "mdpad/internal/log"
	"mdpad/internal/state"
	"mdpad/internal/telemetry"
	"mdpad/internal/theme"
	"mdpad/internal/ui"
	"mdpad/internal/version"
)

func usage() {
	fmt.Println("mdpad — markdown editor with synced preview")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  mdpad version|-v|--version                 Show version")
	fmt.Println("  mdpad render <file> [out.html]             Render markdown to a standalone HTML document")
	fmt.Println("  mdpad export <file> <out> [--theme dark]   Export to .html, .pdf or .png (by extension)")
	fmt.Println("  mdpad batch <file> <outdir> <preset>       Batch export (web | print | share)")
	fmt.Println("  mdpad search <query>                       Full-text search over indexed documents")
	fmt.Println("  mdpad library list                         List documents in the shared library (requires enable_server)")
	fmt.Println("  mdpad library search <query>               Search the shared library (server, or Postgres if a DSN is set)")
	fmt.Println("  mdpad themes export <zip> <dir>            Pack theme JSON files into a zip")
	fmt.Println("  mdpad themes import <zip> <dir>            Install themes from a zip")
	fmt.Println("  mdpad ui [<file>]                          Launch desktop UI (build with -tags fyne)")
}

func main() {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	if cfg, _, err := config.Load(); err == nil {
		telemetry.InitFromConfig(cfg.General.TelemetryOptIn)
	}
	defer telemetry.Flush(context.Background())
	sess := editor.NewSession()
	defer func() { crash.Recover(sess) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("mdpad — markdown editor with synced preview")
			fmt.Println(version.String())
			return
		case "render":
			if len(args) < 3 {
				fmt.Println("render requires <file>")
				usage()
				os.Exit(2)
			}
			in := args[2]
			out := strings.TrimSuffix(in, filepath.Ext(in)) + ".html"
			if len(args) >= 4 {
				out = args[3]
			}
			if err := renderCmd(sess, in, out); err != nil {
				l.Error("render failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Rendered", out)
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <file> and <out>")
				usage()
				os.Exit(2)
			}
			th := theme.Light
			for i := 4; i < len(args)-1; i++ {
				if args[i] == "--theme" {
					th = theme.Builtin(args[i+1])
				}
			}
			if err := exportCmd(sess, args[2], args[3], th); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported", args[3])
			return
		case "batch":
			if len(args) < 5 {
				fmt.Println("batch requires <file>, <outdir> and <preset>")
				usage()
				os.Exit(2)
			}
			if err := batchCmd(sess, args[2], args[3], args[4]); err != nil {
				l.Error("batch export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported to", args[3])
			return
		case "search":
			if len(args) < 3 {
				fmt.Println("search requires <query>")
				usage()
				os.Exit(2)
			}
			if err := searchCmd(strings.Join(args[2:], " ")); err != nil {
				l.Error("search failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "library":
			if len(args) < 3 {
				fmt.Println("library requires list or search <query>")
				usage()
				os.Exit(2)
			}
			if err := libraryCmd(args[2], strings.Join(args[3:], " ")); err != nil {
				l.Error("library command failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "themes":
			if len(args) < 5 {
				fmt.Println("themes requires export|import <zip> <dir>")
				usage()
				os.Exit(2)
			}
			if err := themesCmd(args[2], args[3], args[4]); err != nil {
				l.Error("themes command failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		case "ui":
			var file string
			if len(args) >= 3 {
				file = args[2]
			}
			if err := ui.Run(file); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

func renderCmd(sess *editor.Session, in, out string) error {
	if err := sess.Open(in); err != nil {
		return err
	}
	cfg, _, _ := config.Load()
	th := theme.Builtin(cfg.General.Theme)
	if err := export.WriteHTML([]byte(sess.Buffer().Text()), out, export.HTMLOptions{
		Title:      documentBase(in),
		Theme:      th,
		IncludeCSS: true,
		Mermaid:    true,
		MathJax:    true,
	}); err != nil {
		return err
	}
	telemetry.DocumentExported("html")
	return nil
}

func exportCmd(sess *editor.Session, in, out string, th theme.Theme) error {
	if err := sess.Open(in); err != nil {
		return err
	}
	src := []byte(sess.Buffer().Text())
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(out), "."))
	var err error
	switch ext {
	case "pdf":
		err = export.WritePDF(src, out, export.PDFOptions{Title: documentBase(in)})
	case "png":
		err = export.WritePNG(src, out, export.PNGOptions{Theme: th})
	case "html", "htm":
		err = export.WriteHTML(src, out, export.HTMLOptions{
			Title: documentBase(in), Theme: th, IncludeCSS: true, Mermaid: true, MathJax: true,
		})
	default:
		return fmt.Errorf("unsupported output extension %q (use .html, .pdf or .png)", filepath.Ext(out))
	}
	if err != nil {
		return err
	}
	telemetry.DocumentExported(ext)
	return nil
}

func batchCmd(sess *editor.Session, in, outDir, preset string) error {
	if err := sess.Open(in); err != nil {
		return err
	}
	cfg, _, _ := config.Load()
	if err := export.BatchExport([]byte(sess.Buffer().Text()), export.BatchOptions{
		Preset:  export.PresetName(preset),
		Title:   documentBase(in),
		Theme:   theme.Builtin(cfg.General.Theme),
		OutDir:  outDir,
		DocPath: in,
	}); err != nil {
		return err
	}
	telemetry.DocumentExported(preset)
	return nil
}

func searchCmd(query string) error {
	dir, err := stateDirectory()
	if err != nil {
		return err
	}
	store, err := state.Open(dir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	hits, err := store.Search(context.Background(), state.SearchQuery{Text: query, Limit: 50})
	if err != nil {
		return err
	}
	telemetry.SearchPerformed("local")
	if len(hits) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, h := range hits {
		fmt.Printf("%s\t%s\t%s\n", h.Path, h.Title, h.Snippet)
	}
	return nil
}

func libraryCmd(verb, query string) error {
	cfg, token, err := config.Load()
	if err != nil {
		return err
	}
	if !cfg.General.EnableServer {
		return fmt.Errorf("the shared library is disabled; set general.enable_server in the config file")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch verb {
	case "list":
		c := backend.NewClient(cfg.Backend.BaseURL, token, time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
		docs, err := c.ListDocuments(ctx)
		if err != nil {
			return err
		}
		for _, d := range docs {
			fmt.Printf("%d\t%s\t%s\n", d.ID, d.Title, d.Path)
		}
		return nil
	case "search":
		if query == "" {
			return fmt.Errorf("library search requires <query>")
		}
		telemetry.SearchPerformed("library")
		// Prefer the direct Postgres path when a DSN is configured.
		if dsn := cfg.Backend.PostgresDSN; dsn != "" {
			db, err := backend.OpenPG(ctx, dsn)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()
			hits, err := backend.SearchPG(ctx, db, state.SearchQuery{Text: query, Limit: 50})
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Printf("%s\t%s\t%s\n", h.Path, h.Title, h.Snippet)
			}
			return nil
		}
		c := backend.NewClient(cfg.Backend.BaseURL, token, time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
		hits, err := c.SearchDocuments(ctx, query)
		if err != nil {
			return err
		}
		for _, h := range hits {
			fmt.Printf("%s\t%s\t%s\n", h.Path, h.Title, h.Snippet)
		}
		return nil
	default:
		return fmt.Errorf("unknown library verb %q (use list or search)", verb)
	}
}

func themesCmd(verb, zipPath, dir string) error {
	switch verb {
	case "export":
		return theme.ExportPack(dir, zipPath)
	case "import":
		n, err := theme.InstallPack(dir, zipPath)
		if err != nil {
			return err
		}
		fmt.Printf("Installed %d theme(s).\n", n)
		return nil
	default:
		return fmt.Errorf("unknown themes verb %q (use export or import)", verb)
	}
}

// stateDirectory returns the per-user directory holding the state database.
func stateDirectory() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "mdpad"), nil
}

func documentBase(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
