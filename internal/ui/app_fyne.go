//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	fynetheme "fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"mdpad/internal/config"
	"mdpad/internal/crash"
	"mdpad/internal/editor"
	"mdpad/internal/export"
	"mdpad/internal/i18n"
	applog "mdpad/internal/log"
	"mdpad/internal/scrollsync"
	"mdpad/internal/state"
	"mdpad/internal/telemetry"
	"mdpad/internal/theme"
	"mdpad/internal/undo"
)

// forcedVariantTheme pins the light or dark variant regardless of the OS
// setting, so the in-app dark mode toggle always wins.
type forcedVariantTheme struct {
	fyne.Theme
	variant fyne.ThemeVariant
}

func (t *forcedVariantTheme) Color(name fyne.ThemeColorName, _ fyne.ThemeVariant) color.Color {
	return t.Theme.Color(name, t.variant)
}

// Run starts the Fyne-based desktop editor with a split markdown editor and
// live preview. filePath, when non-empty, is opened immediately.
func Run(filePath string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	telemetry.InitFromConfig(cfg.General.TelemetryOptIn)
	tr, err := i18n.NewTranslator(cfg.General.Locale)
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}

	sess := editor.NewSession()
	defer func() { crash.Recover(sess) }()

	stateDir, err := stateDirectory()
	if err != nil {
		return err
	}
	store, err := state.Open(stateDir)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	ctx := context.Background()

	fyneApp := app.NewWithID("mdpad")
	w := fyneApp.NewWindow(tr.T("AppTitle", nil))

	winW := store.GetInt(ctx, state.KeyWindowWidth, 1200)
	winH := store.GetInt(ctx, state.KeyWindowHeight, 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	darkMode := store.GetBool(ctx, state.KeyDarkMode, cfg.General.Theme == "dark")
	applyVariant := func() {
		variant := fynetheme.VariantLight
		if darkMode {
			variant = fynetheme.VariantDark
		}
		fyneApp.Settings().SetTheme(&forcedVariantTheme{Theme: fynetheme.DefaultTheme(), variant: variant})
	}
	applyVariant()
	previewTheme := func() theme.Theme {
		if darkMode {
			return theme.Dark
		}
		return theme.Light
	}

	status := widget.NewLabel("Ready")
	buf := sess.Buffer()

	// Editor pane
	entry := widget.NewMultiLineEntry()
	entry.Wrapping = fyne.TextWrapWord
	editorScroll := container.NewVScroll(entry)

	// Preview pane
	preview := widget.NewRichTextFromMarkdown("")
	preview.Wrapping = fyne.TextWrapWord
	previewScroll := container.NewVScroll(preview)

	renderPreview := func() {
		preview.ParseMarkdown(buf.Text())
		preview.Refresh()
	}

	// Scroll synchronization
	coord := scrollsync.New(scrollsync.Config{
		Enabled:       cfg.Sync.Enabled,
		Debounce:      time.Duration(cfg.Sync.DebounceMs) * time.Millisecond,
		Threshold:     cfg.Sync.Threshold,
		PollInterval:  time.Duration(cfg.Sync.PollMs) * time.Millisecond,
		Settle:        time.Duration(cfg.Sync.SettleMs) * time.Millisecond,
		CommandSettle: time.Duration(cfg.Sync.CmdSettleMs) * time.Millisecond,
	})
	if err := coord.AttachEditor(&scrollEditor{sc: editorScroll}); err != nil {
		l.Warn("attach editor channel", slog.Any("err", err))
	}
	if err := coord.AttachPreview(&scrollPreview{sc: previewScroll}); err != nil {
		l.Warn("attach preview channel", slog.Any("err", err))
	}

	// Undo manager; snapshots are keyed by document path.
	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    16 * 1024 * 1024,
		MaxPerDoc:   200,
		MinInterval: 300 * time.Millisecond,
	})
	docKey := func() string {
		if p := sess.Path(); p != "" {
			return p
		}
		return "untitled"
	}

	updateTitle := func() {
		name := tr.T("Untitled", nil)
		if p := sess.Path(); p != "" {
			name = filepath.Base(p)
		}
		mark := ""
		if sess.Modified() {
			mark = "*"
		}
		w.SetTitle(fmt.Sprintf("%s%s — %s", mark, name, tr.T("AppTitle", nil)))
	}

	// Debounced re-render while typing.
	var renderTimer *time.Timer
	scheduleRender := func() {
		if renderTimer != nil {
			renderTimer.Stop()
		}
		renderTimer = time.AfterFunc(250*time.Millisecond, func() {
			fyne.Do(renderPreview)
		})
	}

	syncingEntry := false
	entry.OnChanged = func(s string) {
		if syncingEntry {
			return
		}
		// Capture snapshot before mutation so the first undo has effect.
		if prev := buf.Text(); prev != s {
			undoMgr.Push(undo.Snapshot{Path: docKey(), Text: prev, TS: time.Now()})
		}
		buf.SetText(s)
		updateTitle()
		scheduleRender()
	}

	// setEntryText pushes buffer text into the widget without re-entering
	// OnChanged's snapshot path.
	setEntryText := func(s string) {
		syncingEntry = true
		entry.SetText(s)
		syncingEntry = false
	}

	applyFormat := func(op func()) {
		start, end := selectionRange(entry.Text, entry.SelectedText(), entryCursorOffset(entry))
		buf.Select(start, end)
		op()
		setEntryText(buf.Text())
		_, end := buf.Selection()
		setEntryCursor(entry, end)
		updateTitle()
		scheduleRender()
	}

	// Formatting toolbar
	toolbar := container.NewHBox(
		widget.NewButton("B", func() { applyFormat(buf.Bold) }),
		widget.NewButton("I", func() { applyFormat(buf.Italic) }),
		widget.NewButton("S", func() { applyFormat(buf.Strikethrough) }),
		widget.NewButton("`", func() { applyFormat(buf.InlineCode) }),
		widget.NewSeparator(),
		widget.NewButton("H1", func() { applyFormat(func() { buf.SetHeading(1) }) }),
		widget.NewButton("H2", func() { applyFormat(func() { buf.SetHeading(2) }) }),
		widget.NewButton("H3", func() { applyFormat(func() { buf.SetHeading(3) }) }),
		widget.NewSeparator(),
		widget.NewButton("•", func() { applyFormat(buf.BulletList) }),
		widget.NewButton("1.", func() { applyFormat(buf.NumberedList) }),
		widget.NewButton("❝", func() { applyFormat(buf.BlockQuote) }),
		widget.NewButton("{}", func() { applyFormat(buf.CodeBlock) }),
	)

	// Sidebar: recent files
	recentPaths := []string{}
	recentList := widget.NewList(
		func() int { return len(recentPaths) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if int(i) < len(recentPaths) {
				o.(*widget.Label).SetText(filepath.Base(recentPaths[i]))
			}
		},
	)
	refreshRecent := func() {
		paths, err := store.RecentFiles(ctx)
		if err != nil {
			l.Warn("recent files", slog.Any("err", err))
			return
		}
		recentPaths = paths
		recentList.Refresh()
	}
	sidebar := container.NewBorder(widget.NewLabel(tr.T("MenuRecentFiles", nil)), nil, nil, nil, recentList)
	if !store.GetBool(ctx, state.KeySidebarVisible, true) {
		sidebar.Hide()
	}

	var openDocument func(path string)
	recentList.OnSelected = func(id widget.ListItemID) {
		if int(id) < len(recentPaths) {
			openDocument(recentPaths[id])
		}
		recentList.UnselectAll()
	}

	openDocument = func(path string) {
		if err := sess.Open(path); err != nil {
			l.Error("open failed", slog.String("path", path), slog.Any("err", err))
			dialog.ShowError(fmt.Errorf("%s: %w", tr.T("ErrorOpenFailed", map[string]any{"Path": path}), err), w)
			return
		}
		setEntryText(buf.Text())
		renderPreview()
		undoMgr.Clear(path)
		_ = store.TouchRecentFile(ctx, path)
		_ = store.SetString(ctx, state.KeyLastOpenedFile, path)
		_ = store.IndexDocument(ctx, path, documentTitle(buf.Text(), path), buf.Text())
		refreshRecent()
		updateTitle()
		if e, p, ok := store.ScrollCheckpoint(ctx, path); ok {
			coord.RestorePositions(e, p)
		}
		telemetry.DocumentOpened()
		status.SetText(fmt.Sprintf("Opened %s", path))
	}

	// saveCheckpoint persists the current scroll positions. The preview
	// percentage arrives asynchronously; the returned channel closes once
	// the checkpoint is written, so shutdown can wait before closing the
	// store.
	saveCheckpoint := func() <-chan struct{} {
		done := make(chan struct{})
		path := sess.Path()
		if path == "" {
			close(done)
			return done
		}
		coord.SavePositions(func(editorPct, previewPct float64) {
			defer close(done)
			if err := store.SaveScrollCheckpoint(ctx, path, editorPct, previewPct); err != nil {
				l.Warn("save scroll checkpoint", slog.Any("err", err))
			}
		})
		return done
	}

	saveDocument := func(then func()) {
		doSave := func(err error) {
			if err != nil {
				dialog.ShowError(fmt.Errorf("%s: %w", tr.T("ErrorSaveFailed", map[string]any{"Path": sess.Path()}), err), w)
				return
			}
			_ = store.TouchRecentFile(ctx, sess.Path())
			_ = store.IndexDocument(ctx, sess.Path(), documentTitle(buf.Text(), sess.Path()), buf.Text())
			refreshRecent()
			updateTitle()
			telemetry.DocumentSaved()
			status.SetText(fmt.Sprintf("Saved %s", sess.Path()))
			if then != nil {
				then()
			}
		}
		if sess.Path() != "" {
			doSave(sess.Save())
			return
		}
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			doSave(sess.SaveAs(path))
		}, w)
		save.SetFileName("untitled.md")
		save.Show()
	}

	// Export dialog: format follows the chosen file extension.
	showExportDialog := func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			outPath := uc.URI().Path()
			_ = uc.Close()
			src := []byte(buf.Text())
			title := documentTitle(buf.Text(), sess.Path())
			th := previewTheme()
			format := "html"
			var exportErr error
			switch strings.ToLower(filepath.Ext(outPath)) {
			case ".pdf":
				format = "pdf"
				exportErr = export.WritePDF(src, outPath, export.PDFOptions{Title: title})
			case ".png":
				format = "png"
				exportErr = export.WritePNG(src, outPath, export.PNGOptions{Theme: th})
			default:
				exportErr = export.WriteHTML(src, outPath, export.HTMLOptions{
					Title: title, Theme: th, IncludeCSS: true, Mermaid: true, MathJax: true,
				})
			}
			if exportErr != nil {
				dialog.ShowError(exportErr, w)
				return
			}
			telemetry.DocumentExported(format)
			status.SetText(tr.T("ExportDone", map[string]any{"Path": outPath}))
		}, w)
		base := "document"
		if p := sess.Path(); p != "" {
			base = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		}
		save.SetFileName(base + ".html")
		save.Show()
	}

	// Library search over the FTS index.
	showSearchDialog := func() {
		searchItems := []string{}
		var results []state.SearchResult
		list := widget.NewList(
			func() int { return len(searchItems) },
			func() fyne.CanvasObject { return widget.NewLabel("") },
			func(i widget.ListItemID, o fyne.CanvasObject) { o.(*widget.Label).SetText(searchItems[i]) },
		)
		input := widget.NewEntry()
		input.SetPlaceHolder(tr.T("SearchPlaceholder", nil))
		input.OnSubmitted = func(q string) {
			hits, err := store.Search(ctx, state.SearchQuery{Text: q, Limit: 50})
			if err != nil {
				l.Warn("search failed", slog.Any("err", err))
				return
			}
			telemetry.SearchPerformed("local")
			results = hits
			searchItems = searchItems[:0]
			for _, r := range hits {
				searchItems = append(searchItems, fmt.Sprintf("%s — %s", r.Title, r.Snippet))
			}
			list.Refresh()
		}
		content := container.NewBorder(input, nil, nil, nil, list)
		d := dialog.NewCustom(tr.T("SearchPlaceholder", nil), "Close", content, w)
		list.OnSelected = func(id widget.ListItemID) {
			if int(id) < len(results) {
				d.Hide()
				openDocument(results[id].Path)
			}
		}
		d.Resize(fyne.NewSize(600, 400))
		d.Show()
	}

	confirmDiscard := func(then func()) {
		if !sess.Modified() {
			then()
			return
		}
		name := tr.T("Untitled", nil)
		if p := sess.Path(); p != "" {
			name = filepath.Base(p)
		}
		dialog.ShowConfirm(tr.T("AppTitle", nil),
			tr.T("UnsavedChanges", map[string]any{"Name": name}),
			func(saveFirst bool) {
				if saveFirst {
					saveDocument(then)
					return
				}
				then()
			}, w)
	}

	// Menus
	newItem := fyne.NewMenuItem("New", func() {
		confirmDiscard(func() {
			saveCheckpoint()
			sess = editor.NewSession()
			buf = sess.Buffer()
			setEntryText("")
			renderPreview()
			updateTitle()
		})
	})
	openItem := fyne.NewMenuItem(tr.T("MenuOpen", nil), func() {
		confirmDiscard(func() {
			saveCheckpoint()
			open := dialog.NewFileOpen(func(ur fyne.URIReadCloser, err error) {
				if err != nil || ur == nil {
					return
				}
				path := ur.URI().Path()
				_ = ur.Close()
				openDocument(path)
			}, w)
			open.Show()
		})
	})
	saveItem := fyne.NewMenuItem(tr.T("MenuSave", nil), func() { saveDocument(nil) })
	saveAsItem := fyne.NewMenuItem(tr.T("MenuSaveAs", nil), func() {
		save := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
			if err != nil || uc == nil {
				return
			}
			path := uc.URI().Path()
			_ = uc.Close()
			if err := sess.SaveAs(path); err != nil {
				dialog.ShowError(err, w)
				return
			}
			_ = store.TouchRecentFile(ctx, path)
			refreshRecent()
			updateTitle()
		}, w)
		save.SetFileName("untitled.md")
		save.Show()
	})
	exportItem := fyne.NewMenuItem(tr.T("MenuExport", nil), showExportDialog)
	searchItem := fyne.NewMenuItem(tr.T("SearchPlaceholder", nil), showSearchDialog)

	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}

	fileMenu := fyne.NewMenu(tr.T("MenuFile", nil),
		newItem, openItem, saveItem, saveAsItem,
		fyne.NewMenuItemSeparator(), searchItem, exportItem)

	undoItem := fyne.NewMenuItem("Undo", func() {
		if snap, ok := undoMgr.Undo(docKey(), buf.Text()); ok {
			buf.SetText(snap.Text)
			setEntryText(snap.Text)
			renderPreview()
			updateTitle()
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		if snap, ok := undoMgr.Redo(docKey(), buf.Text()); ok {
			buf.SetText(snap.Text)
			setEntryText(snap.Text)
			renderPreview()
			updateTitle()
		}
	})
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}
	editMenu := fyne.NewMenu("Edit", undoItem, redoItem)

	insertMenu := fyne.NewMenu("Insert",
		fyne.NewMenuItem("Link", func() { applyFormat(buf.InsertLink) }),
		fyne.NewMenuItem("Image", func() { applyFormat(buf.InsertImage) }),
		fyne.NewMenuItem("Table", func() { applyFormat(buf.InsertTable) }),
		fyne.NewMenuItem("Mermaid Diagram", func() { applyFormat(buf.InsertMermaid) }),
		fyne.NewMenuItem("Math Block", func() { applyFormat(buf.InsertMathBlock) }),
	)

	darkItem := fyne.NewMenuItem(tr.T("ToggleDarkMode", nil), nil)
	darkItem.Checked = darkMode
	darkItem.Action = func() {
		darkMode = !darkMode
		darkItem.Checked = darkMode
		applyVariant()
		renderPreview()
	}
	syncItem := fyne.NewMenuItem(tr.T("ToggleScrollSync", nil), nil)
	syncItem.Checked = coord.Enabled()
	syncItem.Action = func() {
		coord.SetEnabled(!coord.Enabled())
		syncItem.Checked = coord.Enabled()
	}
	sidebarItem := fyne.NewMenuItem(tr.T("ToggleSidebar", nil), nil)
	sidebarItem.Checked = sidebar.Visible()
	sidebarItem.Action = func() {
		if sidebar.Visible() {
			sidebar.Hide()
		} else {
			sidebar.Show()
		}
		sidebarItem.Checked = sidebar.Visible()
	}
	viewMenu := fyne.NewMenu("View", darkItem, syncItem, sidebarItem)

	w.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, insertMenu, viewMenu))

	// Keyboard formatting shortcuts
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyB, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		applyFormat(buf.Bold)
	})
	w.Canvas().AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyI, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) {
		applyFormat(buf.Italic)
	})

	split := container.NewHSplit(editorScroll, previewScroll)
	split.SetOffset(0.5)
	center := container.NewBorder(toolbar, status, sidebar, nil, split)
	w.SetContent(center)

	// Optional autosave
	stopAutosave := make(chan struct{})
	if cfg.Editor.AutoSave {
		interval := time.Duration(cfg.Editor.AutoSaveIntervalS) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			for {
				select {
				case <-stopAutosave:
					return
				case <-t.C:
					if sess.Modified() && sess.Path() != "" {
						if err := sess.Save(); err != nil {
							l.Warn("autosave failed", slog.Any("err", err))
						} else {
							fyne.Do(updateTitle)
						}
					}
				}
			}
		}()
	}

	w.SetCloseIntercept(func() {
		confirmDiscard(func() {
			sz := w.Canvas().Size()
			_ = store.SetInt(ctx, state.KeyWindowWidth, int(sz.Width))
			_ = store.SetInt(ctx, state.KeyWindowHeight, int(sz.Height))
			_ = store.SetBool(ctx, state.KeyDarkMode, darkMode)
			_ = store.SetBool(ctx, state.KeySidebarVisible, sidebar.Visible())
			done := saveCheckpoint()
			go func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					l.Warn("scroll checkpoint not written before shutdown")
				}
				fyne.Do(w.Close)
			}()
		})
	})

	refreshRecent()
	if filePath == "" {
		filePath = store.GetString(ctx, state.KeyLastOpenedFile, "")
	}
	if filePath != "" {
		if abs, err := filepath.Abs(filePath); err == nil {
			filePath = abs
		}
		if _, err := os.Stat(filePath); err == nil {
			openDocument(filePath)
		} else {
			l.Warn("startup file missing", slog.String("path", filePath))
		}
	}
	updateTitle()

	w.ShowAndRun()

	close(stopAutosave)
	coord.Close()
	if err := store.Close(); err != nil {
		l.Warn("close state store", slog.Any("err", err))
	}
	return nil
}

// stateDirectory returns the per-user directory holding the state database.
func stateDirectory() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(base, "mdpad"), nil
}

// documentTitle derives a display title: the first ATX heading, else the
// file's base name, else "Untitled".
func documentTitle(text, path string) string {
	for _, line := range strings.Split(text, "\n") {
		s := strings.TrimSpace(line)
		if strings.HasPrefix(s, "#") {
			return strings.TrimSpace(strings.TrimLeft(s, "#"))
		}
	}
	if path != "" {
		base := filepath.Base(path)
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return "Untitled"
}

// entryCursorOffset converts the entry's row/column cursor to a rune offset.
func entryCursorOffset(e *widget.Entry) int {
	lines := strings.Split(e.Text, "\n")
	off := 0
	for i := 0; i < e.CursorRow && i < len(lines); i++ {
		off += len([]rune(lines[i])) + 1
	}
	col := e.CursorColumn
	if e.CursorRow < len(lines) {
		if n := len([]rune(lines[e.CursorRow])); col > n {
			col = n
		}
	}
	return off + col
}

// setEntryCursor converts a rune offset back to the entry's row/column.
func setEntryCursor(e *widget.Entry, off int) {
	runes := []rune(e.Text)
	if off > len(runes) {
		off = len(runes)
	}
	row, col := 0, 0
	for i := 0; i < off; i++ {
		if runes[i] == '\n' {
			row++
			col = 0
		} else {
			col++
		}
	}
	e.CursorRow = row
	e.CursorColumn = col
	e.Refresh()
}
