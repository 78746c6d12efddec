/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package theme

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "mdpad/internal/log"
)

const packManifest = "themepack.manifest.txt"

// ExportPack zips every .json theme in themesDir into a single .zip archive
// with a small manifest at the root for quick human inspection. An empty or
// missing themes directory still produces an archive with only the manifest.
func ExportPack(themesDir, destZipPath string) error {
	l := applog.WithOperation(applog.WithComponent("theme"), "export").With(slog.String("dir", themesDir))
	if strings.TrimSpace(themesDir) == "" {
		return errors.New("themesDir is required")
	}
	if strings.TrimSpace(destZipPath) == "" {
		return errors.New("destZipPath is required")
	}
	if _, err := os.Stat(themesDir); os.IsNotExist(err) {
		if err := os.MkdirAll(themesDir, 0o755); err != nil {
			return fmt.Errorf("ensure themes dir: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(destZipPath), 0o755); err != nil {
		return fmt.Errorf("ensure zip dir: %w", err)
	}
	// On Windows, remove destination if present before create
	_ = os.Remove(destZipPath)

	zf, err := os.Create(destZipPath)
	if err != nil {
		return fmt.Errorf("create zip: %w", err)
	}
	defer func() { _ = zf.Close() }()
	zw := zip.NewWriter(zf)
	defer func() { _ = zw.Close() }()

	manifest := fmt.Sprintf("mdpad Theme Pack\nCreated: %s\n\nContents are preview theme files (.json).\n",
		time.Now().Format(time.RFC3339))
	w, err := zw.Create(packManifest)
	if err != nil {
		return fmt.Errorf("add manifest: %w", err)
	}
	if _, err := w.Write([]byte(manifest)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	added := 0
	err = filepath.Walk(themesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		rel, err := filepath.Rel(themesDir, path)
		if err != nil {
			return err
		}
		fw, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		if _, err := io.Copy(fw, f); err != nil {
			return err
		}
		added++
		return nil
	})
	if err != nil {
		l.Error("zip build failed", slog.Any("err", err))
		return fmt.Errorf("build zip: %w", err)
	}
	l.Info("theme pack exported", slog.Int("files", added), slog.String("zip", destZipPath))
	return nil
}

// InstallPack extracts the theme files from a .zip pack into themesDir.
// Every theme is validated before it is written; invalid entries abort the
// install. Existing files are skipped, never overwritten. Returns the count
// of themes installed.
func InstallPack(themesDir, packZipPath string) (int, error) {
	l := applog.WithOperation(applog.WithComponent("theme"), "install").With(slog.String("dir", themesDir))
	if strings.TrimSpace(themesDir) == "" {
		return 0, errors.New("themesDir is required")
	}
	if strings.TrimSpace(packZipPath) == "" {
		return 0, errors.New("packZipPath is required")
	}
	if err := os.MkdirAll(themesDir, 0o755); err != nil {
		return 0, fmt.Errorf("ensure themes dir: %w", err)
	}

	r, err := zip.OpenReader(packZipPath)
	if err != nil {
		return 0, fmt.Errorf("open pack: %w", err)
	}
	defer func() { _ = r.Close() }()

	installed := 0
	for _, f := range r.File {
		if f.Name == packManifest || f.FileInfo().IsDir() {
			continue
		}
		if !strings.EqualFold(filepath.Ext(f.Name), ".json") {
			continue
		}
		// Flatten: archive sub-paths are reduced to the base name so a
		// crafted pack cannot write outside the themes directory.
		targetPath := filepath.Join(themesDir, filepath.Base(f.Name))
		if _, err := os.Stat(targetPath); err == nil {
			l.Warn("skip existing theme", slog.String("path", targetPath))
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return installed, err
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return installed, err
		}
		if _, err := Parse(data); err != nil {
			return installed, fmt.Errorf("pack entry %s: %w", f.Name, err)
		}
		if err := os.WriteFile(targetPath, data, 0o644); err != nil {
			return installed, err
		}
		installed++
	}
	l.Info("theme pack installed", slog.Int("files", installed))
	return installed, nil
}

// List returns the built-in themes plus every valid user theme in themesDir,
// logging and skipping files that fail validation.
func List(themesDir string) []Theme {
	themes := []Theme{Light, Dark}
	entries, err := os.ReadDir(themesDir)
	if err != nil {
		return themes
	}
	l := applog.WithComponent("theme")
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		t, err := Load(filepath.Join(themesDir, e.Name()))
		if err != nil {
			l.Warn("skipping invalid theme", slog.String("file", e.Name()), slog.Any("err", err))
			continue
		}
		themes = append(themes, t)
	}
	return themes
}
