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
	"os"
	"path/filepath"
	"testing"
)

const validTheme = `{
	"name": "solarized",
	"dark": true,
	"colors": {
		"background": "#002b36",
		"text": "#839496",
		"link": "#268bd2",
		"code_background": "#073642",
		"pre_background": "#073642",
		"border": "#586e75"
	}
}`

func TestParseValidTheme(t *testing.T) {
	th, err := Parse([]byte(validTheme))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if th.Name != "solarized" || !th.Dark {
		t.Fatalf("unexpected theme: %+v", th)
	}
	if th.Colors.Background != "#002b36" {
		t.Fatalf("colors not decoded: %+v", th.Colors)
	}
	if th.MermaidTheme() != "dark" {
		t.Fatalf("MermaidTheme = %q", th.MermaidTheme())
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"missing colors":  `{"name": "x"}`,
		"bad color":       `{"name": "x", "colors": {"background": "red", "text": "#000000", "link": "#000000", "code_background": "#000000", "pre_background": "#000000", "border": "#000000"}}`,
		"unknown field":   `{"name": "x", "shade": 1, "colors": {"background": "#ffffff", "text": "#000000", "link": "#000000", "code_background": "#000000", "pre_background": "#000000", "border": "#000000"}}`,
		"empty name":      `{"name": "", "colors": {"background": "#ffffff", "text": "#000000", "link": "#000000", "code_background": "#000000", "pre_background": "#000000", "border": "#000000"}}`,
		"not json object": `[1, 2]`,
	}
	for label, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Errorf("%s: Parse accepted invalid theme", label)
		}
	}
}

func TestBuiltin(t *testing.T) {
	if got := Builtin("dark"); !got.Dark {
		t.Fatalf("Builtin(dark) = %+v", got)
	}
	if got := Builtin("DARK"); !got.Dark {
		t.Fatal("Builtin must be case-insensitive")
	}
	if got := Builtin("nonsense"); got.Dark || got.Name != "light" {
		t.Fatalf("Builtin fallback = %+v", got)
	}
}

func TestPackRoundTrip(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "solarized.json"), []byte(validTheme), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-theme files are not packed.
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	if err := ExportPack(src, zipPath); err != nil {
		t.Fatalf("ExportPack: %v", err)
	}

	dst := t.TempDir()
	n, err := InstallPack(dst, zipPath)
	if err != nil {
		t.Fatalf("InstallPack: %v", err)
	}
	if n != 1 {
		t.Fatalf("installed %d themes, want 1", n)
	}
	th, err := Load(filepath.Join(dst, "solarized.json"))
	if err != nil {
		t.Fatalf("Load installed theme: %v", err)
	}
	if th.Name != "solarized" {
		t.Fatalf("installed theme = %+v", th)
	}

	// Re-install skips the existing file.
	n, err = InstallPack(dst, zipPath)
	if err != nil {
		t.Fatalf("InstallPack again: %v", err)
	}
	if n != 0 {
		t.Fatalf("re-install wrote %d files, want 0", n)
	}
}

func TestInstallPackRejectsInvalidEntry(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "broken.json"), []byte(`{"name": ""}`), 0o644); err != nil {
		t.Fatal(err)
	}
	zipPath := filepath.Join(t.TempDir(), "pack.zip")
	if err := ExportPack(src, zipPath); err != nil {
		t.Fatalf("ExportPack: %v", err)
	}
	if _, err := InstallPack(t.TempDir(), zipPath); err == nil {
		t.Fatal("InstallPack accepted an invalid theme entry")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "solarized.json"), []byte(validTheme), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}
	themes := List(dir)
	if len(themes) != 3 {
		t.Fatalf("List returned %d themes, want builtin 2 + 1 valid", len(themes))
	}
	if themes[0].Name != "light" || themes[1].Name != "dark" || themes[2].Name != "solarized" {
		t.Fatalf("unexpected theme order: %+v", themes)
	}
}
