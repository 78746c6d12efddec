/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package state persists runtime application state in an embedded SQLite
// database: window geometry, view toggles, recent files, per-document scroll
// checkpoints and the full-text search index. User preferences that belong
// in a hand-editable file live in internal/config instead.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	applog "mdpad/internal/log"
	"mdpad/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	StateFileName = "state.sqlite"

	// schemaVersion tracks the local SQLite schema. Bump it when performing
	// breaking schema changes and add a migration step.
	schemaVersion = 2

	maxRecentFiles = 10
)

// Store is the handle to the state database. It is safe for concurrent use;
// the underlying pool is capped at one connection for embedded usage.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open initializes (or opens) the state database under dir, enables WAL
// mode, ensures the schema and runs migrations.
func Open(dir string) (*Store, error) {
	l := applog.WithOperation(applog.WithComponent("state"), "open").With(slog.String("dir", dir))
	if dir == "" {
		return nil, errors.New("state dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.Error("create state dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	path := filepath.Join(dir, StateFileName)
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON;"); err != nil {
		l.Warn("enable foreign_keys failed", slog.Any("err", err))
	}

	s := &Store{db: db, log: applog.WithComponent("state")}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := s.runMigrations(ctx); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("state store ready", slog.String("path", path))
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS recent_files (
			path        TEXT PRIMARY KEY,
			last_opened TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS scroll_checkpoints (
			path        TEXT PRIMARY KEY,
			editor_pct  REAL NOT NULL,
			preview_pct REAL NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id INTEGER PRIMARY KEY,
			path   TEXT NOT NULL UNIQUE,
			title  TEXT,
			text   TEXT
		);`,
		`CREATE VIRTUAL TABLE IF NOT EXISTS fts_documents USING fts5(
			title, text,
			content='documents',
			content_rowid='doc_id',
			tokenize = 'unicode61'
		);`,
	}
	for _, q := range ddl {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS documents_ai AFTER INSERT ON documents BEGIN
			INSERT INTO fts_documents(rowid, title, text) VALUES (new.doc_id, new.title, new.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_ad AFTER DELETE ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, title, text) VALUES ('delete', old.doc_id, old.title, old.text);
		END;`,
		`CREATE TRIGGER IF NOT EXISTS documents_au AFTER UPDATE OF title, text ON documents BEGIN
			INSERT INTO fts_documents(fts_documents, rowid, title, text) VALUES ('delete', old.doc_id, old.title, old.text);
			INSERT INTO fts_documents(rowid, title, text) VALUES (new.doc_id, new.title, new.text);
		END;`,
	}
	for _, q := range triggers {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("ensure fts triggers: %w", err)
		}
	}

	// Seed or refresh the single-row version info.
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, schemaVersion, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := s.db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func (s *Store) runMigrations(ctx context.Context) error {
	var cur int
	if err := s.db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if cur > schemaVersion {
		// Never downgrade.
		return nil
	}
	for cur < schemaVersion {
		next := cur + 1
		switch next {
		case 2:
			tx, err := s.db.BeginTx(ctx, nil)
			if err != nil {
				return fmt.Errorf("begin migration %d: %w", next, err)
			}
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_recent_last_opened ON recent_files(last_opened);`,
				`CREATE INDEX IF NOT EXISTS idx_checkpoints_updated ON scroll_checkpoints(updated_at);`,
			}
			for _, q := range stmts {
				if _, err := tx.ExecContext(ctx, q); err != nil {
					_ = tx.Rollback()
					return fmt.Errorf("migration %d stmt failed: %w", next, err)
				}
			}
			if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d update version: %w", next, err)
			}
			if err := tx.Commit(); err != nil {
				return fmt.Errorf("migration %d commit: %w", next, err)
			}
		}
		cur = next
	}
	return nil
}

// Settings keys used by the UI layer.
const (
	KeyWindowWidth     = "window-width"
	KeyWindowHeight    = "window-height"
	KeyWindowMaximized = "window-maximized"
	KeyDarkMode        = "dark-mode"
	KeySidebarVisible  = "sidebar-visible"
	KeyLastOpenedFile  = "last-opened-file"
	KeyFontSize        = "font-size"
	KeyShowLineNumbers = "show-line-numbers"
	KeyAutoSave        = "auto-save"
	KeyAutoSaveEvery   = "auto-save-interval"
)

// SetString stores a settings value.
func (s *Store) SetString(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings(key, value) VALUES(?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// GetString reads a settings value, returning fallback when unset.
func (s *Store) GetString(ctx context.Context, key, fallback string) string {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key=?`, key).Scan(&v)
	if err != nil {
		return fallback
	}
	return v
}

// SetInt stores an integer settings value.
func (s *Store) SetInt(ctx context.Context, key string, value int) error {
	return s.SetString(ctx, key, strconv.Itoa(value))
}

// GetInt reads an integer settings value, returning fallback when unset or
// unparsable.
func (s *Store) GetInt(ctx context.Context, key string, fallback int) int {
	v := s.GetString(ctx, key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// SetBool stores a boolean settings value.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	return s.SetString(ctx, key, strconv.FormatBool(value))
}

// GetBool reads a boolean settings value.
func (s *Store) GetBool(ctx context.Context, key string, fallback bool) bool {
	v := s.GetString(ctx, key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// TouchRecentFile records that path was opened now and prunes the list to
// the most recent entries.
func (s *Store) TouchRecentFile(ctx context.Context, path string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO recent_files(path, last_opened) VALUES(?, ?) ON CONFLICT(path) DO UPDATE SET last_opened=excluded.last_opened`,
		path, now); err != nil {
		return fmt.Errorf("touch recent: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path NOT IN (
		SELECT path FROM recent_files ORDER BY last_opened DESC LIMIT ?)`, maxRecentFiles)
	if err != nil {
		return fmt.Errorf("prune recent: %w", err)
	}
	return nil
}

// RecentFiles returns the recently opened paths, newest first.
func (s *Store) RecentFiles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM recent_files ORDER BY last_opened DESC`)
	if err != nil {
		return nil, fmt.Errorf("list recent: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RemoveRecentFile drops a path from the recent list (stale entries whose
// files were deleted).
func (s *Store) RemoveRecentFile(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_files WHERE path=?`, path)
	if err != nil {
		return fmt.Errorf("remove recent: %w", err)
	}
	return nil
}

// SaveScrollCheckpoint persists the editor/preview percentage pair for a
// document so both panes reopen where the user left off.
func (s *Store) SaveScrollCheckpoint(ctx context.Context, path string, editorPct, previewPct float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scroll_checkpoints(path, editor_pct, preview_pct, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET editor_pct=excluded.editor_pct, preview_pct=excluded.preview_pct, updated_at=excluded.updated_at`,
		path, editorPct, previewPct, now)
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// ScrollCheckpoint returns the stored percentage pair for a document; ok is
// false when none was saved.
func (s *Store) ScrollCheckpoint(ctx context.Context, path string) (editorPct, previewPct float64, ok bool) {
	err := s.db.QueryRowContext(ctx,
		`SELECT editor_pct, preview_pct FROM scroll_checkpoints WHERE path=?`, path).
		Scan(&editorPct, &previewPct)
	if err != nil {
		return 0, 0, false
	}
	return editorPct, previewPct, true
}
