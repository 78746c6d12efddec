/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SearchQuery describes an in-app search request over indexed documents.
// Text uses SQLite FTS5 syntax (simple terms, phrases in quotes, AND/OR/NOT).
// Limit/Offset implement pagination; reasonable defaults applied if zero.
type SearchQuery struct {
	Text   string
	Limit  int
	Offset int
}

// SearchResult represents a single match row. Snippet is a highlighted
// excerpt using [ ] markers.
type SearchResult struct {
	DocID   int64
	Path    string
	Title   string
	Snippet string
}

// IndexDocument adds or refreshes a document in the search index.
func (s *Store) IndexDocument(ctx context.Context, path, title, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents(path, title, text) VALUES(?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET title=excluded.title, text=excluded.text`,
		path, title, text)
	if err != nil {
		return fmt.Errorf("index document: %w", err)
	}
	return nil
}

// RemoveDocument drops a document from the search index.
func (s *Store) RemoveDocument(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE path=?`, path)
	if err != nil {
		return fmt.Errorf("remove document: %w", err)
	}
	return nil
}

// Search performs full-text search over the indexed documents. When q.Text
// is empty, it lists all indexed documents instead.
func (s *Store) Search(ctx context.Context, q SearchQuery) ([]SearchResult, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	var rows *sql.Rows
	var err error
	if strings.TrimSpace(q.Text) != "" {
		rows, err = s.db.QueryContext(ctx,
			`SELECT d.doc_id, d.path, COALESCE(d.title,''), snippet(fts_documents, 1, '[', ']', '…', 10)
			 FROM fts_documents JOIN documents d ON fts_documents.rowid = d.doc_id
			 WHERE fts_documents MATCH ?
			 ORDER BY rank
			 LIMIT ? OFFSET ?`, q.Text, limit, offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT d.doc_id, d.path, COALESCE(d.title,''), ''
			 FROM documents d
			 ORDER BY d.path
			 LIMIT ? OFFSET ?`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocID, &r.Path, &r.Title, &r.Snippet); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
