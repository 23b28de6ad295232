/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	applog "tabletcontrol/internal/log"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// HistoryDirName stores per-project ephemeral data under the data directory.
	HistoryDirName  = ".tcc"
	HistoryFileName = "history.sqlite"

	// historySchemaVersion tracks the local SQLite schema.
	// Bump this when you perform breaking schema changes.
	historySchemaVersion = 1
)

// language=SQL
// dialect=SQLite
const insertHistorySQL = `INSERT INTO save_history(project, ts, doc_blob) VALUES (?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestHistorySQL = `SELECT ts, doc_blob FROM save_history WHERE project = ? ORDER BY ts DESC, id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listHistorySQL = `SELECT ts, doc_blob FROM save_history WHERE project = ? ORDER BY ts DESC, id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneHistorySQL = `DELETE FROM save_history WHERE project = ? AND id NOT IN (
	SELECT id FROM save_history WHERE project = ? ORDER BY ts DESC, id DESC LIMIT ?
)`

// HistoryEntry is one recorded save of a project document.
type HistoryEntry struct {
	TS   time.Time
	Blob []byte
}

// HistoryPath returns the full path to the save history database file.
func HistoryPath(dataDir string) string {
	return filepath.Join(dataDir, HistoryDirName, HistoryFileName)
}

// InitOrOpenHistory ensures the save history SQLite database exists at
// .tcc/history.sqlite, opens it, enables WAL mode, and ensures the schema
// exists. Callers close the returned *sql.DB when done.
func InitOrOpenHistory(dataDir string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "history_init").With(
		slog.String("dir", dataDir),
	)
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dataDir, HistoryDirName), 0o755); err != nil {
		l.Error("create .tcc dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .tcc dir: %w", err)
	}

	path := HistoryPath(dataDir)
	// URI with shared cache and busy timeout; forward slashes for SQLite.
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
	if err := ensureHistorySchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure history schema failed", slog.Any("err", err))
		return nil, err
	}
	return db, nil
}

func ensureHistorySchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS save_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			project TEXT NOT NULL,
			ts TEXT NOT NULL,
			doc_blob BLOB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_save_history_project_ts ON save_history(project, ts)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fmt.Sprintf("%d", historySchemaVersion))
	if err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// RecordSnapshot persists a saved project document blob with a timestamp.
func (r *Repository) RecordSnapshot(ctx context.Context, project string, doc []byte, ts time.Time) error {
	if strings.TrimSpace(project) == "" {
		return errors.New("project name is required")
	}
	db, err := InitOrOpenHistory(r.dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	_, err = db.ExecContext(ctx, insertHistorySQL, project, ts.UTC().Format(time.RFC3339Nano), doc)
	return err
}

// LatestSnapshot returns the most recent saved blob for a project, or nil
// if none exists.
func (r *Repository) LatestSnapshot(ctx context.Context, project string) ([]byte, time.Time, error) {
	db, err := InitOrOpenHistory(r.dataDir)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer func() { _ = db.Close() }()
	var tsStr string
	var blob []byte
	err = db.QueryRowContext(ctx, selectLatestHistorySQL, project).Scan(&tsStr, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, nil
	}
	if err != nil {
		return nil, time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return blob, time.Time{}, nil // return blob even if ts parse fails
	}
	return blob, ts, nil
}

// ListSnapshots returns up to limit most recent history entries for a project.
func (r *Repository) ListSnapshots(ctx context.Context, project string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	db, err := InitOrOpenHistory(r.dataDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()
	rows, err := db.QueryContext(ctx, listHistorySQL, project, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []HistoryEntry
	for rows.Next() {
		var tsStr string
		var blob []byte
		if err := rows.Scan(&tsStr, &blob); err != nil {
			return nil, err
		}
		ts, _ := time.Parse(time.RFC3339Nano, tsStr)
		out = append(out, HistoryEntry{TS: ts, Blob: blob})
	}
	return out, rows.Err()
}

// PruneSnapshots keeps at most keepLast entries for a project, deleting
// older ones. Returns the number of deleted rows.
func (r *Repository) PruneSnapshots(ctx context.Context, project string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	db, err := InitOrOpenHistory(r.dataDir)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()
	res, err := db.ExecContext(ctx, pruneHistorySQL, project, project, keepLast)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
