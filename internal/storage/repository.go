/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"tabletcontrol/internal/domain"
	applog "tabletcontrol/internal/log"
)

const (
	// ProjectFileName is the canonical project document inside the data directory.
	ProjectFileName = "project_data.json"
	BackupsDirName  = "backups"

	// backupStampLayout yields names that sort chronologically.
	backupStampLayout = "20060102_150405"
)

var (
	// ErrBackupNotFound is returned when no backup matches the requested name.
	ErrBackupNotFound = errors.New("backup not found")
	// ErrImportNotFound is returned when the import source file does not exist.
	ErrImportNotFound = errors.New("import file not found")
	// ErrNameRequired is returned when a backup operation gets a blank name,
	// before any I/O is attempted.
	ErrNameRequired = errors.New("backup name is required")
)

// Repository persists project documents under a single data directory:
//
//	<dataDir>/project_data.json
//	<dataDir>/backups/<name>_<yyyyMMdd_HHmmss>.json
//	<dataDir>/.tcc/history.sqlite
//
// Writes are transactional: a fsynced temp file in the target directory is
// renamed over the destination.
type Repository struct {
	dataDir string
	log     *slog.Logger
}

// NewRepository creates the data and backups directories if needed.
func NewRepository(dataDir string) (*Repository, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dataDir, BackupsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("create backups dir: %w", err)
	}
	return &Repository{dataDir: dataDir, log: applog.WithComponent("storage")}, nil
}

// DataDir returns the repository root directory.
func (r *Repository) DataDir() string { return r.dataDir }

// ProjectFilePath returns the path of the canonical project document.
func (r *Repository) ProjectFilePath() string {
	return filepath.Join(r.dataDir, ProjectFileName)
}

// BackupDirPath returns the backups directory.
func (r *Repository) BackupDirPath() string {
	return filepath.Join(r.dataDir, BackupsDirName)
}

// Load reads the canonical project document. A missing file is not an
// error; it returns (nil, nil) so callers can start a fresh project.
// Parseable documents that fail validation are repaired in memory and
// returned; only unparseable JSON is a hard error.
func (r *Repository) Load() (*domain.ProjectData, error) {
	l := applog.WithOperation(r.log, "load")
	data, err := os.ReadFile(r.ProjectFilePath())
	if errors.Is(err, os.ErrNotExist) {
		l.Info("no project document yet", slog.String("path", r.ProjectFilePath()))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read project document: %w", err)
	}
	return r.decodeDocument(l, data)
}

// Save writes the project document transactionally.
func (r *Repository) Save(p *domain.ProjectData) error {
	if p == nil {
		return errors.New("nil project")
	}
	l := applog.WithOperation(r.log, "save").With(slog.String("project", p.Name))
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(r.ProjectFilePath(), data); err != nil {
		return fmt.Errorf("write project document: %w", err)
	}
	l.Info("project saved", slog.Int("pages", p.PageCount()))
	return nil
}

// Backup writes a timestamped copy of the project under backups/ and
// returns the backup file name. The name argument is the user-facing
// backup prefix and must not be blank.
func (r *Repository) Backup(p *domain.ProjectData, name string) (string, error) {
	if p == nil {
		return "", errors.New("nil project")
	}
	prefix := strings.TrimSpace(name)
	if prefix == "" {
		return "", ErrNameRequired
	}
	stamp := time.Now().Format(backupStampLayout)
	fname := fmt.Sprintf("%s_%s.json", prefix, stamp)

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(filepath.Join(r.BackupDirPath(), fname), data); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	applog.WithOperation(r.log, "backup").Info("backup created", slog.String("file", fname))
	return fname, nil
}

// Restore loads a backup by name. The name may be the exact file name or
// a prefix; the first lexical match wins. A blank name is rejected before
// any I/O; ErrBackupNotFound when nothing matches.
func (r *Repository) Restore(name string) (*domain.ProjectData, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	l := applog.WithOperation(r.log, "restore").With(slog.String("name", name))
	backups, err := r.ListBackups()
	if err != nil {
		return nil, err
	}
	match := ""
	for _, b := range backups {
		if b == name || strings.HasPrefix(b, name) {
			match = b
			break
		}
	}
	if match == "" {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	data, err := os.ReadFile(filepath.Join(r.BackupDirPath(), match))
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", match, err)
	}
	l.Info("restoring from backup", slog.String("file", match))
	return r.decodeDocument(l, data)
}

// ListBackups returns all backup file names, sorted ascending. The
// timestamp suffix makes lexicographic order chronological per prefix.
func (r *Repository) ListBackups() ([]string, error) {
	ents, err := os.ReadDir(r.BackupDirPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backups dir: %w", err)
	}
	var names []string
	for _, e := range ents {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// DeleteBackup removes a backup by exact file name. A blank name is
// rejected before any I/O.
func (r *Repository) DeleteBackup(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}
	path := filepath.Join(r.BackupDirPath(), name)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrBackupNotFound, name)
	}
	return os.Remove(path)
}

// PruneBackups keeps at most keep backups, deleting the oldest first.
// keep <= 0 keeps everything.
func (r *Repository) PruneBackups(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	backups, err := r.ListBackups()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}
	// Oldest first: sort globally by the timestamp suffix.
	sort.Slice(backups, func(i, j int) bool {
		return backupStamp(backups[i]) < backupStamp(backups[j])
	})
	toDrop := backups[:len(backups)-keep]
	for _, b := range toDrop {
		if err := os.Remove(filepath.Join(r.BackupDirPath(), b)); err != nil {
			return 0, fmt.Errorf("prune backup %s: %w", b, err)
		}
	}
	applog.WithOperation(r.log, "prune").Info("backups pruned", slog.Int("removed", len(toDrop)))
	return len(toDrop), nil
}

// backupStamp extracts the trailing yyyyMMdd_HHmmss stamp for sorting.
func backupStamp(name string) string {
	base := strings.TrimSuffix(name, ".json")
	if len(base) < len(backupStampLayout) {
		return base
	}
	return base[len(base)-len(backupStampLayout):]
}

// Export writes the project document to an arbitrary path, appending a
// .json extension when missing and creating parent directories.
func (r *Repository) Export(p *domain.ProjectData, path string) (string, error) {
	if p == nil {
		return "", errors.New("nil project")
	}
	if strings.TrimSpace(path) == "" {
		return "", errors.New("export path is required")
	}
	if !strings.HasSuffix(strings.ToLower(path), ".json") {
		path += ".json"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	applog.WithOperation(r.log, "export").Info("project exported", slog.String("path", path))
	return path, nil
}

// Import reads a project document from an arbitrary path. Missing files
// yield ErrImportNotFound; invalid-but-parseable documents are repaired.
func (r *Repository) Import(path string) (*domain.ProjectData, error) {
	l := applog.WithOperation(r.log, "import").With(slog.String("path", path))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrImportNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	return r.decodeDocument(l, data)
}

// decodeDocument parses, schema-checks, validates and if needed repairs a
// project document.
func (r *Repository) decodeDocument(l *slog.Logger, data []byte) (*domain.ProjectData, error) {
	if issues, err := ValidateDocument(data); err != nil {
		return nil, fmt.Errorf("parse project document: %w", err)
	} else if len(issues) > 0 {
		l.Warn("document does not conform to schema", slog.Int("issues", len(issues)), slog.String("first", issues[0]))
	}
	var p domain.ProjectData
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project document: %w", err)
	}
	if !p.ValidateIntegrity() {
		changes := p.RepairIntegrity()
		l.Warn("document repaired on load", slog.Int("changes", len(changes)))
	}
	return &p, nil
}

// writeFileAtomic writes data to a fsynced temp file in the destination
// directory and renames it over the target.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	temp := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d-%d", filepath.Base(path), os.Getpid(), rand.Int()))
	if err := writeFileSync(temp, data); err != nil {
		return err
	}
	// Rename replaces the destination atomically; the canonical document
	// must exist at every instant, so no pre-delete.
	if err := os.Rename(temp, path); err != nil {
		_ = os.Remove(temp)
		return err
	}
	return nil
}

// writeFileSync writes data to a file, ensures it is flushed to disk.
func writeFileSync(path string, data []byte) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Sync(); err != nil {
		return err
	}
	return nil
}
