/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package crash

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tabletcontrol/internal/service"
	"tabletcontrol/internal/storage"
)

// TestRecoverWritesReportAndExport ensures Recover handles a panic, writes a
// report plus an emergency export, and does not terminate the test process
// due to the injected exitFn.
func TestRecoverWritesReportAndExport(t *testing.T) {
	// Capture stderr temporarily to avoid noisy test logs
	oldStderr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	defer func() {
		_ = w.Close()
		os.Stderr = oldStderr
		_, _ = io.Copy(os.Stderr, r) // drain pipe
	}()

	called := 0
	oldExit := exitFn
	exitFn = func(code int) { called = code }
	defer func() { exitFn = oldExit }()

	repo, err := storage.NewRepository(t.TempDir())
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}
	svc := service.New(repo)
	svc.CreateNewProject("崩溃测试")

	func() {
		defer Recover(svc)
		panic("boom")
	}()

	// Allow time for filesystem writes
	time.Sleep(50 * time.Millisecond)

	var report, export string
	files, _ := os.ReadDir(repo.BackupDirPath())
	for _, f := range files {
		switch {
		case strings.HasPrefix(f.Name(), "crash-") && strings.HasSuffix(f.Name(), ".log"):
			report = filepath.Join(repo.BackupDirPath(), f.Name())
		case strings.HasPrefix(f.Name(), "crash-export-") && strings.HasSuffix(f.Name(), ".json"):
			export = filepath.Join(repo.BackupDirPath(), f.Name())
		}
	}
	if report == "" {
		t.Fatalf("expected crash report under backups dir")
	}
	if export == "" {
		t.Fatalf("expected emergency export under backups dir")
	}

	b, err := os.ReadFile(report)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.Contains(b, []byte("Panic: boom")) {
		t.Fatalf("report does not contain panic: %s", string(b))
	}
	if !bytes.Contains(b, []byte("Project: 崩溃测试")) {
		t.Fatalf("report does not name the project: %s", string(b))
	}

	// The export must load back as a valid project.
	p, err := repo.Import(export)
	if err != nil || p.Name != "崩溃测试" {
		t.Fatalf("emergency export unusable: %v, %v", p, err)
	}

	if called != 2 {
		t.Fatalf("expected exit code 2, got %d", called)
	}
}

func TestRecoverWithoutPanicIsNoOp(t *testing.T) {
	called := false
	oldExit := exitFn
	exitFn = func(int) { called = true }
	defer func() { exitFn = oldExit }()

	func() {
		defer Recover(nil)
	}()
	if called {
		t.Fatalf("Recover must do nothing without a panic")
	}
}
