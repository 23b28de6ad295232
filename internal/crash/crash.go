/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package crash turns panics into a crash report plus a best-effort
// emergency export of the project being edited.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"time"

	applog "tabletcontrol/internal/log"
	"tabletcontrol/internal/service"
	"tabletcontrol/internal/version"
)

// exitFn is used to allow testing of Recover without terminating the test process.
var exitFn = os.Exit

// Recover captures a panic, logs an error with stacktrace, writes a crash
// report into the backups directory, and attempts an emergency export of
// the held project.
//
// Usage: defer func(){ crash.Recover(svc) }()
func Recover(svc *service.Service) {
	if r := recover(); r != nil {
		l := applog.WithComponent("crash")
		stack := debug.Stack()
		l.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(stack)))

		reportPath, _ := writeReport(svc, r, stack)
		if svc != nil && svc.CurrentProject() != nil {
			stamp := time.Now().Format("20060102_150405")
			dest := filepath.Join(svc.Repository().BackupDirPath(), fmt.Sprintf("crash-export-%s.json", stamp))
			if path, err := svc.ExportProject(dest); err != nil {
				l.Error("emergency export failed", slog.Any("err", err))
			} else {
				l.Info("emergency export written", slog.String("path", path))
			}
		}

		if _, err := fmt.Fprintf(os.Stderr, "A fatal error occurred. A crash report was saved to: %s\n", reportPath); err != nil {
			l.Error("failed to write crash message to stderr", slog.Any("err", err))
		}
		if _, err := fmt.Fprintf(os.Stderr, "Version: %s\nOS/Arch: %s/%s\n", version.String(), runtime.GOOS, runtime.GOARCH); err != nil {
			l.Error("failed to write version info to stderr", slog.Any("err", err))
		}
		// Exit with a non-zero code to indicate failure in CLI context.
		exitFn(2)
	}
}

func writeReport(svc *service.Service, panicVal any, stack []byte) (string, error) {
	dir := os.TempDir()
	if svc != nil {
		dir = svc.Repository().BackupDirPath()
		_ = os.MkdirAll(dir, 0o755)
	}
	stamp := time.Now().Format("20060102_150405")
	fname := fmt.Sprintf("crash-%s.log", stamp)
	path := filepath.Join(dir, fname)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return path, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			applog.WithComponent("crash").Error("failed to close crash report file", slog.Any("err", err), slog.String("path", path))
		}
	}()

	var buf bytes.Buffer
	_, _ = fmt.Fprintf(&buf, "Tablet Control Crash Report\n")
	_, _ = fmt.Fprintf(&buf, "Timestamp: %s\n", time.Now().Format(time.RFC3339))
	_, _ = fmt.Fprintf(&buf, "Version: %s\n", version.String())
	_, _ = fmt.Fprintf(&buf, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if svc != nil {
		_, _ = fmt.Fprintf(&buf, "DataDir: %s\n", svc.Repository().DataDir())
		if p := svc.CurrentProject(); p != nil {
			_, _ = fmt.Fprintf(&buf, "Project: %s\n", p.Name)
			_, _ = fmt.Fprintf(&buf, "Unsaved: %v\n", svc.HasUnsavedChanges())
		}
	}
	_, _ = fmt.Fprintf(&buf, "\nPanic: %v\n\n", panicVal)
	_, _ = fmt.Fprintf(&buf, "Stack:\n%s\n", string(stack))

	if _, err := f.Write(buf.Bytes()); err != nil {
		return path, err
	}
	_ = f.Sync()
	return path, nil
}
