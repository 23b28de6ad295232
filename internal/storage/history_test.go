/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"
)

func TestHistoryRecordAndLatest(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	if err := r.RecordSnapshot(ctx, "proj", []byte("v1"), base); err != nil {
		t.Fatalf("RecordSnapshot error: %v", err)
	}
	if err := r.RecordSnapshot(ctx, "proj", []byte("v2"), base.Add(time.Minute)); err != nil {
		t.Fatalf("RecordSnapshot error: %v", err)
	}

	blob, ts, err := r.LatestSnapshot(ctx, "proj")
	if err != nil {
		t.Fatalf("LatestSnapshot error: %v", err)
	}
	if !bytes.Equal(blob, []byte("v2")) {
		t.Fatalf("latest blob = %q, want v2", blob)
	}
	if !ts.Equal(base.Add(time.Minute)) {
		t.Fatalf("latest ts = %v", ts)
	}

	if _, err := os.Stat(HistoryPath(r.DataDir())); err != nil {
		t.Fatalf("history database missing: %v", err)
	}
}

func TestHistoryLatestEmptyIsNil(t *testing.T) {
	r := newTestRepo(t)
	blob, _, err := r.LatestSnapshot(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("LatestSnapshot error: %v", err)
	}
	if blob != nil {
		t.Fatalf("empty history must yield nil blob")
	}
}

func TestHistoryListNewestFirst(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, blob := range []string{"a", "b", "c"} {
		if err := r.RecordSnapshot(ctx, "proj", []byte(blob), base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordSnapshot error: %v", err)
		}
	}

	entries, err := r.ListSnapshots(ctx, "proj", 2)
	if err != nil {
		t.Fatalf("ListSnapshots error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want limit 2", len(entries))
	}
	if string(entries[0].Blob) != "c" || string(entries[1].Blob) != "b" {
		t.Fatalf("entries out of order: %q, %q", entries[0].Blob, entries[1].Blob)
	}
}

func TestHistoryPruneKeepsNewest(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if err := r.RecordSnapshot(ctx, "proj", []byte{byte('a' + i)}, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordSnapshot error: %v", err)
		}
	}

	deleted, err := r.PruneSnapshots(ctx, "proj", 2)
	if err != nil {
		t.Fatalf("PruneSnapshots error: %v", err)
	}
	if deleted != 3 {
		t.Fatalf("deleted = %d, want 3", deleted)
	}
	entries, err := r.ListSnapshots(ctx, "proj", 10)
	if err != nil {
		t.Fatalf("ListSnapshots error: %v", err)
	}
	if len(entries) != 2 || string(entries[0].Blob) != "e" {
		t.Fatalf("unexpected survivors: %v", entries)
	}

	if deleted, _ := r.PruneSnapshots(ctx, "proj", 0); deleted != 0 {
		t.Fatalf("keep<=0 must prune nothing")
	}
}

func TestHistoryProjectsAreIsolated(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	now := time.Now()
	_ = r.RecordSnapshot(ctx, "a", []byte("av"), now)
	_ = r.RecordSnapshot(ctx, "b", []byte("bv"), now)

	blob, _, err := r.LatestSnapshot(ctx, "a")
	if err != nil || !bytes.Equal(blob, []byte("av")) {
		t.Fatalf("project a latest = %q, %v", blob, err)
	}
}
