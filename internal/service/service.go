/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package service is the orchestration boundary over the project domain and
// its repository. A Service holds one project session: the in-memory
// document, the current page pointer, the dirty flag and the per-page undo
// history, all behind a single RWMutex.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tabletcontrol/internal/domain"
	applog "tabletcontrol/internal/log"
	"tabletcontrol/internal/storage"
	"tabletcontrol/internal/undo"
)

const (
	// DefaultFirstPageName is the page created with a fresh project.
	DefaultFirstPageName = "主页面"
	// DefaultProjectDescription matches the document default.
	DefaultProjectDescription = "跨平台中控项目"
)

// ErrNoProject is returned by operations that require a loaded project.
var ErrNoProject = errors.New("no project loaded")

// newHistory builds the per-session undo manager. Every service mutation
// is a discrete user action, so interval coalescing stays off.
func newHistory() *undo.Manager {
	return undo.NewManager(undo.Config{MaxPerPage: 100, MinInterval: -1})
}

// Service coordinates a single editing session. All exported methods are
// safe for concurrent use. Expected refusals (deleting the last page,
// renaming onto an existing page) are boolean results, not errors.
type Service struct {
	repo *storage.Repository

	mu              sync.RWMutex
	project         *domain.ProjectData
	currentPageName string
	dirty           bool
	lastSaved       time.Time

	history *undo.Manager
	log     *slog.Logger
}

// New builds a Service on top of a repository.
func New(repo *storage.Repository) *Service {
	return &Service{
		repo:    repo,
		history: newHistory(),
		log:     applog.WithComponent("service"),
	}
}

// Repository exposes the underlying repository for maintenance tasks
// (pruning, history inspection).
func (s *Service) Repository() *storage.Repository { return s.repo }

// CreateNewProject replaces the session with a fresh project carrying one
// default page. The session starts dirty since nothing is on disk yet.
func (s *Service) CreateNewProject(name string) *domain.ProjectData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createNewProjectLocked(name)
}

func (s *Service) createNewProjectLocked(name string) *domain.ProjectData {
	p := domain.NewProjectData()
	if strings.TrimSpace(name) != "" {
		p.Rename(name)
	}
	p.SetDescription(DefaultProjectDescription)
	p.AddPage(DefaultFirstPageName)
	s.project = p
	s.currentPageName = DefaultFirstPageName
	s.dirty = true
	s.history = newHistory()
	applog.WithOperation(s.log, "create").Info("new project", slog.String("name", p.Name))
	return p
}

// LoadProject reads the project document from the repository. A missing
// document yields a fresh project instead of an error. A loaded document
// that needed repair is reported clean; the repaired form only reaches
// disk on the next save.
func (s *Service) LoadProject() (*domain.ProjectData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.repo.Load()
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = s.createNewProjectLocked("")
		return p, nil
	}
	s.adoptLocked(p)
	s.dirty = false
	applog.WithOperation(s.log, "load").Info("project loaded",
		slog.String("name", p.Name), slog.Int("pages", p.PageCount()))
	return p, nil
}

// adoptLocked installs a project as the session document and resets the
// per-session state around it.
func (s *Service) adoptLocked(p *domain.ProjectData) {
	s.project = p
	s.currentPageName = p.CurrentPage
	if s.currentPageName == "" && !p.IsEmpty() {
		s.currentPageName = p.Pages[0]
	}
	s.history = newHistory()
}

// SaveProject persists the given project. When it is the session document
// the dirty flag clears and a history snapshot is recorded best-effort.
func (s *Service) SaveProject(p *domain.ProjectData) error {
	if p == nil {
		return errors.New("nil project")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(p)
}

// SaveCurrentProject persists the session document.
func (s *Service) SaveCurrentProject() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNoProject
	}
	return s.saveLocked(s.project)
}

func (s *Service) saveLocked(p *domain.ProjectData) error {
	if !p.ValidateIntegrity() {
		changes := p.RepairIntegrity()
		applog.WithOperation(s.log, "save").Warn("repaired before save", slog.Int("changes", len(changes)))
	}
	if p == s.project {
		p.SetCurrentPage(s.currentPageName)
	}
	p.LastModifiedTime = time.Now().UnixMilli()
	if err := s.repo.Save(p); err != nil {
		return err
	}
	if p == s.project {
		s.dirty = false
		s.lastSaved = time.Now()
	}
	// History snapshot is best-effort; a save never fails on it.
	if blob, err := json.Marshal(p); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.RecordSnapshot(ctx, p.Name, blob, time.Now()); err != nil {
			applog.WithOperation(s.log, "save").Warn("history snapshot failed", slog.Any("err", err))
		}
	}
	return nil
}

// CurrentProject returns the session document, nil when none is loaded.
func (s *Service) CurrentProject() *domain.ProjectData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// SetCurrentProject replaces the session document and marks it dirty.
func (s *Service) SetCurrentProject(p *domain.ProjectData) {
	if p == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adoptLocked(p)
	s.dirty = true
}

// ensureProjectLocked creates a project on demand so page and component
// mutations always have a document to work on.
func (s *Service) ensureProjectLocked() *domain.ProjectData {
	if s.project == nil {
		s.createNewProjectLocked("")
	}
	return s.project
}

// CreatePage adds a page. Returns nil, false when the name is taken.
func (s *Service) CreatePage(name string) (*domain.PageData, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureProjectLocked()
	if strings.TrimSpace(name) == "" || p.HasPage(name) {
		return nil, false
	}
	p.AddPage(name)
	s.dirty = true
	return p.Page(name), true
}

// DeletePage removes a page, refusing to delete the last one.
func (s *Service) DeletePage(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil || !s.project.HasPage(name) {
		return false
	}
	if s.project.PageCount() <= 1 {
		applog.WithOperation(s.log, "delete_page").Warn("refusing to delete the last page", slog.String("page", name))
		return false
	}
	if !s.project.RemovePage(name) {
		return false
	}
	if s.currentPageName == name {
		s.currentPageName = s.project.CurrentPage
	}
	s.history.ClearPage(name)
	s.dirty = true
	return true
}

// RenamePage renames a page, refusing name collisions.
func (s *Service) RenamePage(oldName, newName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil || strings.TrimSpace(newName) == "" {
		return false
	}
	if !s.project.RenamePage(oldName, newName) {
		return false
	}
	if s.currentPageName == oldName {
		s.currentPageName = newName
	}
	s.history.RenamePage(oldName, newName)
	s.dirty = true
	return true
}

// Page returns a page by name, nil when absent.
func (s *Service) Page(name string) *domain.PageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	return s.project.Page(name)
}

// PageNames returns a copy of the page order.
func (s *Service) PageNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	return append([]string(nil), s.project.Pages...)
}

// SetCurrentPage moves the session page pointer.
func (s *Service) SetCurrentPage(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil || !s.project.HasPage(name) {
		return false
	}
	s.currentPageName = name
	s.project.SetCurrentPage(name)
	return true
}

// CurrentPageName returns the session page pointer.
func (s *Service) CurrentPageName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPageName
}

// CurrentPage returns the page the session pointer names.
func (s *Service) CurrentPage() *domain.PageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	return s.project.Page(s.currentPageName)
}

// AddComponent appends a component to a page.
func (s *Service) AddComponent(pageName string, c *domain.ComponentData) bool {
	if c == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureProjectLocked()
	return s.addComponentLocked(p.Page(pageName), c)
}

// AddComponentToCurrentPage appends to the page the session points at,
// creating a project on demand.
func (s *Service) AddComponentToCurrentPage(c *domain.ComponentData) bool {
	if c == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureProjectLocked()
	return s.addComponentLocked(p.Page(s.currentPageName), c)
}

func (s *Service) addComponentLocked(page *domain.PageData, c *domain.ComponentData) bool {
	if page == nil {
		return false
	}
	before := marshalPage(page)
	page.AddComponent(c)
	s.pushHistoryLocked(page.Name, before)
	s.dirty = true
	return true
}

// RemoveComponent removes a component by id from a page.
func (s *Service) RemoveComponent(pageName, componentID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return false
	}
	page := s.project.Page(pageName)
	if page == nil {
		return false
	}
	before := marshalPage(page)
	if !page.RemoveComponent(componentID) {
		return false
	}
	s.pushHistoryLocked(page.Name, before)
	s.dirty = true
	return true
}

// UpdateComponent replaces a component in place, keeping its slot.
func (s *Service) UpdateComponent(pageName, componentID string, c *domain.ComponentData) bool {
	if c == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return false
	}
	page := s.project.Page(pageName)
	if page == nil {
		return false
	}
	before := marshalPage(page)
	if !page.ReplaceComponent(componentID, c) {
		return false
	}
	s.pushHistoryLocked(page.Name, before)
	s.dirty = true
	return true
}

// PageComponents returns a copied slice of a page's components. The
// elements are shared; the slice is the caller's.
func (s *Service) PageComponents(pageName string) []*domain.ComponentData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return nil
	}
	page := s.project.Page(pageName)
	if page == nil {
		return nil
	}
	return append([]*domain.ComponentData(nil), page.Components...)
}

// ClearPageComponents removes all components from a page.
func (s *Service) ClearPageComponents(pageName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return false
	}
	page := s.project.Page(pageName)
	if page == nil {
		return false
	}
	before := marshalPage(page)
	page.ClearComponents()
	s.pushHistoryLocked(page.Name, before)
	s.dirty = true
	return true
}

func marshalPage(page *domain.PageData) []byte {
	blob, err := json.Marshal(page)
	if err != nil {
		return nil
	}
	return blob
}

// pushHistoryLocked records the pre-mutation page state so the mutation
// can be undone.
func (s *Service) pushHistoryLocked(pageName string, before []byte) {
	if before == nil {
		return
	}
	s.history.PushSnapshot(undo.Snapshot{Page: pageName, Blob: before, TS: time.Now()})
}

// UndoPage reverts the last component mutation on a page.
func (s *Service) UndoPage(pageName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreFromHistoryLocked(pageName, s.history.Undo)
}

// RedoPage re-applies the last undone mutation on a page.
func (s *Service) RedoPage(pageName string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restoreFromHistoryLocked(pageName, s.history.Redo)
}

func (s *Service) restoreFromHistoryLocked(pageName string, pop func(string, []byte) (undo.Snapshot, bool)) bool {
	if s.project == nil {
		return false
	}
	page := s.project.Page(pageName)
	if page == nil {
		return false
	}
	current, err := json.Marshal(page)
	if err != nil {
		return false
	}
	snap, ok := pop(pageName, current)
	if !ok {
		return false
	}
	var restored domain.PageData
	if err := json.Unmarshal(snap.Blob, &restored); err != nil {
		return false
	}
	*page = restored
	s.dirty = true
	return true
}

// BackupProject writes a timestamped backup, creating a project on demand.
func (s *Service) BackupProject(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureProjectLocked()
	return s.repo.Backup(p, name)
}

// RestoreProject replaces the session document with a backup. The restored
// state is dirty until explicitly saved.
func (s *Service) RestoreProject(name string) (*domain.ProjectData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.repo.Restore(name)
	if err != nil {
		return nil, err
	}
	s.adoptLocked(p)
	s.dirty = true
	applog.WithOperation(s.log, "restore").Info("project restored", slog.String("backup", name))
	return p, nil
}

// ExportProject writes the session document to an arbitrary path.
func (s *Service) ExportProject(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureProjectLocked()
	return s.repo.Export(p, path)
}

// ImportProject replaces the session document with an external file. The
// imported state is dirty until explicitly saved.
func (s *Service) ImportProject(path string) (*domain.ProjectData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, err := s.repo.Import(path)
	if err != nil {
		return nil, err
	}
	s.adoptLocked(p)
	s.dirty = true
	applog.WithOperation(s.log, "import").Info("project imported", slog.String("path", path))
	return p, nil
}

// HasUnsavedChanges reports the dirty flag.
func (s *Service) HasUnsavedChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// MarkSaved clears the dirty flag without touching disk.
func (s *Service) MarkSaved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// MarkModified sets the dirty flag.
func (s *Service) MarkModified() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// LastSavedTime returns when the session document last reached disk.
func (s *Service) LastSavedTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSaved
}

// ProjectStatistics summarizes the session document.
func (s *Service) ProjectStatistics() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := map[string]int{"pages": 0, "components": 0}
	if s.project == nil {
		return stats
	}
	stats["pages"] = s.project.PageCount()
	stats["components"] = s.project.TotalComponentCount()
	for _, page := range s.project.PageContents {
		for ft, n := range page.ComponentStatistics() {
			stats["type:"+ft] += n
		}
	}
	return stats
}

// AdaptProjectToResolution is a bulk resolution-independence pass: every
// component re-derives its fractional position from its current pixel
// geometry against the new resolution. Pixel fields stay put; components
// become RELATIVE so later viewports can scale them.
func (s *Service) AdaptProjectToResolution(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("degenerate resolution %dx%d", width, height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return ErrNoProject
	}
	previous := s.project.EditResolution
	for _, page := range s.project.PageContents {
		for _, c := range page.Components {
			if c == nil {
				continue
			}
			c.UpdateRelativePosition(width, height)
		}
	}
	s.project.SetEditResolution(fmt.Sprintf("%dx%d", width, height))
	s.dirty = true
	applog.WithOperation(s.log, "adapt").Info("resolution adapted",
		slog.String("from", previous),
		slog.String("to", s.project.EditResolution))
	return nil
}

// ValidateProjectIntegrity checks the session document.
func (s *Service) ValidateProjectIntegrity() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.project == nil {
		return false
	}
	return s.project.ValidateIntegrity()
}

// RepairProjectIntegrity repairs the session document and returns the
// change list. Any change marks the session dirty.
func (s *Service) RepairProjectIntegrity() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.project == nil {
		return nil
	}
	changes := s.project.RepairIntegrity()
	if len(changes) > 0 {
		s.dirty = true
	}
	return changes
}
