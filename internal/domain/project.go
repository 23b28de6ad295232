/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"fmt"
	"time"
)

// Defaults written into fresh projects; the literals match documents
// produced by earlier releases.
const (
	DefaultProjectName    = "新建项目"
	DefaultProjectVersion = "1.0.0"
	DefaultEditResolution = "1366x768"
)

// ProjectData is the aggregate root: an ordered list of page names, the
// name-keyed page contents, and a current-page pointer. List and map must
// hold exactly the same key set; an empty CurrentPage means none.
type ProjectData struct {
	Name             string               `json:"name"`
	Description      string               `json:"description"`
	Pages            []string             `json:"pages"`
	CurrentPage      string               `json:"currentPage,omitempty"`
	PageContents     map[string]*PageData `json:"pageContents"`
	CreatedTime      int64                `json:"createdTime"`
	LastModifiedTime int64                `json:"lastModifiedTime"`
	Version          string               `json:"version"`
	EditResolution   string               `json:"editResolution"`
}

// NewProjectData creates an empty project with default metadata and no
// pages.
func NewProjectData() *ProjectData {
	now := nowMillis()
	return &ProjectData{
		Name:             DefaultProjectName,
		Description:      "",
		Pages:            []string{},
		PageContents:     map[string]*PageData{},
		CreatedTime:      now,
		LastModifiedTime: now,
		Version:          DefaultProjectVersion,
		EditResolution:   DefaultEditResolution,
	}
}

func (p *ProjectData) touch() { p.LastModifiedTime = nowMillis() }

// Rename sets the project name.
func (p *ProjectData) Rename(name string) {
	p.Name = name
	p.touch()
}

// SetDescription sets the free-form description.
func (p *ProjectData) SetDescription(desc string) {
	p.Description = desc
	p.touch()
}

// SetEditResolution records the resolution the project is being authored at.
func (p *ProjectData) SetEditResolution(res string) {
	p.EditResolution = res
	p.touch()
}

// SetCurrentPage moves the current-page pointer without validation; callers
// that need the page to exist should check HasPage first.
func (p *ProjectData) SetCurrentPage(name string) {
	p.CurrentPage = name
	p.touch()
}

// AddPage creates an empty page under the given name. Adding a name that
// already exists is a no-op: pages are never duplicated.
func (p *ProjectData) AddPage(name string) {
	if name == "" || p.HasPage(name) {
		return
	}
	p.AddPageData(NewPageData(name))
}

// AddPageData registers a page under its own name, replacing the contents if
// the name is already listed. The first page added becomes current.
func (p *ProjectData) AddPageData(page *PageData) {
	if page == nil || page.Name == "" {
		return
	}
	if !p.HasPage(page.Name) {
		p.Pages = append(p.Pages, page.Name)
	}
	if p.PageContents == nil {
		p.PageContents = map[string]*PageData{}
	}
	p.PageContents[page.Name] = page
	if p.CurrentPage == "" {
		p.CurrentPage = page.Name
	}
	p.touch()
}

// RemovePage deletes a page and its contents. Removing the current page
// moves the pointer to the first remaining page, or clears it when the
// project becomes empty.
func (p *ProjectData) RemovePage(name string) bool {
	idx := p.pageIndex(name)
	if idx < 0 {
		return false
	}
	p.Pages = append(p.Pages[:idx], p.Pages[idx+1:]...)
	delete(p.PageContents, name)

	if p.CurrentPage == name {
		if len(p.Pages) == 0 {
			p.CurrentPage = ""
		} else {
			p.CurrentPage = p.Pages[0]
		}
	}
	p.touch()
	return true
}

// RenamePage renames a page in both the order list and the contents map.
// Renaming to an existing name is refused.
func (p *ProjectData) RenamePage(oldName, newName string) bool {
	if oldName == "" || newName == "" || p.HasPage(newName) {
		return false
	}
	idx := p.pageIndex(oldName)
	if idx < 0 {
		return false
	}
	p.Pages[idx] = newName
	if page, ok := p.PageContents[oldName]; ok {
		delete(p.PageContents, oldName)
		page.Rename(newName)
		p.PageContents[newName] = page
	}
	if p.CurrentPage == oldName {
		p.CurrentPage = newName
	}
	p.touch()
	return true
}

func (p *ProjectData) pageIndex(name string) int {
	for i, n := range p.Pages {
		if n == name {
			return i
		}
	}
	return -1
}

// Page returns the contents of the named page, or nil.
func (p *ProjectData) Page(name string) *PageData {
	return p.PageContents[name]
}

// CurrentPageData returns the contents of the current page, or nil.
func (p *ProjectData) CurrentPageData() *PageData {
	if p.CurrentPage == "" {
		return nil
	}
	return p.PageContents[p.CurrentPage]
}

// HasPage reports whether the name is in the page order list.
func (p *ProjectData) HasPage(name string) bool { return p.pageIndex(name) >= 0 }

// PageCount returns the number of pages.
func (p *ProjectData) PageCount() int { return len(p.Pages) }

// IsEmpty reports whether the project has no pages.
func (p *ProjectData) IsEmpty() bool { return len(p.Pages) == 0 }

// TotalComponentCount sums the components across all pages.
func (p *ProjectData) TotalComponentCount() int {
	count := 0
	for _, page := range p.PageContents {
		if page != nil {
			count += len(page.Components)
		}
	}
	return count
}

// ValidateIntegrity is a read-only check of the aggregate invariants: page
// list and contents map in lockstep and a current page that exists.
func (p *ProjectData) ValidateIntegrity() bool {
	if p.Pages == nil || p.PageContents == nil {
		return false
	}
	for _, name := range p.Pages {
		page, ok := p.PageContents[name]
		if !ok {
			return false
		}
		if page == nil || !page.ValidateIntegrity() {
			return false
		}
	}
	if p.CurrentPage != "" && !p.HasPage(p.CurrentPage) {
		return false
	}
	return true
}

// RepairIntegrity reconciles the page list and contents map, dropping
// entries present on only one side, and resets a dangling current-page
// pointer to the first remaining page. It returns a description of each
// change applied.
func (p *ProjectData) RepairIntegrity() []string {
	var changes []string
	if p.Pages == nil {
		p.Pages = []string{}
		changes = append(changes, "page list initialized")
	}
	if p.PageContents == nil {
		p.PageContents = map[string]*PageData{}
		changes = append(changes, "page contents initialized")
	}

	kept := p.Pages[:0]
	for _, name := range p.Pages {
		page, ok := p.PageContents[name]
		if !ok || page == nil {
			delete(p.PageContents, name)
			changes = append(changes, fmt.Sprintf("page %q dropped: no contents", name))
			continue
		}
		kept = append(kept, name)
	}
	p.Pages = kept

	for name, page := range p.PageContents {
		if !p.HasPage(name) {
			continue
		}
		for _, ch := range page.RepairIntegrity() {
			changes = append(changes, fmt.Sprintf("page %q: %s", name, ch))
		}
	}

	for name := range p.PageContents {
		if !p.HasPage(name) {
			delete(p.PageContents, name)
			changes = append(changes, fmt.Sprintf("contents %q dropped: not listed", name))
		}
	}

	if p.CurrentPage != "" && !p.HasPage(p.CurrentPage) {
		if len(p.Pages) == 0 {
			p.CurrentPage = ""
		} else {
			p.CurrentPage = p.Pages[0]
		}
		changes = append(changes, "currentPage reset")
	}

	if len(changes) > 0 {
		p.touch()
	}
	return changes
}

// Summary is a short human-readable description for diagnostics.
func (p *ProjectData) Summary() string {
	return fmt.Sprintf("项目: %d页面, %d组件, 版本: %s, 编辑分辨率: %s",
		p.PageCount(), p.TotalComponentCount(), p.Version, p.EditResolution)
}

func (p *ProjectData) String() string {
	return fmt.Sprintf("ProjectData{pageCount=%d, componentCount=%d, currentPage=%q, version=%q, editResolution=%q, lastModified=%s}",
		p.PageCount(), p.TotalComponentCount(), p.CurrentPage, p.Version, p.EditResolution,
		time.UnixMilli(p.LastModifiedTime).Format(time.RFC3339))
}
