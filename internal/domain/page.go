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
	"strings"
	"time"
)

// DefaultPageName is assigned when repairing a page whose name was lost.
const DefaultPageName = "未命名页面"

// PageData is an ordered collection of components under a name. The slice
// order is significant: it is the z-order and tab order of the page.
type PageData struct {
	Name             string           `json:"name"`
	Components       []*ComponentData `json:"components"`
	CreatedTime      int64            `json:"createdTime"`
	LastModifiedTime int64            `json:"lastModifiedTime"`
	BackgroundImage  string           `json:"backgroundImage,omitempty"`
	BackgroundColor  string           `json:"backgroundColor,omitempty"`
}

// NewPageData creates an empty page with the given name.
func NewPageData(name string) *PageData {
	now := nowMillis()
	return &PageData{
		Name:             name,
		Components:       []*ComponentData{},
		CreatedTime:      now,
		LastModifiedTime: now,
	}
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func (p *PageData) touch() { p.LastModifiedTime = nowMillis() }

// Rename sets the page name and bumps the modification time.
func (p *PageData) Rename(name string) {
	p.Name = name
	p.touch()
}

// SetBackground updates the background image path and color.
func (p *PageData) SetBackground(image, color string) {
	p.BackgroundImage = image
	p.BackgroundColor = color
	p.touch()
}

// AddComponent appends a component; nil is ignored.
func (p *PageData) AddComponent(c *ComponentData) {
	if c == nil {
		return
	}
	p.Components = append(p.Components, c)
	p.touch()
}

// ComponentCount returns the number of components on the page.
func (p *PageData) ComponentCount() int { return len(p.Components) }

// IsEmpty reports whether the page has no components.
func (p *PageData) IsEmpty() bool { return len(p.Components) == 0 }

// Component returns the component at index, or nil when out of range.
func (p *PageData) Component(index int) *ComponentData {
	if index < 0 || index >= len(p.Components) {
		return nil
	}
	return p.Components[index]
}

// FindComponent returns the index of the component with the given id, or -1.
func (p *PageData) FindComponent(componentID string) int {
	for i, c := range p.Components {
		if c != nil && c.ComponentID == componentID {
			return i
		}
	}
	return -1
}

// RemoveComponentAt removes and returns the component at index, or nil when
// out of range.
func (p *PageData) RemoveComponentAt(index int) *ComponentData {
	if index < 0 || index >= len(p.Components) {
		return nil
	}
	c := p.Components[index]
	p.Components = append(p.Components[:index], p.Components[index+1:]...)
	p.touch()
	return c
}

// RemoveComponent removes the component with the given id.
func (p *PageData) RemoveComponent(componentID string) bool {
	idx := p.FindComponent(componentID)
	if idx < 0 {
		return false
	}
	p.RemoveComponentAt(idx)
	return true
}

// ReplaceComponent swaps the component with the given id for a new one,
// keeping its position in the order.
func (p *PageData) ReplaceComponent(componentID string, c *ComponentData) bool {
	if c == nil {
		return false
	}
	idx := p.FindComponent(componentID)
	if idx < 0 {
		return false
	}
	p.Components[idx] = c
	p.touch()
	return true
}

// MoveComponent shifts a component from one position in the order to
// another. Both indexes must be in range.
func (p *PageData) MoveComponent(fromIndex, toIndex int) bool {
	n := len(p.Components)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n || fromIndex == toIndex {
		return false
	}
	c := p.Components[fromIndex]
	p.Components = append(p.Components[:fromIndex], p.Components[fromIndex+1:]...)
	rest := append([]*ComponentData{}, p.Components[toIndex:]...)
	p.Components = append(append(p.Components[:toIndex], c), rest...)
	p.touch()
	return true
}

// DuplicateComponent deep-copies the component at index, offsets the copy
// slightly so it is visibly distinct, appends it and returns it.
func (p *PageData) DuplicateComponent(index int) *ComponentData {
	original := p.Component(index)
	if original == nil {
		return nil
	}
	cp := original.Copy()
	cp.X = original.X + 10
	cp.Y = original.Y + 10
	p.AddComponent(cp)
	return cp
}

// ClearComponents removes every component from the page.
func (p *PageData) ClearComponents() {
	p.Components = p.Components[:0]
	p.touch()
}

// ComponentStatistics counts components per function type.
func (p *PageData) ComponentStatistics() map[string]int {
	stats := make(map[string]int)
	for _, c := range p.Components {
		if c != nil && c.FunctionType != "" {
			stats[c.FunctionType]++
		}
	}
	return stats
}

// ValidateIntegrity is a read-only check of the page invariants: a non-empty
// name and a component list without nil or typeless entries.
func (p *PageData) ValidateIntegrity() bool {
	if strings.TrimSpace(p.Name) == "" {
		return false
	}
	if p.Components == nil {
		return false
	}
	for _, c := range p.Components {
		if c == nil || c.FunctionType == "" {
			return false
		}
	}
	return true
}

// RepairIntegrity restores the invariants, dropping components that cannot
// be recovered: a component without a function type has no meaningful
// repair. It returns a description of each change applied.
func (p *PageData) RepairIntegrity() []string {
	var changes []string
	if p.Name == "" {
		p.Name = DefaultPageName
		changes = append(changes, "page name defaulted")
	}
	if p.Components == nil {
		p.Components = []*ComponentData{}
		changes = append(changes, "component list initialized")
	}

	kept := p.Components[:0]
	for _, c := range p.Components {
		if c == nil || c.FunctionType == "" {
			changes = append(changes, "invalid component dropped")
			continue
		}
		kept = append(kept, c)
	}
	p.Components = kept

	if len(changes) > 0 {
		p.touch()
	}
	return changes
}

// Summary is a short human-readable description for diagnostics.
func (p *PageData) Summary() string {
	return fmt.Sprintf("页面: %s, 组件数量: %d, 最后修改: %s",
		p.Name, p.ComponentCount(), time.UnixMilli(p.LastModifiedTime).Format(time.RFC3339))
}

func (p *PageData) String() string {
	return fmt.Sprintf("PageData{name=%q, componentCount=%d, background=%q/%q}",
		p.Name, p.ComponentCount(), p.BackgroundImage, p.BackgroundColor)
}
