/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PositionMode selects which coordinate representation is authoritative for
// a component. Exactly one of the two is live at a time; switch statements
// over the mode must handle both values.
type PositionMode string

const (
	// PositionAbsolute uses the stored pixel fields verbatim.
	PositionAbsolute PositionMode = "ABSOLUTE"
	// PositionRelative derives pixels from the fractional position.
	PositionRelative PositionMode = "RELATIVE"
)

// DefaultFunctionType is assigned when repairing a component whose kind was
// lost; the literal matches documents written by earlier releases.
const DefaultFunctionType = "未知组件"

// ComponentData is one placed element on a page. In ABSOLUTE mode the pixel
// fields x/y/width/height are authoritative; in RELATIVE mode the embedded
// RelativePosition is. Both field groups are persisted because the document
// format carries them side by side.
type ComponentData struct {
	X              int `json:"x"`
	Y              int `json:"y"`
	Width          int `json:"width"`
	Height         int `json:"height"`
	OriginalWidth  int `json:"originalWidth"`
	OriginalHeight int `json:"originalHeight"`

	RelativePosition *RelativePosition `json:"relativePosition,omitempty"`
	PositionMode     PositionMode      `json:"positionMode"`

	FunctionType string     `json:"functionType,omitempty"`
	LabelData    *LabelData `json:"labelData,omitempty"`

	ComponentID string `json:"componentId,omitempty"`
	Visible     bool   `json:"visible"`
	Enabled     bool   `json:"enabled"`
	Tooltip     string `json:"tooltip,omitempty"`
	CSSClass    string `json:"cssClass,omitempty"`
}

// NewAbsoluteComponent creates a component anchored at fixed pixel
// coordinates. The original size is kept for reference scaling.
func NewAbsoluteComponent(x, y, width, height, originalWidth, originalHeight int, functionType string, label *LabelData) *ComponentData {
	return &ComponentData{
		X:              x,
		Y:              y,
		Width:          width,
		Height:         height,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		PositionMode:   PositionAbsolute,
		FunctionType:   functionType,
		LabelData:      label,
		ComponentID:    newComponentID(),
		Visible:        true,
		Enabled:        true,
	}
}

// NewRelativeComponent creates a resolution-independent component.
func NewRelativeComponent(pos RelativePosition, functionType string, label *LabelData) *ComponentData {
	return &ComponentData{
		RelativePosition: &pos,
		PositionMode:     PositionRelative,
		FunctionType:     functionType,
		LabelData:        label,
		ComponentID:      newComponentID(),
		Visible:          true,
		Enabled:          true,
	}
}

func newComponentID() string {
	return "comp_" + uuid.NewString()
}

// SetRelativePosition stores a fractional position and switches the
// component into RELATIVE mode. There is no setter back to ABSOLUTE; assign
// PositionMode directly for that.
func (c *ComponentData) SetRelativePosition(pos RelativePosition) {
	c.RelativePosition = &pos
	c.PositionMode = PositionRelative
}

// AbsolutePosition computes the pixel rectangle for the given container. In
// ABSOLUTE mode the stored pixels are returned verbatim, without clamping.
func (c *ComponentData) AbsolutePosition(containerWidth, containerHeight int) AbsPosition {
	if c.PositionMode == PositionRelative && c.RelativePosition != nil {
		return c.RelativePosition.ToAbsolute(containerWidth, containerHeight)
	}
	return AbsPosition{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height}
}

// UpdateRelativePosition recomputes the fractional position from the stored
// pixel fields and switches to RELATIVE mode. No-op for a degenerate
// container.
func (c *ComponentData) UpdateRelativePosition(containerWidth, containerHeight int) {
	if containerWidth <= 0 || containerHeight <= 0 {
		return
	}
	rp, err := FromAbsolute(c.X, c.Y, c.Width, c.Height, containerWidth, containerHeight)
	if err != nil {
		return
	}
	c.RelativePosition = &rp
	c.PositionMode = PositionRelative
}

// UpdateAbsolutePosition overwrites the pixel fields from the stored
// fractional position, leaving the mode unchanged. No-op without a
// fractional position or for a degenerate container.
func (c *ComponentData) UpdateAbsolutePosition(containerWidth, containerHeight int) {
	if c.RelativePosition == nil || containerWidth <= 0 || containerHeight <= 0 {
		return
	}
	abs := c.RelativePosition.ToAbsolute(containerWidth, containerHeight)
	c.X, c.Y, c.Width, c.Height = abs.X, abs.Y, abs.Width, abs.Height
}

// IsValid checks the per-mode invariants: a non-empty function type always,
// positive pixel size in ABSOLUTE mode, a valid fraction in RELATIVE mode.
func (c *ComponentData) IsValid() bool {
	if strings.TrimSpace(c.FunctionType) == "" {
		return false
	}
	switch c.PositionMode {
	case PositionRelative:
		return c.RelativePosition != nil && c.RelativePosition.IsValid()
	default:
		return c.Width > 0 && c.Height > 0
	}
}

// Repair restores the component invariants in place, manufacturing defaults
// for the function type, id and label when they are missing. It returns a
// description of each change applied.
func (c *ComponentData) Repair() []string {
	var changes []string

	if c.FunctionType == "" {
		c.FunctionType = DefaultFunctionType
		changes = append(changes, "functionType defaulted")
	}
	if strings.TrimSpace(c.ComponentID) == "" {
		c.ComponentID = newComponentID()
		changes = append(changes, "componentId regenerated")
	}

	switch {
	case c.PositionMode == PositionRelative && c.RelativePosition != nil:
		for _, ch := range c.RelativePosition.Repair() {
			changes = append(changes, "relativePosition "+ch)
		}
	default:
		if c.X < 0 {
			c.X = 0
			changes = append(changes, "x floored at 0")
		}
		if c.Y < 0 {
			c.Y = 0
			changes = append(changes, "y floored at 0")
		}
		if c.Width < 1 {
			c.Width = 1
			changes = append(changes, "width floored at 1")
		}
		if c.Height < 1 {
			c.Height = 1
			changes = append(changes, "height floored at 1")
		}
	}

	if c.LabelData == nil {
		c.LabelData = NewLabelData()
		changes = append(changes, "labelData defaulted")
	}
	return changes
}

// Copy deep-copies the component. The copy always gets a fresh componentId:
// copies are never identity-equal to their source.
func (c *ComponentData) Copy() *ComponentData {
	cp := *c
	cp.LabelData = c.LabelData.Copy()
	if c.RelativePosition != nil {
		rp := c.RelativePosition.Copy()
		cp.RelativePosition = &rp
	}
	cp.ComponentID = newComponentID()
	return &cp
}

// Summary is a short human-readable description for diagnostics.
func (c *ComponentData) Summary() string {
	var sb strings.Builder
	sb.WriteString("组件: ")
	sb.WriteString(c.FunctionType)
	if c.LabelData != nil && c.LabelData.HasText() {
		fmt.Fprintf(&sb, ", 文本: %q", c.LabelData.Text)
	}
	if c.PositionMode == PositionRelative && c.RelativePosition != nil {
		sb.WriteString(", 位置: ")
		sb.WriteString(c.RelativePosition.String())
	} else {
		fmt.Fprintf(&sb, ", 位置: (%d,%d) 尺寸: %dx%d", c.X, c.Y, c.Width, c.Height)
	}
	return sb.String()
}

// UnmarshalJSON decodes with the historical defaults: components are
// visible, enabled and ABSOLUTE unless the document says otherwise.
func (c *ComponentData) UnmarshalJSON(data []byte) error {
	type alias ComponentData
	a := alias{Visible: true, Enabled: true, PositionMode: PositionAbsolute}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = ComponentData(a)
	return nil
}

func (c *ComponentData) String() string {
	pos := fmt.Sprintf("absPos=(%d,%d,%d,%d)", c.X, c.Y, c.Width, c.Height)
	if c.PositionMode == PositionRelative && c.RelativePosition != nil {
		pos = "relPos=" + c.RelativePosition.String()
	}
	return fmt.Sprintf("ComponentData{id=%q, type=%q, mode=%s, visible=%t, enabled=%t, %s}",
		c.ComponentID, c.FunctionType, c.PositionMode, c.Visible, c.Enabled, pos)
}
