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
	"math"
)

// Default pixel clamps for components converted from fractions.
// Minimums keep touch targets usable on small screens.
const (
	DefaultMinWidth  = 50
	DefaultMinHeight = 20
	UnboundedMax     = math.MaxInt32
)

// AbsPosition is a concrete pixel rectangle for one container size.
type AbsPosition struct {
	X      int
	Y      int
	Width  int
	Height int
}

func (p AbsPosition) String() string {
	return fmt.Sprintf("AbsPosition{x=%d, y=%d, w=%d, h=%d}", p.X, p.Y, p.Width, p.Height)
}

// RelativePosition expresses placement and size as fractions (0..1) of a
// container, so a component keeps its place when displayed at a different
// resolution than the one it was authored on. Min/Max are pixel bounds and
// are applied only when converting back to absolute coordinates.
type RelativePosition struct {
	RelativeX      float64 `json:"relativeX"`
	RelativeY      float64 `json:"relativeY"`
	RelativeWidth  float64 `json:"relativeWidth"`
	RelativeHeight float64 `json:"relativeHeight"`

	MinWidth  int `json:"minWidth"`
	MinHeight int `json:"minHeight"`
	MaxWidth  int `json:"maxWidth"`
	MaxHeight int `json:"maxHeight"`
}

// NewRelativePosition clamps each fraction into [0,1] and applies the
// default pixel bounds.
func NewRelativePosition(relX, relY, relW, relH float64) RelativePosition {
	return RelativePosition{
		RelativeX:      clamp01(relX),
		RelativeY:      clamp01(relY),
		RelativeWidth:  clamp01(relW),
		RelativeHeight: clamp01(relH),
		MinWidth:       DefaultMinWidth,
		MinHeight:      DefaultMinHeight,
		MaxWidth:       UnboundedMax,
		MaxHeight:      UnboundedMax,
	}
}

// FromAbsolute derives a relative position from a pixel rectangle inside the
// given container. The rectangle is clamped into the container first, so the
// result is always representable even for out-of-bounds input. Width/height
// fractions are floored at 0.001 so a component can never serialize to an
// invisible sliver, and the position is shifted (never shrunk) back inside
// the right/bottom edge.
func FromAbsolute(x, y, width, height, containerWidth, containerHeight int) (RelativePosition, error) {
	if containerWidth <= 0 || containerHeight <= 0 {
		return RelativePosition{}, fmt.Errorf("container size must be positive: %dx%d", containerWidth, containerHeight)
	}

	x = clampInt(x, 0, containerWidth)
	y = clampInt(y, 0, containerHeight)
	width = maxInt(1, minInt(width, containerWidth-x))
	height = maxInt(1, minInt(height, containerHeight-y))

	relX := clamp01(float64(x) / float64(containerWidth))
	relY := clamp01(float64(y) / float64(containerHeight))
	relW := clampF(float64(width)/float64(containerWidth), 0.001, 1.0)
	relH := clampF(float64(height)/float64(containerHeight), 0.001, 1.0)

	if relX+relW > 1.0 {
		relX = math.Max(0.0, 1.0-relW)
	}
	if relY+relH > 1.0 {
		relY = math.Max(0.0, 1.0-relH)
	}

	rp := NewRelativePosition(relX, relY, relW, relH)
	return rp, nil
}

// ToAbsolute converts back to pixels for the given container size. The size
// clamp runs before the position clamp: pixel minimums win over fidelity to
// the stored fraction, but the rectangle never escapes the container.
func (r RelativePosition) ToAbsolute(containerWidth, containerHeight int) AbsPosition {
	x := int(r.RelativeX * float64(containerWidth))
	y := int(r.RelativeY * float64(containerHeight))
	width := int(r.RelativeWidth * float64(containerWidth))
	height := int(r.RelativeHeight * float64(containerHeight))

	maxW := r.MaxWidth
	if maxW <= 0 {
		maxW = UnboundedMax
	}
	maxH := r.MaxHeight
	if maxH <= 0 {
		maxH = UnboundedMax
	}
	width = clampInt(width, r.MinWidth, maxW)
	height = clampInt(height, r.MinHeight, maxH)

	// Floor at zero last: for containers smaller than the pixel minimums
	// the left/top edge wins over the size clamp.
	x = maxInt(0, minInt(x, containerWidth-width))
	y = maxInt(0, minInt(y, containerHeight-height))

	// Position clamp may have pushed the rectangle against the far edge;
	// shrink again so it stays inside the container.
	width = minInt(width, containerWidth-x)
	height = minInt(height, containerHeight-y)

	return AbsPosition{X: x, Y: y, Width: width, Height: height}
}

// IsValid reports whether all fractions are in range and the rectangle does
// not cross the right/bottom edge.
func (r RelativePosition) IsValid() bool {
	return r.RelativeX >= 0.0 && r.RelativeX <= 1.0 &&
		r.RelativeY >= 0.0 && r.RelativeY <= 1.0 &&
		r.RelativeWidth > 0.0 && r.RelativeWidth <= 1.0 &&
		r.RelativeHeight > 0.0 && r.RelativeHeight <= 1.0 &&
		r.RelativeX+r.RelativeWidth <= 1.0 &&
		r.RelativeY+r.RelativeHeight <= 1.0
}

// Repair clamps every fraction back into range and shifts the position off
// the far edges. Pixel bounds are never altered. It returns a description of
// each change applied; an empty result means the value was already valid.
func (r *RelativePosition) Repair() []string {
	var changes []string
	record := func(field string, before, after float64) {
		if before != after {
			changes = append(changes, fmt.Sprintf("%s: %.4f -> %.4f", field, before, after))
		}
	}

	v := clamp01(r.RelativeX)
	record("relativeX", r.RelativeX, v)
	r.RelativeX = v
	v = clamp01(r.RelativeY)
	record("relativeY", r.RelativeY, v)
	r.RelativeY = v
	v = clampF(r.RelativeWidth, 0.001, 1.0)
	record("relativeWidth", r.RelativeWidth, v)
	r.RelativeWidth = v
	v = clampF(r.RelativeHeight, 0.001, 1.0)
	record("relativeHeight", r.RelativeHeight, v)
	r.RelativeHeight = v

	if r.RelativeX+r.RelativeWidth > 1.0 {
		v = math.Max(0.0, 1.0-r.RelativeWidth)
		record("relativeX", r.RelativeX, v)
		r.RelativeX = v
	}
	if r.RelativeY+r.RelativeHeight > 1.0 {
		v = math.Max(0.0, 1.0-r.RelativeHeight)
		record("relativeY", r.RelativeY, v)
		r.RelativeY = v
	}
	return changes
}

// Copy returns an independent copy.
func (r RelativePosition) Copy() RelativePosition { return r }

func (r RelativePosition) String() string {
	return fmt.Sprintf("RelativePosition{pos=(%.3f%%, %.3f%%), size=(%.3f%%, %.3f%%)}",
		r.RelativeX*100, r.RelativeY*100, r.RelativeWidth*100, r.RelativeHeight*100)
}

// UnmarshalJSON applies the default pixel bounds before decoding so that
// documents written by older releases, which may omit the bounds, keep the
// usable-minimum behavior.
func (r *RelativePosition) UnmarshalJSON(data []byte) error {
	type alias RelativePosition
	a := alias{
		MinWidth:  DefaultMinWidth,
		MinHeight: DefaultMinHeight,
		MaxWidth:  UnboundedMax,
		MaxHeight: UnboundedMax,
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*r = RelativePosition(a)
	return nil
}

func clamp01(v float64) float64 { return clampF(v, 0.0, 1.0) }

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
