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
	"strconv"
	"strings"
)

// LabelData holds the display attributes of a component: text, font,
// color and icon. Alignment and text-position values use the numeric codes
// of documents written by earlier releases.
type LabelData struct {
	Text                   string  `json:"text,omitempty"`
	FontName               string  `json:"fontName,omitempty"`
	FontSize               int     `json:"fontSize"`
	FontStyle              int     `json:"fontStyle"`
	ColorRGB               int     `json:"colorRGB"`
	IconPath               string  `json:"iconPath,omitempty"`
	OriginalFontSize       int     `json:"originalFontSize"`
	HorizontalAlignment    int     `json:"horizontalAlignment"`
	VerticalAlignment      int     `json:"verticalAlignment"`
	HorizontalTextPosition int     `json:"horizontalTextPosition"`
	VerticalTextPosition   int     `json:"verticalTextPosition"`
	FontFamily             string  `json:"fontFamily,omitempty"`
	AutoScaleFont          bool    `json:"autoScaleFont"`
	FontScaleFactor        float64 `json:"fontScaleFactor"`
}

// NewLabelData returns a label with platform-neutral defaults.
func NewLabelData() *LabelData {
	return &LabelData{
		FontName:               "System",
		FontSize:               12,
		FontStyle:              0, // plain
		ColorRGB:               0x000000,
		HorizontalAlignment:    0,  // left
		VerticalAlignment:      0,  // top
		HorizontalTextPosition: 11, // trailing
		VerticalTextPosition:   0,  // center
		FontFamily:             "System",
		AutoScaleFont:          true,
		FontScaleFactor:        1.0,
	}
}

// SetFontName also refreshes the mapped cross-platform font family.
func (l *LabelData) SetFontName(name string) {
	l.FontName = name
	l.FontFamily = mapToSystemFont(name)
}

// mapToSystemFont maps platform-specific font names onto the generic
// families every target platform can render.
func mapToSystemFont(fontName string) string {
	if fontName == "" {
		return "System"
	}
	lower := strings.ToLower(fontName)
	switch {
	case strings.Contains(lower, "dialog"), strings.Contains(lower, "sans"):
		return "System"
	case strings.Contains(lower, "serif"):
		return "Serif"
	case strings.Contains(lower, "mono"):
		return "Monospaced"
	default:
		return fontName
	}
}

// AdaptedFontSize applies the scale factor when auto-scaling is enabled.
func (l *LabelData) AdaptedFontSize() int {
	if l.AutoScaleFont {
		return int(math.Round(float64(l.FontSize) * l.FontScaleFactor))
	}
	return l.FontSize
}

// ColorHex returns the label color as "#RRGGBB".
func (l *LabelData) ColorHex() string {
	return fmt.Sprintf("#%06X", l.ColorRGB&0xFFFFFF)
}

// SetColorFromHex parses "#RRGGBB"; malformed input keeps the old color.
func (l *LabelData) SetColorFromHex(hex string) {
	if len(hex) != 7 || !strings.HasPrefix(hex, "#") {
		return
	}
	if v, err := strconv.ParseInt(hex[1:], 16, 32); err == nil {
		l.ColorRGB = int(v)
	}
}

// RGBComponents splits the color into red, green and blue.
func (l *LabelData) RGBComponents() (r, g, b int) {
	return (l.ColorRGB >> 16) & 0xFF, (l.ColorRGB >> 8) & 0xFF, l.ColorRGB & 0xFF
}

// SetColorFromRGB clamps each channel into [0,255] and packs the color.
func (l *LabelData) SetColorFromRGB(r, g, b int) {
	r = clampInt(r, 0, 255)
	g = clampInt(g, 0, 255)
	b = clampInt(b, 0, 255)
	l.ColorRGB = r<<16 | g<<8 | b
}

func (l *LabelData) HasIcon() bool { return strings.TrimSpace(l.IconPath) != "" }
func (l *LabelData) HasText() bool { return strings.TrimSpace(l.Text) != "" }

// ContentSummary is a short human-readable description for diagnostics.
func (l *LabelData) ContentSummary() string {
	var sb strings.Builder
	if l.HasText() {
		fmt.Fprintf(&sb, "文本: %q", l.Text)
	}
	if l.HasIcon() {
		if sb.Len() > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("图标: ")
		sb.WriteString(l.IconPath)
	}
	if sb.Len() == 0 {
		sb.WriteString("无内容")
	}
	return sb.String()
}

// Copy returns an independent copy.
func (l *LabelData) Copy() *LabelData {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

// UnmarshalJSON keeps the constructor defaults for fields the document does
// not carry, matching the decoding behavior of earlier releases.
func (l *LabelData) UnmarshalJSON(data []byte) error {
	type alias LabelData
	a := alias(*NewLabelData())
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*l = LabelData(a)
	return nil
}

func (l *LabelData) String() string {
	return fmt.Sprintf("LabelData{text=%q, font=%q/%d, color=%s, icon=%q, scale=%.2f}",
		l.Text, l.FontName, l.FontSize, l.ColorHex(), l.IconPath, l.FontScaleFactor)
}
