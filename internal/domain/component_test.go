package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewComponentsEstablishMode(t *testing.T) {
	abs := NewAbsoluteComponent(10, 20, 100, 50, 100, 50, "按钮", NewLabelData())
	if abs.PositionMode != PositionAbsolute {
		t.Fatalf("mode = %s, want ABSOLUTE", abs.PositionMode)
	}
	rel := NewRelativeComponent(NewRelativePosition(0.1, 0.1, 0.2, 0.2), "按钮", NewLabelData())
	if rel.PositionMode != PositionRelative {
		t.Fatalf("mode = %s, want RELATIVE", rel.PositionMode)
	}
	if abs.ComponentID == "" || rel.ComponentID == "" {
		t.Fatalf("expected generated component ids")
	}
	if abs.ComponentID == rel.ComponentID {
		t.Fatalf("component ids must be unique")
	}
}

func TestSetRelativePositionSwitchesMode(t *testing.T) {
	c := NewAbsoluteComponent(10, 20, 100, 50, 100, 50, "按钮", nil)
	c.SetRelativePosition(NewRelativePosition(0.25, 0.25, 0.5, 0.5))
	if c.PositionMode != PositionRelative {
		t.Fatalf("mode = %s, want RELATIVE after SetRelativePosition", c.PositionMode)
	}
}

func TestAbsolutePositionPerMode(t *testing.T) {
	c := NewAbsoluteComponent(10, 20, 100, 50, 100, 50, "按钮", nil)
	// ABSOLUTE mode returns the stored pixels verbatim, even for a
	// container the rectangle does not fit into.
	got := c.AbsolutePosition(50, 30)
	if (got != AbsPosition{X: 10, Y: 20, Width: 100, Height: 50}) {
		t.Fatalf("absolute-mode position = %v", got)
	}

	c.SetRelativePosition(NewRelativePosition(0.25, 0.25, 0.5, 0.5))
	got = c.AbsolutePosition(800, 600)
	if (got != AbsPosition{X: 200, Y: 150, Width: 400, Height: 300}) {
		t.Fatalf("relative-mode position = %v", got)
	}
}

func TestUpdateRelativePosition(t *testing.T) {
	c := NewAbsoluteComponent(300, 200, 120, 50, 120, 50, "按钮", nil)
	c.UpdateRelativePosition(800, 600)
	if c.PositionMode != PositionRelative || c.RelativePosition == nil {
		t.Fatalf("expected RELATIVE mode with position, got %s", c.PositionMode)
	}
	if got := c.AbsolutePosition(800, 600); (got != AbsPosition{X: 300, Y: 200, Width: 120, Height: 50}) {
		t.Fatalf("adapted position = %v", got)
	}

	// Degenerate container is a no-op.
	c2 := NewAbsoluteComponent(1, 1, 10, 10, 10, 10, "按钮", nil)
	c2.UpdateRelativePosition(0, 600)
	if c2.PositionMode != PositionAbsolute || c2.RelativePosition != nil {
		t.Fatalf("no-op expected for degenerate container")
	}
}

func TestUpdateAbsolutePosition(t *testing.T) {
	c := NewRelativeComponent(NewRelativePosition(0.25, 0.25, 0.5, 0.5), "按钮", nil)
	c.UpdateAbsolutePosition(800, 600)
	if c.X != 200 || c.Y != 150 || c.Width != 400 || c.Height != 300 {
		t.Fatalf("pixel fields = (%d,%d,%d,%d)", c.X, c.Y, c.Width, c.Height)
	}
	if c.PositionMode != PositionRelative {
		t.Fatalf("mode must not change, got %s", c.PositionMode)
	}

	c2 := NewAbsoluteComponent(1, 2, 3, 4, 3, 4, "按钮", nil)
	c2.UpdateAbsolutePosition(800, 600)
	if c2.X != 1 || c2.Y != 2 || c2.Width != 3 || c2.Height != 4 {
		t.Fatalf("no-op expected without a relative position")
	}
}

func TestComponentValidity(t *testing.T) {
	c := NewAbsoluteComponent(0, 0, 100, 50, 100, 50, "按钮", nil)
	if !c.IsValid() {
		t.Fatalf("component should be valid: %v", c)
	}
	c.FunctionType = ""
	if c.IsValid() {
		t.Fatalf("empty functionType must be invalid")
	}
	c.FunctionType = "按钮"
	c.Width = 0
	if c.IsValid() {
		t.Fatalf("zero width must be invalid in ABSOLUTE mode")
	}

	r := NewRelativeComponent(RelativePosition{RelativeX: 2, RelativeWidth: 0.5, RelativeHeight: 0.5}, "按钮", nil)
	if r.IsValid() {
		t.Fatalf("invalid relative position must make the component invalid")
	}
}

func TestComponentRepair(t *testing.T) {
	c := &ComponentData{PositionMode: PositionAbsolute, X: -5, Y: -5}
	changes := c.Repair()
	if len(changes) == 0 {
		t.Fatalf("expected repair changes")
	}
	if c.FunctionType != DefaultFunctionType {
		t.Fatalf("functionType = %q, want default", c.FunctionType)
	}
	if c.ComponentID == "" || c.LabelData == nil {
		t.Fatalf("repair must manufacture id and label")
	}
	if !c.IsValid() {
		t.Fatalf("repaired component should be valid: %v", c)
	}
	if again := c.Repair(); len(again) != 0 {
		t.Fatalf("second repair changed %v", again)
	}
}

func TestComponentCopyGetsFreshID(t *testing.T) {
	c := NewRelativeComponent(NewRelativePosition(0.1, 0.1, 0.2, 0.2), "按钮", NewLabelData())
	c.LabelData.Text = "开灯"
	cp := c.Copy()
	if cp.ComponentID == c.ComponentID {
		t.Fatalf("copy must get a new component id")
	}
	if cp.LabelData == c.LabelData || cp.RelativePosition == c.RelativePosition {
		t.Fatalf("copy must deep-copy label and relative position")
	}
	cp.LabelData.Text = "关灯"
	if c.LabelData.Text != "开灯" {
		t.Fatalf("copy mutation leaked into source")
	}
}

func TestComponentUnmarshalDefaults(t *testing.T) {
	var c ComponentData
	if err := json.Unmarshal([]byte(`{"functionType":"按钮","x":1,"y":2,"width":3,"height":4}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !c.Visible || !c.Enabled {
		t.Fatalf("visible/enabled must default to true")
	}
	if c.PositionMode != PositionAbsolute {
		t.Fatalf("positionMode must default to ABSOLUTE, got %s", c.PositionMode)
	}
}

func TestComponentSummary(t *testing.T) {
	c := NewAbsoluteComponent(1, 2, 3, 4, 3, 4, "按钮", NewLabelData())
	if s := c.Summary(); !strings.Contains(s, "按钮") {
		t.Fatalf("summary missing function type: %q", s)
	}
}
