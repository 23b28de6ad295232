package domain

import "testing"

func TestProjectAddPage(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")
	p.AddPage("P1") // duplicate is a no-op

	if p.PageCount() != 2 {
		t.Fatalf("pageCount = %d, want 2", p.PageCount())
	}
	if p.CurrentPage != "P1" {
		t.Fatalf("currentPage = %q, want first added page", p.CurrentPage)
	}
	if p.Page("P2") == nil || !p.HasPage("P2") {
		t.Fatalf("P2 missing")
	}
	if p.Page("P3") != nil {
		t.Fatalf("lookup of missing page must be nil")
	}
}

func TestProjectRemovePageReassignsCurrent(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")
	p.AddPage("P3")
	p.SetCurrentPage("P2")

	if !p.RemovePage("P2") {
		t.Fatalf("remove failed")
	}
	if p.CurrentPage != "P1" {
		t.Fatalf("currentPage = %q, want first remaining page", p.CurrentPage)
	}
	if p.RemovePage("P2") {
		t.Fatalf("removing a missing page must fail")
	}

	p.RemovePage("P1")
	p.RemovePage("P3")
	if p.CurrentPage != "" || !p.IsEmpty() {
		t.Fatalf("empty project must have no current page, got %q", p.CurrentPage)
	}
}

func TestProjectRenamePage(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")

	if p.RenamePage("P1", "P2") {
		t.Fatalf("rename to an existing name must be refused")
	}
	if !p.RenamePage("P1", "首页") {
		t.Fatalf("rename failed")
	}
	if p.Pages[0] != "首页" || p.Page("首页") == nil || p.Page("首页").Name != "首页" {
		t.Fatalf("rename did not update list and contents")
	}
	if p.CurrentPage != "首页" {
		t.Fatalf("currentPage must follow the rename, got %q", p.CurrentPage)
	}
	if p.RenamePage("missing", "X") {
		t.Fatalf("renaming a missing page must fail")
	}
}

func TestProjectComponentCount(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")
	p.Page("P1").AddComponent(testComponent("按钮"))
	p.Page("P2").AddComponent(testComponent("按钮"))
	p.Page("P2").AddComponent(testComponent("滑块"))
	if got := p.TotalComponentCount(); got != 3 {
		t.Fatalf("total components = %d, want 3", got)
	}
}

func TestProjectIntegrityListMapLockstep(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")

	// Orphan list entry and orphan map entry.
	p.Pages = append(p.Pages, "ghost")
	p.PageContents["stray"] = NewPageData("stray")
	if p.ValidateIntegrity() {
		t.Fatalf("out-of-lockstep project must be invalid")
	}

	changes := p.RepairIntegrity()
	if len(changes) == 0 {
		t.Fatalf("expected repair changes")
	}
	if !p.ValidateIntegrity() {
		t.Fatalf("project must validate after repair")
	}
	if p.HasPage("ghost") {
		t.Fatalf("ghost page still listed")
	}
	if _, ok := p.PageContents["stray"]; ok {
		t.Fatalf("stray contents still present")
	}
	if again := p.RepairIntegrity(); len(again) != 0 {
		t.Fatalf("second repair changed %v", again)
	}
}

func TestProjectIntegrityDanglingCurrentPage(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.CurrentPage = "missing"
	if p.ValidateIntegrity() {
		t.Fatalf("dangling currentPage must be invalid")
	}
	p.RepairIntegrity()
	if p.CurrentPage != "P1" {
		t.Fatalf("currentPage = %q, want reset to first page", p.CurrentPage)
	}
}

func TestProjectIntegrityRecursesIntoPages(t *testing.T) {
	p := NewProjectData()
	p.AddPage("P1")
	p.AddPage("P2")
	p.Page("P2").Components = append(p.Page("P2").Components, &ComponentData{}) // no functionType

	if p.ValidateIntegrity() {
		t.Fatalf("invalid component must fail project validation")
	}
	p.RepairIntegrity()
	if !p.ValidateIntegrity() {
		t.Fatalf("project must validate after repair")
	}
	if p.Page("P2").ComponentCount() != 0 {
		t.Fatalf("invalid component must be dropped from P2")
	}
}
