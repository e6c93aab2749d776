package checklist

import (
	"testing"

	"github.com/relwatch/relwatch/internal/catalog"
)

func TestApplyCheckedSelection(t *testing.T) {
	c := mustCatalog(t, []catalog.Entry{
		{FormalName: "Python", Key: "python", DesiredVersion: "3.13.11", LatestVersion: "3.13.12"},
		{FormalName: "Gitea", Key: "gitea", DesiredVersion: "1.23.0", LatestVersion: "1.24.0"},
	})

	body := "- [x] **Python** (`python`): 3.13.11 → 3.13.12\n" +
		"- [ ] **Gitea** (`gitea`): 1.23.0 → 1.24.0\n"

	result := Apply(c, body)
	if result.Checked != 1 {
		t.Errorf("Checked = %d, want 1", result.Checked)
	}
	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %v, want 1", result.Changes)
	}

	python, _ := c.Lookup("python")
	if python.DesiredVersion != "3.13.12" {
		t.Errorf("python desired = %q, want 3.13.12", python.DesiredVersion)
	}
	// Unchecked row untouched
	gitea, _ := c.Lookup("gitea")
	if gitea.DesiredVersion != "1.23.0" {
		t.Errorf("gitea desired = %q, want unchanged 1.23.0", gitea.DesiredVersion)
	}
}

func TestApplyTakesVersionFromLineNotCatalog(t *testing.T) {
	// Catalog's latest moved on since the checklist was generated; the
	// human approved what they saw, so the line's value wins.
	c := mustCatalog(t, []catalog.Entry{
		{FormalName: "Python", Key: "python", DesiredVersion: "3.13.11", LatestVersion: "3.14.0"},
	})

	result := Apply(c, "- [x] **Python** (`python`): 3.13.11 → 3.13.12\n")
	if len(result.Changes) != 1 {
		t.Fatalf("Changes = %v", result.Changes)
	}

	e, _ := c.Lookup("python")
	if e.DesiredVersion != "3.13.12" {
		t.Errorf("desired = %q, want the line's 3.13.12, not the catalog's 3.14.0", e.DesiredVersion)
	}
	if e.LatestVersion != "3.14.0" {
		t.Errorf("latest = %q, should be untouched", e.LatestVersion)
	}
}

func TestApplyUnmatchedKeyIsWarningOnly(t *testing.T) {
	c := mustCatalog(t, []catalog.Entry{
		{FormalName: "Python", Key: "python", DesiredVersion: "3.13.11", LatestVersion: "3.13.12"},
	})

	result := Apply(c, "- [x] **Removed Tool** (`removed`): 1.0 → 2.0\n")
	if len(result.Unmatched) != 1 || result.Unmatched[0] != "removed" {
		t.Errorf("Unmatched = %v", result.Unmatched)
	}
	if len(result.Changes) != 0 {
		t.Errorf("Changes = %v, want none", result.Changes)
	}

	e, _ := c.Lookup("python")
	if e.DesiredVersion != "3.13.11" {
		t.Error("unrelated row mutated by unmatched selection")
	}
}

func TestApplyMalformedCheckedLineIsWarningOnly(t *testing.T) {
	c := mustCatalog(t, []catalog.Entry{
		{FormalName: "Python", Key: "python", DesiredVersion: "3.13.11", LatestVersion: "3.13.12"},
	})

	result := Apply(c, "- [x] update python please\n")
	if len(result.Malformed) != 1 {
		t.Errorf("Malformed = %v, want 1", result.Malformed)
	}
	if len(result.Changes) != 0 {
		t.Errorf("Changes = %v", result.Changes)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	c := mustCatalog(t, []catalog.Entry{
		{FormalName: "Python", Key: "python", DesiredVersion: "3.13.11", LatestVersion: "3.13.12"},
	})
	body := "- [x] **Python** (`python`): 3.13.11 → 3.13.12\n"

	first := Apply(c, body)
	if len(first.Changes) != 1 {
		t.Fatalf("first apply changes = %v", first.Changes)
	}

	second := Apply(c, body)
	if len(second.Changes) != 0 {
		t.Errorf("second apply changes = %v, want none", second.Changes)
	}

	e, _ := c.Lookup("python")
	if e.DesiredVersion != "3.13.12" {
		t.Errorf("desired = %q", e.DesiredVersion)
	}
}
