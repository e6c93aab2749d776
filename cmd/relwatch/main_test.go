package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/relwatch/relwatch/internal/catalog"
	"github.com/relwatch/relwatch/internal/common/config"
)

// TestSubcommandsRegistered tests that every subcommand is wired up
func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"update-latest", "generate-checklist", "apply-checked", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range rootCmd.Commands() {
			if strings.HasPrefix(cmd.Use, name) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s subcommand should exist", name)
		}
	}
}

// TestUpdateLatestFlags tests that all flags are present
func TestUpdateLatestFlags(t *testing.T) {
	for _, name := range []string{"csv", "out", "timeout", "workers", "github-workers", "sources", "dry-run"} {
		if updateLatestCmd.Flags().Lookup(name) == nil {
			t.Errorf("update-latest should have --%s flag", name)
		}
	}
}

// TestApplyCheckedFlags tests that all flags are present
func TestApplyCheckedFlags(t *testing.T) {
	for _, name := range []string{"csv", "out", "pr-body"} {
		if applyCheckedCmd.Flags().Lookup(name) == nil {
			t.Errorf("apply-checked should have --%s flag", name)
		}
	}
}

func TestSelectKeys(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{FormalName: "Python", Key: "python"},
		{FormalName: "Git", Key: "git"},
	})
	if err != nil {
		t.Fatal(err)
	}

	keys := selectKeys(cat, nil)
	if len(keys) != 2 || keys[0] != "python" || keys[1] != "git" {
		t.Errorf("keys = %v, want catalog row order", keys)
	}

	keys = selectKeys(cat, []string{"git", "mystery"})
	if len(keys) != 2 || keys[0] != "git" || keys[1] != "mystery" {
		t.Errorf("keys = %v, want the args verbatim", keys)
	}
}

func TestReadDocumentResolution(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checklist.md")
	if err := os.WriteFile(path, []byte("from file"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := readDocument(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != "from file" {
		t.Errorf("existing path should be read as a file, got %q", got)
	}

	got, err = readDocument("- [x] **Git** (`git`): 2.51.0 → 2.52.0")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "**Git**") {
		t.Errorf("non-path value should be taken literally, got %q", got)
	}
}

// TestUpdateLatestDryRunWritesNothing runs the command against pinned-only
// entries (no network involved) and checks the catalog file is untouched.
func TestUpdateLatestDryRunWritesNothing(t *testing.T) {
	csvPath := filepath.Join(t.TempDir(), "versions.csv")
	table := "\"formal_name\",\"name\",\"desired_version\",\"latest_version\"\r\n" +
		"\"Internet Download Manager\",\"idm\",\"8.0\",\"\"\r\n" +
		"\"gPad\",\"gpad\",\"3.0\",\"\"\r\n"
	if err := os.WriteFile(csvPath, []byte(table), 0o644); err != nil {
		t.Fatal(err)
	}

	updateCSV = csvPath
	updateOut = ""
	updateDryRun = true
	defer func() {
		updateCSV, updateDryRun = "", false
	}()

	runUpdateLatest(updateLatestCmd, nil)

	after, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != table {
		t.Error("dry run must not modify the catalog file")
	}
}

func TestBuildRegistryWithSourcesOverride(t *testing.T) {
	sourcesPath := filepath.Join(t.TempDir(), "sources.toml")
	content := "[sources.mytool]\nurl = \"https://example.org\"\nparser = \"regex\"\npattern = 'v(\\d+)'\n"
	if err := os.WriteFile(sourcesPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	updateSources = sourcesPath
	defer func() { updateSources = "" }()

	reg, err := buildRegistry(&config.Config{})
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if _, ok := reg.Lookup("mytool"); !ok {
		t.Error("sources file entry should be registered")
	}
	if _, ok := reg.Lookup("python"); !ok {
		t.Error("built-in fetchers should still be registered")
	}
}
