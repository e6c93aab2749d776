// Package checklist renders the human-checkable update list and parses the
// human-edited copy back. Rendering and parsing share one line grammar so
// the two can never drift apart.
package checklist

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/relwatch/relwatch/internal/catalog"
)

// emptyPlaceholder stands in for an empty desired version in rendered lines
const emptyPlaceholder = "(empty)"

// itemPattern is the single grammar for checklist lines, shared between
// Render and ParseDocument:
//
//	- [ ] **Formal Name** (`key`): desired → latest
var itemPattern = regexp.MustCompile("^\\s*- \\[([ xX])\\] \\*\\*(.+)\\*\\* \\(`([^`]+)`\\): (.*?) → (.+?)\\s*$")

// checkedPrefix recognizes lines that claim to be checked items, used to
// flag malformed checked lines instead of silently dropping them
var checkedPrefix = regexp.MustCompile(`^\s*- \[[xX]\]`)

// Item is one rendered checklist entry. Checked only ever becomes true in
// the human-edited copy; the generator always emits unchecked items.
type Item struct {
	FormalName     string
	Key            string
	DesiredVersion string
	LatestVersion  string
	Checked        bool
}

// Line renders the item in the checklist grammar
func (it Item) Line() string {
	box := " "
	if it.Checked {
		box = "x"
	}
	desired := it.DesiredVersion
	if desired == "" {
		desired = emptyPlaceholder
	}
	formal := it.FormalName
	if formal == "" {
		formal = it.Key
	}
	return fmt.Sprintf("- [%s] **%s** (`%s`): %s → %s", box, formal, it.Key, desired, it.LatestVersion)
}

// Generate selects the entries with a pending update: latest_version is
// non-empty and differs from desired_version. Catalog row order is kept.
func Generate(c *catalog.Catalog) []Item {
	var items []Item
	for _, e := range c.Entries() {
		latest := strings.TrimSpace(e.LatestVersion)
		desired := strings.TrimSpace(e.DesiredVersion)
		if latest == "" || latest == desired {
			continue
		}
		items = append(items, Item{
			FormalName:     strings.TrimSpace(e.FormalName),
			Key:            strings.TrimSpace(e.Key),
			DesiredVersion: desired,
			LatestVersion:  latest,
		})
	}
	return items
}

// Render writes the full checklist document for the given items.
// With no items it emits a single "No updates available." line.
func Render(w io.Writer, items []Item) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "No updates available.")
		return err
	}

	var b strings.Builder
	b.WriteString("## Update Checklist\n\n")
	b.WriteString("Check the items you want to update:\n\n")
	for _, it := range items {
		b.WriteString(it.Line())
		b.WriteByte('\n')
	}
	b.WriteString(fmt.Sprintf("\n---\n*%d update(s) available*\n", len(items)))

	_, err := io.WriteString(w, b.String())
	return err
}

// ParseDocument scans a selection document for checklist lines.
// Lines matching the grammar become Items (checked or not); lines that
// claim to be checked but fail the grammar are returned as malformed.
// Everything else is ignored.
func ParseDocument(body string) (items []Item, malformed []string) {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		m := itemPattern.FindStringSubmatch(line)
		if m == nil {
			if checkedPrefix.MatchString(line) && strings.TrimSpace(line) != "" {
				malformed = append(malformed, strings.TrimSpace(line))
			}
			continue
		}

		desired := m[4]
		if desired == emptyPlaceholder {
			desired = ""
		}
		items = append(items, Item{
			Checked:        m[1] == "x" || m[1] == "X",
			FormalName:     m[2],
			Key:            m[3],
			DesiredVersion: desired,
			LatestVersion:  m[5],
		})
	}
	return items, malformed
}
