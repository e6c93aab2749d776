// Package catalog owns the persisted table of tracked software and its
// reconciliation operations: load, diff, fetch-result application, and save.
package catalog

import (
	"errors"
	"fmt"
)

// Error variables for catalog integrity violations
var (
	// ErrMissingColumns is returned when the CSV header lacks a required column
	ErrMissingColumns = errors.New("missing required column")
	// ErrEmptyKey is returned when a row has an empty name column
	ErrEmptyKey = errors.New("row has empty name")
	// ErrDuplicateKey is returned when two rows share the same name
	ErrDuplicateKey = errors.New("duplicate name in table")
)

// Required column names, in canonical order. The "name" column is the
// stable key used to match fetchers and checklist lines back to a row.
var requiredColumns = []string{"formal_name", "name", "desired_version", "latest_version"}

// Entry is one tracked software package
type Entry struct {
	// FormalName is the display name, free text
	FormalName string
	// Key is the stable identifier, unique across the catalog
	Key string
	// DesiredVersion is the version currently considered in use / approved
	DesiredVersion string
	// LatestVersion is the most recently observed upstream version;
	// empty if never successfully fetched
	LatestVersion string
	// Extra holds values of columns outside the fixed schema, preserved
	// verbatim across load/save
	Extra map[string]string
}

// Catalog is the ordered set of entries as persisted.
// Row order is significant: diffs, checklists, and saves all follow it.
type Catalog struct {
	// header is the column order as loaded (canonical order for new catalogs)
	header  []string
	entries []Entry
	byKey   map[string]int
}

// New builds a catalog from entries, enforcing key uniqueness.
func New(entries []Entry) (*Catalog, error) {
	c := &Catalog{
		header:  append([]string(nil), requiredColumns...),
		entries: entries,
		byKey:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.Key == "" {
			return nil, fmt.Errorf("%w: row %d", ErrEmptyKey, i+1)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, e.Key)
		}
		c.byKey[e.Key] = i
	}
	return c, nil
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the entries in row order.
// The slice is shared; callers must not reorder it.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Lookup returns the entry for a key and whether it exists
func (c *Catalog) Lookup(key string) (Entry, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Clone returns a deep copy of the catalog
func (c *Catalog) Clone() *Catalog {
	clone := &Catalog{
		header:  append([]string(nil), c.header...),
		entries: make([]Entry, len(c.entries)),
		byKey:   make(map[string]int, len(c.byKey)),
	}
	for i, e := range c.entries {
		if e.Extra != nil {
			extra := make(map[string]string, len(e.Extra))
			for k, v := range e.Extra {
				extra[k] = v
			}
			e.Extra = extra
		}
		clone.entries[i] = e
	}
	for k, v := range c.byKey {
		clone.byKey[k] = v
	}
	return clone
}

// Change records one field mutation, for diff reporting
type Change struct {
	Key   string
	Field string
	Old   string
	New   string
}

func (ch Change) String() string {
	old := ch.Old
	if old == "" {
		old = "(empty)"
	}
	return fmt.Sprintf("%s: %s %s -> %s", ch.Key, ch.Field, old, ch.New)
}

// ApplyLatest sets latest_version for every key present in versions.
// Keys absent from the catalog are ignored; entries absent from versions
// keep their last known value. Returns the changes made, in row order.
func (c *Catalog) ApplyLatest(versions map[string]string) []Change {
	var changes []Change
	for i := range c.entries {
		e := &c.entries[i]
		v, ok := versions[e.Key]
		if !ok || v == "" {
			continue
		}
		if e.LatestVersion != v {
			changes = append(changes, Change{Key: e.Key, Field: "latest_version", Old: e.LatestVersion, New: v})
			e.LatestVersion = v
		}
	}
	return changes
}

// SetDesired sets desired_version for a key.
// Returns the change made and false if the key is absent or the value
// already matches.
func (c *Catalog) SetDesired(key, version string) (Change, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Change{}, false
	}
	e := &c.entries[i]
	if e.DesiredVersion == version {
		return Change{}, false
	}
	ch := Change{Key: key, Field: "desired_version", Old: e.DesiredVersion, New: version}
	e.DesiredVersion = version
	return ch, true
}

// Diff compares two catalogs row by row and reports field-level changes
// in row order. Both catalogs must describe the same rows; keys present
// only on one side are reported as whole-row changes.
func Diff(before, after *Catalog) []Change {
	var changes []Change
	for _, old := range before.entries {
		cur, ok := after.Lookup(old.Key)
		if !ok {
			changes = append(changes, Change{Key: old.Key, Field: "row", Old: "present", New: "absent"})
			continue
		}
		if old.DesiredVersion != cur.DesiredVersion {
			changes = append(changes, Change{Key: old.Key, Field: "desired_version", Old: old.DesiredVersion, New: cur.DesiredVersion})
		}
		if old.LatestVersion != cur.LatestVersion {
			changes = append(changes, Change{Key: old.Key, Field: "latest_version", Old: old.LatestVersion, New: cur.LatestVersion})
		}
	}
	for _, cur := range after.entries {
		if _, ok := before.byKey[cur.Key]; !ok {
			changes = append(changes, Change{Key: cur.Key, Field: "row", Old: "absent", New: "present"})
		}
	}
	return changes
}
