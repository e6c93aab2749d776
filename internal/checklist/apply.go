package checklist

import (
	"github.com/relwatch/relwatch/internal/catalog"
)

// ApplyResult reports what applying a selection document did.
// Unmatched and Malformed are warnings, never failures: the catalog may
// have changed between checklist generation and the document coming back.
type ApplyResult struct {
	// Changes are the desired_version mutations made, in document order
	Changes []catalog.Change
	// Checked is the number of checked items found in the document
	Checked int
	// Unmatched lists checked keys with no catalog row
	Unmatched []string
	// Malformed lists checked-looking lines that failed the line grammar
	Malformed []string
}

// Apply sets desired_version for every checked item whose key exists in
// the catalog. The version applied is the latest value carried by the
// line itself, not the catalog's current latest_version, so applying
// needs no network and is unaffected by fetches that happened since the
// checklist was generated. Applying the same document twice is a no-op
// the second time.
func Apply(c *catalog.Catalog, body string) ApplyResult {
	items, malformed := ParseDocument(body)

	result := ApplyResult{Malformed: malformed}
	for _, it := range items {
		if !it.Checked {
			continue
		}
		result.Checked++

		if _, ok := c.Lookup(it.Key); !ok {
			result.Unmatched = append(result.Unmatched, it.Key)
			continue
		}
		if ch, changed := c.SetDesired(it.Key, it.LatestVersion); changed {
			result.Changes = append(result.Changes, ch)
		}
	}
	return result
}
