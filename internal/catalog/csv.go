package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load parses the catalog table from r.
// A leading UTF-8 BOM is tolerated. Columns beyond the fixed schema are
// preserved and written back by Save in their original positions.
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read table: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMissingColumns)
	}

	header := records[0]
	colIndex := make(map[string]int, len(header))
	for i, col := range header {
		colIndex[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumns, col)
		}
	}

	c := &Catalog{
		header: append([]string(nil), header...),
		byKey:  make(map[string]int),
	}

	for rowNum, record := range records[1:] {
		field := func(col string) string {
			i := colIndex[col]
			if i >= len(record) {
				return ""
			}
			return record[i]
		}

		e := Entry{
			FormalName:     field("formal_name"),
			Key:            field("name"),
			DesiredVersion: field("desired_version"),
			LatestVersion:  field("latest_version"),
		}
		if strings.TrimSpace(e.Key) == "" {
			return nil, fmt.Errorf("%w: row %d", ErrEmptyKey, rowNum+2)
		}
		if _, dup := c.byKey[e.Key]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, e.Key)
		}

		for i, col := range header {
			if isRequiredColumn(col) {
				continue
			}
			if e.Extra == nil {
				e.Extra = make(map[string]string)
			}
			if i < len(record) {
				e.Extra[col] = record[i]
			} else {
				e.Extra[col] = ""
			}
		}

		c.byKey[e.Key] = len(c.entries)
		c.entries = append(c.entries, e)
	}

	return c, nil
}

// LoadFile loads the catalog from a file path
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Save writes the full table to w: header first, then every row in load
// order, every field quoted, CRLF line endings. The output is stable, so
// saving an unchanged catalog is byte-identical to its loaded form.
func (c *Catalog) Save(w io.Writer) error {
	if err := writeRecord(w, c.header); err != nil {
		return err
	}
	for _, e := range c.entries {
		record := make([]string, len(c.header))
		for i, col := range c.header {
			switch col {
			case "formal_name":
				record[i] = e.FormalName
			case "name":
				record[i] = e.Key
			case "desired_version":
				record[i] = e.DesiredVersion
			case "latest_version":
				record[i] = e.LatestVersion
			default:
				record[i] = e.Extra[col]
			}
		}
		if err := writeRecord(w, record); err != nil {
			return err
		}
	}
	return nil
}

// SaveFile writes the catalog to path atomically: a temp file in the same
// directory is written first, then renamed over the destination, so a
// failed save never leaves a partial table behind.
func (c *Catalog) SaveFile(path string) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// writeRecord emits one CSV record with every field quoted, matching the
// format of the persisted table (csv.Writer quotes only when necessary,
// which would break byte-for-byte round-tripping).
func writeRecord(w io.Writer, record []string) error {
	var b strings.Builder
	for i, field := range record {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(field, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteString("\r\n")
	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

func isRequiredColumn(col string) bool {
	for _, c := range requiredColumns {
		if col == c {
			return true
		}
	}
	return false
}
