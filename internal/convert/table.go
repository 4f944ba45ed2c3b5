// Package convert converts record-oriented data files between JSON, CSV and YAML.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"threatkit/internal/domain"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Record is one row keyed by column name. Absent columns read as null.
type Record map[string]interface{}

// Table is an ordered column set plus rows
type Table struct {
	Columns []string
	Records []Record
}

// addColumn appends name unless it is already present
func (t *Table) addColumn(seen map[string]bool, name string) {
	if seen[name] {
		return
	}
	seen[name] = true
	t.Columns = append(t.Columns, name)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Records)
}

// TypeFromPath maps a file extension to a format
func TypeFromPath(path string) (domain.Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "json":
		return domain.FormatJSON, nil
	case "csv":
		return domain.FormatCSV, nil
	case "yaml", "yml":
		return domain.FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
}

// ReplaceExt swaps the final extension of path for format
func ReplaceExt(path string, format domain.Format) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format)
}

// Read loads a file, choosing the parser from its extension
func Read(path string) (*Table, error) {
	format, err := TypeFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	table, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// Parse decodes data in the given format
func Parse(data []byte, format domain.Format) (*Table, error) {
	switch format {
	case domain.FormatJSON:
		return parseJSON(data)
	case domain.FormatCSV:
		return parseCSV(data)
	case domain.FormatYAML:
		return parseYAML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, format)
	}
}

// Write encodes the table in the given format
func Write(table *Table, format domain.Format) ([]byte, error) {
	switch format {
	case domain.FormatJSON:
		return writeJSON(table)
	case domain.FormatCSV:
		return writeCSV(table)
	case domain.FormatYAML:
		return writeYAML(table)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, format)
	}
}

// orderedRecord marshals a record with keys in table column order
type orderedRecord struct {
	columns []string
	record  Record
}

func (o orderedRecord) MarshalJSON() ([]byte, error) {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, col := range o.columns {
		if i > 0 {
			sb.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(o.record[col])
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		sb.Write(key)
		sb.WriteByte(':')
		sb.Write(value)
	}
	sb.WriteByte('}')
	return []byte(sb.String()), nil
}

func (t *Table) ordered() []orderedRecord {
	out := make([]orderedRecord, len(t.Records))
	for i, r := range t.Records {
		out[i] = orderedRecord{columns: t.Columns, record: r}
	}
	return out
}

// plain returns records with every column present, nulls included
func (t *Table) plain() []map[string]interface{} {
	out := make([]map[string]interface{}, len(t.Records))
	for i, r := range t.Records {
		row := make(map[string]interface{}, len(t.Columns))
		for _, col := range t.Columns {
			row[col] = r[col]
		}
		out[i] = row
	}
	return out
}
