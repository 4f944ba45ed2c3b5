package outputter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"threatkit/internal/domain"
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// Table is the column-ordered view of a record set used for CSV output
type Table struct {
	Columns []string
	Rows    [][]string
}

// Options controls encoding
type Options struct {
	// Delimiter separates CSV fields. Zero means comma.
	Delimiter rune
	// Indent is the JSON indent. Empty means four spaces.
	Indent string
}

// ParseFormat validates a user-supplied format name
func ParseFormat(s string, allowed ...domain.Format) (domain.Format, error) {
	if len(allowed) == 0 {
		allowed = []domain.Format{domain.FormatJSON, domain.FormatYAML, domain.FormatCSV}
	}
	f := domain.Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		f = domain.FormatYAML
	}
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
	}
	names := make([]string, len(allowed))
	for i, a := range allowed {
		names[i] = string(a)
	}
	return "", fmt.Errorf("%w %q (choose from %s)", ErrUnsupportedFormat, s, strings.Join(names, ", "))
}

// ParseDelimiter turns a --delimiter flag value into a rune. "\t" and "tab" mean tab.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid CSV delimiter %q", s)
	}
	return r, nil
}

// Encode serializes v as JSON or YAML, or table as CSV
func Encode(format domain.Format, v interface{}, table *Table, opts Options) ([]byte, error) {
	switch format {
	case domain.FormatJSON:
		return EncodeJSON(v, opts)
	case domain.FormatYAML:
		return EncodeYAML(v)
	case domain.FormatCSV:
		if table == nil {
			return nil, fmt.Errorf("%w: no tabular view for csv", ErrUnsupportedFormat)
		}
		return EncodeCSV(*table, opts)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFormat, format)
	}
}

// EncodeJSON pretty-prints v
func EncodeJSON(v interface{}, opts Options) ([]byte, error) {
	indent := opts.Indent
	if indent == "" {
		indent = "    "
	}
	data, err := json.MarshalIndent(v, "", indent)
	if err != nil {
		return nil, fmt.Errorf("failed to encode json: %w", err)
	}
	return append(data, '\n'), nil
}

// EncodeYAML serializes v with two-space indentation
func EncodeYAML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeCSV writes a header row followed by the table rows
func EncodeCSV(table Table, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}

	if err := w.Write(table.Columns); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Columns) {
			return nil, fmt.Errorf("csv row %d has %d fields, want %d", i, len(row), len(table.Columns))
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
