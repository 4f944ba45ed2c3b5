package convert

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"threatkit/internal/outputter"
)

// naValues read as null in CSV cells
var naValues = map[string]bool{
	"": true, "NA": true, "N/A": true, "NaN": true, "nan": true,
	"null": true, "NULL": true, "None": true,
}

// =============================================================================
// CSV
// =============================================================================

func parseCSV(data []byte) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	table := &Table{}
	seen := make(map[string]bool)
	for _, col := range header {
		table.addColumn(seen, col)
	}
	if len(table.Columns) != len(header) {
		return nil, fmt.Errorf("csv header has duplicate columns: %v", header)
	}

	var raw [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}
		raw = append(raw, row)
	}

	kinds := make([]cellKind, len(header))
	for i := range header {
		kinds[i] = inferColumn(raw, i)
	}

	for _, row := range raw {
		record := make(Record, len(header))
		for i, col := range header {
			if i >= len(row) {
				record[col] = nil
				continue
			}
			record[col] = convertCell(row[i], kinds[i])
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

type cellKind int

const (
	kindString cellKind = iota
	kindInt
	kindFloat
	kindBool
)

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "TRUE":
		return true, true
	case "False", "false", "FALSE":
		return false, true
	}
	return false, false
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsInf(f, 0) && !math.IsNaN(f)
}

// inferColumn picks the narrowest type that every non-null cell of a column parses as
func inferColumn(rows [][]string, col int) cellKind {
	allInt, allFloat, allBool := true, true, true
	nonNull := 0
	for _, row := range rows {
		if col >= len(row) || naValues[row[col]] {
			continue
		}
		cell := row[col]
		nonNull++
		if !isInt(cell) {
			allInt = false
		}
		if !isFloat(cell) {
			allFloat = false
		}
		if _, ok := parseBool(cell); !ok {
			allBool = false
		}
	}
	switch {
	case nonNull == 0:
		return kindString
	case allInt:
		return kindInt
	case allFloat:
		return kindFloat
	case allBool:
		return kindBool
	default:
		return kindString
	}
}

func convertCell(cell string, kind cellKind) interface{} {
	if naValues[cell] {
		return nil
	}
	switch kind {
	case kindInt:
		n, _ := strconv.ParseInt(cell, 10, 64)
		return n
	case kindFloat:
		f, _ := strconv.ParseFloat(cell, 64)
		return f
	case kindBool:
		b, _ := parseBool(cell)
		return b
	default:
		return cell
	}
}

func formatCell(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func writeCSV(table *Table) ([]byte, error) {
	out := outputter.Table{Columns: table.Columns}
	for i, record := range table.Records {
		row := make([]string, len(table.Columns))
		for j, col := range table.Columns {
			cell, err := formatCell(record[col])
			if err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, col, err)
			}
			row[j] = cell
		}
		out.Rows = append(out.Rows, row)
	}
	return outputter.EncodeCSV(out, outputter.Options{})
}

// =============================================================================
// JSON
// =============================================================================

// parseJSON reads an array of objects, keeping first-seen key order as the column order
func parseJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	table := &Table{}
	seen := make(map[string]bool)
	for dec.More() {
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("record %d: %w", table.Len(), err)
		}
		record := make(Record)
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("record %d: unexpected key %v", table.Len(), tok)
			}
			var value interface{}
			if err := dec.Decode(&value); err != nil {
				return nil, fmt.Errorf("record %d key %q: %w", table.Len(), key, err)
			}
			table.addColumn(seen, key)
			record[key] = normalizeNumbers(value)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, err
		}
		table.Records = append(table.Records, record)
	}
	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	return table, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("expected %q: %w", want, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

// normalizeNumbers turns json.Number into int64 or float64 throughout v
func normalizeNumbers(v interface{}) interface{} {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case map[string]interface{}:
		for k, item := range x {
			x[k] = normalizeNumbers(item)
		}
		return x
	case []interface{}:
		for i, item := range x {
			x[i] = normalizeNumbers(item)
		}
		return x
	default:
		return v
	}
}

func writeJSON(table *Table) ([]byte, error) {
	return outputter.EncodeJSON(table.ordered(), outputter.Options{})
}

// =============================================================================
// YAML
// =============================================================================

// parseYAML reads a sequence of mappings (or a single mapping). Nested
// mappings are flattened into dotted column names.
func parseYAML(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	table := &Table{}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return table, nil
	}

	root := doc.Content[0]
	var items []*yaml.Node
	switch root.Kind {
	case yaml.SequenceNode:
		items = root.Content
	case yaml.MappingNode:
		items = []*yaml.Node{root}
	default:
		return nil, fmt.Errorf("yaml document must be a list of mappings")
	}

	seen := make(map[string]bool)
	for i, item := range items {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("yaml item %d is not a mapping", i)
		}
		record := make(Record)
		if err := flattenMapping(item, "", record, func(col string) { table.addColumn(seen, col) }); err != nil {
			return nil, fmt.Errorf("yaml item %d: %w", i, err)
		}
		table.Records = append(table.Records, record)
	}
	return table, nil
}

func flattenMapping(node *yaml.Node, prefix string, record Record, addColumn func(string)) error {
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		value := node.Content[i+1]
		if value.Kind == yaml.AliasNode && value.Alias != nil {
			value = value.Alias
		}
		if value.Kind == yaml.MappingNode && len(value.Content) > 0 {
			if err := flattenMapping(value, key, record, addColumn); err != nil {
				return err
			}
			continue
		}
		var v interface{}
		if err := value.Decode(&v); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		if n, ok := v.(int); ok {
			v = int64(n)
		}
		addColumn(key)
		record[key] = v
	}
	return nil
}

func writeYAML(table *Table) ([]byte, error) {
	return outputter.EncodeYAML(table.plain())
}
