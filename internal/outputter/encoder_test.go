package outputter

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"threatkit/internal/domain"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Format
		wantErr bool
	}{
		{"json", domain.FormatJSON, false},
		{"YAML", domain.FormatYAML, false},
		{"yml", domain.FormatYAML, false},
		{" csv ", domain.FormatCSV, false},
		{"xml", "", true},
		{"text", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("ParseFormat(%q) error = %v, want ErrUnsupportedFormat", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	if got, err := ParseFormat("text", domain.FormatText, domain.FormatJSON); err != nil || got != domain.FormatText {
		t.Errorf("ParseFormat(text, allowed) = %q, %v", got, err)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{",", ',', false},
		{";", ';', false},
		{"|", '|', false},
		{`\t`, '\t', false},
		{"ab", 0, true},
		{`"`, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestEncodeSummariesCSV(t *testing.T) {
	id, title, url := "T1059", "Command, Scripting", "https://attack.mitre.org/techniques/T1059"
	summaries := []domain.TechniqueSummary{
		{ID: &id, Title: &title, URL: &url},
		{ID: nil, Title: &title, URL: nil},
	}

	data, err := Encode(domain.FormatCSV, summaries, SummaryTable(summaries), Options{})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "ID,Title,URL\n" +
		"T1059,\"Command, Scripting\",https://attack.mitre.org/techniques/T1059\n" +
		",\"Command, Scripting\",\n"
	if string(data) != want {
		t.Errorf("csv =\n%s\nwant\n%s", data, want)
	}
}

func TestEncodeCSVDelimiter(t *testing.T) {
	table := Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1", "2"}}}
	data, err := EncodeCSV(table, Options{Delimiter: ';'})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a;b\n1;2\n" {
		t.Errorf("csv = %q", data)
	}
}

func TestEncodeCSVRaggedRow(t *testing.T) {
	table := Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	if _, err := EncodeCSV(table, Options{}); err == nil {
		t.Fatal("expected error for ragged row")
	}
}

func TestEncodeSummariesJSONNulls(t *testing.T) {
	title := "No References"
	data, err := Encode(domain.FormatJSON, []domain.TechniqueSummary{{Title: &title}}, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"ID": null`, `"Title": "No References"`, `"URL": null`, "\n        \"ID\""} {
		if !strings.Contains(string(data), want) {
			t.Errorf("json missing %q:\n%s", want, data)
		}
	}
}

func TestEncodeFilteredYAML(t *testing.T) {
	doc := domain.FilteredTechniques{Mitre: []domain.Technique{
		{InternalID: "attack-pattern--1", ExternalID: "T1059", Name: "Interpreter", Tactics: []string{"execution"}, URL: "https://x/T1059"},
	}}
	data, err := Encode(domain.FormatYAML, doc, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{"mitre:", "id: T1059", "name: Interpreter", "- execution", "link: https://x/T1059"} {
		if !strings.Contains(out, want) {
			t.Errorf("yaml missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "attack-pattern--1") {
		t.Errorf("yaml leaked internal id:\n%s", out)
	}
}

func TestEncodeCSVWithoutTable(t *testing.T) {
	if _, err := Encode(domain.FormatCSV, struct{}{}, nil, Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Encode(csv, nil table) error = %v", err)
	}
}

func TestPrintTechniqueTotals(t *testing.T) {
	var buf bytes.Buffer
	rows := make([]domain.PageTechnique, 12)
	for i := range rows {
		rows[i] = domain.PageTechnique{ID: "T1000", URL: "u"}
	}
	PrintTechniqueTotals(&buf, rows, 10)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Total techniques and sub-techniques: 12" {
		t.Errorf("first line = %q", lines[0])
	}
	if len(lines) != 11 {
		t.Errorf("printed %d lines, want 11", len(lines))
	}

	buf.Reset()
	PrintTechniqueTotals(&buf, nil, 10)
	if buf.String() != "No techniques found.\n" {
		t.Errorf("empty output = %q", buf.String())
	}
}
