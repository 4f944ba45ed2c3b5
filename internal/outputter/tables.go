package outputter

import (
	"strings"

	"threatkit/internal/domain"
)

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SummaryTable lays out technique summaries as ID, Title, URL
func SummaryTable(summaries []domain.TechniqueSummary) *Table {
	t := &Table{Columns: []string{"ID", "Title", "URL"}}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []string{deref(s.ID), deref(s.Title), deref(s.URL)})
	}
	return t
}

// TechniqueTable lays out techniques as id, name, tactics, link. Tactics are joined with ";".
func TechniqueTable(techniques []domain.Technique) *Table {
	t := &Table{Columns: []string{"id", "name", "tactics", "link"}}
	for _, tech := range techniques {
		t.Rows = append(t.Rows, []string{tech.ExternalID, tech.Name, strings.Join(tech.Tactics, ";"), tech.URL})
	}
	return t
}

// TacticTable lays out scraped tactics as ID, name, URL, short_name
func TacticTable(tactics []domain.Tactic) *Table {
	t := &Table{Columns: []string{"ID", "name", "URL", "short_name"}}
	for _, tactic := range tactics {
		t.Rows = append(t.Rows, []string{tactic.ID, tactic.Name, tactic.URL, tactic.ShortName})
	}
	return t
}

// PageTechniqueTable lays out scraped technique rows as ID, URL
func PageTechniqueTable(rows []domain.PageTechnique) *Table {
	t := &Table{Columns: []string{"ID", "URL"}}
	for _, row := range rows {
		t.Rows = append(t.Rows, []string{row.ID, row.URL})
	}
	return t
}
