package outputter

import (
	"fmt"
	"io"
	"strings"

	"threatkit/internal/domain"
)

// DisplayHeader prints a ruled section title
func DisplayHeader(w io.Writer, title string) {
	if title != "" {
		fmt.Fprintln(w, "\n"+strings.Repeat("═", 79))
		fmt.Fprintln(w, title)
	}
	fmt.Fprintln(w, strings.Repeat("═", 79))
}

// PrintTactics prints one line per scraped tactic
func PrintTactics(w io.Writer, tactics []domain.Tactic) {
	for _, t := range tactics {
		fmt.Fprintf(w, "%-8s %-24s %-24s %s\n", t.ID, t.Name, t.ShortName, t.URL)
	}
}

// PrintTechniqueTotals prints the row count and the first limit rows
func PrintTechniqueTotals(w io.Writer, rows []domain.PageTechnique, limit int) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No techniques found.")
		return
	}
	fmt.Fprintf(w, "Total techniques and sub-techniques: %d\n", len(rows))
	if limit < 0 || limit > len(rows) {
		limit = len(rows)
	}
	for _, row := range rows[:limit] {
		fmt.Fprintf(w, "  %-10s %s\n", row.ID, row.URL)
	}
}

// PrintList prints a titled bullet list
func PrintList(w io.Writer, title string, items []string) {
	fmt.Fprintln(w, title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}
