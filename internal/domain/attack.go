package domain

// Technique is an ATT&CK attack-pattern (technique or sub-technique)
type Technique struct {
	InternalID string   `json:"-" yaml:"-"`
	ExternalID string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Tactics    []string `json:"tactics" yaml:"tactics"`
	URL        string   `json:"link" yaml:"link"`
}

// Relationship links two STIX objects by internal ID
type Relationship struct {
	SourceRef        string
	TargetRef        string
	RelationshipType string
}

// RelationshipSubtechniqueOf marks a sub-technique (source) of a parent (target)
const RelationshipSubtechniqueOf = "subtechnique-of"

// TechniqueSummary is the flat ID/Title/URL record of the technique export
type TechniqueSummary struct {
	ID    *string `json:"ID" yaml:"ID"`
	Title *string `json:"Title" yaml:"Title"`
	URL   *string `json:"URL" yaml:"URL"`
}

// Tactic is a row scraped from an ATT&CK tactics page
type Tactic struct {
	ID        string `json:"ID" yaml:"ID"`
	Name      string `json:"name" yaml:"name"`
	URL       string `json:"URL" yaml:"URL"`
	ShortName string `json:"short_name" yaml:"short_name"`
}

// PageTechnique is a technique row scraped from an ATT&CK techniques page
type PageTechnique struct {
	ID  string `json:"ID" yaml:"ID"`
	URL string `json:"URL" yaml:"URL"`
}

// FilteredTechniques is the document written by the filtered export
type FilteredTechniques struct {
	Mitre []Technique `json:"mitre" yaml:"mitre"`
}
