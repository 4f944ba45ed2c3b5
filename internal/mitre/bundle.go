package mitre

import (
	"encoding/json"
	"fmt"
	"strings"

	"threatkit/internal/domain"
)

const (
	typeAttackPattern = "attack-pattern"
	typeRelationship  = "relationship"
)

// Bundle is the STIX document as published. Objects are kept undecoded so the
// bundle stays exactly as received.
type Bundle struct {
	Type    string            `json:"type"`
	ID      string            `json:"id"`
	Objects []json.RawMessage `json:"objects"`
}

type externalReference struct {
	SourceName string  `json:"source_name"`
	ExternalID *string `json:"external_id"`
	URL        *string `json:"url"`
}

type killChainPhase struct {
	KillChainName string `json:"kill_chain_name"`
	PhaseName     string `json:"phase_name"`
}

// stixObject covers the fields of attack-pattern and relationship objects we read
type stixObject struct {
	Type               string              `json:"type"`
	ID                 string              `json:"id"`
	Name               *string             `json:"name"`
	ExternalReferences []externalReference `json:"external_references"`
	KillChainPhases    []killChainPhase    `json:"kill_chain_phases"`
	Revoked            bool                `json:"revoked"`
	Deprecated         bool                `json:"x_mitre_deprecated"`

	RelationshipType string `json:"relationship_type"`
	SourceRef        string `json:"source_ref"`
	TargetRef        string `json:"target_ref"`
}

// primaryReference returns the first external reference or an empty one
func (o stixObject) primaryReference() externalReference {
	if len(o.ExternalReferences) == 0 {
		return externalReference{}
	}
	return o.ExternalReferences[0]
}

func (b *Bundle) decode(visit func(stixObject)) error {
	for i, raw := range b.Objects {
		var obj stixObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return fmt.Errorf("failed to decode object %d: %w", i, err)
		}
		visit(obj)
	}
	return nil
}

// Summaries returns the ID/Title/URL record of every attack-pattern in feed
// order. Missing references or names become nil rather than an error.
func Summaries(bundle *Bundle) ([]domain.TechniqueSummary, error) {
	var out []domain.TechniqueSummary
	err := bundle.decode(func(obj stixObject) {
		if obj.Type != typeAttackPattern {
			return
		}
		ref := obj.primaryReference()
		out = append(out, domain.TechniqueSummary{
			ID:    ref.ExternalID,
			Title: obj.Name,
			URL:   ref.URL,
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ExtractOptions narrows and decorates extraction.
type ExtractOptions struct {
	// IDs keeps only techniques whose external ID is present. Nil keeps all.
	IDs map[string]struct{}
	// KillChain selects which kill-chain phases count as tactics.
	KillChain string
	// SiteURL and SiteVersion, when both set, rewrite each link to the
	// versioned page {SiteURL}/versions/v{SiteVersion}/techniques/T1234/001.
	SiteURL     string
	SiteVersion string
	// SkipRevoked drops revoked and deprecated objects.
	SkipRevoked bool
}

// Catalog holds the techniques and sub-technique relationships of one bundle
type Catalog struct {
	order         []string
	techniques    map[string]domain.Technique
	Relationships []domain.Relationship
}

// Extract builds a Catalog from a bundle. Technique order follows the feed.
func Extract(bundle *Bundle, opts ExtractOptions) (*Catalog, error) {
	catalog := &Catalog{techniques: make(map[string]domain.Technique)}

	err := bundle.decode(func(obj stixObject) {
		switch obj.Type {
		case typeAttackPattern:
			if opts.SkipRevoked && (obj.Revoked || obj.Deprecated) {
				return
			}
			tech := techniqueFromObject(obj, opts)
			if opts.IDs != nil {
				if _, ok := opts.IDs[tech.ExternalID]; !ok || tech.ExternalID == "" {
					return
				}
			}
			if _, seen := catalog.techniques[obj.ID]; !seen {
				catalog.order = append(catalog.order, obj.ID)
			}
			catalog.techniques[obj.ID] = tech
		case typeRelationship:
			if obj.RelationshipType != domain.RelationshipSubtechniqueOf {
				return
			}
			catalog.Relationships = append(catalog.Relationships, domain.Relationship{
				SourceRef:        obj.SourceRef,
				TargetRef:        obj.TargetRef,
				RelationshipType: obj.RelationshipType,
			})
		}
	})
	if err != nil {
		return nil, err
	}
	return catalog, nil
}

func techniqueFromObject(obj stixObject, opts ExtractOptions) domain.Technique {
	ref := obj.primaryReference()
	tech := domain.Technique{
		InternalID: obj.ID,
		Tactics:    []string{},
	}
	if ref.ExternalID != nil {
		tech.ExternalID = *ref.ExternalID
	}
	if obj.Name != nil {
		tech.Name = *obj.Name
	}
	if ref.URL != nil {
		tech.URL = *ref.URL
	}
	if opts.SiteURL != "" && opts.SiteVersion != "" && tech.ExternalID != "" {
		tech.URL = VersionedTechniqueURL(opts.SiteURL, opts.SiteVersion, tech.ExternalID)
	}

	for _, phase := range obj.KillChainPhases {
		if opts.KillChain != "" && phase.KillChainName != opts.KillChain {
			continue
		}
		tech.Tactics = append(tech.Tactics, phase.PhaseName)
	}
	return tech
}

// VersionedTechniqueURL builds the versioned page link, mapping T1059.001 to T1059/001
func VersionedTechniqueURL(siteURL, version, externalID string) string {
	version = strings.TrimPrefix(version, "v")
	return fmt.Sprintf("%s/versions/v%s/techniques/%s",
		strings.TrimSuffix(siteURL, "/"), version, strings.ReplaceAll(externalID, ".", "/"))
}

// Len returns the number of techniques
func (c *Catalog) Len() int {
	return len(c.order)
}

// Techniques returns the techniques keyed by internal ID. The map is a copy.
func (c *Catalog) Techniques() map[string]domain.Technique {
	out := make(map[string]domain.Technique, len(c.techniques))
	for id, tech := range c.techniques {
		out[id] = tech
	}
	return out
}

// Ordered returns the techniques in feed order, with sub-technique names joined to their parent
func (c *Catalog) Ordered() []domain.Technique {
	joined := JoinSubtechniques(c.techniques, c.Relationships)
	out := make([]domain.Technique, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, joined[id])
	}
	return out
}

// JoinSubtechniques returns a new mapping in which every sub-technique whose
// relationship endpoints are both known is renamed "{parent}: {child}".
// Names are taken from the input mapping, so each prefix is applied exactly
// once regardless of relationship order. Relationships naming unknown IDs are
// skipped. If a sub-technique lists several parents, the parent with the
// smallest internal ID wins.
func JoinSubtechniques(techniques map[string]domain.Technique, relationships []domain.Relationship) map[string]domain.Technique {
	parentOf := make(map[string]string)
	for _, rel := range relationships {
		if rel.RelationshipType != domain.RelationshipSubtechniqueOf {
			continue
		}
		if _, ok := techniques[rel.SourceRef]; !ok {
			continue
		}
		if _, ok := techniques[rel.TargetRef]; !ok {
			continue
		}
		if current, ok := parentOf[rel.SourceRef]; !ok || rel.TargetRef < current {
			parentOf[rel.SourceRef] = rel.TargetRef
		}
	}

	out := make(map[string]domain.Technique, len(techniques))
	for id, tech := range techniques {
		tech.Tactics = append([]string{}, tech.Tactics...)
		if parentID, ok := parentOf[id]; ok {
			tech.Name = fmt.Sprintf("%s: %s", techniques[parentID].Name, tech.Name)
		}
		out[id] = tech
	}
	return out
}
