package domain

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ManifestVersion is the manifest format written by the index rebuild.
const ManifestVersion = "2.0"

// Manifest is the domain index (`_domain_index.yaml`): per-domain entry
// counts plus coverage figures. The domains map is strictly flat; any
// nested value under a domain key is a hard error so that consumers can
// trust the counts without walking a tree.
type Manifest struct {
	Version            string         `yaml:"version"`
	LastUpdated        string         `yaml:"last_updated"`
	TotalEntries       int            `yaml:"total_entries"`
	EntriesWithDomains int            `yaml:"entries_with_domains"`
	CoveragePercent    float64        `yaml:"coverage_percentage"`
	Domains            map[string]int `yaml:"domains"`
	RelatedDomains     [][]string     `yaml:"related_domains"`
}

// ParseManifest decodes and validates a manifest document. A domains
// mapping whose values are not plain integers fails with an error naming
// the offending key path.
func ParseManifest(data []byte) (*Manifest, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if len(root.Content) > 0 {
		if err := checkFlatDomains(root.Content[0]); err != nil {
			return nil, err
		}
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Domains == nil {
		m.Domains = make(map[string]int)
	}
	return &m, nil
}

// checkFlatDomains walks the raw document and rejects non-scalar values
// inside the domains mapping.
func checkFlatDomains(doc *yaml.Node) error {
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "domains" {
			continue
		}
		domains := doc.Content[i+1]
		if domains.Kind != yaml.MappingNode {
			return fmt.Errorf("manifest field domains: expected a flat mapping, got %s", nodeKind(domains))
		}
		for j := 0; j+1 < len(domains.Content); j += 2 {
			key, val := domains.Content[j], domains.Content[j+1]
			if val.Kind != yaml.ScalarNode {
				return fmt.Errorf("manifest field domains.%s: expected an integer count, got nested %s (line %d)",
					key.Value, nodeKind(val), val.Line)
			}
		}
	}
	return nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "node"
	}
}

// Marshal serializes the manifest with domains in lexical key order.
func (m *Manifest) Marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

// DomainNames returns the manifest's domain keys in lexical order.
func (m *Manifest) DomainNames() []string {
	names := make([]string, 0, len(m.Domains))
	for name := range m.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
