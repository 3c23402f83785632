package card

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseCard decodes a card document from JSON or YAML and validates it.
// Unknown keys are ignored. The input slice is never retained or mutated.
func ParseCard(raw []byte) (*Card, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("card: empty document")
	}

	var c Card
	if err := json.Unmarshal(raw, &c); err != nil {
		yamlCard, yamlErr := parseYAML(raw)
		if yamlErr != nil {
			return nil, fmt.Errorf("card: parse document: %w", err)
		}
		c = *yamlCard
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// parseYAML routes YAML input through a JSON round trip so both formats share
// one set of struct tags.
func parseYAML(raw []byte) (*Card, error) {
	var tree any
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("card: parse yaml: %w", err)
	}
	encoded, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("card: convert yaml: %w", err)
	}
	var c Card
	if err := json.Unmarshal(encoded, &c); err != nil {
		return nil, fmt.Errorf("card: decode yaml: %w", err)
	}
	return &c, nil
}
