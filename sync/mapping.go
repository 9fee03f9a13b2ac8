// ABOUTME: Field mapping file loading
// ABOUTME: Reads the user-declared field-to-property mapping from a JSON file
package sync

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/kaonmir/Nocioun-sub000/models"
)

// LoadMappings reads a mapping file, falling back to the built-in default
// mapping when path is empty. The mapping set is validated before use and
// is read-only to the engine.
func LoadMappings(path string) ([]models.FieldMapping, error) {
	if path == "" {
		return DefaultMappings(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	var mappings []models.FieldMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("failed to parse mapping file: %w", err)
	}

	if err := ValidateMappings(mappings); err != nil {
		return nil, fmt.Errorf("invalid mapping file: %w", err)
	}

	return mappings, nil
}
