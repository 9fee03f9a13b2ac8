package sync

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kaonmir/Nocioun-sub000/models"
)

func TestLoadMappingsDefault(t *testing.T) {
	mappings, err := LoadMappings("")
	if err != nil {
		t.Fatalf("LoadMappings failed: %v", err)
	}

	if len(mappings) == 0 {
		t.Fatal("expected default mappings")
	}

	foundTitle := false
	for _, m := range mappings {
		if m.Key == models.FieldDisplayName && m.Type == "title" {
			foundTitle = true
		}
	}
	if !foundTitle {
		t.Error("default mapping must route display_name to a title property")
	}
}

func TestLoadMappingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	content := `[
		{"key": "display_name", "name": "Full Name", "type": "title"},
		{"key": "email", "name": "Work Email", "type": "email"},
		{"key": "phone", "name": "", "type": "phone_number"}
	]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	mappings, err := LoadMappings(path)
	if err != nil {
		t.Fatalf("LoadMappings failed: %v", err)
	}

	if len(mappings) != 3 {
		t.Errorf("expected 3 mappings, got %d", len(mappings))
	}
	if mappings[0].Name != "Full Name" {
		t.Errorf("expected Full Name, got %q", mappings[0].Name)
	}
}

func TestLoadMappingsInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	if _, err := LoadMappings(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadMappingsInvalidMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.json")
	content := `[{"key": "email", "name": "Email", "type": "email"}]`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write mapping file: %v", err)
	}

	if _, err := LoadMappings(path); err == nil {
		t.Error("expected validation error for missing title mapping")
	}
}

func TestLoadMappingsMissingFile(t *testing.T) {
	if _, err := LoadMappings(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
