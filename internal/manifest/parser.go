package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
)

// Parse validates a fetched manifest document and decodes it into a typed
// Manifest. Validation is all-or-nothing: any schema violation yields a
// *ValidationError listing every offending field and no Manifest.
func Parse(data []byte) (*Manifest, error) {
	std, err := standardize(data)
	if err != nil {
		return nil, err
	}

	result, err := validateStandard(std)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &ValidationError{
			CatalogID: gjson.GetBytes(std, "catalog.id").String(),
			Issues:    result.Issues,
		}
	}

	var m Manifest
	if err := json.Unmarshal(std, &m); err != nil {
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

// ParseFile reads a manifest file from disk and parses it.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// applyDefaults replaces absent optional lists with empty ones so callers
// never need to distinguish nil from empty.
func (m *Manifest) applyDefaults() {
	if m.Artifacts == nil {
		m.Artifacts = []Artifact{}
	}
	for i := range m.Artifacts {
		a := &m.Artifacts[i]
		if a.Dependencies == nil {
			a.Dependencies = []string{}
		}
		if a.SupportingFiles == nil {
			a.SupportingFiles = []string{}
		}
		if a.Keywords == nil {
			a.Keywords = []string{}
		}
	}
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
