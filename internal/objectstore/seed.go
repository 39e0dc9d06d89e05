package objectstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"exoticpets/internal/validate"
)

// LoadSeed reads entities (the same shape the store serves) for seeding a
// local backend. JSON by default; .yaml and .yml files are parsed as YAML.
func LoadSeed(path string) ([]Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("objectstore: read seed: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("objectstore: parse seed %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return nil, fmt.Errorf("objectstore: convert seed %s: %w", path, err)
		}
	}
	var entities []Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("objectstore: parse seed %s: %w", path, err)
	}
	for i, e := range entities {
		if err := e.Kind.Validate(); err != nil {
			return nil, fmt.Errorf("objectstore: seed entry %d: %w", i, err)
		}
		if _, ok := validate.ID(e.ID); e.ID != "" && !ok {
			return nil, fmt.Errorf("objectstore: seed entry %d: malformed id %q", i, e.ID)
		}
		if e.Attributes == nil {
			entities[i].Attributes = Attributes{}
		}
	}
	return entities, nil
}
