package enrich

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type overrideFile struct {
	Overrides []Override `yaml:"overrides"`
}

// LoadOverridesFile reads fix overrides from a YAML file of the form:
//
//	overrides:
//	  - unique_id: clinic-42
//	    mrn_providence: "P123"
//
// File order is acceptance order.
func LoadOverridesFile(path string) ([]Override, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read overrides file: %w", err)
	}
	var f overrideFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse overrides file %s: %w", path, err)
	}
	for i, o := range f.Overrides {
		if o.UniqueID == "" {
			return nil, fmt.Errorf("override %d in %s: unique_id is required", i, path)
		}
	}
	return f.Overrides, nil
}
