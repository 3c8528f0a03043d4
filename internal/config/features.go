package config

import (
	"encoding/json"
	"fmt"
)

// Flags gates modules and per-operation features. Anything not mentioned
// is enabled; flags only ever turn things off.
type Flags struct {
	Modules  map[string]bool            `json:"modules"`
	Features map[string]map[string]bool `json:"features"`
}

// ParseFlags parses the FEATURE_FLAGS JSON document. An empty document
// yields all-enabled flags.
func ParseFlags(raw string) (Flags, error) {
	var f Flags
	if raw == "" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return Flags{}, fmt.Errorf("invalid feature flags JSON: %w", err)
	}
	return f, nil
}

// ModuleEnabled reports whether a module's routes should be registered
func (f Flags) ModuleEnabled(name string) bool {
	if f.Modules == nil {
		return true
	}
	v, ok := f.Modules[name]
	if !ok {
		return true
	}
	return v
}

// FeatureEnabled reports whether an operation within a module is enabled
func (f Flags) FeatureEnabled(module, feature string) bool {
	if f.Features == nil {
		return true
	}
	mf, ok := f.Features[module]
	if !ok {
		return true
	}
	v, ok := mf[feature]
	if !ok {
		return true
	}
	return v
}
