package modules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest pins which catalog entries load and in which order
//
//	modules:
//	  - name: notes
//	  - name: housekeeping
//	    enabled: false
type Manifest struct {
	Modules []ManifestEntry `yaml:"modules"`
}

// ManifestEntry selects one catalog entry
type ManifestEntry struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled,omitempty"`
}

// IsEnabled reports whether the entry loads; entries are enabled unless set otherwise
func (e ManifestEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// ValidationError describes a single manifest problem
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ManifestError collects every validation problem found in a manifest
type ManifestError struct {
	Errors []ValidationError
}

func (e *ManifestError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, v := range e.Errors {
		msgs[i] = v.Error()
	}
	return "invalid module manifest: " + strings.Join(msgs, "; ")
}

// LoadManifest reads and validates a manifest file
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates manifest YAML. Unknown keys are rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var manifest Manifest

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate checks entry names are present and unique
func (m *Manifest) Validate() error {
	var problems []ValidationError
	seen := make(map[string]int, len(m.Modules))

	for i, entry := range m.Modules {
		field := fmt.Sprintf("modules[%d].name", i)
		if strings.TrimSpace(entry.Name) == "" {
			problems = append(problems, ValidationError{Field: field, Message: "module name is required"})
			continue
		}
		if first, dup := seen[entry.Name]; dup {
			problems = append(problems, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate module %q (first listed at modules[%d])", entry.Name, first),
			})
			continue
		}
		seen[entry.Name] = i
	}

	if len(problems) > 0 {
		return &ManifestError{Errors: problems}
	}
	return nil
}

// Enabled returns the enabled entry names in file order
func (m *Manifest) Enabled() []string {
	var names []string
	for _, entry := range m.Modules {
		if entry.IsEnabled() {
			names = append(names, entry.Name)
		}
	}
	return names
}
