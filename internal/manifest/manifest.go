// Package manifest decodes the anemonix.yaml document carried inside an
// apkg archive into a catalog.Metadata record.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cv2labs/anemo/internal/catalog"
)

// doc mirrors the field names the manifest decoder reads: name, version,
// arch, description, and the five constraint-string lists.
type doc struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version"`
	Arch        string   `yaml:"arch"`
	Description string   `yaml:"description"`
	Deps        []string `yaml:"deps"`
	MakeDepends []string `yaml:"makedepends"`
	Conflicts   []string `yaml:"conflicts"`
	Replaces    []string `yaml:"replaces"`
	Provides    []string `yaml:"provides"`
}

// Parse decodes YAML content into Metadata.
func Parse(content []byte) (catalog.Metadata, error) {
	var d doc
	if err := yaml.Unmarshal(content, &d); err != nil {
		return catalog.Metadata{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if d.Name == "" || d.Version == "" || d.Arch == "" {
		return catalog.Metadata{}, fmt.Errorf("manifest missing required field (name/version/arch)")
	}
	return catalog.Metadata{
		Name:        d.Name,
		Version:     d.Version,
		Arch:        d.Arch,
		Description: d.Description,
		Deps:        d.Deps,
		MakeDepends: d.MakeDepends,
		Conflicts:   d.Conflicts,
		Replaces:    d.Replaces,
		Provides:    d.Provides,
	}, nil
}

// ParseFile reads path and decodes it as a manifest.
func ParseFile(path string) (catalog.Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return catalog.Metadata{}, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	return Parse(content)
}
