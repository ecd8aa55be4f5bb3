// Package parser reads plugin manifests.
package parser

import (
	"fmt"
	"os"

	"github.com/cynthia-web/plugin-sdk-go/domain/entities"
	"github.com/cynthia-web/plugin-sdk-go/domain/ports"
	"gopkg.in/yaml.v3"
)

// ManifestFile is the name the host looks for in a plugin folder.
const ManifestFile = "cynthiaplugin.json"

// YamlManifestParser implements ManifestParser for YAML. JSON is a subset of
// YAML, so it reads cynthiaplugin.json as well.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a PluginManifest struct.
func (p *YamlManifestParser) Parse(data []byte) (*entities.PluginManifest, error) {
	var manifest entities.PluginManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// LoadManifest reads, parses and validates the manifest at path.
func LoadManifest(path string) (*entities.PluginManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := NewYamlManifestParser().Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}
