package ports

import "github.com/cynthia-web/plugin-sdk-go/domain/entities"

// ManifestParser parses raw manifest bytes into a PluginManifest.
type ManifestParser interface {
	// Parse unmarshals manifest bytes (JSON or YAML) into a PluginManifest struct.
	Parse(data []byte) (*entities.PluginManifest, error)
}
