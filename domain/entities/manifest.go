package entities

import "fmt"

// PluginCompat is the plugin loader generation this SDK speaks.
const PluginCompat = "2"

// Runner types accepted in plugin_children.type.
const (
	RunnerTypeJS  = "js"
	RunnerTypeBin = "bin"
)

// PluginManifest mirrors cynthiaplugin.json, the file the host reads to load a plugin.
type PluginManifest struct {
	Runners PluginRunners `json:"runners" yaml:"runners"`
	Name    string        `json:"name" yaml:"name" validate:"required"`
	// Compat keeps the host's historical spelling of the key.
	Compat string `json:"cyntia_plugin_compat" yaml:"cyntia_plugin_compat" validate:"required"`
}

// PluginRunners lists what the host should start or serve for the plugin.
type PluginRunners struct {
	Children *PluginChildren `json:"plugin_children,omitempty" yaml:"plugin_children,omitempty"`
	// HostedFolders pairs a plugin folder with the URL prefix it is served under.
	HostedFolders [][2]string `json:"hostedfolders,omitempty" yaml:"hostedfolders,omitempty"`
	// Proxied pairs an upstream base URL with the endpoint name it is proxied as.
	Proxied [][2]string `json:"proxied,omitempty" yaml:"proxied,omitempty"`
}

// PluginChildren describes the long-running plugin process.
type PluginChildren struct {
	// Execute is a JSON-encoded argument list, e.g. `["main.js"]`.
	Execute string `json:"execute" yaml:"execute" validate:"required"`
	Type    string `json:"type" yaml:"type" validate:"required,oneof=js bin"`
}

// Validate checks required fields and loader compatibility.
func (m *PluginManifest) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid plugin manifest: %w", err)
	}
	if m.Compat != PluginCompat {
		return fmt.Errorf("plugin %q targets plugin loader v%s, this SDK speaks v%s", m.Name, m.Compat, PluginCompat)
	}
	return nil
}
