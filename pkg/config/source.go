package config

import "context"

// SourceType tags where a configuration value came from, in increasing
// precedence order: Default < YAML < Env < CLI.
type SourceType string

const (
	SourceDefault SourceType = "default"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceCLI     SourceType = "cli"
)

// Source is one configuration input Load composes, in the order supplied
// (later sources override earlier ones for any key they set).
type Source interface {
	// Load returns this source's key/value data as a nested map matching
	// Options' koanf tags.
	Load() (map[string]any, error)
	// Watch invokes onChange whenever the underlying source changes.
	// Sources with no change-notification mechanism return nil
	// immediately without ever invoking onChange.
	Watch(ctx context.Context, onChange func()) error
	// Type reports which SourceType this source represents.
	Type() SourceType
	// Close releases any resources the source holds open (file handles,
	// watchers).
	Close() error
}
