package config

import (
	"context"
	"strings"

	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the environment-variable prefix every wfc configuration
// variable is read under, e.g. WFC_SCATTER_CHUNK_SIZE.
const EnvPrefix = "WFC_"

// transformEnvKey maps an environment variable name (with prefix already
// stripped) to a dotted koanf key: a double underscore descends into a
// nested struct (matching DefaultRuntimeAttrs' own "default_runtime_attrs"
// koanf tag), a single underscore stays inside one key segment, and the
// whole thing is lowercased. WFC_SCATTER_CHUNK_SIZE thus becomes
// "scatter_chunk_size", and WFC_DEFAULT_RUNTIME_ATTRS__CPU becomes
// "default_runtime_attrs.cpu".
func transformEnvKey(name string) string {
	trimmed := strings.ToLower(strings.Trim(name, "_"))
	if trimmed == "" {
		return ""
	}
	segments := strings.Split(trimmed, "__")
	for i, s := range segments {
		segments[i] = strings.Trim(s, "_")
	}
	return strings.Join(segments, ".")
}

// EnvSource loads configuration overrides from WFC_-prefixed environment
// variables via koanf's env/v2 provider, a direct teacher dependency.
type EnvSource struct{}

// NewEnvSource returns a Source reading process environment variables.
func NewEnvSource() *EnvSource { return &EnvSource{} }

func (s *EnvSource) Load() (map[string]any, error) {
	k := koanf.New(".")
	provider := envprovider.Provider(envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, EnvPrefix)), value
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, err
	}
	return k.Raw(), nil
}

func (s *EnvSource) Watch(_ context.Context, _ func()) error { return nil }
func (s *EnvSource) Type() SourceType                        { return SourceEnv }
func (s *EnvSource) Close() error                             { return nil }
