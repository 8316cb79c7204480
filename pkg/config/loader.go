package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Service loads and validates Options the way the teacher's
// pkg/config.Service composes koanf sources: built-in defaults, then each
// supplied Source in order, later sources overriding earlier ones.
type Service struct {
	mu        sync.Mutex
	validate  *validator.Validate
	lastKoanf *koanf.Koanf
}

// NewService constructs a Service ready to Load.
func NewService() *Service {
	return &Service{validate: validator.New()}
}

// Load composes defaults with every non-nil source (in order) and returns
// the resulting validated Options. Sources appearing later override
// earlier ones for any key they set; a nil entry in sources is ignored.
func (s *Service) Load(_ context.Context, sources ...Source) (*Options, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load default configuration: %w", err)
	}
	for _, src := range sources {
		if src == nil {
			continue
		}
		data, err := src.Load()
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
		if err := k.Load(mapProvider(data), nil); err != nil {
			return nil, fmt.Errorf("failed to load from source %s: %w", src.Type(), err)
		}
	}

	opts := Default()
	if err := k.Unmarshal("", opts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(opts); err != nil {
		return nil, err
	}
	s.lastKoanf = k
	return opts, nil
}

// Validate runs struct-tag validation only; the tags require, among other
// things, a positive ScatterChunkSize and a ConflictPolicy and
// InstanceTypeSelection from their closed sets.
func (s *Service) Validate(opts *Options) error {
	if opts == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if err := s.validate.Struct(opts); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// GetSource reports which source last set key. This implementation always
// returns SourceDefault: per-key source tracking is delegated to koanf's
// internal merge bookkeeping, which this Service does not expose (matching
// the teacher's own "source tracking is handled internally by koanf"
// simplification).
func (s *Service) GetSource(_ string) SourceType {
	return SourceDefault
}

// Watch registers onChange to be invoked whenever the loaded configuration
// would change. Hot-reload is not implemented: no Source in this package
// ever calls onChange, matching the teacher's "not implemented yet" stance
// for compile-time configuration, which is read once per invocation.
func (s *Service) Watch(_ context.Context, onChange func(*Options)) error {
	if onChange == nil {
		return fmt.Errorf("callback cannot be nil")
	}
	return nil
}

// mapProvider adapts a plain map[string]any (as returned by Source.Load)
// into a koanf.Provider, since none of the teacher's wired koanf
// sub-modules (structs, env/v2) read from an already-decoded map — YAML
// files are decoded with goccy/go-yaml directly rather than through a
// koanf YAML parser module, which the pack's go.mod never pulls in.
type rawMapProvider struct{ data map[string]any }

func mapProvider(data map[string]any) *rawMapProvider { return &rawMapProvider{data: data} }

func (p *rawMapProvider) Read() (map[string]any, error) { return p.data, nil }

func (p *rawMapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("rawMapProvider does not support ReadBytes")
}
