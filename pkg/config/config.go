// Package config loads the compiler core's configuration knobs (spec §6)
// from defaults, an optional YAML file, and environment variables, using
// koanf the way the teacher's pkg/config.Service composes sources.
package config

import "time"

// ConflictPolicy selects how the Build Planner (§4.K) reacts when an
// existing platform object shares a name with a to-be-built callable but
// has a different digest.
type ConflictPolicy string

const (
	ConflictArchive     ConflictPolicy = "archive"
	ConflictForceDelete ConflictPolicy = "force-delete"
	ConflictStrict      ConflictPolicy = "strict"
)

// InstanceTypeSelection chooses whether all-constant resource hints are
// resolved at compile time or deferred to the runtime task executor.
type InstanceTypeSelection string

const (
	InstanceTypeStatic  InstanceTypeSelection = "static"
	InstanceTypeDynamic InstanceTypeSelection = "dynamic"
)

// DefaultRuntimeAttrs are the resource defaults applied to a task that
// specifies no cpu/memory/disk hints of its own (§4.F).
type DefaultRuntimeAttrs struct {
	CPU      float64 `koanf:"cpu"       validate:"gte=0"`
	MemoryMB int64   `koanf:"memory_mb" validate:"gte=0"`
	DiskGB   int64   `koanf:"disk_gb"   validate:"gte=0"`
}

// Options is the full configuration-knob table from spec §6.
type Options struct {
	Locked                bool                  `koanf:"locked"`
	LeaveWorkflowsOpen    bool                  `koanf:"leave_workflows_open"`
	Reorg                 bool                  `koanf:"reorg"`
	ProjectWideReuse      bool                  `koanf:"project_wide_reuse"`
	ConflictPolicy        ConflictPolicy        `koanf:"conflict_policy"         validate:"oneof=archive force-delete strict"`
	ScatterChunkSize      int                   `koanf:"scatter_chunk_size"      validate:"gt=0"`
	DefaultRuntimeAttrs   DefaultRuntimeAttrs   `koanf:"default_runtime_attrs"`
	InstanceTypeSelection InstanceTypeSelection `koanf:"instance_type_selection" validate:"oneof=static dynamic"`

	// PlatformLinkKey and FlatFilesSuffix resolve Open Question OQ-1
	// (SPEC_FULL.md §9): the wire-format encoder's link key and composite
	// flat-files field suffix, generalized from the DNAnexus-specific
	// "$dnanexus_link" / "___dxfiles" names in spec §6.
	PlatformLinkKey string `koanf:"platform_link_key" validate:"required"`
	FlatFilesSuffix string `koanf:"flat_files_suffix" validate:"required"`

	// CompilerVersion is embedded in every built applet's details.Version
	// (§4.F/§6).
	CompilerVersion string `koanf:"compiler_version" validate:"required"`

	// HashAlgorithm selects the Digest Engine's hash (§4.I): "sha256"
	// (default) or "md5" (legacy-compat).
	HashAlgorithm string `koanf:"hash_algorithm" validate:"oneof=sha256 md5"`

	// PlannerConcurrency bounds the Build Planner's parallel fan-out over
	// independent callables (§4.K, §5). 1 disables concurrency.
	PlannerConcurrency int `koanf:"planner_concurrency" validate:"gt=0"`

	// RetryAttempts/RetryDelayStart/RetryDelayMax tune the Object
	// Directory's retrying platform client (engine/platform.RetryingClient):
	// transient platform faults retry with exponential backoff capped at
	// RetryDelayMax, up to RetryAttempts times.
	RetryAttempts   int           `koanf:"retry_attempts"    validate:"gte=0"`
	RetryDelayStart time.Duration `koanf:"retry_delay_start"`
	RetryDelayMax   time.Duration `koanf:"retry_delay_max"`
}

// Default returns the built-in defaults: locked mode off, archive conflict
// policy, static instance-type selection, SHA-256 digests.
func Default() *Options {
	return &Options{
		Locked:             false,
		LeaveWorkflowsOpen: false,
		Reorg:              false,
		ProjectWideReuse:   false,
		ConflictPolicy:     ConflictArchive,
		ScatterChunkSize:   500,
		DefaultRuntimeAttrs: DefaultRuntimeAttrs{
			CPU:      1,
			MemoryMB: 4096,
			DiskGB:   20,
		},
		InstanceTypeSelection: InstanceTypeStatic,
		PlatformLinkKey:       "$platform-link",
		FlatFilesSuffix:       "___flatfiles",
		CompilerVersion:       "dev",
		HashAlgorithm:         "sha256",
		PlannerConcurrency:    4,
		RetryAttempts:         3,
		RetryDelayStart:       500 * time.Millisecond,
		RetryDelayMax:         5 * time.Second,
	}
}
