package core

import (
	"fmt"
	"maps"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"
)

// Merge combines two maps, with source values overriding destination values.
// Slice values are appended rather than replaced.
func Merge[D, S ~map[string]any](dst D, src S, kind string) (D, error) {
	var zero D
	dstClone := CloneMap(dst)
	srcClone := CloneMap(src)
	if len(srcClone) > 0 {
		if err := mergo.Merge(&dstClone, srcClone, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
			return zero, fmt.Errorf("failed to merge %s: %w", kind, err)
		}
	}
	return dstClone, nil
}

// CloneMap creates a shallow copy of any map type with comparable keys.
// This is useful for copying configuration maps, metadata, and other map structures
// where you need to modify the copy without affecting the original.
// Returns an empty initialized map when src is nil to prevent nil map panics.
func CloneMap[K comparable, V any](src map[K]V) map[K]V {
	if src == nil {
		return make(map[K]V)
	}
	return maps.Clone(src)
}

// CopyMaps safely merges multiple maps into a new map, with later maps
// overriding earlier ones. Handles nil maps gracefully by skipping them.
// Returns an empty initialized map if all inputs are nil.
func CopyMaps[K comparable, V any](srcs ...map[K]V) map[K]V {
	result := make(map[K]V)
	for _, src := range srcs {
		if src != nil {
			maps.Copy(result, src)
		}
	}
	return result
}

// DeepCopyValue returns a deep copy of v using github.com/mohae/deepcopy.
// If the copy does not come back as a Value, v itself is returned.
func DeepCopyValue(v Value) Value {
	copied := deepcopy.Copy(v)
	result, ok := copied.(Value)
	if !ok {
		return v
	}
	return result
}

// DeepCopyGeneric creates a deep copy of v using github.com/mohae/deepcopy and returns it as type T.
// On failure it returns the provided zero value and an error.
func DeepCopyGeneric[T any](v T, zero T) (T, error) {
	copied := deepcopy.Copy(v)
	result, ok := copied.(T)
	if !ok {
		return zero, fmt.Errorf("failed to cast copied value to type %T", zero)
	}
	return result, nil
}
