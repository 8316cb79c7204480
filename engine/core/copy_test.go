package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CloneMap(t *testing.T) {
	t.Run("Should return an initialized empty map for nil", func(t *testing.T) {
		got := CloneMap[string, int](nil)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
	t.Run("Should return an independent copy", func(t *testing.T) {
		src := map[string]int{"a": 1}
		got := CloneMap(src)
		got["a"] = 2
		assert.Equal(t, 1, src["a"])
	})
}

func Test_CopyMaps(t *testing.T) {
	t.Run("Should merge multiple maps, later overriding earlier", func(t *testing.T) {
		got := CopyMaps(map[string]int{"a": 1, "b": 1}, map[string]int{"b": 2})
		assert.Equal(t, map[string]int{"a": 1, "b": 2}, got)
	})
	t.Run("Should skip nil maps", func(t *testing.T) {
		got := CopyMaps[string, int](nil, map[string]int{"a": 1}, nil)
		assert.Equal(t, map[string]int{"a": 1}, got)
	})
}

func Test_Merge(t *testing.T) {
	t.Run("Should override destination values with source values", func(t *testing.T) {
		dst := map[string]any{"a": 1, "b": 2}
		src := map[string]any{"b": 3, "c": 4}
		got, err := Merge(dst, src, "test")
		require.NoError(t, err)
		assert.Equal(t, 1, got["a"])
		assert.Equal(t, 3, got["b"])
		assert.Equal(t, 4, got["c"])
	})
	t.Run("Should leave the destination untouched when source is empty", func(t *testing.T) {
		dst := map[string]any{"a": 1}
		got, err := Merge(dst, map[string]any{}, "test")
		require.NoError(t, err)
		assert.Equal(t, dst, got)
	})
}

func Test_DeepCopyValue(t *testing.T) {
	t.Run("Should copy nested Array/Hash values independently of the original", func(t *testing.T) {
		orig := HashValue(HashField{Name: "items", Value: ArrayValue(IntValue(1), IntValue(2))})
		got := DeepCopyValue(orig)
		assert.Equal(t, orig, got)
		got.HashFields[0].Value.Items[0] = IntValue(99)
		assert.Equal(t, int64(1), orig.HashFields[0].Value.Items[0].Int)
	})
}

func Test_DeepCopyGeneric(t *testing.T) {
	t.Run("Should deep copy a slice independently of the original", func(t *testing.T) {
		orig := []int{1, 2, 3}
		got, err := DeepCopyGeneric(orig, []int(nil))
		require.NoError(t, err)
		got[0] = 99
		assert.Equal(t, 1, orig[0])
	})
}
