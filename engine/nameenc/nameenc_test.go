package nameenc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Encode_Decode_RoundTrip(t *testing.T) {
	t.Run("Should round-trip a simple identifier", func(t *testing.T) {
		enc, err := Encode("myVar")
		require.NoError(t, err)
		assert.Equal(t, "myVar", enc)
		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, "myVar", dec)
	})
	t.Run("Should round-trip a namespaced identifier", func(t *testing.T) {
		enc, err := Encode("ns.sub.var")
		require.NoError(t, err)
		dec, err := Decode(enc)
		require.NoError(t, err)
		assert.Equal(t, "ns.sub.var", dec)
	})
	t.Run("Should round-trip identifiers containing characters outside the platform alphabet", func(t *testing.T) {
		for _, name := range []string{"my-var", "my var", "a.b-c", "café", "a_b"} {
			enc, err := Encode(name)
			require.NoError(t, err)
			dec, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, name, dec, "round trip of %q", name)
		}
	})
	t.Run("Should produce a platform-safe encoded name", func(t *testing.T) {
		enc, err := Encode("a.b-c café")
		require.NoError(t, err)
		for _, r := range enc {
			assert.True(t, (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_')
		}
	})
}

func Test_Encode_Injective(t *testing.T) {
	t.Run("Should map distinct source names to distinct encoded names", func(t *testing.T) {
		names := []string{"a.b", "a_b", "a.b.c", "ab.c", "a.bc", "a__b", "a.b-c", "a.b_c"}
		seen := make(map[string]string)
		for _, n := range names {
			enc, err := Encode(n)
			require.NoError(t, err)
			if other, ok := seen[enc]; ok {
				t.Fatalf("collision: %q and %q both encode to %q", n, other, enc)
			}
			seen[enc] = n
		}
	})
	t.Run("Should never produce the namespace Separator inside an encoded segment", func(t *testing.T) {
		enc, err := Encode("a_b")
		require.NoError(t, err)
		assert.Equal(t, "a_5fb", enc)
	})
}

func Test_Encode_Errors(t *testing.T) {
	t.Run("Should reject an empty segment", func(t *testing.T) {
		_, err := Encode("a..b")
		require.Error(t, err)
		assert.ErrorContains(t, err, "must not be empty")
	})
	t.Run("Should reject a fully empty source name", func(t *testing.T) {
		_, err := Encode("")
		require.Error(t, err)
	})
}

func Test_Decode_Errors(t *testing.T) {
	t.Run("Should reject an empty encoded name", func(t *testing.T) {
		_, err := Decode("")
		require.Error(t, err)
	})
	t.Run("Should reject a truncated escape sequence", func(t *testing.T) {
		_, err := Decode("a_5")
		require.Error(t, err)
	})
	t.Run("Should reject a malformed escape sequence", func(t *testing.T) {
		_, err := Decode("a_zz")
		require.Error(t, err)
	})
}

func Test_MustEncode(t *testing.T) {
	t.Run("Should return the encoded name on success", func(t *testing.T) {
		assert.Equal(t, "myVar", MustEncode("myVar"))
	})
	t.Run("Should panic on invalid input", func(t *testing.T) {
		assert.Panics(t, func() { MustEncode("") })
	})
}
