// Package nameenc implements the bidirectional mapping between source
// identifiers (§4.B) — which may contain `.` namespace separators and
// characters the platform parameter alphabet disallows — and platform-safe
// encoded names restricted to [A-Za-z0-9_].
package nameenc

import (
	"fmt"
	"strings"
)

// Separator joins encoded namespace segments. It can never occur inside an
// encoded segment because every escape sequence is exactly "_" followed by
// two lowercase hex digits, and hex digits never include "_".
const Separator = "__"

const escapeRune = '_'

// InvalidNameError reports a source name or encoded name that nameenc
// cannot process: an empty segment, or (on decode) an escape sequence that
// does not round-trip.
type InvalidNameError struct {
	Name   string
	Reason string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid name %q: %s", e.Name, e.Reason)
}

// isSafe reports whether b can appear unescaped in an encoded name.
func isSafe(b byte) bool {
	switch {
	case b >= 'A' && b <= 'Z', b >= 'a' && b <= 'z', b >= '0' && b <= '9':
		return true
	default:
		return false
	}
}

// encodeSegment escapes every byte of seg that is not in [A-Za-z0-9] as
// "_xx" (lowercase hex), including literal underscores — so the only way a
// double underscore can appear in the output is as the namespace Separator.
func encodeSegment(seg string) (string, error) {
	if seg == "" {
		return "", &InvalidNameError{Name: seg, Reason: "segment must not be empty"}
	}
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if isSafe(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%c%02x", escapeRune, c)
	}
	return b.String(), nil
}

// decodeSegment reverses encodeSegment.
func decodeSegment(enc string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(enc); {
		c := enc[i]
		if c != escapeRune {
			b.WriteByte(c)
			i++
			continue
		}
		if i+2 >= len(enc) {
			return "", &InvalidNameError{Name: enc, Reason: "truncated escape sequence"}
		}
		var v byte
		if _, err := fmt.Sscanf(enc[i+1:i+3], "%02x", &v); err != nil {
			return "", &InvalidNameError{Name: enc, Reason: "malformed escape sequence " + enc[i:i+3]}
		}
		b.WriteByte(v)
		i += 3
	}
	if b.Len() == 0 {
		return "", &InvalidNameError{Name: enc, Reason: "segment decodes to empty"}
	}
	return b.String(), nil
}

// Encode maps a dotted source name (e.g. "ns.sub.var") into a platform-safe
// encoded name. Encoding is injective: distinct source names always produce
// distinct encoded names, and Decode(Encode(name)) == name.
func Encode(sourceName string) (string, error) {
	segs := strings.Split(sourceName, ".")
	encoded := make([]string, len(segs))
	for i, seg := range segs {
		enc, err := encodeSegment(seg)
		if err != nil {
			return "", err
		}
		encoded[i] = enc
	}
	return strings.Join(encoded, Separator), nil
}

// Decode reverses Encode, reconstructing the original dotted source name
// from a platform-safe encoded name.
func Decode(encodedName string) (string, error) {
	if encodedName == "" {
		return "", &InvalidNameError{Name: encodedName, Reason: "encoded name must not be empty"}
	}
	parts := strings.Split(encodedName, Separator)
	segs := make([]string, len(parts))
	for i, p := range parts {
		seg, err := decodeSegment(p)
		if err != nil {
			return "", err
		}
		segs[i] = seg
	}
	return strings.Join(segs, "."), nil
}

// MustEncode panics if Encode fails. Reserved for call sites that already
// validated sourceName (e.g. constants, re-encoding an already-decoded name).
func MustEncode(sourceName string) string {
	enc, err := Encode(sourceName)
	if err != nil {
		panic(err)
	}
	return enc
}
