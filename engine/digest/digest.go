// Package digest implements the Digest Engine (§4.I): a stable
// cryptographic hash over the canonicalized build request the Build
// Planner would otherwise send to the platform's applet-new/workflow-new
// call, excluding relocatable fields and the embedded source.
package digest

import (
	"crypto/md5" //nolint:gosec // legacy-compat option, never the default; see spec.md §4.I
	"crypto/sha256"
	"encoding/hex"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/pkg/config"
)

// excludedTopLevel are build-request fields that only reposition an
// already-built executable on the platform — excluded so moving an object
// between folders never changes its digest.
var excludedTopLevel = map[string]bool{
	"project": true,
	"folder":  true,
	"parents": true,
}

// Compute canonicalizes request, hashes it per opts.HashAlgorithm, and
// returns (requestWithDigestEmbedded, checksum) — a copy of request with
// details.Version and details.Checksum set to the compiler version and the
// hex digest, per §4.I/§6. request and its "details" sub-map are not
// mutated.
func Compute(request map[string]any, opts *config.Options) (map[string]any, string) {
	checksum := checksumOf(request, opts)
	return embed(request, opts.CompilerVersion, checksum), checksum
}

func checksumOf(request map[string]any, opts *config.Options) string {
	clean := stripExcluded(request)
	raw := core.StableJSONBytes(clean)
	switch opts.HashAlgorithm {
	case "md5":
		sum := md5.Sum(raw) //nolint:gosec
		return hex.EncodeToString(sum[:])
	default:
		sum := sha256.Sum256(raw)
		return hex.EncodeToString(sum[:])
	}
}

// stripExcluded returns a shallow copy of request with the top-level
// relocation fields and details.source removed, per §4.I's digest
// exclusions. The result is only ever fed to WriteStableJSON, never
// returned to a caller, so a shallow copy of nested maps is sufficient.
func stripExcluded(request map[string]any) map[string]any {
	clean := make(map[string]any, len(request))
	for k, v := range request {
		if excludedTopLevel[k] {
			continue
		}
		if k == "details" {
			if details, ok := v.(map[string]any); ok {
				cleanDetails := make(map[string]any, len(details))
				for dk, dv := range details {
					if dk == "source" {
						continue
					}
					cleanDetails[dk] = dv
				}
				clean[k] = cleanDetails
				continue
			}
		}
		clean[k] = v
	}
	return clean
}

// embed returns a copy of request with details.Version/details.Checksum
// set, leaving every other field (including details.source) intact.
func embed(request map[string]any, version, checksum string) map[string]any {
	out := make(map[string]any, len(request))
	for k, v := range request {
		out[k] = v
	}
	details, _ := out["details"].(map[string]any)
	newDetails := make(map[string]any, len(details)+2)
	for k, v := range details {
		newDetails[k] = v
	}
	newDetails["Version"] = version
	newDetails["Checksum"] = checksum
	out["details"] = newDetails
	return out
}
