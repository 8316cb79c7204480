package closure

import (
	"fmt"

	"github.com/compozy/wfc/engine/source"
)

// Registry resolves a call's callee name to its declared input/output
// signature. The Block Builder and Closure Analyzer never see a callee's
// body — only this signature — so a workflow's blocks can be analyzed
// before every one of its callees has itself been translated, as long as
// the callee's signature is already known (§4.E).
//
// ResolveAlias looks up which callee a call alias (e.g. "add" in
// "call add(...)") refers to. The Closure Analyzer needs this because the
// Oracle's FreeVariables may report a call-output reference (e.g.
// "add.result") without resolving its type itself — the type authority for
// a call output is always the callee's declared signature, not the
// referencing expression.
type Registry interface {
	CalleeInputs(name string) ([]source.TypedInput, error)
	CalleeOutputs(name string) ([]source.TypedOutput, error)
	ResolveAlias(alias string) (calleeName string, ok bool)
}

// SignatureRegistry is a simple map-backed Registry, populated by the
// Workflow Translator as it discovers tasks/sub-workflows and calls in
// dependency/source order.
type SignatureRegistry struct {
	signatures map[string]signature
	aliases    map[string]string
}

type signature struct {
	inputs  []source.TypedInput
	outputs []source.TypedOutput
}

// NewSignatureRegistry returns an empty registry.
func NewSignatureRegistry() *SignatureRegistry {
	return &SignatureRegistry{signatures: make(map[string]signature), aliases: make(map[string]string)}
}

// Register records name's declared inputs/outputs, overwriting any prior
// registration under the same name.
func (r *SignatureRegistry) Register(name string, inputs []source.TypedInput, outputs []source.TypedOutput) {
	r.signatures[name] = signature{inputs: inputs, outputs: outputs}
}

// RegisterAlias records that alias refers to calleeName, for ResolveAlias.
func (r *SignatureRegistry) RegisterAlias(alias, calleeName string) {
	r.aliases[alias] = calleeName
}

func (r *SignatureRegistry) ResolveAlias(alias string) (string, bool) {
	name, ok := r.aliases[alias]
	return name, ok
}

func (r *SignatureRegistry) CalleeInputs(name string) ([]source.TypedInput, error) {
	sig, ok := r.signatures[name]
	if !ok {
		return nil, fmt.Errorf("unknown callee %q", name)
	}
	return sig.inputs, nil
}

func (r *SignatureRegistry) CalleeOutputs(name string) ([]source.TypedOutput, error) {
	sig, ok := r.signatures[name]
	if !ok {
		return nil, fmt.Errorf("unknown callee %q", name)
	}
	return sig.outputs, nil
}

var _ Registry = (*SignatureRegistry)(nil)
