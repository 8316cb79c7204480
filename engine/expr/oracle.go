// Package expr defines the boundary between the compiler core and the
// parser front-end (§4.C). The core never inspects an expression's
// internals; it only calls the three Oracle operations below. Expr is
// intentionally opaque — whatever concrete AST node type the parser uses is
// carried through unexamined.
package expr

import "github.com/compozy/wfc/engine/core"

// Expr is an opaque handle to a parser expression node.
type Expr any

// RefKind tags how strongly a free variable is required by its referencing
// block, per §4.C/§4.E. The three kinds form the widening lattice
// Required < Optional < Computed used when the same identifier is
// referenced more than once with different kinds.
type RefKind string

const (
	RefRequired RefKind = "Required"
	RefOptional RefKind = "Optional"
	RefComputed RefKind = "Computed"
)

var refKindWeight = map[RefKind]int{
	RefRequired: 0,
	RefOptional: 1,
	RefComputed: 2,
}

// WidenKind returns the weaker (higher-weight) of a and b on the
// Required < Optional < Computed lattice.
func WidenKind(a, b RefKind) RefKind {
	if refKindWeight[b] > refKindWeight[a] {
		return b
	}
	return a
}

// Ref is one free-variable reference discovered inside an expression.
// IdentifierPath is the dotted namespace path of the referenced binding;
// Field is set when expandFieldAccess folded a trailing field access into
// the path (e.g. a call-output read), and nil otherwise.
type Ref struct {
	IdentifierPath []string
	Field          *string
	Type           core.Type
	Kind           RefKind
}

// ConstEvalResult is the outcome of TryConstEval: either a folded constant
// Value, or a reason the expression could not be folded.
type ConstEvalResult struct {
	value             core.Value
	constant          bool
	nonConstantReason string
}

// ConstValue wraps a successfully constant-folded value.
func ConstValue(v core.Value) ConstEvalResult {
	return ConstEvalResult{value: v, constant: true}
}

// NonConstant wraps an expression the parser could not fold, with a
// human-readable reason (surfaced in diagnostics when a default that was
// expected to fold does not).
func NonConstant(reason string) ConstEvalResult {
	return ConstEvalResult{constant: false, nonConstantReason: reason}
}

// IsConstant reports whether the evaluation produced a constant Value.
func (r ConstEvalResult) IsConstant() bool { return r.constant }

// Value returns the folded constant. Only meaningful when IsConstant is true.
func (r ConstEvalResult) Value() core.Value { return r.value }

// Reason returns why the expression did not fold. Only meaningful when
// IsConstant is false.
func (r ConstEvalResult) Reason() string { return r.nonConstantReason }

// Oracle is the interface the parser front-end implements so the core can
// reason about expressions without parsing them itself (§4.C).
type Oracle interface {
	// TryConstEval attempts to fold expr into a constant Value of targetType.
	// Used to lift BlockInput defaults into the IR.
	TryConstEval(expression Expr, targetType core.Type) (ConstEvalResult, error)

	// FreeVariables returns every identifier expression references whose
	// binding site is outside the caller's block. expandFieldAccess controls
	// whether a trailing field access is folded into the returned Ref's
	// IdentifierPath/Field (true for call-output reads) or dropped (false,
	// for reads of a Pair/Struct field inside an expression).
	FreeVariables(expression Expr, typeHint core.Type, expandFieldAccess bool) ([]Ref, error)

	// IsTrivial reports whether expr is a literal, a bare identifier, a
	// literal collection of literals, or a single field read on a call
	// result — the class of inputs a CallDirect block is allowed to have.
	IsTrivial(expression Expr) bool
}
