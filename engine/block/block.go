// Package block implements the Block Builder (§4.D): decomposing a
// workflow (or conditional/scatter) body into an ordered sequence of
// Blocks, each containing at most one stage-addressable call site.
package block

import (
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
	"github.com/compozy/wfc/engine/source"
)

// Kind classifies a Block for the Workflow Translator (§4.G).
type Kind string

const (
	KindExpressionsOnly        Kind = "ExpressionsOnly"
	KindCallDirect              Kind = "CallDirect"
	KindCallWithSubexpressions Kind = "CallWithSubexpressions"
	KindCallFragment           Kind = "CallFragment"
	KindConditionalOneCall     Kind = "ConditionalOneCall"
	KindConditionalComplex     Kind = "ConditionalComplex"
	KindScatterOneCall         Kind = "ScatterOneCall"
	KindScatterComplex         Kind = "ScatterComplex"
)

// InputKind tags how a Block-level (or Parameter-level) input was derived,
// per the BlockInput sum in §3.
type InputKind string

const (
	InputRequired       InputKind = "Required"
	InputStaticDefault  InputKind = "StaticDefault"
	InputDynamicDefault InputKind = "DynamicDefault"
	InputOptional       InputKind = "Optional"
)

// Input is one entry of a Block's closure-derived input list.
type Input struct {
	Name          string
	Type          core.Type
	Kind          InputKind
	ConstantValue core.Value // set when Kind == InputStaticDefault
	Expr          expr.Expr  // set when Kind == InputDynamicDefault
}

// Output is one entry of a Block's closure-derived output list.
type Output struct {
	Name string
	Type core.Type
	Expr expr.Expr
}

// Block is a maximal run of workflow elements containing at most one
// stage-addressable call site, which — when present — is always the last
// element (§3, §4.D invariant).
type Block struct {
	Inputs   []Input
	Outputs  []Output
	Elements []source.WorkflowElement
	Kind     Kind
}

// Build decomposes body into Blocks following the left-to-right walk and
// classification rules of §4.D. oracle is consulted only to decide whether
// a call's inputs are all trivial: for a bare call (CallDirect vs
// CallWithSubexpressions) and for the lone call of a conditional/scatter
// body (OneCall vs Complex).
func Build(body []source.WorkflowElement, oracle expr.Oracle) []Block {
	groups := group(body)
	blocks := make([]Block, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, Block{Elements: g, Kind: classify(g, oracle)})
	}
	return blocks
}

// group implements the walk: append to the open run; a call or a
// call-containing conditional/scatter seals the run after being appended.
func group(body []source.WorkflowElement) [][]source.WorkflowElement {
	var groups [][]source.WorkflowElement
	var open []source.WorkflowElement
	for _, el := range body {
		open = append(open, el)
		seals := el.IsCall() || ((el.Conditional != nil || el.Scatter != nil) && el.ContainsCallTransitively())
		if seals {
			groups = append(groups, open)
			open = nil
		}
	}
	if len(open) > 0 {
		groups = append(groups, open)
	}
	return groups
}

func classify(elements []source.WorkflowElement, oracle expr.Oracle) Kind {
	anyCall := false
	for _, el := range elements {
		if el.IsCall() || el.ContainsCallTransitively() {
			anyCall = true
			break
		}
	}
	if !anyCall {
		return KindExpressionsOnly
	}
	if len(elements) == 1 {
		switch {
		case elements[0].Call != nil:
			if allTrivial(elements[0].Call.Inputs, oracle) {
				return KindCallDirect
			}
			return KindCallWithSubexpressions
		case elements[0].Conditional != nil:
			if isSingleSimpleCall(elements[0].Conditional.Body, oracle) {
				return KindConditionalOneCall
			}
			return KindConditionalComplex
		case elements[0].Scatter != nil:
			if isSingleSimpleCall(elements[0].Scatter.Body, oracle) {
				return KindScatterOneCall
			}
			return KindScatterComplex
		}
	}
	last := elements[len(elements)-1]
	switch {
	case last.Call != nil:
		return KindCallFragment
	case last.Conditional != nil:
		if isSingleSimpleCall(last.Conditional.Body, oracle) {
			return KindConditionalOneCall
		}
		return KindConditionalComplex
	case last.Scatter != nil:
		if isSingleSimpleCall(last.Scatter.Body, oracle) {
			return KindScatterOneCall
		}
		return KindScatterComplex
	default:
		return KindCallFragment
	}
}

func isSingleSimpleCall(body []source.WorkflowElement, oracle expr.Oracle) bool {
	if len(body) != 1 || body[0].Call == nil {
		return false
	}
	return allTrivial(body[0].Call.Inputs, oracle)
}

func allTrivial(inputs []source.CallInput, oracle expr.Oracle) bool {
	for _, in := range inputs {
		if !oracle.IsTrivial(in.Value) {
			return false
		}
	}
	return true
}
