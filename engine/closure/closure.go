// Package closure implements the Closure Analyzer (§4.E): for a Block (or
// a whole workflow body), the set of free variables it reads (Inputs) and
// the set of values it publishes (Outputs), with output types lifted
// through conditionals (Optional) and scatters (Array).
package closure

import (
	"fmt"
	"strings"

	"github.com/compozy/wfc/engine/block"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
	"github.com/compozy/wfc/engine/nameenc"
	"github.com/compozy/wfc/engine/source"
)

// Analyze computes blk's Inputs and Outputs closures and stores them on
// blk, per §4.E. Outputs are computed first so that a free-variable
// reference to a name the block itself produces can be recognized as
// internal rather than an external input.
func Analyze(blk *block.Block, oracle expr.Oracle, reg Registry, defaults map[string]expr.Expr) error {
	outputs, err := computeOutputs(blk.Elements, reg)
	if err != nil {
		return err
	}
	blk.Outputs = outputs

	locals := localNames(blk.Elements)
	inputs, err := computeInputs(blk.Elements, oracle, reg, locals, defaults)
	if err != nil {
		return err
	}
	blk.Inputs = inputs
	return nil
}

// BuildDefaults indexes a workflow's (or task's) declared inputs by their
// nameenc-encoded name, for passing to Analyze/AnalyzeBody so a closure
// input that is a bare reference to one of these inputs can inherit its
// default expression (§3's BlockInput StaticDefault/DynamicDefault
// variants) instead of always widening to Optional. Inputs with no Default
// are omitted.
func BuildDefaults(inputs []source.TypedInput) (map[string]expr.Expr, error) {
	defaults := make(map[string]expr.Expr, len(inputs))
	for _, in := range inputs {
		if in.Default == nil {
			continue
		}
		name, err := nameenc.Encode(in.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, nil)
		}
		defaults[name] = in.Default
	}
	return defaults, nil
}

// RegisterAliases walks elements (recursively into conditional/scatter
// bodies) and records every call's alias -> callee name mapping into reg,
// so a later block's closure analysis can resolve the declared type of a
// call-output reference regardless of which earlier block produced it.
// Callers (the Workflow Translator) run this once over the whole body
// before analyzing any of its Blocks.
func RegisterAliases(reg *SignatureRegistry, elements []source.WorkflowElement) {
	for _, el := range elements {
		switch {
		case el.Call != nil:
			reg.RegisterAlias(el.Call.Alias, el.Call.CalleeName)
		case el.Conditional != nil:
			RegisterAliases(reg, el.Conditional.Body)
		case el.Scatter != nil:
			RegisterAliases(reg, el.Scatter.Body)
		}
	}
}

// AnalyzeBody computes the Inputs/Outputs closure for an arbitrary
// workflow element sequence that was never split into Blocks — used for
// whole-workflow closures (unlocked-mode common/output applet generation,
// §4.G) rather than a single Block's.
func AnalyzeBody(
	elements []source.WorkflowElement,
	oracle expr.Oracle,
	reg Registry,
	defaults map[string]expr.Expr,
) ([]block.Input, []block.Output, error) {
	outputs, err := computeOutputs(elements, reg)
	if err != nil {
		return nil, nil, err
	}
	locals := localNames(elements)
	inputs, err := computeInputs(elements, oracle, reg, locals, defaults)
	if err != nil {
		return nil, nil, err
	}
	return inputs, outputs, nil
}

// computeOutputs implements §4.E's Outputs rule: every declaration is an
// output; every call contributes "alias.outputName" per callee output;
// conditional bodies wrap their inner outputs in Optional; scatter bodies
// wrap theirs in Array(_, nonEmpty) and drop the loop variable.
func computeOutputs(elements []source.WorkflowElement, reg Registry) ([]block.Output, error) {
	var outs []block.Output
	seen := make(map[string]core.Type)

	add := func(name string, t core.Type, e expr.Expr) error {
		if existing, ok := seen[name]; ok {
			if !core.TypesEqual(existing, t) {
				return core.NewError(
					fmt.Errorf("conflicting types for output %q", name),
					core.ErrorClosureError,
					map[string]any{"output": name},
				)
			}
			return nil
		}
		seen[name] = t
		outs = append(outs, block.Output{Name: name, Type: t, Expr: e})
		return nil
	}

	for _, el := range elements {
		switch {
		case el.Declaration != nil:
			if err := add(el.Declaration.Name, el.Declaration.Type, el.Declaration.Value); err != nil {
				return nil, err
			}
		case el.Call != nil:
			calleeOutputs, err := reg.CalleeOutputs(el.Call.CalleeName)
			if err != nil {
				return nil, core.NewError(err, core.ErrorUnsupportedConstruct,
					map[string]any{"callee": el.Call.CalleeName})
			}
			for _, o := range calleeOutputs {
				name := el.Call.Alias + "." + o.Name
				if err := add(name, o.Type, nil); err != nil {
					return nil, err
				}
			}
		case el.Conditional != nil:
			inner, err := computeOutputs(el.Conditional.Body, reg)
			if err != nil {
				return nil, err
			}
			for _, o := range inner {
				if err := add(o.Name, core.EnsureOptional(o.Type), o.Expr); err != nil {
					return nil, err
				}
			}
		case el.Scatter != nil:
			inner, err := computeOutputs(el.Scatter.Body, reg)
			if err != nil {
				return nil, err
			}
			for _, o := range inner {
				if o.Name == el.Scatter.LoopVar {
					continue // loop variable is dropped, not published
				}
				wrapped := core.Array(o.Type, el.Scatter.NonEmpty)
				if err := add(o.Name, wrapped, o.Expr); err != nil {
					return nil, err
				}
			}
		}
	}
	return outs, nil
}

// localNames collects every identifier bound inside elements at any
// nesting depth: declaration names, call aliases, and scatter loop
// variables. A free-variable reference whose root identifier is in this
// set is resolved inside the block, not an external input — this is also
// exactly "Inputs that shadow any computed output of the same block are
// dropped" (§4.E), since every declaration/call-alias name bound here is
// also an output name computeOutputs would have produced.
func localNames(elements []source.WorkflowElement) map[string]bool {
	names := make(map[string]bool)
	var walk func([]source.WorkflowElement)
	walk = func(els []source.WorkflowElement) {
		for _, el := range els {
			switch {
			case el.Declaration != nil:
				names[el.Declaration.Name] = true
			case el.Call != nil:
				names[el.Call.Alias] = true
			case el.Conditional != nil:
				walk(el.Conditional.Body)
			case el.Scatter != nil:
				names[el.Scatter.LoopVar] = true
				walk(el.Scatter.Body)
			}
		}
	}
	walk(elements)
	return names
}

// aggregatedRef tracks the widened kind and type of one external
// identifier across every expression in the block that references it.
type aggregatedRef struct {
	t    core.Type
	kind expr.RefKind
	bare bool // a plain identifier, not a call-output field projection
}

// computeInputs implements §4.E's Inputs rule: every free variable any
// contained expression references whose binding site is outside the
// block, with same-name references widened on the
// Required < Optional < Computed lattice and type conflicts rejected.
func computeInputs(
	elements []source.WorkflowElement,
	oracle expr.Oracle,
	reg Registry,
	locals map[string]bool,
	defaults map[string]expr.Expr,
) ([]block.Input, error) {
	order := []string{}
	agg := make(map[string]aggregatedRef)

	collect := func(e expr.Expr, typeHint core.Type) error {
		if e == nil {
			return nil
		}
		refs, err := oracle.FreeVariables(e, typeHint, true)
		if err != nil {
			return core.NewError(err, core.ErrorUnsupportedConstruct, nil)
		}
		for _, ref := range refs {
			if len(ref.IdentifierPath) == 0 || locals[ref.IdentifierPath[0]] {
				continue
			}
			segs := ref.IdentifierPath
			refType := ref.Type
			bare := ref.Field == nil && len(ref.IdentifierPath) == 1
			if ref.Field != nil {
				segs = append(append([]string{}, segs...), *ref.Field)
				if resolved, ok := resolveCallOutputType(reg, ref.IdentifierPath[0], *ref.Field); ok {
					refType = resolved
				}
			}
			name, encErr := nameenc.Encode(strings.Join(segs, "."))
			if encErr != nil {
				return core.NewError(encErr, core.ErrorNameError, nil)
			}
			if existing, ok := agg[name]; ok {
				if !core.TypesEqual(existing.t, refType) {
					return core.NewError(
						fmt.Errorf("conflicting types for input %q", name),
						core.ErrorClosureError,
						map[string]any{"input": name},
					)
				}
				agg[name] = aggregatedRef{t: existing.t, kind: expr.WidenKind(existing.kind, ref.Kind), bare: existing.bare}
				continue
			}
			agg[name] = aggregatedRef{t: refType, kind: ref.Kind, bare: bare}
			order = append(order, name)
		}
		return nil
	}

	var walk func([]source.WorkflowElement) error
	walk = func(els []source.WorkflowElement) error {
		for _, el := range els {
			switch {
			case el.Declaration != nil:
				if err := collect(el.Declaration.Value, el.Declaration.Type); err != nil {
					return err
				}
			case el.Call != nil:
				inputs, err := reg.CalleeInputs(el.Call.CalleeName)
				if err != nil {
					return core.NewError(err, core.ErrorUnsupportedConstruct,
						map[string]any{"callee": el.Call.CalleeName})
				}
				typeOf := make(map[string]core.Type, len(inputs))
				for _, in := range inputs {
					typeOf[in.Name] = in.Type
				}
				for _, in := range el.Call.Inputs {
					hint, ok := typeOf[in.Name]
					if !ok {
						hint = core.Any()
					}
					if err := collect(in.Value, hint); err != nil {
						return err
					}
				}
			case el.Conditional != nil:
				if err := collect(el.Conditional.Condition, core.Boolean()); err != nil {
					return err
				}
				if err := walk(el.Conditional.Body); err != nil {
					return err
				}
			case el.Scatter != nil:
				if err := collect(el.Scatter.Expr, core.Array(core.Any(), false)); err != nil {
					return err
				}
				if err := walk(el.Scatter.Body); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk(elements); err != nil {
		return nil, err
	}

	result := make([]block.Input, 0, len(order))
	for _, name := range order {
		a := agg[name]
		result = append(result, inputFromAggregate(name, a, oracle, defaults))
	}
	return result, nil
}

// inputFromAggregate lowers one aggregated free-variable reference into a
// BlockInput (§3). A bare reference to a workflow/task input that declares
// its own default expression inherits that default, independent of the
// ref's own widened RefKind: a default the Oracle can const-fold becomes
// InputStaticDefault, one that cannot becomes InputDynamicDefault (the
// fragment executor evaluates it at runtime when the caller omits the
// value). Anything else falls back to refKindToInputKind's Required/Optional
// lowering of the ref's widened RefKind.
func inputFromAggregate(name string, a aggregatedRef, oracle expr.Oracle, defaults map[string]expr.Expr) block.Input {
	if a.bare {
		if defExpr, ok := defaults[name]; ok {
			if res, err := oracle.TryConstEval(defExpr, a.t); err == nil {
				if res.IsConstant() {
					return block.Input{Name: name, Type: a.t, Kind: block.InputStaticDefault, ConstantValue: res.Value()}
				}
				return block.Input{Name: name, Type: a.t, Kind: block.InputDynamicDefault, Expr: defExpr}
			}
		}
	}
	return block.Input{Name: name, Type: a.t, Kind: refKindToInputKind(a.kind)}
}

// resolveCallOutputType looks up the declared type of alias.field via the
// Registry, falling back to (zero, false) when alias isn't a known call
// site (e.g. a workflow input, or a registry that doesn't track aliases).
func resolveCallOutputType(reg Registry, alias, field string) (core.Type, bool) {
	calleeName, ok := reg.ResolveAlias(alias)
	if !ok {
		return core.Type{}, false
	}
	outputs, err := reg.CalleeOutputs(calleeName)
	if err != nil {
		return core.Type{}, false
	}
	for _, o := range outputs {
		if o.Name == field {
			return o.Type, true
		}
	}
	return core.Type{}, false
}

// refKindToInputKind lowers the Oracle's three-way RefKind into the
// BlockInput sum's Required/Optional pair. A Computed ref (a scatter-bound
// variable the runtime fragment executor supplies per iteration, see
// engine/expr.RefKind) is surfaced as Optional: the fragment always
// receives it from the executor, never from a caller-supplied default, so
// treating it as a caller-optional parameter lets the same Parameter shape
// serve both cases without adding a fifth BlockInput variant not named in
// spec.md §3.
func refKindToInputKind(k expr.RefKind) block.InputKind {
	switch k {
	case expr.RefRequired:
		return block.InputRequired
	default:
		return block.InputOptional
	}
}
