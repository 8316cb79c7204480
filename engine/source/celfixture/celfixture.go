// Package celfixture is a reference implementation of engine/expr.Oracle
// backed by github.com/google/cel-go. Production compilations plug in
// whatever the real parser front-end provides; this package exists so the
// block/closure/translate test suites in this module have a genuine
// expression language to drive, instead of hand-rolled stub ASTs.
package celfixture

import (
	"fmt"

	celast "github.com/google/cel-go/common/ast"
	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
)

// Expr wraps a CEL source string as an expr.Expr handle.
type Expr string

// Env compiles CEL source against a fixed variable environment and
// implements expr.Oracle over the compiled expressions.
type Env struct {
	env   *cel.Env
	types map[string]core.Type
}

// NewEnv builds an Env where each entry of vars declares a free variable
// available to CEL source, along with its core.Type (used to pick the CEL
// declaration type and to fill in Ref.Type on free-variable extraction).
func NewEnv(vars map[string]core.Type) (*Env, error) {
	opts := make([]cel.EnvOption, 0, len(vars))
	for name, t := range vars {
		opts = append(opts, cel.Variable(name, celType(t)))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL environment: %w", err)
	}
	return &Env{env: env, types: vars}, nil
}

func celType(t core.Type) *cel.Type {
	switch t.Kind {
	case core.KindBoolean:
		return cel.BoolType
	case core.KindInt:
		return cel.IntType
	case core.KindFloat:
		return cel.DoubleType
	case core.KindString, core.KindFile, core.KindDirectory:
		return cel.StringType
	case core.KindArray:
		return cel.ListType(cel.DynType)
	default:
		return cel.DynType
	}
}

func (e *Env) compile(source string) (*cel.Ast, error) {
	ast, iss := e.env.Compile(source)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("failed to compile expression %q: %w", source, iss.Err())
	}
	return ast, nil
}

// TryConstEval implements expr.Oracle. It evaluates the expression against
// an empty activation; if evaluation fails because a variable is unbound,
// the expression is reported NonConstant rather than erroring.
func (e *Env) TryConstEval(expression expr.Expr, targetType core.Type) (expr.ConstEvalResult, error) {
	src, ok := expression.(Expr)
	if !ok {
		return expr.ConstEvalResult{}, fmt.Errorf("celfixture: not a celfixture.Expr: %T", expression)
	}
	ast, err := e.compile(string(src))
	if err != nil {
		return expr.ConstEvalResult{}, err
	}
	prg, err := e.env.Program(ast)
	if err != nil {
		return expr.ConstEvalResult{}, fmt.Errorf("failed to build CEL program: %w", err)
	}
	out, _, evalErr := prg.Eval(map[string]any{})
	if evalErr != nil {
		return expr.NonConstant(evalErr.Error()), nil
	}
	v, err := toCoreValue(out, targetType)
	if err != nil {
		return expr.NonConstant(err.Error()), nil
	}
	return expr.ConstValue(v), nil
}

func toCoreValue(out ref.Val, targetType core.Type) (core.Value, error) {
	val := out.Value()
	switch targetType.Kind {
	case core.KindBoolean:
		b, ok := val.(bool)
		if !ok {
			return core.Value{}, fmt.Errorf("expected bool, got %T", val)
		}
		return core.BoolValue(b), nil
	case core.KindInt:
		i, ok := val.(int64)
		if !ok {
			return core.Value{}, fmt.Errorf("expected int, got %T", val)
		}
		return core.IntValue(i), nil
	case core.KindFloat:
		switch n := val.(type) {
		case float64:
			return core.FloatValue(n), nil
		case int64:
			return core.FloatValue(float64(n)), nil
		default:
			return core.Value{}, fmt.Errorf("expected float, got %T", val)
		}
	default:
		s, ok := val.(string)
		if !ok {
			return core.Value{}, fmt.Errorf("unsupported target type for fixture eval: %s", core.TypeKey(targetType))
		}
		return core.StringValue(s), nil
	}
}

// FreeVariables implements expr.Oracle by walking the CEL AST's identifier
// and select nodes, keeping only top-level declared environment variables.
func (e *Env) FreeVariables(
	expression expr.Expr,
	_ core.Type,
	expandFieldAccess bool,
) ([]expr.Ref, error) {
	src, ok := expression.(Expr)
	if !ok {
		return nil, fmt.Errorf("celfixture: not a celfixture.Expr: %T", expression)
	}
	ast, err := e.compile(string(src))
	if err != nil {
		return nil, err
	}
	native := ast.NativeRep()
	seen := make(map[string]bool)
	var refs []expr.Ref
	var walk func(node celast.Expr)
	walk = func(node celast.Expr) {
		if node == nil {
			return
		}
		switch node.Kind() {
		case celast.IdentKind:
			name := node.AsIdent()
			t, declared := e.types[name]
			if !declared || seen[name] {
				return
			}
			seen[name] = true
			refs = append(refs, expr.Ref{
				IdentifierPath: []string{name},
				Type:           t,
				Kind:           expr.RefRequired,
			})
		case celast.SelectKind:
			sel := node.AsSelect()
			if expandFieldAccess && sel.Operand().Kind() == celast.IdentKind {
				name := sel.Operand().AsIdent()
				field := sel.FieldName()
				key := name + "." + field
				if seen[key] {
					return
				}
				seen[key] = true
				refs = append(refs, expr.Ref{
					IdentifierPath: []string{name},
					Field:          &field,
					Kind:           expr.RefRequired,
				})
				return
			}
			walk(sel.Operand())
		case celast.CallKind:
			call := node.AsCall()
			if call.Target() != nil {
				walk(call.Target())
			}
			for _, arg := range call.Args() {
				walk(arg)
			}
		case celast.ListKind:
			for _, el := range node.AsList().Elements() {
				walk(el)
			}
		case celast.MapKind:
			for _, entry := range node.AsMap().Entries() {
				me := entry.AsMapEntry()
				walk(me.Key())
				walk(me.Value())
			}
		case celast.StructKind:
			for _, f := range node.AsStruct().Fields() {
				walk(f.AsStructField().Value())
			}
		}
	}
	walk(native.Expr())
	return refs, nil
}

// IsTrivial implements expr.Oracle: a bare literal or a bare identifier is
// trivial; anything with CEL call/list/map/struct/comprehension nodes at
// the top level is not.
func (e *Env) IsTrivial(expression expr.Expr) bool {
	src, ok := expression.(Expr)
	if !ok {
		return false
	}
	ast, err := e.compile(string(src))
	if err != nil {
		return false
	}
	switch ast.NativeRep().Expr().Kind() {
	case celast.LiteralKind, celast.IdentKind:
		return true
	case celast.SelectKind:
		sel := ast.NativeRep().Expr().AsSelect()
		return sel.Operand().Kind() == celast.IdentKind
	default:
		return false
	}
}

var _ expr.Oracle = (*Env)(nil)
