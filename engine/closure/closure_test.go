package closure_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/wfc/engine/block"
	"github.com/compozy/wfc/engine/closure"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/nameenc"
	"github.com/compozy/wfc/engine/source"
	"github.com/compozy/wfc/engine/source/celfixture"
)

func newRegistry(t *testing.T) *closure.SignatureRegistry {
	t.Helper()
	reg := closure.NewSignatureRegistry()
	reg.Register("add", []source.TypedInput{{Name: "a", Type: core.Int()}, {Name: "b", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	reg.Register("mul", []source.TypedInput{{Name: "a", Type: core.Int()}, {Name: "b", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	reg.Register("inc", []source.TypedInput{{Name: "x", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	reg.Register("sq", []source.TypedInput{{Name: "x", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	return reg
}

func TestAnalyze_FragmentWithExpression(t *testing.T) {
	t.Run("Should compute S2 fragment closure (z = add.result + 1; call mul(z,5))", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{
			"add": core.Any(),
			"z":   core.Int(),
		})
		require.NoError(t, err)

		reg := newRegistry(t)
		elements := []source.WorkflowElement{
			{Call: &source.Call{
				Alias: "add", CalleeName: "add",
				Inputs: []source.CallInput{
					{Name: "a", Value: celfixture.Expr("x")},
					{Name: "b", Value: celfixture.Expr("y")},
				},
			}},
			{Declaration: &source.Declaration{
				Name: "z", Type: core.Int(), Value: celfixture.Expr("add.result + 1"),
			}},
			{Call: &source.Call{
				Alias: "mul", CalleeName: "mul", ContainsCallTransitively: true,
				Inputs: []source.CallInput{
					{Name: "a", Value: celfixture.Expr("z")},
					{Name: "b", Value: celfixture.Expr("5")},
				},
			}},
		}
		closure.RegisterAliases(reg, elements)

		blocks := block.Build(elements, env)
		require.Len(t, blocks, 2)
		fragment := blocks[1]
		assert.Equal(t, block.KindCallFragment, fragment.Kind)

		require.NoError(t, closure.Analyze(&fragment, env, reg, nil))

		encAddResult, err := nameenc.Encode("add.result")
		require.NoError(t, err)
		require.Len(t, fragment.Inputs, 1)
		assert.Equal(t, encAddResult, fragment.Inputs[0].Name)
		assert.True(t, core.TypesEqual(core.Int(), fragment.Inputs[0].Type))
		assert.Equal(t, block.InputRequired, fragment.Inputs[0].Kind)

		names := map[string]core.Type{}
		for _, o := range fragment.Outputs {
			names[o.Name] = o.Type
		}
		assert.True(t, core.TypesEqual(core.Int(), names["z"]))
		assert.True(t, core.TypesEqual(core.Int(), names["mul.result"]))
	})
}

func TestAnalyze_ConditionalOneCall(t *testing.T) {
	t.Run("Should wrap the output of a single-call conditional in Optional", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{
			"flag": core.Boolean(),
			"x":    core.Int(),
		})
		require.NoError(t, err)
		reg := newRegistry(t)

		elements := []source.WorkflowElement{
			{Conditional: &source.Conditional{
				Condition:                celfixture.Expr("flag"),
				ContainsCallTransitively: true,
				Body: []source.WorkflowElement{
					{Call: &source.Call{Alias: "inc", CalleeName: "inc",
						Inputs: []source.CallInput{{Name: "x", Value: celfixture.Expr("x")}}}},
				},
			}},
		}
		closure.RegisterAliases(reg, elements)

		blocks := block.Build(elements, env)
		require.Len(t, blocks, 1)
		assert.Equal(t, block.KindConditionalOneCall, blocks[0].Kind)

		require.NoError(t, closure.Analyze(&blocks[0], env, reg, nil))
		require.Len(t, blocks[0].Outputs, 1)
		assert.Equal(t, "inc.result", blocks[0].Outputs[0].Name)
		assert.True(t, blocks[0].Outputs[0].Type.IsOptional())
		assert.True(t, core.TypesEqual(core.Int(), *blocks[0].Outputs[0].Type.Elem))
	})
}

func TestAnalyze_ScatterOneCall(t *testing.T) {
	t.Run("Should wrap the output of a single-call scatter in a non-empty Array", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{
			"xs": core.Array(core.Int(), true),
			"i":  core.Int(),
		})
		require.NoError(t, err)
		reg := newRegistry(t)

		elements := []source.WorkflowElement{
			{Scatter: &source.Scatter{
				LoopVar:                  "i",
				Expr:                     celfixture.Expr("xs"),
				NonEmpty:                 true,
				ContainsCallTransitively: true,
				Body: []source.WorkflowElement{
					{Call: &source.Call{Alias: "sq", CalleeName: "sq",
						Inputs: []source.CallInput{{Name: "x", Value: celfixture.Expr("i")}}}},
				},
			}},
		}
		closure.RegisterAliases(reg, elements)

		blocks := block.Build(elements, env)
		require.Len(t, blocks, 1)
		assert.Equal(t, block.KindScatterOneCall, blocks[0].Kind)

		require.NoError(t, closure.Analyze(&blocks[0], env, reg, nil))
		require.Len(t, blocks[0].Outputs, 1)
		assert.Equal(t, "sq.result", blocks[0].Outputs[0].Name)
		assert.Equal(t, core.KindArray, blocks[0].Outputs[0].Type.Kind)
		assert.True(t, blocks[0].Outputs[0].Type.NonEmpty)
		assert.True(t, core.TypesEqual(core.Int(), *blocks[0].Outputs[0].Type.Elem))
	})
}

func TestAnalyze_InputDefaults(t *testing.T) {
	t.Run("Should lower a bare reference to a const-folding default input to StaticDefault", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"n": core.Int()})
		require.NoError(t, err)
		reg := closure.NewSignatureRegistry()

		elements := []source.WorkflowElement{
			{Declaration: &source.Declaration{Name: "doubled", Type: core.Int(), Value: celfixture.Expr("n")}},
		}
		blk := block.Block{Elements: elements}

		defaults, err := closure.BuildDefaults([]source.TypedInput{
			{Name: "n", Type: core.Int(), Default: celfixture.Expr("5")},
		})
		require.NoError(t, err)

		require.NoError(t, closure.Analyze(&blk, env, reg, defaults))
		require.Len(t, blk.Inputs, 1)
		assert.Equal(t, block.InputStaticDefault, blk.Inputs[0].Kind)
		assert.Equal(t, core.IntValue(5), blk.Inputs[0].ConstantValue)
	})

	t.Run("Should lower a bare reference to a non-folding default input to DynamicDefault", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"n": core.Int(), "other": core.Int()})
		require.NoError(t, err)
		reg := closure.NewSignatureRegistry()

		elements := []source.WorkflowElement{
			{Declaration: &source.Declaration{Name: "doubled", Type: core.Int(), Value: celfixture.Expr("n")}},
		}
		blk := block.Block{Elements: elements}

		defExpr := celfixture.Expr("other")
		defaults, err := closure.BuildDefaults([]source.TypedInput{
			{Name: "n", Type: core.Int(), Default: defExpr},
		})
		require.NoError(t, err)

		require.NoError(t, closure.Analyze(&blk, env, reg, defaults))
		require.Len(t, blk.Inputs, 1)
		assert.Equal(t, block.InputDynamicDefault, blk.Inputs[0].Kind)
		assert.Equal(t, defExpr, blk.Inputs[0].Expr)
	})
}

func TestAnalyze_OutputCollision(t *testing.T) {
	t.Run("Should reject two outputs with the same name but different types", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"x": core.Int()})
		require.NoError(t, err)
		reg := closure.NewSignatureRegistry()

		// A well-formed AST never declares the same name twice in one scope;
		// this simulates the defensive check the analyzer still performs.
		collidingDecls := []source.WorkflowElement{
			{Declaration: &source.Declaration{Name: "dup", Type: core.Int(), Value: celfixture.Expr("x")}},
			{Declaration: &source.Declaration{Name: "dup", Type: core.String(), Value: celfixture.Expr("x")}},
		}
		blk := block.Block{Elements: collidingDecls}

		err = closure.Analyze(&blk, env, reg, nil)
		require.Error(t, err)
		kind, ok := core.KindOf(err)
		require.True(t, ok)
		assert.Equal(t, core.ErrorClosureError, kind)
	})
}
