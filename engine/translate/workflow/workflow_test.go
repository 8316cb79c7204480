package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/wfc/engine/block"
	"github.com/compozy/wfc/engine/closure"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/ir"
	"github.com/compozy/wfc/engine/nameenc"
	"github.com/compozy/wfc/engine/source"
	"github.com/compozy/wfc/engine/source/celfixture"
	"github.com/compozy/wfc/pkg/config"
)

func newRegistry(t *testing.T) *closure.SignatureRegistry {
	t.Helper()
	reg := closure.NewSignatureRegistry()
	reg.Register("add", []source.TypedInput{{Name: "a", Type: core.Int()}, {Name: "b", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	reg.Register("inc", []source.TypedInput{{Name: "x", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	reg.Register("sq", []source.TypedInput{{Name: "x", Type: core.Int()}},
		[]source.TypedOutput{{Name: "result", Type: core.Int()}})
	return reg
}

func TestTranslate_CallDirect(t *testing.T) {
	t.Run("Should wire a single direct call against a workflow input", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"n": core.Int(), "inc": core.Any()})
		require.NoError(t, err)
		reg := newRegistry(t)
		opts := config.Default()
		opts.Locked = true

		wf := &source.TypedWorkflow{
			Name: "top",
			Inputs: []source.TypedInput{
				{Name: "n", Type: core.Int()},
			},
			Outputs: []source.TypedOutput{
				{Name: "result", Type: core.Int(), Expr: celfixture.Expr("inc.result")},
			},
			Body: []source.WorkflowElement{
				{Call: &source.Call{
					Alias: "inc", CalleeName: "inc",
					Inputs: []source.CallInput{{Name: "x", Value: celfixture.Expr("n")}},
				}},
			},
			IsTop: true,
		}

		res, err := Translate(wf, env, reg, opts)
		require.NoError(t, err)
		require.NotNil(t, res.Workflow)

		require.Len(t, res.Workflow.Stages, 1)
		stage := res.Workflow.Stages[0]
		assert.Equal(t, "inc", stage.AppletName)
		require.Len(t, stage.Inputs, 1)

		encN, err := nameenc.Encode("n")
		require.NoError(t, err)
		assert.Equal(t, "x", stage.Inputs[0].ParamName)
		assert.Equal(t, "WorkflowInput", string(stage.Inputs[0].Input.Kind))
		assert.Equal(t, encN, stage.Inputs[0].Input.InputParam)

		require.Len(t, res.Workflow.Outputs, 1)
		assert.Equal(t, "Link", string(res.Workflow.Outputs[0].Input.Kind))
		assert.Equal(t, stage.ID, res.Workflow.Outputs[0].Input.StageID)
	})
}

func TestTranslate_Fragment(t *testing.T) {
	t.Run("Should generate a fragment applet for an expression-only block plus a call block", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"n": core.Int(), "add": core.Any(), "z": core.Int()})
		require.NoError(t, err)
		reg := newRegistry(t)
		opts := config.Default()
		opts.Locked = true

		wf := &source.TypedWorkflow{
			Name: "top",
			Inputs: []source.TypedInput{
				{Name: "n", Type: core.Int()},
			},
			Outputs: []source.TypedOutput{
				{Name: "z", Type: core.Int(), Expr: celfixture.Expr("z")},
			},
			Body: []source.WorkflowElement{
				{Call: &source.Call{
					Alias: "add", CalleeName: "add",
					Inputs: []source.CallInput{
						{Name: "a", Value: celfixture.Expr("n")},
						{Name: "b", Value: celfixture.Expr("1")},
					},
				}},
				{Declaration: &source.Declaration{
					Name: "z", Type: core.Int(), Value: celfixture.Expr("add.result + 1"),
				}},
			},
			IsTop: true,
		}

		res, err := Translate(wf, env, reg, opts)
		require.NoError(t, err)
		require.Len(t, res.Workflow.Stages, 2)

		callStage := res.Workflow.Stages[0]
		assert.Equal(t, "add", callStage.AppletName)

		fragStage := res.Workflow.Stages[1]
		require.Len(t, res.Applications, 1)
		assert.Equal(t, fragStage.AppletName, res.Applications[0].Name)
		assert.Equal(t, "WfFragment", string(res.Applications[0].Kind.Tag))

		require.Len(t, fragStage.Inputs, 1)
		assert.Equal(t, "Link", string(fragStage.Inputs[0].Input.Kind))
		assert.Equal(t, callStage.ID, fragStage.Inputs[0].Input.StageID)
	})
}

func TestTranslate_ConditionalComplex(t *testing.T) {
	t.Run("Should recurse into a locked sub-workflow for a multi-element conditional body", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{
			"flag": core.Boolean(), "n": core.Int(), "add": core.Any(), "z": core.Int(),
		})
		require.NoError(t, err)
		reg := newRegistry(t)
		opts := config.Default()
		opts.Locked = true

		wf := &source.TypedWorkflow{
			Name: "top",
			Inputs: []source.TypedInput{
				{Name: "flag", Type: core.Boolean()},
				{Name: "n", Type: core.Int()},
			},
			Outputs: []source.TypedOutput{},
			Body: []source.WorkflowElement{
				{Conditional: &source.Conditional{
					Condition:                celfixture.Expr("flag"),
					ContainsCallTransitively: true,
					Body: []source.WorkflowElement{
						{Call: &source.Call{
							Alias: "add", CalleeName: "add",
							Inputs: []source.CallInput{
								{Name: "a", Value: celfixture.Expr("n")},
								{Name: "b", Value: celfixture.Expr("1")},
							},
						}},
						{Declaration: &source.Declaration{
							Name: "z", Type: core.Int(), Value: celfixture.Expr("add.result + 1"),
						}},
					},
				}},
			},
			IsTop: true,
		}

		res, err := Translate(wf, env, reg, opts)
		require.NoError(t, err)
		require.Len(t, res.Workflow.Stages, 1)
		require.Len(t, res.SubWorkflows, 1)

		sub := res.SubWorkflows[0]
		assert.True(t, sub.Locked)
		assert.Equal(t, "Sub", string(sub.Level))
		assert.Contains(t, sub.Name, "top__sub_")

		frag := res.Workflow.Stages[0]
		assert.Contains(t, frag.AppletName, "__fragment_")

		var fragApplet *ir.Application
		for _, a := range res.Applications {
			if a.Name == frag.AppletName {
				fragApplet = a
			}
		}
		require.NotNil(t, fragApplet, "expected an application for the outer fragment stage")
		assert.Equal(t, "WfFragment", string(fragApplet.Kind.Tag))
		assert.Equal(t, []string{sub.Name}, fragApplet.Kind.CallNames)
	})
}

func TestTranslate_ScatterComplex(t *testing.T) {
	t.Run("Should add the loop variable as an extra declared input on the generated sub-workflow", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{
			"xs": core.Array(core.Int(), false), "i": core.Int(), "add": core.Any(), "z": core.Int(),
		})
		require.NoError(t, err)
		reg := newRegistry(t)
		opts := config.Default()
		opts.Locked = true

		wf := &source.TypedWorkflow{
			Name: "top",
			Inputs: []source.TypedInput{
				{Name: "xs", Type: core.Array(core.Int(), false)},
			},
			Outputs: []source.TypedOutput{},
			Body: []source.WorkflowElement{
				{Scatter: &source.Scatter{
					LoopVar:                  "i",
					Expr:                     celfixture.Expr("xs"),
					ContainsCallTransitively: true,
					Body: []source.WorkflowElement{
						{Call: &source.Call{
							Alias: "add", CalleeName: "add",
							Inputs: []source.CallInput{
								{Name: "a", Value: celfixture.Expr("i")},
								{Name: "b", Value: celfixture.Expr("1")},
							},
						}},
						{Declaration: &source.Declaration{
							Name: "z", Type: core.Int(), Value: celfixture.Expr("add.result + 1"),
						}},
					},
				}},
			},
			IsTop: true,
		}

		res, err := Translate(wf, env, reg, opts)
		require.NoError(t, err)
		require.Len(t, res.SubWorkflows, 1)

		sub := res.SubWorkflows[0]
		var loopVarFound bool
		for _, in := range sub.Inputs {
			if in.Parameter.Name == "i" {
				loopVarFound = true
			}
		}
		assert.True(t, loopVarFound, "expected loop variable %q among sub-workflow inputs", "i")

		require.Len(t, res.Workflow.Stages, 1)
		var fragApplet *ir.Application
		for _, a := range res.Applications {
			if a.Name == res.Workflow.Stages[0].AppletName {
				fragApplet = a
			}
		}
		require.NotNil(t, fragApplet, "expected an application for the scatter fragment stage")
		assert.Equal(t, "i", fragApplet.Kind.ScatterVar)
		assert.Equal(t, opts.ScatterChunkSize, fragApplet.Kind.ScatterChunkSize)
	})
}

func TestNeedsCommonApplet(t *testing.T) {
	t.Run("Should always require a common applet in unlocked mode", func(t *testing.T) {
		env, err := celfixture.NewEnv(nil)
		require.NoError(t, err)
		wf := &source.TypedWorkflow{Inputs: []source.TypedInput{{Name: "n", Type: core.Int()}}}
		assert.True(t, needsCommonApplet(wf, env, false))
	})

	t.Run("Should not require a common applet when locked and every default const-folds", func(t *testing.T) {
		env, err := celfixture.NewEnv(nil)
		require.NoError(t, err)
		wf := &source.TypedWorkflow{
			Inputs: []source.TypedInput{{Name: "n", Type: core.Int(), Default: celfixture.Expr("1")}},
		}
		assert.False(t, needsCommonApplet(wf, env, true))
	})

	t.Run("Should require a common applet when locked but a default does not const-fold", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"unbound": core.Int()})
		require.NoError(t, err)
		wf := &source.TypedWorkflow{
			Inputs: []source.TypedInput{{Name: "n", Type: core.Int(), Default: celfixture.Expr("unbound")}},
		}
		assert.True(t, needsCommonApplet(wf, env, true))
	})
}

func TestBuildFragment_ParameterKinds(t *testing.T) {
	t.Run("Should wrap Optional/DynamicDefault inputs in Optional and embed a StaticDefault's value", func(t *testing.T) {
		env, err := celfixture.NewEnv(nil)
		require.NoError(t, err)
		reg := closure.NewSignatureRegistry()
		opts := config.Default()

		blk := &block.Block{
			Kind: block.KindExpressionsOnly,
			Inputs: []block.Input{
				{Name: "required", Type: core.Int(), Kind: block.InputRequired},
				{Name: "optional", Type: core.Int(), Kind: block.InputOptional},
				{Name: "dynamic", Type: core.Int(), Kind: block.InputDynamicDefault, Expr: celfixture.Expr("unbound")},
				{Name: "static", Type: core.Int(), Kind: block.InputStaticDefault, ConstantValue: core.IntValue(7)},
			},
		}

		applet, _, _, _, err := buildFragment("wf", blk, []int{0}, env, reg, opts, map[string]linkTarget{})
		require.NoError(t, err)
		require.Len(t, applet.Inputs, 4)

		byName := make(map[string]ir.Parameter, len(applet.Inputs))
		for _, p := range applet.Inputs {
			byName[p.Name] = p
		}

		assert.True(t, core.TypesEqual(core.Int(), byName["required"].Type))
		assert.Nil(t, byName["required"].Default)

		assert.True(t, byName["optional"].Type.IsOptional())
		assert.Nil(t, byName["optional"].Default)

		assert.True(t, byName["dynamic"].Type.IsOptional())
		assert.Nil(t, byName["dynamic"].Default)

		assert.True(t, byName["static"].Type.IsOptional())
		require.NotNil(t, byName["static"].Default)
		assert.Equal(t, core.IntValue(7), *byName["static"].Default)
	})
}

func TestBuildOutputs_DirectLink(t *testing.T) {
	t.Run("Should link a trivial locked output straight to its producing stage without an applet", func(t *testing.T) {
		env, err := celfixture.NewEnv(map[string]core.Type{"inc": core.Any()})
		require.NoError(t, err)
		encOut, err := nameenc.Encode("inc.result")
		require.NoError(t, err)
		producedBy := map[string]linkTarget{
			encOut: stageOutput("stage-1", encOut),
		}
		wf := &source.TypedWorkflow{
			Outputs: []source.TypedOutput{{Name: "result", Type: core.Int(), Expr: celfixture.Expr("inc.result")}},
		}
		ios, applet, stage, err := buildOutputs(wf, env, true, nil, producedBy)
		require.NoError(t, err)
		assert.Nil(t, applet)
		assert.Nil(t, stage)
		require.Len(t, ios, 1)
		assert.Equal(t, "Link", string(ios[0].Input.Kind))
		assert.Equal(t, "stage-1", ios[0].Input.StageID)
	})
}
