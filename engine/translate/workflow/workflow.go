// Package workflow implements the Workflow Translator (§4.G): lowering a
// typed workflow body into an ir.Workflow plus the auxiliary fragment,
// common-input, output, and reorg ir.Applications the translated stages
// invoke. Grounded on the teacher's engine/domain/workflow.Config component
// wiring style (setTasksCWD/setToolsCWD/setAgentsCWD fan-out helpers),
// generalized here to stage/fragment/common/output/reorg applet wiring.
package workflow

import (
	"strconv"
	"strings"

	"github.com/compozy/wfc/engine/block"
	"github.com/compozy/wfc/engine/closure"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
	"github.com/compozy/wfc/engine/ir"
	"github.com/compozy/wfc/engine/nameenc"
	"github.com/compozy/wfc/engine/source"
	"github.com/compozy/wfc/pkg/config"
)

// Result bundles everything Translate generates for one typed workflow: the
// workflow IR node itself, every auxiliary applet its stages reference, and
// every locked sub-workflow generated for a ConditionalComplex/
// ScatterComplex block (and, recursively, the auxiliary applets those
// sub-workflows needed).
type Result struct {
	Workflow     *ir.Workflow
	Applications []*ir.Application
	SubWorkflows []*ir.Workflow
}

// Translate lowers wf into a Result, per §4.G. reg must already carry the
// signatures of every task/tool/workflow wf's body may call; Translate
// registers wf.Body's own call aliases into reg as its first step.
func Translate(wf *source.TypedWorkflow, oracle expr.Oracle, reg *closure.SignatureRegistry, opts *config.Options) (*Result, error) {
	return translate(wf, oracle, reg, opts, nil)
}

// linkTarget is the resolved origin of one free-variable reference: either
// a prior stage's output parameter, or a directly-declared workflow input.
type linkTarget struct {
	isWorkflowInput bool
	stageID         string
	paramName       string
}

func stageOutput(stageID, paramName string) linkTarget {
	return linkTarget{stageID: stageID, paramName: paramName}
}

func workflowInputTarget(paramName string) linkTarget {
	return linkTarget{isWorkflowInput: true, paramName: paramName}
}

func (t linkTarget) toStageInput() ir.StageInput {
	if t.isWorkflowInput {
		return ir.WorkflowInputRef(t.paramName)
	}
	return ir.LinkInput(t.stageID, t.paramName)
}

func translate(
	wf *source.TypedWorkflow,
	oracle expr.Oracle,
	reg *closure.SignatureRegistry,
	opts *config.Options,
	path []int,
) (*Result, error) {
	closure.RegisterAliases(reg, wf.Body)
	blocks := block.Build(wf.Body, oracle)
	inputDefaults, err := closure.BuildDefaults(wf.Inputs)
	if err != nil {
		return nil, err
	}

	// Only the top-level workflow may ever be unlocked (§4.G): every
	// generated sub-workflow is always locked.
	locked := opts.Locked || !wf.IsTop

	result := &Result{}
	producedBy := make(map[string]linkTarget)
	var stages []ir.Stage

	if needsCommonApplet(wf, oracle, locked) {
		commonApplet, commonStage, err := buildCommonApplet(wf, oracle)
		if err != nil {
			return nil, err
		}
		result.Applications = append(result.Applications, commonApplet)
		stages = append(stages, commonStage)
		for _, in := range wf.Inputs {
			encName, err := nameenc.Encode(in.Name)
			if err != nil {
				return nil, core.NewError(err, core.ErrorNameError, nil)
			}
			producedBy[encName] = stageOutput(commonStage.ID, encName)
		}
	} else {
		for _, in := range wf.Inputs {
			encName, err := nameenc.Encode(in.Name)
			if err != nil {
				return nil, core.NewError(err, core.ErrorNameError, nil)
			}
			producedBy[encName] = workflowInputTarget(encName)
		}
	}

	for i := range blocks {
		blk := &blocks[i]
		if err := closure.Analyze(blk, oracle, reg, inputDefaults); err != nil {
			return nil, err
		}
		blockPath := append(append([]int{}, path...), i)

		if blk.Kind == block.KindCallDirect {
			stage, err := buildCallDirectStage(blk, oracle, reg, producedBy)
			if err != nil {
				return nil, err
			}
			stages = append(stages, stage)
			calleeOutputs, err := reg.CalleeOutputs(blk.Elements[0].Call.CalleeName)
			if err != nil {
				return nil, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
			}
			for _, o := range calleeOutputs {
				encOut, err := nameenc.Encode(o.Name)
				if err != nil {
					return nil, core.NewError(err, core.ErrorNameError, nil)
				}
				encFull, err := nameenc.Encode(blk.Elements[0].Call.Alias + "." + o.Name)
				if err != nil {
					return nil, core.NewError(err, core.ErrorNameError, nil)
				}
				producedBy[encFull] = stageOutput(stage.ID, encOut)
			}
			continue
		}

		applet, stage, subWFs, subApplets, err := buildFragment(
			wf.Name, blk, blockPath, oracle, reg, opts, producedBy,
		)
		if err != nil {
			return nil, err
		}
		result.Applications = append(result.Applications, applet)
		result.Applications = append(result.Applications, subApplets...)
		result.SubWorkflows = append(result.SubWorkflows, subWFs...)
		stages = append(stages, stage)
		for _, o := range blk.Outputs {
			encName, err := nameenc.Encode(o.Name)
			if err != nil {
				return nil, core.NewError(err, core.ErrorNameError, nil)
			}
			producedBy[encName] = stageOutput(stage.ID, encName)
		}
	}

	outputIO, outputApplet, outputStage, err := buildOutputs(wf, oracle, locked, path, producedBy)
	if err != nil {
		return nil, err
	}
	if outputApplet != nil {
		result.Applications = append(result.Applications, outputApplet)
		stages = append(stages, *outputStage)
	}

	if opts.Reorg {
		reorgApplet, reorgStage := buildReorgApplet(wf.Name, producedBy)
		result.Applications = append(result.Applications, reorgApplet)
		stages = append(stages, reorgStage)
	}

	inputIO, err := buildWorkflowInputs(wf, locked)
	if err != nil {
		return nil, err
	}

	level := ir.LevelTop
	if !wf.IsTop {
		level = ir.LevelSub
	}
	result.Workflow = &ir.Workflow{
		Name:    workflowName(wf.Name, path),
		Inputs:  inputIO,
		Outputs: outputIO,
		Stages:  stages,
		Source:  wf.SourceText,
		Locked:  locked,
		Level:   level,
	}
	return result, nil
}

func workflowName(base string, path []int) string {
	if len(path) == 0 {
		return base
	}
	return base + "__sub_" + joinPath(path)
}

func joinPath(path []int) string {
	segs := make([]string, len(path))
	for i, p := range path {
		segs[i] = strconv.Itoa(p)
	}
	return strings.Join(segs, "_")
}

func buildWorkflowInputs(wf *source.TypedWorkflow, locked bool) ([]ir.WorkflowIO, error) {
	ios := make([]ir.WorkflowIO, 0, len(wf.Inputs))
	for _, in := range wf.Inputs {
		encName, err := nameenc.Encode(in.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, nil)
		}
		param := ir.Parameter{Name: encName, Type: in.Type}
		var stageIn ir.StageInput
		if locked {
			stageIn = ir.WorkflowInputRef(encName)
		} else {
			stageIn = ir.EmptyInput()
		}
		ios = append(ios, ir.WorkflowIO{Parameter: param, Input: stageIn})
	}
	return ios, nil
}

// needsCommonApplet implements §4.G step 3's common-applet trigger: always
// in unlocked mode; in locked mode only when some input's default does not
// const-fold (so it must be evaluated by an applet rather than carried as a
// static platform default).
func needsCommonApplet(wf *source.TypedWorkflow, oracle expr.Oracle, locked bool) bool {
	if !locked {
		return true
	}
	for _, in := range wf.Inputs {
		if in.Default == nil {
			continue
		}
		res, err := oracle.TryConstEval(in.Default, in.Type)
		if err != nil || !res.IsConstant() {
			return true
		}
	}
	return false
}

func buildCommonApplet(wf *source.TypedWorkflow, oracle expr.Oracle) (*ir.Application, ir.Stage, error) {
	params := make([]ir.Parameter, 0, len(wf.Inputs))
	bindings := make([]ir.StageInputBinding, 0, len(wf.Inputs))
	for _, in := range wf.Inputs {
		encName, err := nameenc.Encode(in.Name)
		if err != nil {
			return nil, ir.Stage{}, core.NewError(err, core.ErrorNameError, nil)
		}
		param := ir.Parameter{Name: encName, Type: in.Type}
		if in.Default != nil {
			if res, evalErr := oracle.TryConstEval(in.Default, in.Type); evalErr == nil && res.IsConstant() {
				v := res.Value()
				param.Default = &v
			}
		}
		params = append(params, param)
		bindings = append(bindings, ir.StageInputBinding{
			ParamName: encName,
			Input:     ir.WorkflowInputRef(encName),
		})
	}
	passthrough := make([]ir.Parameter, len(params))
	for i, p := range params {
		passthrough[i] = ir.Parameter{Name: p.Name, Type: p.Type}
	}
	applet := &ir.Application{
		Name:         wf.Name + "__common",
		Inputs:       params,
		Outputs:      passthrough,
		InstanceType: ir.DefaultInstanceType(),
		Container:    ir.NoImage(),
		Kind:         ir.WfCommonInputsKind(),
	}
	stage := ir.Stage{
		ID:         core.MustNewID().String(),
		AppletName: applet.Name,
		Inputs:     bindings,
		Outputs:    passthrough,
	}
	return applet, stage, nil
}

// buildCallDirectStage implements §4.G step 2's CallDirect case: the stage
// references the callee applet directly, with each call argument resolved
// verbatim to Static, Link, or WorkflowInput.
func buildCallDirectStage(
	blk *block.Block,
	oracle expr.Oracle,
	reg closure.Registry,
	producedBy map[string]linkTarget,
) (ir.Stage, error) {
	call := blk.Elements[0].Call
	calleeInputs, err := reg.CalleeInputs(call.CalleeName)
	if err != nil {
		return ir.Stage{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
	}
	typeOf := make(map[string]core.Type, len(calleeInputs))
	for _, in := range calleeInputs {
		typeOf[in.Name] = in.Type
	}
	calleeOutputs, err := reg.CalleeOutputs(call.CalleeName)
	if err != nil {
		return ir.Stage{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
	}
	outParams, err := encodeOutputParams(calleeOutputs)
	if err != nil {
		return ir.Stage{}, err
	}

	bindings := make([]ir.StageInputBinding, 0, len(call.Inputs))
	for _, ci := range call.Inputs {
		hint := typeOf[ci.Name]
		stageIn, err := resolveValueOrLink(ci.Value, hint, oracle, producedBy)
		if err != nil {
			return ir.Stage{}, err
		}
		paramName, err := nameenc.Encode(ci.Name)
		if err != nil {
			return ir.Stage{}, core.NewError(err, core.ErrorNameError, nil)
		}
		bindings = append(bindings, ir.StageInputBinding{ParamName: paramName, Input: stageIn})
	}

	return ir.Stage{
		ID:         core.MustNewID().String(),
		AppletName: call.CalleeName,
		Inputs:     bindings,
		Outputs:    outParams,
	}, nil
}

// resolveValueOrLink classifies one trivial expression (a literal, a bare
// identifier, or a single field read on a call result — the class
// block.Build's allTrivial/IsTrivial check admits) into a StageInput: a
// constant value, a link to the stage that produced it, or a reference to
// a declared workflow input.
func resolveValueOrLink(
	e expr.Expr,
	hint core.Type,
	oracle expr.Oracle,
	producedBy map[string]linkTarget,
) (ir.StageInput, error) {
	if e == nil {
		return ir.EmptyInput(), nil
	}
	res, err := oracle.TryConstEval(e, hint)
	if err != nil {
		return ir.StageInput{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
	}
	if res.IsConstant() {
		return ir.StaticInput(res.Value()), nil
	}

	refs, err := oracle.FreeVariables(e, hint, true)
	if err != nil {
		return ir.StageInput{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
	}
	if len(refs) == 0 {
		return ir.EmptyInput(), nil
	}
	ref := refs[0]
	segs := ref.IdentifierPath
	if ref.Field != nil {
		segs = append(append([]string{}, segs...), *ref.Field)
	}
	encName, err := nameenc.Encode(strings.Join(segs, "."))
	if err != nil {
		return ir.StageInput{}, core.NewError(err, core.ErrorNameError, nil)
	}
	if target, ok := producedBy[encName]; ok {
		return target.toStageInput(), nil
	}
	// Not yet produced by any recorded stage or workflow input: fall back
	// to an unwired Empty input rather than erroring, since a well-formed
	// closure never reaches this branch in practice.
	return ir.EmptyInput(), nil
}

func encodeOutputParams(outputs []source.TypedOutput) ([]ir.Parameter, error) {
	params := make([]ir.Parameter, 0, len(outputs))
	for _, o := range outputs {
		name, err := nameenc.Encode(o.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, nil)
		}
		params = append(params, ir.Parameter{Name: name, Type: o.Type})
	}
	return params, nil
}

// paramFromBlockInput lowers a closure-computed block.Input into the
// ir.Parameter an applet declares for it (§3's BlockInput sum). A Required
// input stays as its bare declared type; Optional and DynamicDefault inputs
// widen to an Optional type since the caller may omit them (the fragment
// executor supplies a computed value or evaluates the default expression at
// runtime); a StaticDefault input additionally carries its const-folded
// value as the parameter's Default.
func paramFromBlockInput(in block.Input) ir.Parameter {
	switch in.Kind {
	case block.InputStaticDefault:
		v := in.ConstantValue
		return ir.Parameter{Name: in.Name, Type: core.EnsureOptional(in.Type), Default: &v}
	case block.InputDynamicDefault, block.InputOptional:
		return ir.Parameter{Name: in.Name, Type: core.EnsureOptional(in.Type)}
	default:
		return ir.Parameter{Name: in.Name, Type: in.Type}
	}
}

// buildFragment implements §4.G step 2's "all other kinds" case: a
// fragment applet whose Parameters/Outputs are the block's closure
// Inputs/Outputs, recursing into a locked sub-workflow for the Complex
// kinds.
func buildFragment(
	workflowName string,
	blk *block.Block,
	path []int,
	oracle expr.Oracle,
	reg *closure.SignatureRegistry,
	opts *config.Options,
	producedBy map[string]linkTarget,
) (applet *ir.Application, stage ir.Stage, subWFs []*ir.Workflow, subApplets []*ir.Application, err error) {
	name := workflowName + "__fragment_" + joinPath(path)

	var callNames []string
	var scatterVar string
	var scatterChunkSize int

	switch blk.Kind {
	case block.KindConditionalOneCall:
		call := blk.Elements[len(blk.Elements)-1].Conditional.Body[0].Call
		callNames = []string{call.CalleeName}

	case block.KindScatterOneCall:
		sc := blk.Elements[len(blk.Elements)-1].Scatter
		call := sc.Body[0].Call
		callNames = []string{call.CalleeName}
		scatterVar = sc.LoopVar
		scatterChunkSize = opts.ScatterChunkSize

	case block.KindConditionalComplex:
		cond := blk.Elements[len(blk.Elements)-1].Conditional
		subWF, err2 := translateNestedBody(
			workflowName, cond.Body, blk.Inputs, nil, core.Type{}, oracle, reg, opts, path,
		)
		if err2 != nil {
			return nil, ir.Stage{}, nil, nil, err2
		}
		callNames = []string{subWF.Workflow.Name}
		subWFs = append(subWFs, subWF.Workflow)
		subWFs = append(subWFs, subWF.SubWorkflows...)
		subApplets = append(subApplets, subWF.Applications...)

	case block.KindScatterComplex:
		sc := blk.Elements[len(blk.Elements)-1].Scatter
		subWF, err2 := translateNestedBody(
			workflowName, sc.Body, blk.Inputs, &sc.LoopVar, core.Any(), oracle, reg, opts, path,
		)
		if err2 != nil {
			return nil, ir.Stage{}, nil, nil, err2
		}
		callNames = []string{subWF.Workflow.Name}
		scatterVar = sc.LoopVar
		scatterChunkSize = opts.ScatterChunkSize
		subWFs = append(subWFs, subWF.Workflow)
		subWFs = append(subWFs, subWF.SubWorkflows...)
		subApplets = append(subApplets, subWF.Applications...)

	case block.KindCallFragment, block.KindCallWithSubexpressions:
		for _, el := range blk.Elements {
			if el.Call != nil {
				callNames = []string{el.Call.CalleeName}
				break
			}
		}

	case block.KindExpressionsOnly:
		// No callee: this fragment only evaluates expressions.
	}

	inputs := make([]ir.Parameter, len(blk.Inputs))
	bindings := make([]ir.StageInputBinding, len(blk.Inputs))
	for i, in := range blk.Inputs {
		inputs[i] = paramFromBlockInput(in)
		target, ok := producedBy[in.Name]
		if !ok {
			bindings[i] = ir.StageInputBinding{ParamName: in.Name, Input: ir.EmptyInput()}
			continue
		}
		bindings[i] = ir.StageInputBinding{ParamName: in.Name, Input: target.toStageInput()}
	}
	outputs := make([]ir.Parameter, len(blk.Outputs))
	for i, o := range blk.Outputs {
		encName, encErr := nameenc.Encode(o.Name)
		if encErr != nil {
			return nil, ir.Stage{}, nil, nil, core.NewError(encErr, core.ErrorNameError, nil)
		}
		outputs[i] = ir.Parameter{Name: encName, Type: o.Type}
	}

	applet = &ir.Application{
		Name:         name,
		Inputs:       inputs,
		Outputs:      outputs,
		InstanceType: ir.DefaultInstanceType(),
		Container:    ir.NoImage(),
		Kind:         ir.WfFragmentKind(callNames, path, scatterVar, scatterChunkSize),
	}
	stage = ir.Stage{
		ID:         core.MustNewID().String(),
		AppletName: applet.Name,
		Inputs:     bindings,
		Outputs:    outputs,
	}
	return applet, stage, subWFs, subApplets, nil
}

// translateNestedBody lowers a conditional/scatter's inner body into a
// locked sub-workflow (§4.G step 2). closureInputs are the enclosing
// block's already-computed free-variable inputs (decoded back into
// TypedInputs so Translate's own encoding step re-encodes them
// identically); extraInput, when non-nil, adds one more declared input (the
// scatter loop variable, supplied per-iteration by the runtime rather than
// wired from a prior stage).
func translateNestedBody(
	workflowName string,
	body []source.WorkflowElement,
	closureInputs []block.Input,
	extraInput *string,
	extraInputType core.Type,
	oracle expr.Oracle,
	reg *closure.SignatureRegistry,
	opts *config.Options,
	path []int,
) (*Result, error) {
	typedInputs := make([]source.TypedInput, 0, len(closureInputs)+1)
	for _, in := range closureInputs {
		decoded, err := nameenc.Decode(in.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, nil)
		}
		typedInputs = append(typedInputs, source.TypedInput{Name: decoded, Type: in.Type})
	}
	if extraInput != nil {
		typedInputs = append(typedInputs, source.TypedInput{Name: *extraInput, Type: extraInputType})
	}

	_, outputs, err := closure.AnalyzeBody(body, oracle, reg, nil)
	if err != nil {
		return nil, err
	}
	typedOutputs := make([]source.TypedOutput, 0, len(outputs))
	for _, o := range outputs {
		typedOutputs = append(typedOutputs, source.TypedOutput{Name: o.Name, Type: o.Type, Expr: o.Expr})
	}

	sub := &source.TypedWorkflow{
		Name:    workflowName,
		Inputs:  typedInputs,
		Outputs: typedOutputs,
		Body:    body,
		IsTop:   false,
	}
	return translate(sub, oracle, reg, opts, path)
}

// buildOutputs implements §4.G steps 3/5b for workflow outputs: unlocked
// mode (or a locked workflow with any non-trivial output expression)
// generates one output applet evaluating every declared output; otherwise
// each output links directly to whatever already produced its value.
func buildOutputs(
	wf *source.TypedWorkflow,
	oracle expr.Oracle,
	locked bool,
	path []int,
	producedBy map[string]linkTarget,
) ([]ir.WorkflowIO, *ir.Application, *ir.Stage, error) {
	needApplet := !locked
	if !needApplet {
		for _, out := range wf.Outputs {
			if out.Expr != nil && !oracle.IsTrivial(out.Expr) {
				needApplet = true
				break
			}
		}
	}

	if !needApplet {
		ios := make([]ir.WorkflowIO, 0, len(wf.Outputs))
		for _, out := range wf.Outputs {
			encName, err := nameenc.Encode(out.Name)
			if err != nil {
				return nil, nil, nil, core.NewError(err, core.ErrorNameError, nil)
			}
			stageIn, err := resolveValueOrLink(out.Expr, out.Type, oracle, producedBy)
			if err != nil {
				return nil, nil, nil, err
			}
			ios = append(ios, ir.WorkflowIO{
				Parameter: ir.Parameter{Name: encName, Type: out.Type},
				Input:     stageIn,
			})
		}
		return ios, nil, nil, nil
	}

	declarations := make([]source.WorkflowElement, 0, len(wf.Outputs))
	for _, out := range wf.Outputs {
		declarations = append(declarations, source.WorkflowElement{
			Declaration: &source.Declaration{Name: out.Name, Type: out.Type, Value: out.Expr},
		})
	}
	// declarations never contains a Call element, so the Registry argument
	// is never consulted; an empty one satisfies the signature.
	inputDefaults, err := closure.BuildDefaults(wf.Inputs)
	if err != nil {
		return nil, nil, nil, err
	}
	inputs, outputs, err := closure.AnalyzeBody(declarations, oracle, closure.NewSignatureRegistry(), inputDefaults)
	if err != nil {
		return nil, nil, nil, err
	}

	params := make([]ir.Parameter, len(inputs))
	bindings := make([]ir.StageInputBinding, len(inputs))
	for i, in := range inputs {
		params[i] = paramFromBlockInput(in)
		target, ok := producedBy[in.Name]
		if !ok {
			bindings[i] = ir.StageInputBinding{ParamName: in.Name, Input: ir.EmptyInput()}
			continue
		}
		bindings[i] = ir.StageInputBinding{ParamName: in.Name, Input: target.toStageInput()}
	}
	outParams := make([]ir.Parameter, len(outputs))
	for i, o := range outputs {
		encName, encErr := nameenc.Encode(o.Name)
		if encErr != nil {
			return nil, nil, nil, core.NewError(encErr, core.ErrorNameError, nil)
		}
		outParams[i] = ir.Parameter{Name: encName, Type: o.Type}
	}

	applet := &ir.Application{
		Name:         wf.Name + "__output",
		Inputs:       params,
		Outputs:      outParams,
		InstanceType: ir.DefaultInstanceType(),
		Container:    ir.NoImage(),
		Kind:         ir.WfOutputsKind(path),
	}
	stage := ir.Stage{
		ID:         core.MustNewID().String(),
		AppletName: applet.Name,
		Inputs:     bindings,
		Outputs:    outParams,
	}

	ios := make([]ir.WorkflowIO, len(outParams))
	for i, p := range outParams {
		ios[i] = ir.WorkflowIO{Parameter: p, Input: ir.LinkInput(stage.ID, p.Name)}
	}
	return ios, applet, &stage, nil
}

// buildReorgApplet implements §4.G step 4: a final stage reading every
// upstream output, for the platform's project-reorg pass.
func buildReorgApplet(workflowName string, producedBy map[string]linkTarget) (*ir.Application, ir.Stage) {
	names := make([]string, 0, len(producedBy))
	for name := range producedBy {
		names = append(names, name)
	}
	params := make([]ir.Parameter, len(names))
	bindings := make([]ir.StageInputBinding, len(names))
	for i, name := range names {
		params[i] = ir.Parameter{Name: name, Type: core.Any()}
		bindings[i] = ir.StageInputBinding{ParamName: name, Input: producedBy[name].toStageInput()}
	}
	applet := &ir.Application{
		Name:         workflowName + "__reorg_outputs",
		Inputs:       params,
		Outputs:      params,
		InstanceType: ir.DefaultInstanceType(),
		Container:    ir.NoImage(),
		Kind:         ir.WfCustomReorgOutputsKind(),
	}
	stage := ir.Stage{
		ID:         core.MustNewID().String(),
		AppletName: applet.Name,
		Inputs:     bindings,
		Outputs:    params,
	}
	return applet, stage
}
