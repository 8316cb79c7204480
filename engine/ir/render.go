// render.go turns an Application/Workflow IR node into the BuildRequest
// map the Digest Engine (§4.I) canonicalizes and the Build Planner (§4.K)
// sends to the platform's applet-new/workflow-new call. This is the
// renderer named but not spelled out by spec.md §4.K step 2 ("render the
// build request").
package ir

import (
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/pkg/config"
)

func wireOptions(opts *config.Options) core.WireOptions {
	return core.WireOptions{LinkKey: opts.PlatformLinkKey, FlatFilesSuffix: opts.FlatFilesSuffix}
}

// RenderParameterSpec renders one Parameter into its wire spec entries: a
// native type produces exactly one entry; a composite type produces two
// sibling entries ("name" holding the wrapped hash, "name"+FlatFilesSuffix
// holding the flat file-link array), per §6's two-field composite
// encoding.
func RenderParameterSpec(p Parameter, opts *config.Options) []map[string]any {
	wo := wireOptions(opts)
	entry := map[string]any{
		"name":     p.Name,
		"class":    core.TypeKey(p.Type),
		"optional": p.Type.IsOptional(),
	}
	if p.Default != nil {
		if p.Type.Native() {
			entry["default"] = core.ToJSON(*p.Default, wo)
		} else {
			wrapped, _ := core.WrapComposite(*p.Default, wo)
			entry["default"] = wrapped
		}
	}
	if len(p.Attributes) > 0 {
		entry["attributes"] = renderAttributes(p.Attributes)
	}
	if p.Type.Native() {
		return []map[string]any{entry}
	}
	flatFiles := map[string]any{
		"name":     p.Name + opts.FlatFilesSuffix,
		"class":    "array:file",
		"optional": true,
	}
	return []map[string]any{entry, flatFiles}
}

func renderAttributes(attrs []Attribute) []map[string]any {
	out := make([]map[string]any, len(attrs))
	for i, a := range attrs {
		m := map[string]any{"kind": string(a.Kind)}
		switch a.Kind {
		case AttributeLabel, AttributeHelp, AttributeGroup:
			m["text"] = a.Text
		case AttributeChoices:
			choices := make([]any, len(a.Choices))
			for j, c := range a.Choices {
				choices[j] = core.ToJSON(c, core.WireOptions{})
			}
			m["choices"] = choices
		}
		out[i] = m
	}
	return out
}

func renderParameterSpecs(params []Parameter, opts *config.Options) []map[string]any {
	var out []map[string]any
	for _, p := range params {
		out = append(out, RenderParameterSpec(p, opts)...)
	}
	return out
}

func renderInstanceType(it InstanceType) map[string]any {
	switch it.Kind {
	case InstanceTypeStaticName:
		return map[string]any{"kind": "StaticName", "instanceName": it.InstanceName}
	case InstanceTypeStaticResources:
		return map[string]any{
			"kind": "StaticResources",
			"resources": map[string]any{
				"cpu":      it.Resources.CPU,
				"memoryMB": it.Resources.MemoryMB,
				"diskGB":   it.Resources.DiskGB,
			},
		}
	case InstanceTypeDynamic:
		return map[string]any{"kind": "Dynamic"}
	default:
		return map[string]any{"kind": "Default"}
	}
}

func renderContainer(c ContainerImage) map[string]any {
	switch c.Kind {
	case ContainerPlatformFile:
		return map[string]any{"kind": "PlatformFileImage", "uri": c.URI}
	case ContainerNetworkImage:
		return map[string]any{"kind": "NetworkImage", "ref": c.Ref}
	default:
		return map[string]any{"kind": "NoImage"}
	}
}

// RenderApplication renders app into a BuildRequest-shaped map (§4.K step
// 2, §6 source embedding). The caller is responsible for passing this
// through digest.Compute, which embeds details.Version/details.Checksum
// and excludes details.source from the hash.
func RenderApplication(app *Application, opts *config.Options) map[string]any {
	details := map[string]any{
		"source": app.DocumentSource,
	}
	for k, v := range app.Attributes {
		details[k] = v
	}
	if app.Container.Kind == ContainerPlatformFile {
		details["dockerImage"] = map[string]any{opts.PlatformLinkKey: app.Container.URI}
	}
	req := map[string]any{
		"name":         app.Name,
		"inputSpec":    renderParameterSpecs(app.Inputs, opts),
		"outputSpec":   renderParameterSpecs(app.Outputs, opts),
		"runSpec":      map[string]any{"instanceType": renderInstanceType(app.InstanceType)},
		"container":    renderContainer(app.Container),
		"kind":         string(app.Kind.Tag),
		"details":      details,
		"requirements": app.Requirements,
		"tags":         app.Tags,
	}
	switch app.Kind.Tag {
	case KindWfFragment:
		req["callNames"] = app.Kind.CallNames
		req["path"] = app.Kind.Path
		if app.Kind.ScatterVar != "" {
			req["scatterVar"] = app.Kind.ScatterVar
		}
		if app.Kind.ScatterChunkSize != 0 {
			req["scatterChunkSize"] = app.Kind.ScatterChunkSize
		}
	case KindWfOutputs:
		req["path"] = app.Kind.OutputsPath
	case KindWorkflowCustomReorg:
		req["appletId"] = app.Kind.AppletID
	case KindNative:
		req["nativeRefKind"] = string(app.Kind.NativeRefKind)
		req["nativeRef"] = app.Kind.NativeRef
	}
	return req
}

func renderStageInput(si StageInput, opts *config.Options) map[string]any {
	switch si.Kind {
	case StageInputStatic:
		wo := wireOptions(opts)
		return map[string]any{"kind": "Static", "value": core.ToJSON(si.Value, wo)}
	case StageInputLink:
		return map[string]any{"kind": "Link", "stage": si.StageID, "output": si.OutputParam}
	case StageInputWorkflowInput:
		return map[string]any{"kind": "WorkflowInput", "input": si.InputParam}
	case StageInputArrayLink:
		elems := make([]map[string]any, len(si.Elements))
		for i, e := range si.Elements {
			elems[i] = renderStageInput(e, opts)
		}
		return map[string]any{"kind": "ArrayLink", "elements": elems}
	default:
		return map[string]any{"kind": "Empty"}
	}
}

func renderStage(st Stage, calleeRefs map[string]string, opts *config.Options) map[string]any {
	inputs := make(map[string]any, len(st.Inputs))
	for _, b := range st.Inputs {
		inputs[b.ParamName] = renderStageInput(b.Input, opts)
	}
	applet := st.AppletName
	if ref, ok := calleeRefs[st.AppletName]; ok {
		applet = ref
	}
	return map[string]any{
		"id":          st.ID,
		"description": st.Description,
		"applet":      applet,
		"inputs":      inputs,
		"outputs":     renderParameterSpecs(st.Outputs, opts),
	}
}

// RenderWorkflow renders wf into a BuildRequest-shaped map, the Workflow
// analogue of RenderApplication. calleeRefs maps each stage's callee name
// (§9 DESIGN NOTES: "workflows reference callees by name, not by
// reference") to the platform object id the Build Planner already
// resolved/built it as (§4.K: "stages carry the callee name plus a cached
// digest/id once the Planner fills it in") — a name with no entry (a
// callee not yet compiled) renders under its bare name, which only a test
// harness should ever see, since the Planner always visits
// Bundle.Dependencies() in order.
func RenderWorkflow(wf *Workflow, calleeRefs map[string]string, opts *config.Options) map[string]any {
	inputs := make([]map[string]any, len(wf.Inputs))
	for i, io := range wf.Inputs {
		spec := RenderParameterSpec(io.Parameter, opts)
		inputs[i] = map[string]any{"spec": spec, "source": renderStageInput(io.Input, opts)}
	}
	outputs := make([]map[string]any, len(wf.Outputs))
	for i, io := range wf.Outputs {
		spec := RenderParameterSpec(io.Parameter, opts)
		outputs[i] = map[string]any{"spec": spec, "source": renderStageInput(io.Input, opts)}
	}
	stages := make([]map[string]any, len(wf.Stages))
	for i, st := range wf.Stages {
		stages[i] = renderStage(st, calleeRefs, opts)
	}
	details := map[string]any{"source": wf.Source}
	for k, v := range wf.Attributes {
		details[k] = v
	}
	return map[string]any{
		"name":    wf.Name,
		"inputs":  inputs,
		"outputs": outputs,
		"stages":  stages,
		"locked":  wf.Locked,
		"level":   string(wf.Level),
		"details": details,
	}
}
