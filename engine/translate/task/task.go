// Package task implements the Task Translator (§4.F): lowering one typed
// task/tool into an Application IR node. Grounded on the teacher's
// domain/task.Config / domain/agent.Config translation style (Validate,
// Merge via dario.cat/mergo, schema-backed parameter validation) — the
// closed-form resource/container classification below plays the role the
// teacher's task Config.Validate/SetCWD pair plays for its own domain.
package task

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"

	"dario.cat/mergo"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
	"github.com/compozy/wfc/engine/ir"
	"github.com/compozy/wfc/engine/nameenc"
	"github.com/compozy/wfc/engine/source"
	"github.com/compozy/wfc/pkg/config"
)

// platformFileURI matches "<protocol>://project:file" shaped references
// (e.g. "dx://project-xxxx:file-yyyy"), per §4.F.
var platformFileURI = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://[^/:]+:[^/]+$`)

// Translate lowers t into an Application IR node, per §4.F. compilerVersion
// is embedded in the result's Attributes alongside the gzip+base64-encoded
// stand-alone source.
func Translate(t *source.TypedTask, oracle expr.Oracle, opts *config.Options) (*ir.Application, error) {
	inputs, err := translateInputs(t.Inputs, oracle)
	if err != nil {
		return nil, err
	}
	outputs, err := translateOutputs(t.Outputs)
	if err != nil {
		return nil, err
	}
	instanceType, err := translateInstanceType(t.Resources, oracle, opts)
	if err != nil {
		return nil, err
	}
	container, err := translateContainer(t.DockerRef, oracle)
	if err != nil {
		return nil, err
	}

	return &ir.Application{
		Name:           t.Name,
		Inputs:         inputs,
		Outputs:        outputs,
		InstanceType:   instanceType,
		Container:      container,
		Kind:           ir.AppletKind(),
		DocumentSource: encodeSource(t.SourceText),
		Attributes: map[string]any{
			"compilerVersion": opts.CompilerVersion,
		},
	}, nil
}

// translateInputs builds input Parameters from t.Inputs. A default that
// const-folds to something other than a local path is kept as the
// Parameter's Default; any other default is omitted and re-evaluated at
// runtime (§4.F bullet 1).
func translateInputs(inputs []source.TypedInput, oracle expr.Oracle) ([]ir.Parameter, error) {
	params := make([]ir.Parameter, 0, len(inputs))
	for _, in := range inputs {
		name, err := nameenc.Encode(in.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, map[string]any{"input": in.Name})
		}
		param := ir.Parameter{Name: name, Type: in.Type}
		if in.Default != nil {
			res, err := oracle.TryConstEval(in.Default, in.Type)
			if err != nil {
				return nil, core.NewError(err, core.ErrorUnsupportedConstruct, map[string]any{"input": in.Name})
			}
			if res.IsConstant() && !isLocalPath(res.Value()) {
				v := res.Value()
				param.Default = &v
			}
		}
		params = append(params, param)
	}
	return params, nil
}

// translateOutputs builds output Parameters from t.Outputs. Outputs never
// carry a platform-level Default (§4.F bullet 2).
func translateOutputs(outputs []source.TypedOutput) ([]ir.Parameter, error) {
	params := make([]ir.Parameter, 0, len(outputs))
	for _, out := range outputs {
		name, err := nameenc.Encode(out.Name)
		if err != nil {
			return nil, core.NewError(err, core.ErrorNameError, map[string]any{"output": out.Name})
		}
		params = append(params, ir.Parameter{Name: name, Type: out.Type})
	}
	return params, nil
}

// isLocalPath reports whether v is a File/Directory/Archive value whose URI
// has no scheme — a path meaningful only on the machine that produced it,
// never a valid platform-level default (§4.F bullet 1).
func isLocalPath(v core.Value) bool {
	switch v.Kind {
	case core.ValueFile, core.ValueFolder, core.ValueArchive:
		return !strings.Contains(v.URI, "://")
	default:
		return false
	}
}

// translateInstanceType implements §4.F's instanceType classification. The
// instanceTypeSelection=dynamic knob (§6) forces the Dynamic branch even
// when every hint const-folds, so resource resolution can always be
// deferred to the runtime task executor regardless of how the task was
// authored.
func translateInstanceType(
	hints source.ResourceHints,
	oracle expr.Oracle,
	opts *config.Options,
) (ir.InstanceType, error) {
	if hints.InstanceName != nil {
		res, err := oracle.TryConstEval(hints.InstanceName, core.String())
		if err != nil {
			return ir.InstanceType{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
		}
		if res.IsConstant() {
			return ir.StaticInstanceName(res.Value().String), nil
		}
		return ir.DynamicInstanceType(), nil
	}

	if hints.CPU == nil && hints.MemoryMB == nil && hints.DiskGB == nil {
		return ir.InstanceType{Kind: ir.InstanceTypeDefault, Resources: defaultResources(opts)}, nil
	}

	resources, allConst, err := constFoldResources(hints, oracle, opts)
	if err != nil {
		return ir.InstanceType{}, err
	}
	if !allConst || opts.InstanceTypeSelection == config.InstanceTypeDynamic {
		return ir.DynamicInstanceType(), nil
	}
	return ir.StaticResources(resources), nil
}

func defaultResources(opts *config.Options) ir.ResourceHints {
	return ir.ResourceHints{
		CPU:      opts.DefaultRuntimeAttrs.CPU,
		MemoryMB: opts.DefaultRuntimeAttrs.MemoryMB,
		DiskGB:   opts.DefaultRuntimeAttrs.DiskGB,
	}
}

// constFoldResources const-folds every declared resource hint into an
// overrides struct (left zero-valued where the task declared nothing), then
// layers it onto the configured defaults the way the teacher's domain
// configs layer an override onto a base via mergo.Merge — only a hint the
// task actually declared (and that const-folded) replaces the corresponding
// default.
func constFoldResources(
	hints source.ResourceHints,
	oracle expr.Oracle,
	opts *config.Options,
) (ir.ResourceHints, bool, error) {
	var overrides ir.ResourceHints
	allConst := true

	foldFloat := func(e expr.Expr, dst *float64) error {
		if e == nil {
			return nil
		}
		res, err := oracle.TryConstEval(e, core.Float())
		if err != nil {
			return core.NewError(err, core.ErrorUnsupportedConstruct, nil)
		}
		if !res.IsConstant() {
			allConst = false
			return nil
		}
		*dst = res.Value().Float
		return nil
	}
	foldInt := func(e expr.Expr, dst *int64) error {
		if e == nil {
			return nil
		}
		res, err := oracle.TryConstEval(e, core.Int())
		if err != nil {
			return core.NewError(err, core.ErrorUnsupportedConstruct, nil)
		}
		if !res.IsConstant() {
			allConst = false
			return nil
		}
		*dst = res.Value().Int
		return nil
	}

	if err := foldFloat(hints.CPU, &overrides.CPU); err != nil {
		return ir.ResourceHints{}, false, err
	}
	if err := foldInt(hints.MemoryMB, &overrides.MemoryMB); err != nil {
		return ir.ResourceHints{}, false, err
	}
	if err := foldInt(hints.DiskGB, &overrides.DiskGB); err != nil {
		return ir.ResourceHints{}, false, err
	}

	resources := defaultResources(opts)
	if err := mergo.Merge(&resources, overrides, mergo.WithOverride); err != nil {
		return ir.ResourceHints{}, false, core.NewError(err, core.ErrorInternal, nil)
	}
	return resources, allConst, nil
}

// translateContainer implements §4.F's container classification. A docker
// reference is expected to const-fold to a string; one that does not is
// reported as an unsupported construct rather than silently deferred, since
// the container choice determines how the Build Planner renders the
// applet's execution environment at compile time.
func translateContainer(dockerRef expr.Expr, oracle expr.Oracle) (ir.ContainerImage, error) {
	if dockerRef == nil {
		return ir.NoImage(), nil
	}
	res, err := oracle.TryConstEval(dockerRef, core.String())
	if err != nil {
		return ir.ContainerImage{}, core.NewError(err, core.ErrorUnsupportedConstruct, nil)
	}
	if !res.IsConstant() {
		return ir.ContainerImage{}, core.NewError(
			fmt.Errorf("container reference does not const-fold: %s", res.Reason()),
			core.ErrorUnsupportedConstruct,
			nil,
		)
	}
	ref := res.Value().String
	if platformFileURI.MatchString(ref) {
		return ir.PlatformFileImage(ref), nil
	}
	return ir.NetworkImage(ref), nil
}

// encodeSource gzips then base64-encodes source, for embedding in the
// application's details (§4.F bullet 4). Uses compress/gzip +
// encoding/base64 directly: no third-party gzip implementation appears
// anywhere in the retrieved pack, so this one ambient concern stays on the
// standard library (recorded in DESIGN.md).
func encodeSource(src string) string {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, _ = w.Write([]byte(src))
	_ = w.Close()
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}
