// Package ir defines the language-neutral intermediate representation the
// Task Translator (§4.F) and Workflow Translator (§4.G) lower into, and
// that the Bundle (§4.H), Digest Engine (§4.I) and Build Planner (§4.K)
// consume. Every sum type here follows the teacher's closed tagged-struct
// style (engine/core.Type) rather than interfaces with hidden type
// switches, per the REDESIGN FLAGS in spec.md §9.
package ir

import "github.com/compozy/wfc/engine/core"

// AttributeKind tags a Parameter attribute's variant.
type AttributeKind string

const (
	AttributeLabel   AttributeKind = "Label"
	AttributeHelp    AttributeKind = "Help"
	AttributeChoices AttributeKind = "Choices"
	AttributeGroup   AttributeKind = "Group"
)

// Attribute is one piece of display/validation metadata attached to a
// Parameter.
type Attribute struct {
	Kind    AttributeKind
	Text    string       // Label / Help / Group
	Choices []core.Value // Choices
}

func LabelAttr(text string) Attribute   { return Attribute{Kind: AttributeLabel, Text: text} }
func HelpAttr(text string) Attribute    { return Attribute{Kind: AttributeHelp, Text: text} }
func GroupAttr(text string) Attribute   { return Attribute{Kind: AttributeGroup, Text: text} }
func ChoicesAttr(vs ...core.Value) Attribute {
	return Attribute{Kind: AttributeChoices, Choices: vs}
}

// Parameter is one typed input or output slot of an Application or
// Workflow (§3).
type Parameter struct {
	Name       string
	Type       core.Type
	Default    *core.Value
	Attributes []Attribute
}

// InstanceTypeKind tags how an Application's compute instance is selected
// (§4.F).
type InstanceTypeKind string

const (
	InstanceTypeStaticName      InstanceTypeKind = "StaticName"
	InstanceTypeStaticResources InstanceTypeKind = "StaticResources"
	InstanceTypeDynamic         InstanceTypeKind = "Dynamic"
	InstanceTypeDefault         InstanceTypeKind = "Default"
)

// ResourceHints is a const-folded set of compute resource requirements.
type ResourceHints struct {
	CPU      float64
	MemoryMB int64
	DiskGB   int64
}

// InstanceType is the sum from §4.F: a hard-coded platform instance name,
// const-folded resource hints, a runtime-resolved (Dynamic) selection when
// some hint does not const-fold, or Default when nothing was specified.
type InstanceType struct {
	Kind         InstanceTypeKind
	InstanceName string        // StaticName
	Resources    ResourceHints // StaticResources
}

func StaticInstanceName(name string) InstanceType {
	return InstanceType{Kind: InstanceTypeStaticName, InstanceName: name}
}

func StaticResources(r ResourceHints) InstanceType {
	return InstanceType{Kind: InstanceTypeStaticResources, Resources: r}
}

func DynamicInstanceType() InstanceType { return InstanceType{Kind: InstanceTypeDynamic} }
func DefaultInstanceType() InstanceType { return InstanceType{Kind: InstanceTypeDefault} }

// ContainerKind tags a container image's variant (§4.F).
type ContainerKind string

const (
	ContainerNone          ContainerKind = "NoImage"
	ContainerPlatformFile  ContainerKind = "PlatformFileImage"
	ContainerNetworkImage  ContainerKind = "NetworkImage"
)

// ContainerImage is the sum from §4.F.
type ContainerImage struct {
	Kind ContainerKind
	URI  string // PlatformFileImage: platform-file URI
	Ref  string // NetworkImage: registry reference
}

func NoImage() ContainerImage { return ContainerImage{Kind: ContainerNone} }
func PlatformFileImage(uri string) ContainerImage {
	return ContainerImage{Kind: ContainerPlatformFile, URI: uri}
}
func NetworkImage(ref string) ContainerImage {
	return ContainerImage{Kind: ContainerNetworkImage, Ref: ref}
}

// ApplicationKind tags an Application's role (§3): a plain task-backed
// Applet, a Native reference to a pre-existing executable the Planner
// resolves rather than builds, or one of the Workflow Translator's
// auxiliary applet kinds.
type ApplicationKind string

const (
	KindApplet              ApplicationKind = "Applet"
	KindNative              ApplicationKind = "Native"
	KindWfCommonInputs      ApplicationKind = "WfCommonInputs"
	KindWfFragment          ApplicationKind = "WfFragment"
	KindWfOutputs           ApplicationKind = "WfOutputs"
	KindWfCustomReorgOutputs ApplicationKind = "WfCustomReorgOutputs"
	KindWorkflowCustomReorg ApplicationKind = "WorkflowCustomReorg"
)

// NativeRefKind distinguishes the three ways a Native Application can be
// addressed.
type NativeRefKind string

const (
	NativeByID      NativeRefKind = "id"
	NativeByPath    NativeRefKind = "path"
	NativeByAppName NativeRefKind = "appName"
)

// Kind is the full payload for Application.Kind: the tag plus every
// variant's fields (only those matching Tag are meaningful).
type Kind struct {
	Tag ApplicationKind

	// Native
	NativeRefKind NativeRefKind
	NativeRef     string

	// WfFragment
	CallNames        []string
	Path             []int // blockPathFromRoot: block index at each nesting level
	ScatterVar       string
	ScatterChunkSize int // 0 means unset

	// WfOutputs
	OutputsPath []int

	// WorkflowCustomReorg
	AppletID string
}

func AppletKind() Kind { return Kind{Tag: KindApplet} }

func NativeKind(refKind NativeRefKind, ref string) Kind {
	return Kind{Tag: KindNative, NativeRefKind: refKind, NativeRef: ref}
}

func WfCommonInputsKind() Kind { return Kind{Tag: KindWfCommonInputs} }

func WfFragmentKind(callNames []string, path []int, scatterVar string, scatterChunkSize int) Kind {
	return Kind{
		Tag:              KindWfFragment,
		CallNames:        callNames,
		Path:             path,
		ScatterVar:       scatterVar,
		ScatterChunkSize: scatterChunkSize,
	}
}

func WfOutputsKind(path []int) Kind { return Kind{Tag: KindWfOutputs, OutputsPath: path} }

func WfCustomReorgOutputsKind() Kind { return Kind{Tag: KindWfCustomReorgOutputs} }

func WorkflowCustomReorgKind(appletID string) Kind {
	return Kind{Tag: KindWorkflowCustomReorg, AppletID: appletID}
}

// Application is the IR node a task/tool, or a workflow auxiliary applet,
// translates to (§3).
type Application struct {
	Name           string
	Inputs         []Parameter
	Outputs        []Parameter
	InstanceType   InstanceType
	Container      ContainerImage
	Kind           Kind
	DocumentSource string // base64(gzip(stand-alone source)), empty for auxiliary applets
	Attributes     map[string]any
	Requirements   []string
	Tags           []string
}

// CallableName implements Callable.
func (a *Application) CallableName() string { return a.Name }

// IsNative reports whether a references a pre-existing executable rather
// than one the Planner builds (§4.K step 1).
func (a *Application) IsNative() bool { return a.Kind.Tag == KindNative }

// StageInputKind tags a Stage input's variant (§3).
type StageInputKind string

const (
	StageInputEmpty         StageInputKind = "Empty"
	StageInputStatic        StageInputKind = "Static"
	StageInputLink          StageInputKind = "Link"
	StageInputWorkflowInput StageInputKind = "WorkflowInput"
	StageInputArrayLink     StageInputKind = "ArrayLink"
)

// StageInput is the sum from §3.
type StageInput struct {
	Kind StageInputKind

	Value       core.Value   // Static
	StageID     string       // Link
	OutputParam string       // Link
	InputParam  string       // WorkflowInput
	Elements    []StageInput // ArrayLink
}

func EmptyInput() StageInput { return StageInput{Kind: StageInputEmpty} }

func StaticInput(v core.Value) StageInput {
	return StageInput{Kind: StageInputStatic, Value: v}
}

func LinkInput(stageID, outputParam string) StageInput {
	return StageInput{Kind: StageInputLink, StageID: stageID, OutputParam: outputParam}
}

func WorkflowInputRef(paramName string) StageInput {
	return StageInput{Kind: StageInputWorkflowInput, InputParam: paramName}
}

func ArrayLinkInput(elements ...StageInput) StageInput {
	return StageInput{Kind: StageInputArrayLink, Elements: elements}
}

// StageInputBinding pairs one stage-input-parameter name with the
// StageInput that feeds it.
type StageInputBinding struct {
	ParamName string
	Input     StageInput
}

// Stage is one node of a Workflow's DAG (§3).
type Stage struct {
	ID          string
	Description string
	AppletName  string
	Inputs      []StageInputBinding
	Outputs     []Parameter
}

// WorkflowLevel distinguishes a top-level workflow (the primary callable,
// which alone may be unlocked) from a generated sub-workflow.
type WorkflowLevel string

const (
	LevelTop WorkflowLevel = "Top"
	LevelSub WorkflowLevel = "Sub"
)

// WorkflowIO pairs a declared workflow Parameter with how its value is
// produced.
type WorkflowIO struct {
	Parameter Parameter
	Input     StageInput
}

// Workflow is the IR node a typed workflow translates to (§3).
type Workflow struct {
	Name    string
	Inputs  []WorkflowIO
	Outputs []WorkflowIO
	Stages  []Stage
	Source  string
	Locked  bool
	Level   WorkflowLevel

	Attributes map[string]any
}

// CallableName implements Callable.
func (w *Workflow) CallableName() string { return w.Name }

// Callees returns the distinct Application/Workflow names w's stages
// reference, in stage order, used by the Bundle's dependency traversal
// (§4.H).
func (w *Workflow) Callees() []string {
	seen := make(map[string]bool, len(w.Stages))
	out := make([]string, 0, len(w.Stages))
	for _, st := range w.Stages {
		if seen[st.AppletName] {
			continue
		}
		seen[st.AppletName] = true
		out = append(out, st.AppletName)
	}
	return out
}

// Callable is implemented by Application and Workflow: the Bundle's
// callables map is keyed by name, never by pointer identity, so that
// cyclic Workflow->Stage->Callee->Workflow references (§9 DESIGN NOTES)
// never need to be represented directly.
type Callable interface {
	CallableName() string
}
