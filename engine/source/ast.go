// Package source defines the typed-AST boundary the parser front-end hands
// to the Block Builder, Closure Analyzer, and Translators (§4.D-G). The
// core never constructs these nodes itself in production; it only walks
// them. The celfixture subpackage supplies a small CEL-backed
// implementation used by this module's own test suites.
package source

import (
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/expr"
)

// Declaration binds a name to the value of an expression within a block.
type Declaration struct {
	Name                     string
	Type                     core.Type
	Value                    expr.Expr
	ContainsCallTransitively bool
}

// CallInput is one argument supplied at a call site, keyed by the callee's
// declared input name.
type CallInput struct {
	Name  string
	Value expr.Expr
}

// Call invokes a task, tool, or workflow by name, binding Alias as the
// local name for its outputs (referenced elsewhere as "Alias.outputName").
type Call struct {
	Alias                    string
	CalleeName               string
	Inputs                   []CallInput
	ContainsCallTransitively bool
}

// Conditional guards Body on Condition.
type Conditional struct {
	Condition                expr.Expr
	Body                     []WorkflowElement
	ContainsCallTransitively bool
}

// Scatter iterates Body once per element of Expr, binding LoopVar to the
// current element. NonEmpty reports whether Expr is statically known
// non-empty, which the Closure Analyzer uses when lifting output types.
type Scatter struct {
	LoopVar                  string
	Expr                     expr.Expr
	NonEmpty                 bool
	Body                     []WorkflowElement
	ContainsCallTransitively bool
}

// WorkflowElement is the sum over the four statement forms a workflow body
// (or a conditional/scatter body) may contain. Exactly one field is set.
type WorkflowElement struct {
	Declaration *Declaration
	Call        *Call
	Conditional *Conditional
	Scatter     *Scatter
}

// ContainsCallTransitively reports the element's parser-supplied flag
// regardless of which variant is populated.
func (e WorkflowElement) ContainsCallTransitively() bool {
	switch {
	case e.Declaration != nil:
		return e.Declaration.ContainsCallTransitively
	case e.Call != nil:
		return e.Call.ContainsCallTransitively
	case e.Conditional != nil:
		return e.Conditional.ContainsCallTransitively
	case e.Scatter != nil:
		return e.Scatter.ContainsCallTransitively
	default:
		return false
	}
}

// IsCall reports whether the element is itself a call (as opposed to
// containing one nested inside a conditional/scatter body).
func (e WorkflowElement) IsCall() bool { return e.Call != nil }

// TypedInput is one declared input of a task, tool, or workflow.
type TypedInput struct {
	Name    string
	Type    core.Type
	Default expr.Expr // nil when no default was declared
}

// TypedOutput is one declared output of a task, tool, or workflow.
type TypedOutput struct {
	Name string
	Type core.Type
	Expr expr.Expr
}

// ResourceHints carries the optional runtime resource expressions a task
// may declare; each is nil when unspecified.
type ResourceHints struct {
	InstanceName expr.Expr
	CPU          expr.Expr
	MemoryMB     expr.Expr
	DiskGB       expr.Expr
}

// TypedTask is a parsed task or tool, ready for 4.F translation.
type TypedTask struct {
	Name       string
	Inputs     []TypedInput
	Outputs    []TypedOutput
	Resources  ResourceHints
	DockerRef  expr.Expr // nil when no container was declared
	SourceText string    // stand-alone source this task came from
}

// TypedWorkflow is a parsed workflow body, ready for 4.D-G translation.
type TypedWorkflow struct {
	Name     string
	Inputs   []TypedInput
	Outputs  []TypedOutput
	Body     []WorkflowElement
	IsTop    bool
	SourceText string
}
