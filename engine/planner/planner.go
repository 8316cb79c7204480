// Package planner implements the Build Planner (§4.K): for each callable
// in a sealed Bundle's dependency order, decide reuse / archive-then-build
// / delete-then-build / build-new (or, for a Native reference, a plain
// platform resolve), consulting the Digest Engine and Object Directory.
// Grounded on spec.md §4.K's decision table and §5's concurrency model
// ("parallelism is permitted only for independent callables, at the
// implementer's discretion"): independent callables build concurrently via
// golang.org/x/sync/errgroup, bounded by config.Options.PlannerConcurrency,
// gated on the Bundle's own dependency graph so a callable never starts
// before every callee it references has a CompiledExecutable.
package planner

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/compozy/wfc/engine/bundle"
	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/digest"
	"github.com/compozy/wfc/engine/ir"
	"github.com/compozy/wfc/engine/objdir"
	"github.com/compozy/wfc/engine/platform"
	"github.com/compozy/wfc/pkg/config"
)

// Action tags which branch of §4.K's decision table a callable took.
type Action string

const (
	ActionResolveNative    Action = "resolve-native"
	ActionReuse            Action = "reuse"
	ActionBuildNew         Action = "build-new"
	ActionArchiveThenBuild Action = "archive-then-build"
	ActionDeleteThenBuild  Action = "delete-then-build"
)

// CompiledExecutable is the result of planning one callable (§3): the
// callable itself, the platform object id it now resolves to, and (for a
// Workflow) the resolved refs of every callee its stages reference.
type CompiledExecutable struct {
	Callable         ir.Callable
	PlatformObjectID platform.Ref
	DependencyLinks  map[string]platform.Ref
}

// StepResult records one callable's planning outcome, for callers that
// want to report or assert on what the Planner actually did (S5/S6).
type StepResult struct {
	Name       string
	Action     Action
	Executable *CompiledExecutable
	Digest     string // empty for ActionResolveNative
}

// Planner builds/reuses every callable of a sealed Bundle against a
// Client and Directory (§4.J/§4.K).
type Planner struct {
	client platform.Client
	dir    *objdir.Directory
	opts   *config.Options
}

// New returns a Planner. dir must already be Load-ed (§4.J: "populated by
// one query... then consulted... for the rest of one compile").
func New(client platform.Client, dir *objdir.Directory, opts *config.Options) *Planner {
	return &Planner{client: client, dir: dir, opts: opts}
}

// Plan executes the decision table for every callable in b.Dependencies(),
// strictly respecting that order for single-threaded callers and, for
// concurrent ones, never starting a callable before every name its
// Callees() names has completed (§5: "Bundle.dependencies is a stable
// topological order; maybeBuild is invoked strictly in that order so that
// dependency links are always resolvable when needed"). On the first
// callable that errors, already-completed callables remain built on the
// platform and reusable on the next compile (§7 "Partial success").
func (p *Planner) Plan(ctx context.Context, b *bundle.Bundle) (map[string]StepResult, error) {
	if !b.Sealed() {
		return nil, core.NewError(fmt.Errorf("planner: bundle is not sealed"), core.ErrorInternal, nil)
	}
	names := b.Dependencies()
	callables := b.Callables()

	done := make(map[string]chan struct{}, len(names))
	for _, n := range names {
		done[n] = make(chan struct{})
	}

	var mu sync.Mutex
	results := make(map[string]StepResult, len(names))
	execs := make(map[string]*CompiledExecutable, len(names))

	concurrency := p.opts.PlannerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, name := range names {
		name := name
		callable := callables[name]
		waitFor := calleesOf(callable)
		g.Go(func() error {
			for _, dep := range waitFor {
				ch, ok := done[dep]
				if !ok {
					continue // dependency outside this bundle (shouldn't happen post-Seal)
				}
				select {
				case <-ch:
				case <-gctx.Done():
					return gctx.Err()
				}
			}

			mu.Lock()
			calleeRefs := calleeRefMap(callable, execs)
			mu.Unlock()

			step, exec, err := p.planOne(gctx, name, callable, calleeRefs)
			if err != nil {
				return err
			}

			mu.Lock()
			if wf, ok := callable.(*ir.Workflow); ok {
				exec.DependencyLinks = make(map[string]platform.Ref, len(wf.Callees()))
				for _, callee := range wf.Callees() {
					if dep, ok := execs[callee]; ok {
						exec.DependencyLinks[callee] = dep.PlatformObjectID
					}
				}
			}
			results[name] = step
			execs[name] = exec
			mu.Unlock()
			close(done[name])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func calleesOf(c ir.Callable) []string {
	if wf, ok := c.(*ir.Workflow); ok {
		return wf.Callees()
	}
	return nil
}

// calleeRefMap resolves wf's distinct callee names to the platform object
// ids the Planner has already compiled them as, for RenderWorkflow to
// substitute into each stage in place of the bare callee name (§9 DESIGN
// NOTES: workflows reference callees by name, not by reference).
func calleeRefMap(c ir.Callable, execs map[string]*CompiledExecutable) map[string]string {
	wf, ok := c.(*ir.Workflow)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(wf.Callees()))
	for _, name := range wf.Callees() {
		if exec, ok := execs[name]; ok {
			out[name] = exec.PlatformObjectID.ObjectID
		}
	}
	return out
}

func (p *Planner) planOne(
	ctx context.Context,
	name string,
	callable ir.Callable,
	calleeRefs map[string]string,
) (StepResult, *CompiledExecutable, error) {
	if app, ok := callable.(*ir.Application); ok && app.IsNative() {
		return p.resolveNative(ctx, name, app)
	}

	request, classHint, err := p.render(callable, calleeRefs)
	if err != nil {
		return StepResult{}, nil, err
	}
	rendered, checksum := digest.Compute(request, p.opts)

	exact, err := p.dir.LookupInProject(name, checksum)
	if err != nil {
		return StepResult{}, nil, err
	}
	if exact != nil {
		exec := &CompiledExecutable{Callable: callable, PlatformObjectID: exact.PlatformObjectID}
		return StepResult{Name: name, Action: ActionReuse, Executable: exec, Digest: checksum}, exec, nil
	}

	existing := p.dir.Lookup(name)
	action := ActionBuildNew
	if len(existing) > 0 {
		action, err = p.resolveConflict(ctx, name, checksum, existing)
		if err != nil {
			return StepResult{}, nil, err
		}
	}

	ref, err := p.client.Create(ctx, classHint, platform.BuildRequest(rendered))
	if err != nil {
		return StepResult{}, nil, core.NewError(err, core.ErrorPlatformError, map[string]any{"callable": name})
	}
	if classHint == platform.ClassWorkflow && !p.opts.LeaveWorkflowsOpen {
		if err := p.client.Close(ctx, ref); err != nil {
			return StepResult{}, nil, core.NewError(err, core.ErrorPlatformError, map[string]any{"callable": name})
		}
	}
	p.dir.Insert(name, ref, checksum, classHint)

	exec := &CompiledExecutable{Callable: callable, PlatformObjectID: ref}
	return StepResult{Name: name, Action: action, Executable: exec, Digest: checksum}, exec, nil
}

// resolveConflict applies the archive/force-delete/strict policy (§4.K
// step 4) when records exist under name but none match checksum exactly.
func (p *Planner) resolveConflict(
	ctx context.Context,
	name, checksum string,
	existing []objdir.ObjectRecord,
) (Action, error) {
	switch p.opts.ConflictPolicy {
	case config.ConflictArchive:
		if err := p.dir.Archive(ctx, existing); err != nil {
			return "", err
		}
		return ActionArchiveThenBuild, nil
	case config.ConflictForceDelete:
		if err := p.dir.Remove(ctx, existing); err != nil {
			return "", err
		}
		return ActionDeleteThenBuild, nil
	case config.ConflictStrict:
		return "", core.NewError(
			fmt.Errorf("executable %q exists with a different digest than %q under the strict conflict policy", name, checksum),
			core.ErrorExecutableConflictError,
			map[string]any{"callable": name, "digest": checksum},
		)
	default:
		return "", core.NewError(
			fmt.Errorf("unknown conflict policy %q", p.opts.ConflictPolicy),
			core.ErrorConfigurationError,
			map[string]any{"policy": string(p.opts.ConflictPolicy)},
		)
	}
}

func (p *Planner) resolveNative(
	ctx context.Context,
	name string,
	app *ir.Application,
) (StepResult, *CompiledExecutable, error) {
	resolved, err := p.client.Resolve(ctx, app.Kind.NativeRef)
	if err != nil {
		return StepResult{}, nil, core.NewError(err, core.ErrorPlatformError, map[string]any{"callable": name})
	}
	exec := &CompiledExecutable{Callable: app, PlatformObjectID: resolved.Ref}
	return StepResult{Name: name, Action: ActionResolveNative, Executable: exec}, exec, nil
}

func (p *Planner) render(callable ir.Callable, calleeRefs map[string]string) (map[string]any, platform.ClassHint, error) {
	switch v := callable.(type) {
	case *ir.Application:
		return ir.RenderApplication(v, p.opts), platform.ClassApplet, nil
	case *ir.Workflow:
		return ir.RenderWorkflow(v, calleeRefs, p.opts), platform.ClassWorkflow, nil
	default:
		return nil, "", core.NewError(
			fmt.Errorf("planner: unknown callable type %T for %q", callable, callable.CallableName()),
			core.ErrorInternal,
			nil,
		)
	}
}
