// Package platform defines the compiler core's external-collaborator
// boundary (§6): the subset of the target cloud execution platform's API
// the Object Directory (§4.J) and Build Planner (§4.K) call — resolving
// paths, describing and creating executables, closing workflows, finding
// data objects by property, and archiving/removing stale ones. Every
// interface here is narrow and single-purpose, matching the teacher's
// engine/infra/cache.KV/Lists/Hashes split rather than one fat client
// interface.
package platform

import (
	"context"
	"time"
)

// ClassHint tags whether a platform object is an applet or a workflow,
// per spec §3's ObjectRecord shape.
type ClassHint string

const (
	ClassApplet   ClassHint = "Applet"
	ClassWorkflow ClassHint = "Workflow"
)

// ObjectKind tags what a resolved path or describe result refers to.
type ObjectKind string

const (
	ObjectProject  ObjectKind = "Project"
	ObjectFolder   ObjectKind = "Folder"
	ObjectApplet   ObjectKind = "Applet"
	ObjectWorkflow ObjectKind = "Workflow"
	ObjectFile     ObjectKind = "File"
	ObjectRecord   ObjectKind = "Record"
)

// Ref identifies a platform object: an opaque object id scoped to a
// project.
type Ref struct {
	ProjectID string
	ObjectID  string
}

// Resolved is what Resolver.Resolve returns for a native reference or a
// project/folder path (§4.K step 1: "If it is a native reference, resolve
// to an existing platform object and record the link").
type Resolved struct {
	Ref  Ref
	Kind ObjectKind
}

// Description is the subset of a platform object's metadata the Build
// Planner and Object Directory need: its build digest (if any, stored
// under the reserved checksum property), creation time, and containing
// folder.
type Description struct {
	Ref         Ref
	Name        string
	Folder      string
	Digest      string // empty if the object carries no checksum property
	CreatedDate time.Time
	ClassHint   ClassHint
}

// BuildRequest is the JSON object the Digest Engine (§4.I) canonicalizes
// and the Creator sends verbatim to applet-new/workflow-new.
type BuildRequest map[string]any

// Resolver resolves a native reference or a project/folder path to an
// existing platform object.
type Resolver interface {
	Resolve(ctx context.Context, path string) (Resolved, error)
}

// Describer reads an existing platform object's metadata, including its
// checksum property if present.
type Describer interface {
	Describe(ctx context.Context, ref Ref) (Description, error)
}

// Creator builds a new applet or workflow from a rendered BuildRequest
// (§4.F/§4.G's translation output, serialized). kind selects applet-new
// vs workflow-new.
type Creator interface {
	Create(ctx context.Context, kind ClassHint, req BuildRequest) (Ref, error)
}

// Closer finalizes a newly built workflow so its stages become immutable,
// unless the caller configured leaveWorkflowsOpen (§6).
type Closer interface {
	Close(ctx context.Context, ref Ref) error
}

// Finder queries data objects under a folder (and, if configured,
// project-wide) by a property key, used by the Object Directory to
// populate its lookup cache in one call per folder (§4.J).
type Finder interface {
	FindDataObjects(ctx context.Context, folder string, propertyKey string, projectWide bool) ([]Description, error)
}

// Archiver moves stale platform objects out of the active folder without
// deleting them, per the "archive" conflict policy (§4.K, §6).
type Archiver interface {
	Archive(ctx context.Context, refs []Ref) error
}

// Remover permanently deletes platform objects, per the "force-delete"
// conflict policy (§4.K, §6).
type Remover interface {
	Remove(ctx context.Context, refs []Ref) error
}

// Client is the full platform API surface the Object Directory and Build
// Planner depend on. Implementations compose the narrower interfaces
// above; RetryingClient wraps any Client to retry transient faults.
type Client interface {
	Resolver
	Describer
	Creator
	Closer
	Finder
	Archiver
	Remover
}
