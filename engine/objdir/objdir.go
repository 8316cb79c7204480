// Package objdir implements the Object Directory (§4.J): a per-compile
// cache of already-published platform objects under the target folder,
// consulted by the Build Planner to decide reuse/archive/delete/build for
// each callable.
package objdir

import (
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/compozy/wfc/engine/core"
	"github.com/compozy/wfc/engine/platform"
)

// ChecksumPropertyKey is the reserved platform object property the
// Object Directory queries by, matching the Digest Engine's "Checksum"
// details key (§4.I).
const ChecksumPropertyKey = "Checksum"

// ObjectRecord is one already-published platform object matching a
// callable name, per spec §3.
type ObjectRecord struct {
	Name             string
	PlatformObjectID platform.Ref
	Digest           string
	CreatedDate      time.Time
	Folder           string
	ClassHint        platform.ClassHint
}

// Directory is populated by a single FindDataObjects query against the
// target folder (and, if configured, project-wide), then consulted and
// updated for the rest of one compile. The underlying LRU is safe for
// concurrent use, but Insert, Archive and Remove update a name's record
// list with an unlocked read-then-write, so concurrent mutation of the same
// name is not safe. The Planner may run several callables at once and
// mutates each callable's name only from the goroutine planning it.
type Directory struct {
	client      platform.Client
	folder      string
	projectWide bool
	cache       *lru.Cache[string, []ObjectRecord]
}

// New returns an unpopulated Directory. Call Load before any lookup.
// cacheSize bounds the number of distinct callable names cached at once;
// 0 uses a sensible default.
func New(client platform.Client, folder string, projectWide bool, cacheSize int) (*Directory, error) {
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	c, err := lru.New[string, []ObjectRecord](cacheSize)
	if err != nil {
		return nil, core.NewError(err, core.ErrorInternal, map[string]any{"cacheSize": cacheSize})
	}
	return &Directory{client: client, folder: folder, projectWide: projectWide, cache: c}, nil
}

// Load runs the one query against the target folder (§4.J: "Populated by
// one query ... for objects with a property under the reserved checksum
// key") and groups the results by name.
func (d *Directory) Load(ctx context.Context) error {
	descriptions, err := d.client.FindDataObjects(ctx, d.folder, ChecksumPropertyKey, d.projectWide)
	if err != nil {
		return core.NewError(err, core.ErrorPlatformError, map[string]any{"folder": d.folder})
	}
	byName := make(map[string][]ObjectRecord, len(descriptions))
	for _, desc := range descriptions {
		byName[desc.Name] = append(byName[desc.Name], ObjectRecord{
			Name:             desc.Name,
			PlatformObjectID: desc.Ref,
			Digest:           desc.Digest,
			CreatedDate:      desc.CreatedDate,
			Folder:           desc.Folder,
			ClassHint:        desc.ClassHint,
		})
	}
	for name, records := range byName {
		d.cache.Add(name, records)
	}
	return nil
}

// LookupInProject returns the ObjectRecord matching name and digest
// exactly, preferring (if somehow more than one exists) the most recently
// created, per §4.J's deterministic tie-break. Returns nil, nil if no
// record under name matches digest.
func (d *Directory) LookupInProject(name, digest string) (*ObjectRecord, error) {
	records, _ := d.cache.Get(name)
	var best *ObjectRecord
	for i := range records {
		r := &records[i]
		if r.Digest != digest {
			continue
		}
		if best == nil || r.CreatedDate.After(best.CreatedDate) {
			best = r
		}
	}
	return best, nil
}

// Lookup returns every ObjectRecord under name regardless of digest,
// newest first.
func (d *Directory) Lookup(name string) []ObjectRecord {
	records, _ := d.cache.Get(name)
	out := make([]ObjectRecord, len(records))
	copy(out, records)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedDate.After(out[j].CreatedDate) })
	return out
}

// Archive moves records out of the active folder via the platform API
// and drops them from the cache, per the "archive" conflict policy
// (§4.K).
func (d *Directory) Archive(ctx context.Context, records []ObjectRecord) error {
	if len(records) == 0 {
		return nil
	}
	refs := refsOf(records)
	if err := d.client.Archive(ctx, refs); err != nil {
		return core.NewError(err, core.ErrorPlatformError, map[string]any{"count": len(refs)})
	}
	d.evict(records)
	return nil
}

// Remove permanently deletes records via the platform API and drops them
// from the cache, per the "force-delete" conflict policy (§4.K).
func (d *Directory) Remove(ctx context.Context, records []ObjectRecord) error {
	if len(records) == 0 {
		return nil
	}
	refs := refsOf(records)
	if err := d.client.Remove(ctx, refs); err != nil {
		return core.NewError(err, core.ErrorPlatformError, map[string]any{"count": len(refs)})
	}
	d.evict(records)
	return nil
}

// Insert records a newly built object under name, so a later callable in
// the same compile that happens to share the name sees it without a
// fresh platform query (§4.J: "after a successful build, update the
// cache").
func (d *Directory) Insert(name string, id platform.Ref, digest string, class platform.ClassHint) {
	existing, _ := d.cache.Get(name)
	updated := append(existing, ObjectRecord{
		Name:             name,
		PlatformObjectID: id,
		Digest:           digest,
		CreatedDate:      time.Now(),
		Folder:           d.folder,
		ClassHint:        class,
	})
	d.cache.Add(name, updated)
}

func (d *Directory) evict(records []ObjectRecord) {
	byName := make(map[string]map[platform.Ref]bool, len(records))
	for _, r := range records {
		if byName[r.Name] == nil {
			byName[r.Name] = make(map[platform.Ref]bool)
		}
		byName[r.Name][r.PlatformObjectID] = true
	}
	for name, removed := range byName {
		existing, _ := d.cache.Get(name)
		kept := existing[:0:0]
		for _, r := range existing {
			if !removed[r.PlatformObjectID] {
				kept = append(kept, r)
			}
		}
		d.cache.Add(name, kept)
	}
}

func refsOf(records []ObjectRecord) []platform.Ref {
	refs := make([]platform.Ref, len(records))
	for i, r := range records {
		refs[i] = r.PlatformObjectID
	}
	return refs
}
