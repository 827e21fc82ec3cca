package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nexus/internal/document"
	"nexus/internal/model"
	"nexus/internal/repository"
)

// sectionBinding is a section backed by one store record type.
type sectionBinding interface {
	entityType() model.EntityType
	preamble() []string
	// newest returns the latest updated_at of the section's records.
	newest(ctx context.Context) (time.Time, error)
	// toStore applies entities to the store, recording outcomes in r.
	toStore(ctx context.Context, entities []document.Entity, r *run) error
	// entities renders the current store records in document order.
	entities(ctx context.Context) ([]document.Entity, error)
}

// run carries the per-reconciliation state shared by bindings.
type run struct {
	res        *model.SyncResult
	dryRun     bool
	now        time.Time
	newID      IDFunc
	lastSync   *time.Time
	resolution model.ConflictResolution
	// content replaces the stored document text when set.
	content *string
	// unapplied are document entities the store did not take. They are
	// written back so the next store_to_document keeps the user's text.
	unapplied []unapplied
}

type unapplied struct {
	// id is the matched record, empty when the entity matched nothing it
	// could claim.
	id     string
	entity document.Entity
}

// conflicting reports whether a record updated at t changed since the last
// sync. Every record of a never-synced section may conflict.
func (r *run) conflicting(t time.Time) bool {
	return r.lastSync == nil || t.After(*r.lastSync)
}

func (r *run) skip(id string, e document.Entity) {
	r.unapplied = append(r.unapplied, unapplied{id: id, entity: e})
}

func (r *run) counts(et model.EntityType) model.Counts { return r.res.Counts[et] }

func (r *run) setCounts(et model.EntityType, c model.Counts) { r.res.Counts[et] = c }

func (r *run) fail(format string, args ...any) {
	r.res.Errors = append(r.res.Errors, fmt.Sprintf(format, args...))
}

type binding[T any] struct {
	repo  repository.EntityRepository[T]
	codec codec[T]
}

func (b binding[T]) entityType() model.EntityType { return b.codec.entityType() }

func (b binding[T]) preamble() []string { return b.codec.preamble() }

func (b binding[T]) list(ctx context.Context) ([]T, error) {
	recs, err := b.repo.List(ctx)
	if err != nil {
		return nil, &model.StoreError{Op: fmt.Sprintf("list %ss", b.codec.entityType()), Err: err}
	}
	return recs, nil
}

func (b binding[T]) newest(ctx context.Context) (time.Time, error) {
	recs, err := b.list(ctx)
	if err != nil {
		return time.Time{}, err
	}
	var latest time.Time
	for i := range recs {
		if u := b.codec.updatedAt(&recs[i]); u.After(latest) {
			latest = u
		}
	}
	return latest, nil
}

func (b binding[T]) entities(ctx context.Context) ([]document.Entity, error) {
	recs, err := b.list(ctx)
	if err != nil {
		return nil, err
	}
	return b.codec.layout(recs), nil
}

func (b binding[T]) toStore(ctx context.Context, entities []document.Entity, r *run) error {
	recs, err := b.list(ctx)
	if err != nil {
		return err
	}

	et := b.codec.entityType()
	byID := make(map[string]*T, len(recs))
	byTitle := make(map[string]*T, len(recs))
	for i := range recs {
		rec := &recs[i]
		byID[b.codec.id(rec)] = rec
		if t := b.codec.title(rec); byTitle[t] == nil {
			byTitle[t] = rec
		}
	}
	taken := make(map[string]bool, len(recs))
	for id := range byID {
		taken[id] = true
	}
	claimed := make(map[string]int)

	for _, e := range entities {
		rec := byID[e.Attr("id")]
		if rec == nil {
			rec = byTitle[e.Title]
		}

		if rec == nil {
			id := e.Attr("id")
			if id == "" || taken[id] {
				id = uniqueID(r.newID, b.codec.idPrefix(), r.now, taken)
			}
			created, err := b.create(ctx, e, id, r)
			if err != nil {
				r.fail("%s %q (line %d): %v", et, e.Title, e.Line, err)
				r.skip("", e)
				continue
			}
			taken[id] = true
			byID[id] = created
			if byTitle[e.Title] == nil {
				byTitle[e.Title] = created
			}
			claimed[id] = e.Line
			continue
		}

		id := b.codec.id(rec)
		if line, dup := claimed[id]; dup {
			r.fail("%s %q (line %d): matches %s already synced from line %d; skipped", et, e.Title, e.Line, id, line)
			r.skip("", e)
			continue
		}
		claimed[id] = e.Line

		next, fields, err := b.codec.merge(*rec, e, r.now)
		if err != nil {
			r.fail("%s %q (line %d): %v", et, e.Title, e.Line, err)
			r.skip(id, e)
			continue
		}
		if len(fields) == 0 {
			c := r.counts(et)
			c.Unchanged++
			r.setCounts(et, c)
			continue
		}
		if r.conflicting(b.codec.updatedAt(rec)) && !r.resolve(et, id, e, fields) {
			continue
		}
		if !r.dryRun {
			if _, err := b.repo.Update(ctx, &next); err != nil {
				r.fail("%s %q (line %d): update %s: %v", et, e.Title, e.Line, id, err)
				r.skip(id, e)
				continue
			}
		}
		c := r.counts(et)
		c.Updated++
		r.setCounts(et, c)
		r.res.Updated = append(r.res.Updated, id)
		*rec = next
	}
	return nil
}

// resolve records a conflict on record id and reports whether the document
// version should be applied.
func (r *run) resolve(et model.EntityType, id string, e document.Entity, fields []string) bool {
	cf := model.Conflict{EntityType: et, ID: id, Title: e.Title, Line: e.Line, Fields: fields}
	switch r.resolution {
	case model.PreferStore:
		cf.Resolution = model.KeptStore
		cf.Reason = "store version preferred by conflict resolution strategy"
	case model.ResolveManually:
		cf.Resolution = model.KeptStore
		cf.Reason = "manual resolution required; store version kept"
		r.fail("%s %q (line %d): conflict on %s; manual resolution required", et, e.Title, e.Line, strings.Join(fields, ", "))
	default:
		cf.Resolution = model.KeptDocument
		cf.Reason = "document version preferred by conflict resolution strategy"
	}
	r.res.Conflicts = append(r.res.Conflicts, cf)
	c := r.counts(et)
	c.Conflicts++
	r.setCounts(et, c)
	return cf.Resolution == model.KeptDocument
}

func (b binding[T]) create(ctx context.Context, e document.Entity, id string, r *run) (*T, error) {
	rec, err := b.codec.create(e, id, r.now)
	if err != nil {
		return nil, err
	}
	if !r.dryRun {
		stored, err := b.repo.Create(ctx, rec)
		if err != nil {
			return nil, fmt.Errorf("create: %w", err)
		}
		if stored != nil {
			rec = stored
		}
	}
	et := b.codec.entityType()
	c := r.counts(et)
	c.Created++
	r.setCounts(et, c)
	r.res.Created = append(r.res.Created, id)
	return rec, nil
}
