// Package reconcile keeps section documents and store records consistent.
//
// A reconciliation runs in one of three directions. document_to_store imports
// document entities into the store and never deletes records.
// store_to_document rewrites the managed region of the document from the
// store. bidirectional picks between the two based on which side changed
// since the last sync.
package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nexus/internal/document"
	"nexus/internal/logging"
	"nexus/internal/manual"
	"nexus/internal/metrics"
	"nexus/internal/model"
	"nexus/internal/repository"
	"nexus/internal/staleness"
	"nexus/internal/storage"
)

// Options controls one reconciliation.
type Options struct {
	Direction          model.Direction          `json:"direction"`
	DryRun             bool                     `json:"dry_run"`
	ConflictResolution model.ConflictResolution `json:"conflict_resolution"`

	// Content is used in place of the stored document text. The document
	// store is still only written by the store_to_document step.
	Content *string `json:"content,omitempty"`
}

// Stores groups the record repositories bound to sections.
type Stores struct {
	Projects repository.ProjectRepository
	Services repository.ServiceRepository
	Usage    repository.UsageRepository
}

// Engine reconciles sections. It holds no state between calls.
type Engine struct {
	docs     storage.DocumentStore
	tracker  *staleness.Tracker
	bindings map[model.Section]sectionBinding
	locker   repository.SectionLocker
	metrics  *metrics.Sync
	log      *logging.Logger
	tracer   trace.Tracer
	newID    IDFunc
}

// Option customises an Engine.
type Option func(*Engine)

// WithLocker serializes reconciliations of a section through l.
func WithLocker(l repository.SectionLocker) Option { return func(e *Engine) { e.locker = l } }

// WithMetrics records every result on m.
func WithMetrics(m *metrics.Sync) Option { return func(e *Engine) { e.metrics = m } }

// WithLogger sets the logger; the default discards output.
func WithLogger(l *logging.Logger) Option { return func(e *Engine) { e.log = l } }

// WithIDFunc replaces NewID.
func WithIDFunc(f IDFunc) Option { return func(e *Engine) { e.newID = f } }

// NewEngine wires an Engine. Sections whose store is nil are treated as
// document-only.
func NewEngine(docs storage.DocumentStore, tracker *staleness.Tracker, stores Stores, opts ...Option) *Engine {
	e := &Engine{
		docs:     docs,
		tracker:  tracker,
		bindings: make(map[model.Section]sectionBinding),
		log:      logging.Nop(),
		tracer:   otel.Tracer("nexus/reconcile"),
		newID:    NewID,
	}
	if stores.Projects != nil {
		e.bindings[model.SectionProjects] = binding[model.Project]{repo: stores.Projects, codec: projectCodec{}}
	}
	if stores.Services != nil {
		e.bindings[model.SectionServices] = binding[model.Service]{repo: stores.Services, codec: serviceCodec{}}
	}
	if stores.Usage != nil {
		e.bindings[model.SectionUsageLimits] = binding[model.UsageMetric]{repo: stores.Usage, codec: usageCodec{}}
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Reconcile runs one reconciliation of section.
//
// Request-level problems are returned as errors: an unknown direction or
// conflict resolution (model.ErrValidation) or a section already being
// synced (model.ErrConflict).
// Section-level failures such as a missing document or an unreachable store
// are reported in the result with Success false; per-entity failures are
// listed in Errors with Success true.
func (e *Engine) Reconcile(ctx context.Context, section model.Section, opts Options) (*model.SyncResult, error) {
	dir, err := model.ParseDirection(string(opts.Direction))
	if err != nil {
		return nil, err
	}
	resolution, err := model.ParseConflictResolution(string(opts.ConflictResolution))
	if err != nil {
		return nil, err
	}
	if _, err := model.ParseSection(string(section)); err != nil {
		return nil, err
	}

	if e.locker != nil {
		release, err := e.locker.TryLock(ctx, section)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	ctx, span := e.tracer.Start(ctx, "reconcile "+string(section), trace.WithAttributes(
		attribute.String("nexus.section", string(section)),
		attribute.String("nexus.direction", string(dir)),
		attribute.Bool("nexus.dry_run", opts.DryRun),
		attribute.String("nexus.conflict_resolution", string(resolution)),
	))
	defer span.End()

	start := time.Now()
	r := &run{
		res: &model.SyncResult{
			Section:   section,
			Direction: dir,
			Success:   true,
			DryRun:    opts.DryRun,
			Counts:    map[model.EntityType]model.Counts{},
			Created:   []string{},
			Updated:   []string{},
			Conflicts: []model.Conflict{},
			Errors:    []string{},
		},
		dryRun:     opts.DryRun,
		now:        e.tracker.Now(),
		newID:      e.newID,
		resolution: resolution,
		content:    opts.Content,
	}
	if b, ok := e.bindings[section]; ok {
		r.res.Counts[b.entityType()] = model.Counts{}
	}

	etag, fatal := e.dispatch(ctx, section, dir, r)
	if fatal == nil && !opts.DryRun {
		_, fatal = e.tracker.MarkSynced(ctx, section, etag, strings.Join(r.res.Errors, "; "))
	}
	if fatal != nil {
		r.res.Success = false
		r.res.Errors = append(r.res.Errors, fatal.Error())
		span.RecordError(fatal)
		span.SetStatus(codes.Error, fatal.Error())
		if !opts.DryRun {
			if err := e.tracker.MarkFailed(ctx, section, fatal.Error()); err != nil {
				e.log.Error("sync_state_update_failed", err, map[string]any{"section": section})
			}
		}
	}

	r.res.Timestamp = r.now
	r.res.DurationMS = time.Since(start).Milliseconds()
	e.metrics.ObserveResult(r.res)
	e.logResult(r.res)
	return r.res, nil
}

func (e *Engine) dispatch(ctx context.Context, section model.Section, dir model.Direction, r *run) (string, error) {
	b, bound := e.bindings[section]
	if !bound {
		return e.documentOnly(ctx, section, r)
	}
	st, err := e.tracker.State(ctx, section)
	if err != nil {
		return "", err
	}
	if st != nil {
		r.lastSync = st.LastSync
	}
	switch dir {
	case model.DocumentToStore:
		return e.documentToStore(ctx, section, b, r)
	case model.StoreToDocument:
		return e.storeToDocument(ctx, section, b, r)
	default:
		return e.bidirectional(ctx, section, b, r)
	}
}

// readDocument returns the document text of section, or the content
// supplied with the request.
func (e *Engine) readDocument(ctx context.Context, section model.Section, r *run) (string, error) {
	if r.content != nil {
		return *r.content, nil
	}
	return e.docs.Read(ctx, section)
}

func (e *Engine) documentToStore(ctx context.Context, section model.Section, b sectionBinding, r *run) (string, error) {
	text, err := e.readDocument(ctx, section, r)
	if err != nil {
		return "", err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return "", err
	}
	if err := b.toStore(ctx, doc.Entities, r); err != nil {
		return "", err
	}
	return ETag(text), nil
}

func (e *Engine) storeToDocument(ctx context.Context, section model.Section, b sectionBinding, r *run) (string, error) {
	base, current, err := e.currentDocument(ctx, section, r)
	if err != nil {
		return "", err
	}
	entities, err := b.entities(ctx)
	if err != nil {
		return "", err
	}
	entities = keepUnapplied(entities, r.unapplied)
	var out *document.Document
	if base == nil {
		out = &document.Document{Preamble: b.preamble(), Entities: entities}
	} else {
		out = base.WithEntities(entities)
	}
	text := document.Render(out)
	if text != current && !r.dryRun {
		if err := e.docs.Write(ctx, section, text); err != nil {
			return "", err
		}
	}
	return ETag(text), nil
}

// currentDocument returns the parsed document and its text. A missing
// document yields (nil, "", nil); an unparseable one is noted in r and
// treated as missing.
func (e *Engine) currentDocument(ctx context.Context, section model.Section, r *run) (*document.Document, string, error) {
	text, err := e.readDocument(ctx, section, r)
	if errors.Is(err, model.ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	doc, err := document.Parse(text)
	if err != nil {
		r.fail("document unparseable (%v); regenerated from store", err)
		return nil, text, nil
	}
	return doc, text, nil
}

func (e *Engine) bidirectional(ctx context.Context, section model.Section, b sectionBinding, r *run) (string, error) {
	text, err := e.readDocument(ctx, section, r)
	if errors.Is(err, model.ErrNotFound) {
		return e.storeToDocument(ctx, section, b, r)
	}
	if err != nil {
		return "", err
	}
	doc, err := document.Parse(text)
	if err != nil {
		return e.storeToDocument(ctx, section, b, r)
	}

	newer, err := e.storeNewer(ctx, b, r)
	if err != nil {
		return "", err
	}
	if !newer {
		if err := b.toStore(ctx, doc.Entities, r); err != nil {
			return "", err
		}
	}
	return e.storeToDocument(ctx, section, b, r)
}

// storeNewer reports whether a record changed after the last sync. A
// section that was never synced is not considered newer, so its document
// is imported first.
func (e *Engine) storeNewer(ctx context.Context, b sectionBinding, r *run) (bool, error) {
	if r.lastSync == nil {
		return false, nil
	}
	latest, err := b.newest(ctx)
	if err != nil {
		return false, err
	}
	return latest.After(*r.lastSync), nil
}

// keepUnapplied puts entities the store did not take back among the
// rendered ones. An entity whose record failed to update replaces that
// record's entity; any other goes after the last entity of its group.
func keepUnapplied(entities []document.Entity, skipped []unapplied) []document.Entity {
	if len(skipped) == 0 {
		return entities
	}
	out := slices.Clone(entities)
	for _, u := range skipped {
		ent := u.entity
		if u.id != "" {
			i := slices.IndexFunc(out, func(x document.Entity) bool { return x.Attr("id") == u.id })
			if i >= 0 {
				attrs := make(map[string]string, len(ent.Attrs)+1)
				for k, v := range ent.Attrs {
					attrs[k] = v
				}
				attrs["id"] = u.id
				ent.Attrs = attrs
				ent.Group = out[i].Group
				out[i] = ent
				continue
			}
		}
		at := len(out)
		for i := len(out) - 1; i >= 0; i-- {
			if out[i].Group == ent.Group {
				at = i + 1
				break
			}
		}
		out = slices.Insert(out, at, ent)
	}
	return out
}

// documentOnly validates documents that have no store binding. A missing
// document is reported but does not fail the section.
func (e *Engine) documentOnly(ctx context.Context, section model.Section, r *run) (string, error) {
	text, err := e.readDocument(ctx, section, r)
	if errors.Is(err, model.ErrNotFound) {
		r.fail("%s document not found", section)
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if _, err := document.Parse(text); err != nil {
		return "", err
	}
	if section == model.SectionOperationsManual && len(manual.Split(text)) == 0 {
		r.fail("operations manual has no \"## \" sections")
	}
	return ETag(text), nil
}

// ReconcileAll runs Reconcile for every section in order. A section that
// cannot start (locked) is reported as failed and the others still run.
// Options.Content names a single document and is ignored here.
func (e *Engine) ReconcileAll(ctx context.Context, opts Options) (*model.AllResult, error) {
	if _, err := model.ParseDirection(string(opts.Direction)); err != nil {
		return nil, err
	}
	if _, err := model.ParseConflictResolution(string(opts.ConflictResolution)); err != nil {
		return nil, err
	}
	opts.Content = nil
	start := time.Now()
	all := &model.AllResult{
		Success: true,
		Results: make(map[model.Section]*model.SyncResult, len(model.Sections)),
		Errors:  []string{},
	}
	for _, s := range model.Sections {
		res, err := e.Reconcile(ctx, s, opts)
		if err != nil {
			res = &model.SyncResult{
				Section:   s,
				Direction: opts.Direction,
				DryRun:    opts.DryRun,
				Counts:    map[model.EntityType]model.Counts{},
				Created:   []string{},
				Updated:   []string{},
				Conflicts: []model.Conflict{},
				Errors:    []string{err.Error()},
				Timestamp: e.tracker.Now(),
			}
		}
		all.Results[s] = res
		if !res.Success {
			all.Success = false
			all.Errors = append(all.Errors, fmt.Sprintf("%s: %s", s, res.Errors[len(res.Errors)-1]))
		}
	}
	all.DurationMS = time.Since(start).Milliseconds()
	all.Timestamp = e.tracker.Now()
	return all, nil
}

func (e *Engine) logResult(res *model.SyncResult) {
	fields := map[string]any{
		"component":   "sync",
		"section":     res.Section,
		"direction":   res.Direction,
		"dry_run":     res.DryRun,
		"created":     len(res.Created),
		"updated":     len(res.Updated),
		"conflicts":   len(res.Conflicts),
		"errors":      len(res.Errors),
		"duration_ms": res.DurationMS,
	}
	switch {
	case !res.Success:
		e.log.Error("sync_failed", errors.New(res.Errors[len(res.Errors)-1]), fields)
	case len(res.Errors) > 0:
		e.log.Warn("sync_partial", fields)
	default:
		e.log.Info("sync_completed", fields)
	}
}

// ETag is the hex sha256 of a document's text.
func ETag(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
