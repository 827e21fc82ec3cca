package staleness

import (
	"context"
	"fmt"
	"time"

	"nexus/internal/model"
	"nexus/internal/repository"
)

// Tracker reads and records section sync timestamps.
type Tracker struct {
	states repository.SyncStateRepository
	now    func() time.Time
}

// NewTracker returns a Tracker using now as its clock; nil means time.Now.
func NewTracker(states repository.SyncStateRepository, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{states: states, now: now}
}

// Now returns the tracker's current time in UTC.
func (t *Tracker) Now() time.Time { return t.now().UTC() }

// State returns the stored state of a section, nil when never synced.
func (t *Tracker) State(ctx context.Context, section model.Section) (*model.SyncState, error) {
	st, err := t.states.Get(ctx, section)
	if err != nil {
		return nil, &model.StoreError{Op: "get sync state", Err: err}
	}
	return st, nil
}

// Check returns the staleness of one section.
func (t *Tracker) Check(ctx context.Context, section model.Section) (model.StalenessCheck, error) {
	st, err := t.State(ctx, section)
	if err != nil {
		return model.StalenessCheck{}, err
	}
	return Check(section, st, t.Now()), nil
}

// States returns the stored state of every section that has one.
func (t *Tracker) States(ctx context.Context) (map[model.Section]*model.SyncState, error) {
	states, err := t.states.List(ctx)
	if err != nil {
		return nil, &model.StoreError{Op: "list sync states", Err: err}
	}
	bySection := make(map[model.Section]*model.SyncState, len(states))
	for i := range states {
		bySection[states[i].Section] = &states[i]
	}
	return bySection, nil
}

// CheckAll returns the staleness of every known section in model.Sections order.
func (t *Tracker) CheckAll(ctx context.Context) ([]model.StalenessCheck, error) {
	bySection, err := t.States(ctx)
	if err != nil {
		return nil, err
	}
	return t.CheckStates(bySection), nil
}

// CheckStates derives checks for every known section from already loaded states.
func (t *Tracker) CheckStates(bySection map[model.Section]*model.SyncState) []model.StalenessCheck {
	now := t.Now()
	checks := make([]model.StalenessCheck, 0, len(model.Sections))
	for _, s := range model.Sections {
		checks = append(checks, Check(s, bySection[s], now))
	}
	return checks
}

// MarkSynced stamps the section as synced now and returns that time.
func (t *Tracker) MarkSynced(ctx context.Context, section model.Section, etag, lastError string) (time.Time, error) {
	now := t.Now()
	if err := t.states.MarkSynced(ctx, section, now, etag, lastError); err != nil {
		return time.Time{}, &model.StoreError{Op: fmt.Sprintf("mark %s synced", section), Err: err}
	}
	return now, nil
}

// MarkFailed records a fatal error without moving the sync timestamp.
func (t *Tracker) MarkFailed(ctx context.Context, section model.Section, lastError string) error {
	if err := t.states.MarkFailed(ctx, section, lastError); err != nil {
		return &model.StoreError{Op: fmt.Sprintf("mark %s failed", section), Err: err}
	}
	return nil
}
