// Package engine ties recognition, attendance and synchronization
// together on a device. It owns the in-memory matcher built from the
// local identity cache and applies every state change through the local
// store first, so the device keeps working with no server in reach.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/faceguard/faceguard/internal/attendance"
	"github.com/faceguard/faceguard/internal/config"
	"github.com/faceguard/faceguard/internal/duplicate"
	"github.com/faceguard/faceguard/internal/identity"
	"github.com/faceguard/faceguard/internal/match"
	"github.com/faceguard/faceguard/internal/store"
	"github.com/faceguard/faceguard/internal/syncer"
	"github.com/faceguard/faceguard/internal/vision"
)

type Engine struct {
	mu       sync.Mutex
	cfg      *config.Config
	local    *store.Local
	sync     *syncer.Syncer // nil when no remote is configured
	source   vision.Source  // nil when running without a camera
	resolver *duplicate.Resolver
	matcher  *match.Matcher
	clientID string
	now      func() time.Time
}

func New(cfg *config.Config, local *store.Local, sync *syncer.Syncer, source vision.Source) (*Engine, error) {
	clientID, err := local.ClientID()
	if err != nil {
		return nil, fmt.Errorf("client id: %w", err)
	}
	e := &Engine{
		cfg:      cfg,
		local:    local,
		sync:     sync,
		source:   source,
		resolver: duplicate.NewResolver(cfg.Matcher.DuplicateThreshold),
		clientID: clientID,
		now:      time.Now,
	}
	e.reloadLocked()
	return e, nil
}

// reloadLocked rebuilds the matcher from the local identity cache.
// Callers must hold e.mu.
func (e *Engine) reloadLocked() {
	e.matcher = match.New(e.local.Identities(),
		match.WithThreshold(e.cfg.Matcher.MatchThreshold),
		match.WithIndex(e.cfg.Matcher.IndexMinIdentities),
	)
}

// Reload rebuilds the matcher, picking up identities written by another
// component (sync, enrollment, admin edits).
func (e *Engine) Reload() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reloadLocked()
}

// Size reports how many identities the current matcher knows.
func (e *Engine) Size() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matcher.Size()
}

// Recognize matches a probe embedding without recording attendance.
func (e *Engine) Recognize(probe identity.Embedding) (match.Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.matcher.Match(probe)
}

// Event is the outcome of one recognition that was applied to the
// attendance book. Record is nil when the probe matched nobody.
type Event struct {
	Result match.Result
	Record *attendance.Record
	Day    string
}

// Mark matches a probe and, on a hit, applies one attendance event for
// today. The first event of a day creates the record, later ones extend
// lastSeen, and explicit intents stamp the manual in/out times.
func (e *Engine) Mark(probe identity.Embedding, intent attendance.Intent) (Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, err := e.matcher.Match(probe)
	if err != nil {
		return Event{}, err
	}
	if res.Unknown {
		return Event{Result: res}, nil
	}

	now := e.now()
	day := attendance.DayKey(now)
	var rec attendance.Record
	err = e.local.UpdateDay(day, func(book attendance.Book) {
		rec = book.Mark(res.Identity.Name, res.Identity.Entity, intent, e.clientID, now)
	})
	if err != nil {
		return Event{}, fmt.Errorf("save attendance: %w", err)
	}
	return Event{Result: res, Record: &rec, Day: day}, nil
}

// DetectCycle captures one frame from the vision source, picks the most
// prominent face above the capture score and records its attendance.
// Returns nil when no acceptable face is in view.
func (e *Engine) DetectCycle(ctx context.Context, intent attendance.Intent) (*Event, error) {
	if e.source == nil {
		return nil, nil
	}
	detections, err := e.source.Detect(ctx)
	if err != nil {
		return nil, fmt.Errorf("detect: %w", err)
	}
	best := vision.BestFace(detections, e.cfg.Agent.MinCaptureScore)
	if best == nil {
		return nil, nil
	}
	ev, err := e.Mark(best.Embedding, intent)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// SyncCycle runs one synchronization pass and rebuilds the matcher with
// whatever the exchange brought in. A no-op without a remote.
func (e *Engine) SyncCycle(ctx context.Context) {
	if e.sync == nil {
		return
	}
	e.sync.Cycle(ctx, attendance.DayKey(e.now()))
	e.Reload()
}

// Shutdown performs the final push so a device going away does not
// strand today's records.
func (e *Engine) Shutdown(ctx context.Context) {
	if e.sync == nil {
		return
	}
	e.sync.Cycle(ctx, attendance.DayKey(e.now()))
}

// ScanDuplicates runs the retroactive duplicate scan over all known
// identities and persists newly flagged records.
func (e *Engine) ScanDuplicates(ctx context.Context, progress duplicate.Progress) (duplicate.ScanResult, error) {
	res, err := e.resolver.Scan(ctx, e.local.Identities(), progress)
	if err != nil {
		return res, err
	}
	if res.Flagged > 0 {
		if err := e.local.SaveIdentities(res.Identities); err != nil {
			return res, fmt.Errorf("save flagged identities: %w", err)
		}
		e.Reload()
	}
	return res, nil
}
