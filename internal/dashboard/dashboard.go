// Package dashboard owns the dashboard state: which dataset is displayed,
// where it came from, the calendar month and the selected day. Every
// mutation goes through the Orchestrator so that late fetch results can be
// discarded by sequence number.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"playdash/internal/cache"
	"playdash/internal/calendar"
	"playdash/internal/core"
	"playdash/internal/log"
	"playdash/internal/normalize"
	"playdash/internal/observability"
	"playdash/internal/upstream"
)

// Origin tells where the displayed dataset came from.
type Origin string

const (
	OriginNone          Origin = ""
	OriginNetwork       Origin = "network"
	OriginCache         Origin = "cache"
	OriginStaleCache    Origin = "stale-cache"
	OriginFallbackCache Origin = "fallback-cache"
)

var (
	// ErrSuperseded is returned for a fetch whose result was discarded
	// because a newer fetch of the same kind was applied first.
	ErrSuperseded = errors.New("result superseded by a newer fetch")
	// ErrNoData is returned when neither the network nor the cache can
	// provide a dataset.
	ErrNoData = errors.New("no dashboard data available")
)

// Sequence kinds, used as metric labels.
const (
	seqDataset  = "dataset"
	seqCalendar = "calendar"
)

// State is a snapshot of the dashboard.
type State struct {
	Dataset     core.CanonicalDataset `json:"dataset"`
	HasDataset  bool                  `json:"hasDataset"`
	Origin      Origin                `json:"origin"`
	FetchedAt   time.Time             `json:"fetchedAt"`
	Month       calendar.Month        `json:"-"`
	SelectedDay *core.Date            `json:"selectedDay,omitempty"`
	AppliedSeq  uint64                `json:"appliedSeq"`
	CalendarSeq uint64                `json:"calendarSeq"`
}

// RefreshRequester hands a background refresh to something else, such as a
// message queue consumed by the worker.
type RefreshRequester interface {
	RequestRefresh(ctx context.Context, reason string) error
}

// Options configures an Orchestrator. Source, Store and Normalizer are required.
type Options struct {
	Source     upstream.Source
	Store      cache.Store
	Normalizer *normalize.Normalizer
	Policy     cache.Policy
	Presenter  Presenter
	// Refresher receives background refresh requests. When nil the
	// refresh runs in-process.
	Refresher RefreshRequester

	PanelCacheSize int
	PanelCacheTTL  time.Duration
	// BackgroundTimeout bounds an in-process background refresh.
	BackgroundTimeout time.Duration

	Now    func() time.Time
	Logger *log.Logger
}

// Orchestrator coordinates fetching, caching and rendering.
type Orchestrator struct {
	source     upstream.Source
	store      cache.Store
	normalizer *normalize.Normalizer
	policy     cache.Policy
	presenter  Presenter
	refresher  RefreshRequester
	now        func() time.Time
	logger     *log.Logger

	bgTimeout time.Duration
	bg        sync.WaitGroup
	flight    singleflight.Group

	datasetSeq  atomic.Uint64
	calendarSeq atomic.Uint64

	mu    sync.Mutex
	state State
	// navMonth is the month of the latest calendar request. ShiftMonth
	// builds on it so overlapping navigations are not lost.
	navMonth         calendar.Month
	staleRequestedAt time.Time

	history   *cache.LRUCache[[]core.DailyRecord]
	monthly   *cache.LRUCache[[]core.MonthTotal]
	timelines *cache.LRUCache[core.GameTimeline]
}

// New builds an Orchestrator. The calendar starts on the month of Now.
func New(opts Options) (*Orchestrator, error) {
	if opts.Source == nil {
		return nil, fmt.Errorf("dashboard: source is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("dashboard: store is required")
	}
	if opts.Normalizer == nil {
		return nil, fmt.Errorf("dashboard: normalizer is required")
	}
	if opts.Presenter == nil {
		opts.Presenter = NopPresenter{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PanelCacheSize <= 0 {
		opts.PanelCacheSize = 64
	}
	if opts.PanelCacheTTL <= 0 {
		opts.PanelCacheTTL = 5 * time.Minute
	}
	if opts.BackgroundTimeout <= 0 {
		opts.BackgroundTimeout = time.Minute
	}

	o := &Orchestrator{
		source:     opts.Source,
		store:      opts.Store,
		normalizer: opts.Normalizer,
		policy:     opts.Policy,
		presenter:  opts.Presenter,
		refresher:  opts.Refresher,
		now:        opts.Now,
		logger:     log.OrDiscard(opts.Logger).WithComponent(log.ComponentDashboard),
		bgTimeout:  opts.BackgroundTimeout,
		history:    cache.NewLRUCacheWithClock[[]core.DailyRecord](opts.PanelCacheSize, opts.PanelCacheTTL, opts.Now),
		monthly:    cache.NewLRUCacheWithClock[[]core.MonthTotal](opts.PanelCacheSize, opts.PanelCacheTTL, opts.Now),
		timelines:  cache.NewLRUCacheWithClock[core.GameTimeline](opts.PanelCacheSize, opts.PanelCacheTTL, opts.Now),
	}
	o.state.Month = calendar.MonthOf(o.today())
	o.navMonth = o.state.Month
	return o, nil
}

// Caches returns the panel caches so a cache.Manager can clean them.
func (o *Orchestrator) Caches() []cache.Cleaner {
	return []cache.Cleaner{o.history, o.monthly, o.timelines}
}

// Snapshot returns a copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Wait blocks until in-process background refreshes have finished.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

func (o *Orchestrator) today() core.Date {
	return core.DateOf(o.now())
}

// applyFetched installs a network result when seq is newer than the last
// applied fetch. The store is written under the same lock so that the
// stored entry never goes back to an older fetch.
func (o *Orchestrator) applyFetched(ctx context.Context, seq uint64, entry core.CacheEntry) (State, error) {
	o.mu.Lock()
	if seq <= o.state.AppliedSeq {
		applied := o.state.AppliedSeq
		o.mu.Unlock()
		o.superseded(seqDataset, seq, applied)
		return o.Snapshot(), ErrSuperseded
	}
	if err := o.store.Write(ctx, entry); err != nil {
		o.logger.Error("Failed to write dataset cache",
			log.FieldOperation, log.OpWrite,
			log.FieldFetchSeq, seq,
			log.FieldError, err.Error())
	} else {
		observability.RecordCacheWrite()
	}
	o.setDataset(entry, OriginNetwork)
	o.state.AppliedSeq = seq
	snap := o.state
	o.mu.Unlock()

	o.logger.Info("Dataset applied",
		append(log.NewFields().
			WithDataset(len(entry.Dataset.PlayHistories), len(entry.Dataset.RecentPlayHistories)).
			ToSlice(), log.FieldFetchSeq, seq, "origin", string(OriginNetwork))...)
	o.presenter.RenderDataset(snap)
	return snap, nil
}

// applyCached displays a stored entry unless the displayed dataset was
// fetched later. replaceEqual also accepts an entry fetched at the same
// time, so the origin can be relabeled. Cache applies never move the fetch
// sequence: a stored entry cannot outrank a fetch still in flight.
func (o *Orchestrator) applyCached(entry core.CacheEntry, origin Origin, replaceEqual bool) (State, bool) {
	o.mu.Lock()
	if o.state.HasDataset {
		older := entry.FetchedAt.Before(o.state.FetchedAt)
		same := entry.FetchedAt.Equal(o.state.FetchedAt)
		if older || (same && !replaceEqual) {
			snap := o.state
			o.mu.Unlock()
			return snap, false
		}
	}
	o.setDataset(entry, origin)
	snap := o.state
	o.mu.Unlock()

	o.logger.Info("Dataset applied",
		append(log.NewFields().
			WithDataset(len(entry.Dataset.PlayHistories), len(entry.Dataset.RecentPlayHistories)).
			ToSlice(), "origin", string(origin), "fetched_at", entry.FetchedAt)...)
	o.presenter.RenderDataset(snap)
	return snap, true
}

// setDataset must be called with o.mu held.
func (o *Orchestrator) setDataset(entry core.CacheEntry, origin Origin) {
	o.state.Dataset = entry.Dataset
	o.state.HasDataset = true
	o.state.Origin = origin
	o.state.FetchedAt = entry.FetchedAt
}

func (o *Orchestrator) superseded(kind string, seq, applied uint64) {
	o.logger.Warn("Discarding superseded result",
		"kind", kind,
		log.FieldFetchSeq, seq,
		log.FieldAppliedSeq, applied)
	observability.RecordSuperseded(kind)
}

func (o *Orchestrator) panelFailure(panel Panel, err error) {
	o.logger.Warn("Panel failed",
		log.FieldPanel, string(panel),
		log.FieldError, err.Error())
	observability.RecordPanelFailure(string(panel))
	o.presenter.ShowFailure(panel, err)
}
