package dashboard

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"playdash/internal/core"
	"playdash/internal/log"
	"playdash/internal/observability"
)

const (
	flightRefresh = "refresh"

	reasonStale = "stale-cache"
)

// Load brings the dashboard to a displayable state. The store is read on
// every call: an entry fetched after the displayed dataset (for example by
// the worker) replaces it. A fresh dataset is used as is; a stale one stays
// displayed and a background refresh is requested. With nothing to display,
// or when force is set, the dataset is fetched; if that fails the cache backs
// the view when it can, otherwise ErrNoData is returned and the blocking
// failure is shown. A forced fetch discarded in favor of a newer one returns
// ErrSuperseded with the newer state.
func (o *Orchestrator) Load(ctx context.Context, force bool) (State, error) {
	if !force {
		if st, ok := o.loadCached(ctx); ok {
			return st, nil
		}
	}

	seq := o.datasetSeq.Add(1)
	st, err := o.fetchAndApply(ctx, seq)
	switch {
	case err == nil:
		return st, nil
	case errors.Is(err, ErrSuperseded):
		if force {
			return st, err
		}
		return st, nil
	}

	if entry, ok, _ := o.readCache(ctx); ok {
		o.logger.Warn("Fetch failed, displaying cached dataset",
			log.FieldFetchSeq, seq,
			log.FieldError, err.Error())
		st, _ := o.applyCached(entry, OriginFallbackCache, true)
		return st, nil
	}
	if st := o.Snapshot(); st.HasDataset {
		o.logger.Warn("Fetch failed, keeping displayed dataset",
			log.FieldFetchSeq, seq,
			log.FieldError, err.Error())
		return st, nil
	}

	o.logger.Error("No dataset available",
		log.FieldFetchSeq, seq,
		log.FieldError, err.Error())
	o.presenter.ShowFailure(PanelDataset, err)
	observability.RecordPanelFailure(string(PanelDataset))
	return o.Snapshot(), fmt.Errorf("%w: %w", ErrNoData, err)
}

// loadCached displays the stored entry when it is newer than the displayed
// dataset. ok is false when there is still nothing to display.
func (o *Orchestrator) loadCached(ctx context.Context) (State, bool) {
	entry, ok, state := o.readCache(ctx)
	st := o.Snapshot()
	if ok && (!st.HasDataset || entry.FetchedAt.After(st.FetchedAt)) {
		origin := OriginCache
		if state == log.CacheStale {
			origin = OriginStaleCache
		}
		st, _ = o.applyCached(entry, origin, false)
	}
	if !st.HasDataset {
		return st, false
	}
	if !o.policy.Fresh(core.CacheEntry{FetchedAt: st.FetchedAt}, o.now()) {
		o.requestStaleRefresh(ctx)
	}
	return st, true
}

// requestStaleRefresh asks for a refresh of a stale dataset, at most once
// per background timeout so that every request in the stale window does
// not publish its own.
func (o *Orchestrator) requestStaleRefresh(ctx context.Context) {
	now := o.now()
	o.mu.Lock()
	if !o.staleRequestedAt.IsZero() && now.Sub(o.staleRequestedAt) < o.bgTimeout {
		o.mu.Unlock()
		return
	}
	o.staleRequestedAt = now
	o.mu.Unlock()
	o.RequestRefresh(ctx, reasonStale)
}

// Refresh performs the combined fetch and applies its result. It returns
// ErrSuperseded when a newer dataset was applied while it was in flight.
func (o *Orchestrator) Refresh(ctx context.Context) (State, error) {
	return o.fetchAndApply(ctx, o.datasetSeq.Add(1))
}

// RequestRefresh asks for a background refresh. With a RefreshRequester the
// request is handed over; otherwise it runs in-process, at most one at a time.
func (o *Orchestrator) RequestRefresh(ctx context.Context, reason string) {
	if o.refresher != nil {
		if err := o.refresher.RequestRefresh(ctx, reason); err != nil {
			o.logger.Warn("Failed to request background refresh",
				log.FieldReason, reason,
				log.FieldError, err.Error())
		}
		return
	}

	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.bgTimeout)
		defer cancel()
		_, err, shared := o.flight.Do(flightRefresh, func() (any, error) {
			return o.Refresh(bgCtx)
		})
		if err != nil && !errors.Is(err, ErrSuperseded) {
			o.logger.Warn("Background refresh failed",
				log.FieldReason, reason,
				log.FieldError, err.Error())
			return
		}
		o.logger.Debug("Background refresh finished",
			log.FieldReason, reason,
			"shared", shared)
	}()
}

func (o *Orchestrator) readCache(ctx context.Context) (core.CacheEntry, bool, string) {
	entry, ok, err := o.store.Read(ctx)
	if err != nil {
		o.logger.Warn("Failed to read dataset cache, treating as absent",
			log.FieldOperation, log.OpRead,
			log.FieldError, err.Error())
		ok = false
	}
	state := o.policy.State(entry, ok, o.now())
	observability.RecordCacheRead(state)
	o.logger.Debug("Dataset cache read", log.FieldCacheState, state)
	return entry, ok, state
}

// fetchAndApply fetches games and recent activities in parallel. Both must
// succeed and normalize before anything is written or displayed.
func (o *Orchestrator) fetchAndApply(ctx context.Context, seq uint64) (State, error) {
	start := o.now()
	o.logger.Info("Fetching dataset", log.FieldFetchSeq, seq)

	var games, recent []byte
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := o.source.Games(gctx)
		games = b
		return err
	})
	g.Go(func() error {
		b, err := o.source.RecentActivities(gctx)
		recent = b
		return err
	})
	if err := g.Wait(); err != nil {
		o.logger.Warn("Dataset fetch failed",
			log.FieldFetchSeq, seq,
			log.FieldError, err.Error())
		return o.Snapshot(), err
	}

	fetchedAt := o.now()
	ds, err := o.normalizer.Normalize(games, recent, fetchedAt)
	if err != nil {
		o.logger.Warn("Dataset normalization failed",
			log.FieldFetchSeq, seq,
			log.FieldError, err.Error())
		return o.Snapshot(), err
	}
	if err := ds.Validate(); err != nil {
		return o.Snapshot(), core.NewParseError("dataset", err)
	}

	st, err := o.applyFetched(ctx, seq, core.CacheEntry{Dataset: ds, FetchedAt: fetchedAt})
	if err != nil {
		return st, err
	}
	o.history.Purge()
	o.monthly.Purge()
	o.timelines.Purge()
	observability.RecordRefresh(fetchedAt)
	o.logger.Info("Dataset refreshed",
		log.FieldFetchSeq, seq,
		log.FieldDuration, o.now().Sub(start).Milliseconds())
	return st, nil
}
