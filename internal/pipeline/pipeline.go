// Package pipeline composes one ingestion run: fetch a page, normalize it,
// drop already-persisted records, then write the survivors to the append
// log and the durable store. Scheduling lives with the caller; one Run
// processes exactly one page.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/erictseng47/Stock/internal/csvlog"
	"github.com/erictseng47/Stock/internal/dedupe"
	"github.com/erictseng47/Stock/internal/models"
	"github.com/erictseng47/Stock/internal/processing"
	"github.com/erictseng47/Stock/internal/store"
)

// State names the phase a run is in. FAILED is terminal and reachable from
// FETCHING and PERSISTING; the in-memory phases cannot fail.
type State string

const (
	StateIdle         State = "idle"
	StateFetching     State = "fetching"
	StateTransforming State = "transforming"
	StateFiltering    State = "filtering"
	StatePersisting   State = "persisting"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

// Fetcher is the single network dependency of a run.
type Fetcher interface {
	FetchPage(ctx context.Context, page, limit int) ([]models.RawRecord, error)
}

// Publisher announces newly persisted items. Optional.
type Publisher interface {
	Announce(ctx context.Context, items []models.NewsItem) error
}

// Options fix the shape of every run.
type Options struct {
	Page            int
	Limit           int
	LinkBase        string
	StorePath       string
	CSVPath         string
	RawSnapshotPath string // empty disables the raw snapshot
}

// Report summarizes one finished or failed run.
type Report struct {
	RunID     string
	State     State
	Fetched   int
	Fresh     int
	Persisted int
}

// Pipeline orchestrates runs. It holds no per-run state; the store handle
// is opened inside Run and released before Run returns, so nothing carries
// over between invocations.
type Pipeline struct {
	log       *slog.Logger
	fetcher   Fetcher
	publisher Publisher
	opts      Options
}

// New assembles a pipeline. publisher may be nil.
func New(log *slog.Logger, fetcher Fetcher, publisher Publisher, opts Options) *Pipeline {
	return &Pipeline{log: log, fetcher: fetcher, publisher: publisher, opts: opts}
}

// Run executes one ingestion cycle. A fetch failure leaves both sinks
// untouched. During persistence the two sinks are written independently in
// a fixed order (append log, then store): a crash between them leaves a
// transient inconsistency that the next run reconciles through idempotent
// upserts, and a failure in one sink never aborts the other.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	rep := &Report{RunID: uuid.NewString(), State: StateIdle}
	log := p.log.With(slog.String("run_id", rep.RunID))

	p.transition(log, rep, StateFetching)
	raw, err := p.fetcher.FetchPage(ctx, p.opts.Page, p.opts.Limit)
	if err != nil {
		p.transition(log, rep, StateFailed)
		return rep, fmt.Errorf("fetch page %d: %w", p.opts.Page, err)
	}
	rep.Fetched = len(raw)

	if p.opts.RawSnapshotPath != "" {
		if err := csvlog.AppendRawSnapshot(p.opts.RawSnapshotPath, raw); err != nil {
			log.Warn("raw snapshot append failed", slog.Any("err", err))
		}
	}

	p.transition(log, rep, StateTransforming)
	items, skipped := processing.Transform(raw, p.opts.LinkBase)
	if skipped > 0 {
		log.Warn("records without usable newsId skipped", slog.Int("skipped", skipped))
	}

	st, err := store.Open(p.opts.StorePath)
	if err != nil {
		p.transition(log, rep, StateFailed)
		return rep, fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p.transition(log, rep, StateFiltering)
	fresh, err := dedupe.Filter(ctx, st, items)
	if err != nil {
		p.transition(log, rep, StateFailed)
		return rep, err
	}
	rep.Fresh = len(fresh)

	if len(fresh) == 0 {
		p.transition(log, rep, StateDone)
		log.Info("no new news", slog.Int("fetched", rep.Fetched))
		return rep, nil
	}

	p.transition(log, rep, StatePersisting)
	csvErr := csvlog.AppendItems(p.opts.CSVPath, fresh)
	if csvErr != nil {
		log.Error("csv append failed", slog.Any("err", csvErr))
	}

	upsertErr := st.UpsertMany(ctx, fresh)
	if upsertErr != nil {
		log.Error("store upsert failed", slog.Any("err", upsertErr))
	} else {
		rep.Persisted = len(fresh)
	}

	if csvErr != nil || upsertErr != nil {
		p.transition(log, rep, StateFailed)
		return rep, errors.Join(csvErr, upsertErr)
	}

	if p.publisher != nil {
		if err := p.publisher.Announce(ctx, fresh); err != nil {
			log.Warn("announce failed", slog.Any("err", err))
		}
	}

	p.transition(log, rep, StateDone)
	log.Info("ingestion run completed",
		slog.Int("fetched", rep.Fetched),
		slog.Int("fresh", rep.Fresh),
		slog.Int("persisted", rep.Persisted),
	)
	return rep, nil
}

func (p *Pipeline) transition(log *slog.Logger, rep *Report, next State) {
	rep.State = next
	log.Debug("state transition", slog.String("state", string(next)))
}
