package movies

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"marquee/internal/catalog"
	"marquee/internal/logging"
)

const backfillTimeout = 30 * time.Second

type backfillKind int

const (
	backfillList backfillKind = iota
	backfillDetail
)

// backfillJob describes one unit of background catalog work: either a list
// page to fetch and store, or an already-fetched detail record to persist.
type backfillJob struct {
	kind     backfillKind
	category string
	page     int
	tmdbID   int64
	record   *catalog.Movie
}

// dedupeKey drops the payload so identical work coalesces regardless of
// record pointer identity.
func (j backfillJob) dedupeKey() backfillJob {
	j.record = nil
	return j
}

// backfillWorker runs catalog writes off the request path. Jobs are
// dropped, with a warning, when the queue is full; requests never block on
// the upstream or the store for background work.
type backfillWorker struct {
	svc    *Service
	jobs   chan backfillJob
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}

	mu      sync.Mutex
	closed  bool
	pending map[backfillJob]struct{}
}

func newBackfillWorker(svc *Service, depth int, logger *slog.Logger) *backfillWorker {
	w := &backfillWorker{
		svc:     svc,
		jobs:    make(chan backfillJob, depth),
		logger:  logging.NewComponentLogger(logger, "backfill"),
		done:    make(chan struct{}),
		pending: make(map[backfillJob]struct{}),
	}
	go w.run()
	return w
}

// scheduleBackfill enqueues a job without blocking. Duplicate jobs already
// queued are coalesced.
func (s *Service) scheduleBackfill(job backfillJob) {
	if s.backfill == nil {
		return
	}
	s.backfill.enqueue(job)
}

// enqueue sends under the mutex so a send can never race Close closing
// the channel.
func (w *backfillWorker) enqueue(job backfillJob) {
	key := job.dedupeKey()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if _, queued := w.pending[key]; queued {
		return
	}
	select {
	case w.jobs <- job:
		w.pending[key] = struct{}{}
	default:
		w.logger.Warn("backfill queue full, dropping job",
			logging.String("category", job.category),
			logging.Int("page", job.page),
			logging.Int64(logging.FieldTMDBID, job.tmdbID))
	}
}

func (w *backfillWorker) forget(key backfillJob) {
	w.mu.Lock()
	delete(w.pending, key)
	w.mu.Unlock()
}

// Close stops accepting jobs and waits for the worker to finish the ones
// already queued.
func (w *backfillWorker) Close() {
	w.closeOnce.Do(func() {
		w.mu.Lock()
		w.closed = true
		w.mu.Unlock()
		close(w.jobs)
	})
	<-w.done
}

func (w *backfillWorker) run() {
	defer close(w.done)
	for job := range w.jobs {
		w.process(job)
		w.forget(job.dedupeKey())
	}
}

func (w *backfillWorker) process(job backfillJob) {
	ctx, cancel := context.WithTimeout(context.Background(), backfillTimeout)
	defer cancel()

	switch job.kind {
	case backfillList:
		page, err := w.svc.provider.ListMovies(ctx, job.category, job.page)
		if err != nil {
			w.logger.Warn("backfill fetch failed",
				logging.String("category", job.category),
				logging.Int("page", job.page),
				logging.Error(err))
			return
		}
		records := make([]*catalog.Movie, 0, len(page.Results))
		for _, entry := range page.Results {
			records = append(records, catalog.FromTMDBMovie(entry))
		}
		stored, err := w.svc.store.UpsertAll(ctx, records)
		if err != nil {
			w.logger.Warn("backfill store failed",
				logging.String("category", job.category), logging.Error(err))
			return
		}
		// The cached empty page must not outlive the data that replaces it.
		if w.svc.cache != nil {
			w.svc.cache.Delete(listKey(job.category, job.page))
		}
		w.logger.Info("backfill completed",
			logging.String("category", job.category),
			logging.Int("page", job.page),
			logging.Int("stored", stored))
	case backfillDetail:
		if _, err := w.svc.store.Upsert(ctx, job.record); err != nil {
			w.logger.Warn("backfill detail store failed",
				logging.Int64(logging.FieldTMDBID, job.tmdbID), logging.Error(err))
			return
		}
		w.logger.Debug("movie details persisted",
			logging.Int64(logging.FieldTMDBID, job.tmdbID))
	}
}
