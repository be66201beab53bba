// Package syncer brings the local comic set up to the remote archive's
// frontier.
//
// Missing numbers are fetched one at a time in ascending order. Each fetch
// gets a bounded retry budget; when a budget is exhausted the traversal stops
// and the run is still reported as complete, so the next run resumes from
// the same number. Every fetched comic is stored immediately, which leaves a
// durable prefix behind if the process dies mid-run.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/source"
	apperrors "github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/resilience"
)

// DefaultFallbackFrontier bounds the scan when the newest comic cannot be
// fetched.
const DefaultFallbackFrontier = 9999

// DefaultKnownBad holds archive numbers that never resolve to a comic.
var DefaultKnownBad = []int{404}

type Source interface {
	Fetch(ctx context.Context, num int) (*comic.Comic, error)
}

type Store interface {
	KnownIDs(ctx context.Context) (comic.IDSet, error)
	InsertComic(ctx context.Context, c comic.Comic) error
}

type Options struct {
	Retry            resilience.RetryConfig
	FallbackFrontier int
	// KnownBad replaces DefaultKnownBad when non-nil.
	KnownBad  []int
	Publisher *publisher.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Result summarises one Synchronize call. It does not say whether the run
// reached the frontier; a follow-up run that fetches nothing does.
type Result struct {
	Frontier       int
	AlreadyPresent int
	Fetched        int
	PersistFailed  int
}

type Syncer struct {
	source    Source
	store     Store
	retry     resilience.RetryConfig
	fallback  int
	knownBad  comic.IDSet
	publisher *publisher.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(src Source, store Store, opts Options) *Syncer {
	fallback := opts.FallbackFrontier
	if fallback <= 0 {
		fallback = DefaultFallbackFrontier
	}
	knownBad := opts.KnownBad
	if knownBad == nil {
		knownBad = DefaultKnownBad
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	log := logger.OrComponent(opts.Logger, "syncer")
	retry := opts.Retry
	if retry.Logger == nil {
		retry.Logger = log
	}
	return &Syncer{
		source:    src,
		store:     store,
		retry:     retry,
		fallback:  fallback,
		knownBad:  comic.NewIDSet(knownBad...),
		publisher: opts.Publisher,
		metrics:   m,
		logger:    log,
	}
}

// Synchronize fetches every comic in 1..frontier that is neither stored nor
// known to be bad. Exhausting the retry budget for one number halts the
// traversal without returning an error; only failing to read the stored
// set does.
func (s *Syncer) Synchronize(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() {
		s.metrics.PhaseDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
	}()

	res := Result{Frontier: s.frontier(ctx)}
	s.metrics.RemoteFrontier.Set(float64(res.Frontier))

	known, err := s.store.KnownIDs(ctx)
	if err != nil {
		return res, fmt.Errorf("loading stored comics: %w", err)
	}
	res.AlreadyPresent = len(known)

	for num := 1; num <= res.Frontier; num++ {
		if known.Contains(num) {
			s.metrics.ComicsSkippedTotal.WithLabelValues("present").Inc()
			s.logger.Debug("comic already stored, skipping", "num", num)
			continue
		}
		if s.knownBad.Contains(num) {
			s.metrics.ComicsSkippedTotal.WithLabelValues("known_bad").Inc()
			s.logger.Info("comic number never resolves, skipping", "num", num)
			continue
		}

		s.logger.Info("fetching comic", "num", num)
		c, err := s.fetch(ctx, num)
		if err != nil {
			s.metrics.SyncHaltsTotal.Inc()
			s.logger.Error("retry budget exhausted, halting synchronization",
				"num", num,
				"error", err,
			)
			break
		}

		if err := s.store.InsertComic(ctx, *c); err != nil {
			res.PersistFailed++
			s.metrics.PersistErrorsTotal.WithLabelValues("comic").Inc()
			s.logger.Error("failed to store comic, continuing",
				"num", num,
				"exists", apperrors.Is(err, apperrors.ErrComicExists),
				"error", err,
			)
			continue
		}
		res.Fetched++
		s.metrics.ComicsFetchedTotal.Inc()
		s.publisher.ComicSynced(ctx, *c)
	}

	s.logger.Info("synchronization finished",
		"frontier", res.Frontier,
		"already_present", res.AlreadyPresent,
		"fetched", res.Fetched,
		"persist_failed", res.PersistFailed,
		"total", res.AlreadyPresent+res.Fetched,
	)
	return res, nil
}

// frontier returns the newest remote comic number, or the fallback when it
// cannot be determined.
func (s *Syncer) frontier(ctx context.Context) int {
	latest, err := s.fetch(ctx, source.Latest)
	if err != nil {
		s.logger.Error("could not determine newest comic, using fallback frontier",
			"fallback", s.fallback,
			"error", err,
		)
		return s.fallback
	}
	s.logger.Info("found newest comic", "num", latest.Num)
	return latest.Num
}

func (s *Syncer) fetch(ctx context.Context, num int) (*comic.Comic, error) {
	var out *comic.Comic
	err := resilience.Retry(ctx, fmt.Sprintf("fetch comic %d", num), s.retry, func() error {
		c, err := s.source.Fetch(ctx, num)
		if err != nil {
			s.metrics.FetchAttemptsTotal.WithLabelValues("failure").Inc()
			return err
		}
		s.metrics.FetchAttemptsTotal.WithLabelValues("success").Inc()
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
