// Package indexer builds postings for stored comics that do not have any yet.
//
// A comic with at least one posting counts as indexed and is never analysed
// again. A comic whose text yields no terms is left without postings and is
// re-analysed on every run; no sentinel row is written for it.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/publisher"
	apperrors "github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/metrics"
)

type Store interface {
	ComicsWithoutPostings(ctx context.Context) ([]comic.Comic, error)
	InsertPostings(ctx context.Context, num int, terms index.TermFrequencies) error
}

// Analyzer turns searchable text into terms.
type Analyzer interface {
	Analyze(text string) tokenizer.Analysis
}

// AnalyzerFunc adapts a function to Analyzer.
type AnalyzerFunc func(text string) tokenizer.Analysis

func (f AnalyzerFunc) Analyze(text string) tokenizer.Analysis { return f(text) }

// DefaultAnalyzer is the Porter-stemming tokenizer.
var DefaultAnalyzer Analyzer = AnalyzerFunc(tokenizer.Analyze)

type Options struct {
	Analyzer  Analyzer
	Publisher *publisher.Publisher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// Report counts per-comic outcomes of one UpdateIndex call.
type Report struct {
	Candidates int
	Indexed    int
	Empty      int
	Failed     int
	Postings   int
}

type Engine struct {
	store     Store
	analyzer  Analyzer
	publisher *publisher.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewEngine(store Store, opts Options) *Engine {
	e := &Engine{
		store:     store,
		analyzer:  opts.Analyzer,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    logger.OrComponent(opts.Logger, "indexer"),
	}
	if e.analyzer == nil {
		e.analyzer = DefaultAnalyzer
	}
	if e.metrics == nil {
		e.metrics = metrics.New()
	}
	return e
}

// UpdateIndex writes postings for every comic that has none. Problems with a
// single comic are logged and counted; only failing to list the candidates
// is returned as an error.
func (e *Engine) UpdateIndex(ctx context.Context) (Report, error) {
	start := time.Now()
	defer func() {
		e.metrics.PhaseDuration.WithLabelValues("index").Observe(time.Since(start).Seconds())
	}()

	comics, err := e.store.ComicsWithoutPostings(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading unindexed comics: %w", err)
	}
	rep := Report{Candidates: len(comics)}
	e.logger.Info("indexing comics without postings", "count", len(comics))

	for _, c := range comics {
		n, err := e.indexComic(ctx, c)
		switch {
		case err == nil:
			rep.Indexed++
			rep.Postings += n
			e.metrics.ComicsIndexedTotal.WithLabelValues("indexed").Inc()
			e.metrics.PostingsWritten.Add(float64(n))
		case apperrors.Is(err, apperrors.ErrEmptyTermSet):
			rep.Empty++
			e.metrics.ComicsIndexedTotal.WithLabelValues("empty").Inc()
			e.logger.Warn("comic has no indexable terms, leaving it unindexed",
				"num", c.Num,
				"title", c.Title,
			)
		default:
			rep.Failed++
			e.metrics.ComicsIndexedTotal.WithLabelValues("failed").Inc()
			e.metrics.PersistErrorsTotal.WithLabelValues("postings").Inc()
			e.logger.Error("failed to save postings", "num", c.Num, "error", err)
		}
	}

	e.logger.Info("indexing finished",
		"candidates", rep.Candidates,
		"indexed", rep.Indexed,
		"empty", rep.Empty,
		"failed", rep.Failed,
		"postings", rep.Postings,
	)
	return rep, nil
}

// indexComic analyses c and stores its postings, returning how many were
// written.
func (e *Engine) indexComic(ctx context.Context, c comic.Comic) (int, error) {
	analysis := e.analyzer.Analyze(tokenizer.SearchableText(c.Title, c.Transcript))
	for _, raw := range analysis.Discarded {
		e.logger.Warn("token has an empty stem, discarding", "num", c.Num, "token", raw)
	}
	if len(analysis.Terms) == 0 {
		return 0, apperrors.Newf(apperrors.ErrEmptyTermSet, "index comic", "comic %d", c.Num)
	}
	if err := e.store.InsertPostings(ctx, c.Num, analysis.Terms); err != nil {
		return 0, err
	}
	e.logger.Debug("saved postings", "num", c.Num, "terms", len(analysis.Terms))
	e.publisher.ComicIndexed(ctx, c.Num, len(analysis.Terms), analysis.Terms.Total())
	return len(analysis.Terms), nil
}
