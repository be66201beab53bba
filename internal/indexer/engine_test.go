package indexer

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/ingestion/publisher"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/database"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/metrics"
)

func newTestStore(t *testing.T) (*storage.Store, *database.Client) {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := storage.New(db, logger.Discard())
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s, db
}

// countingAnalyzer records the text of every call.
type countingAnalyzer struct {
	calls []string
}

func (a *countingAnalyzer) Analyze(text string) tokenizer.Analysis {
	a.calls = append(a.calls, text)
	return tokenizer.Analyze(text)
}

type recordingWriter struct {
	events []kafka.Event
}

func (w *recordingWriter) Publish(_ context.Context, e kafka.Event) error {
	w.events = append(w.events, e)
	return nil
}

func TestUpdateIndex_WritesPostings(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 1, Title: "Rings.", Transcript: "RING ring!"}))
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 2, Title: "Cats", Transcript: "running cat"}))

	w := &recordingWriter{}
	m := metrics.New()
	e := NewEngine(store, Options{
		Publisher: publisher.New(w, config.KafkaTopics{ComicIndexed: "comic.indexed"}, logger.Discard()),
		Metrics:   m,
		Logger:    logger.Discard(),
	})

	rep, err := e.UpdateIndex(ctx)

	require.NoError(t, err)
	assert.Equal(t, Report{Candidates: 2, Indexed: 2, Postings: 3}, rep)

	got, err := store.Postings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, index.PostingList{{ComicNum: 1, Term: "ring", Frequency: 3}}, got)

	got, err = store.Postings(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, index.PostingList{
		{ComicNum: 2, Term: "cat", Frequency: 2},
		{ComicNum: 2, Term: "run", Frequency: 1},
	}, got)

	assert.Len(t, w.events, 2)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PostingsWritten))
}

func TestUpdateIndex_SkipsIndexedComics(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 1, Title: "Barrel", Transcript: "boy barrel ocean"}))
	require.NoError(t, store.InsertPostings(ctx, 1, index.TermFrequencies{"barrel": 7}))
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 2, Title: "Petit Trees"}))

	analyzer := &countingAnalyzer{}
	e := NewEngine(store, Options{Analyzer: analyzer, Logger: logger.Discard()})

	rep, err := e.UpdateIndex(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Candidates)
	assert.Equal(t, []string{"Petit Trees "}, analyzer.calls)

	got, err := store.Postings(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, index.PostingList{{ComicNum: 1, Term: "barrel", Frequency: 7}}, got)
}

func TestUpdateIndex_SecondRunIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 1, Title: "Barrel"}))

	analyzer := &countingAnalyzer{}
	e := NewEngine(store, Options{Analyzer: analyzer, Logger: logger.Discard()})

	_, err := e.UpdateIndex(ctx)
	require.NoError(t, err)
	rep, err := e.UpdateIndex(ctx)
	require.NoError(t, err)

	assert.Equal(t, Report{}, rep)
	assert.Len(t, analyzer.calls, 1)
}

func TestUpdateIndex_EmptyTermSet(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 1, Title: "a", Transcript: "the of"}))
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 2, Title: "Barrel"}))

	m := metrics.New()
	e := NewEngine(store, Options{Metrics: m, Logger: logger.Discard()})

	rep, err := e.UpdateIndex(ctx)

	require.NoError(t, err)
	assert.Equal(t, Report{Candidates: 2, Indexed: 1, Empty: 1, Postings: 1}, rep)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComicsIndexedTotal.WithLabelValues("empty")))

	// the empty comic is still a candidate next time
	pending, err := store.ComicsWithoutPostings(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 1, pending[0].Num)
}

func TestUpdateIndex_PartialFailureLeavesNoPostings(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 1, Title: "apple banana cherry"}))
	require.NoError(t, store.InsertComic(ctx, comic.Comic{Num: 2, Title: "Barrel"}))
	_, err := db.DB.ExecContext(ctx, `CREATE TRIGGER fail_banana BEFORE INSERT ON postings
		WHEN NEW.term = 'banana'
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`)
	require.NoError(t, err)

	m := metrics.New()
	e := NewEngine(store, Options{Metrics: m, Logger: logger.Discard()})

	rep, err := e.UpdateIndex(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Indexed)

	got, err := store.Postings(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ComicsIndexedTotal.WithLabelValues("failed")))
}

type failingStore struct{}

func (failingStore) ComicsWithoutPostings(context.Context) ([]comic.Comic, error) {
	return nil, errors.New("no such table: comics")
}

func (failingStore) InsertPostings(context.Context, int, index.TermFrequencies) error {
	return nil
}

func TestUpdateIndex_LoadFailure(t *testing.T) {
	e := NewEngine(failingStore{}, Options{Logger: logger.Discard()})

	_, err := e.UpdateIndex(context.Background())

	assert.Error(t, err)
}
