// Package publisher announces archive changes to Kafka so downstream
// consumers (a future ranking layer, cache warmers) can react to new comics
// and freshly built postings. Publishing is best effort: failures are logged
// and never interrupt synchronization or indexing.
package publisher

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/xkcd-index/internal/comic"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/xkcd-index/pkg/logger"
)

// EventWriter is satisfied by *kafka.Producer.
type EventWriter interface {
	Publish(ctx context.Context, event kafka.Event) error
}

// SyncedEvent is published after a comic is persisted.
type SyncedEvent struct {
	Num      int       `json:"num"`
	Title    string    `json:"title"`
	SyncedAt time.Time `json:"synced_at"`
}

// IndexedEvent is published after a comic's postings are written.
type IndexedEvent struct {
	Num       int       `json:"num"`
	Terms     int       `json:"terms"`
	Tokens    int       `json:"tokens"`
	IndexedAt time.Time `json:"indexed_at"`
}

// Publisher turns domain outcomes into Kafka events. A nil *Publisher is
// valid and publishes nothing.
type Publisher struct {
	writer EventWriter
	topics config.KafkaTopics
	logger *slog.Logger
	now    func() time.Time
}

func New(writer EventWriter, topics config.KafkaTopics, log *slog.Logger) *Publisher {
	return &Publisher{
		writer: writer,
		topics: topics,
		logger: logger.OrComponent(log, "publisher"),
		now:    time.Now,
	}
}

// ComicSynced announces that c was stored.
func (p *Publisher) ComicSynced(ctx context.Context, c comic.Comic) {
	if p == nil {
		return
	}
	p.publish(ctx, kafka.Event{
		Topic: p.topics.ComicSynced,
		Key:   strconv.Itoa(c.Num),
		Value: SyncedEvent{
			Num:      c.Num,
			Title:    c.Title,
			SyncedAt: p.now().UTC(),
		},
	})
}

// ComicIndexed announces that comic num now has postings.
func (p *Publisher) ComicIndexed(ctx context.Context, num, terms, tokens int) {
	if p == nil {
		return
	}
	p.publish(ctx, kafka.Event{
		Topic: p.topics.ComicIndexed,
		Key:   strconv.Itoa(num),
		Value: IndexedEvent{
			Num:       num,
			Terms:     terms,
			Tokens:    tokens,
			IndexedAt: p.now().UTC(),
		},
	})
}

func (p *Publisher) publish(ctx context.Context, event kafka.Event) {
	if err := p.writer.Publish(ctx, event); err != nil {
		p.logger.Error("failed to publish event, continuing",
			"topic", event.Topic,
			"key", event.Key,
			"error", err,
		)
	}
}
