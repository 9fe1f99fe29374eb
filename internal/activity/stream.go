// Package activity publishes committed records to the activity stream. Publishing is best-effort:
// the durable stores stay the source of truth.
package activity

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultQueueSize = 1024
	drainTimeout     = 5 * time.Second
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

type record struct {
	name       string
	key        string
	payload    any
	occurredAt time.Time
}

// Stream is a bounded in-process queue drained by Run. It implements service.Publisher.
type Stream struct {
	producer Producer
	topic    string
	source   string
	queue    chan record
	log      *slog.Logger
	now      func() time.Time

	published atomic.Int64
	dropped   atomic.Int64
}

func NewStream(producer Producer, topic string, queueSize int, log *slog.Logger) *Stream {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Stream{
		producer: producer,
		topic:    topic,
		source:   "app://vybe/realtime",
		queue:    make(chan record, queueSize),
		log:      log,
		now:      time.Now,
	}
}

// Enqueue never blocks. When the queue is full the record is dropped.
func (s *Stream) Enqueue(name, key string, payload any) {
	rec := record{name: name, key: key, payload: payload, occurredAt: s.now().UTC()}
	select {
	case s.queue <- rec:
	default:
		s.dropped.Add(1)
		s.log.Warn("activity: queue full, record dropped", "name", name, "key", key)
	}
}

// Run publishes queued records until ctx is done, then flushes what is left.
func (s *Stream) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return ctx.Err()
		case rec := <-s.queue:
			s.publish(ctx, rec)
		}
	}
}

func (s *Stream) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case rec := <-s.queue:
			s.publish(ctx, rec)
		default:
			return
		}
	}
}

func (s *Stream) publish(ctx context.Context, rec record) {
	payload, err := s.envelope(rec)
	if err != nil {
		s.log.Error("activity: encode record", "name", rec.name, "error", err)
		return
	}
	headers := map[string]string{
		"content-type": "application/cloudevents+json",
		"ce-type":      rec.name,
	}
	if err := s.producer.Publish(ctx, s.topic, rec.key, payload, headers); err != nil {
		s.log.Warn("activity: publish failed, record dropped", "name", rec.name, "key", rec.key, "error", err)
		return
	}
	s.published.Add(1)
}

func (s *Stream) envelope(rec record) ([]byte, error) {
	return json.Marshal(map[string]any{
		"specversion":     "1.0",
		"id":              uuid.NewString(),
		"type":            versioned(rec.name),
		"source":          s.source,
		"time":            rec.occurredAt,
		"datacontenttype": "application/json",
		"data":            rec.payload,
	})
}

// Stats reports how many records were published and dropped so far.
func (s *Stream) Stats() (published, dropped int64) {
	return s.published.Load(), s.dropped.Load()
}

func versioned(name string) string {
	if strings.HasSuffix(name, ".v1") {
		return name
	}
	return name + ".v1"
}
