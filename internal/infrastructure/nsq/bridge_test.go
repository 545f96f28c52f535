package nsq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"stockquote-service/internal/application"
	"stockquote-service/internal/domain"

	"github.com/stretchr/testify/require"
)

type fakeProducer struct {
	mu      sync.Mutex
	topics  []string
	bodies  [][]byte
	err     error
	stopped bool
}

func (f *fakeProducer) Publish(topic string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeProducer) Stop() { f.stopped = true }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var at = time.Date(2025, 3, 3, 2, 0, 0, 0, time.UTC)

func TestBridge_QuoteEnvelope(t *testing.T) {
	t.Parallel()
	p := &fakeProducer{}
	b := NewBridge(p, "stock_quotes", nil)
	b.clock = fixedClock{at}

	q := domain.Quote{Code: "600000", Name: "PFYH", Price: 10.5, Source: "sina", FetchedAt: at}
	err := b.PublishEvent(context.Background(), application.Event{
		Topic:   application.TopicQuoteUpdated,
		Payload: application.QuoteUpdated{Symbol: "600000", Quote: q},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"stock_quotes"}, p.topics)

	var got struct {
		Event       string       `json:"event"`
		Symbol      string       `json:"symbol"`
		Payload     domain.Quote `json:"payload"`
		PublishedAt time.Time    `json:"published_at"`
	}
	require.NoError(t, json.Unmarshal(p.bodies[0], &got))
	require.Equal(t, "quote.updated", got.Event)
	require.Equal(t, "600000", got.Symbol)
	require.Equal(t, 10.5, got.Payload.Price)
	require.Equal(t, "sina", got.Payload.Source)
	require.True(t, got.PublishedAt.Equal(at))
}

func TestBridge_AlertAndBatchEnvelopes(t *testing.T) {
	t.Parallel()
	p := &fakeProducer{}
	b := NewBridge(p, "t", nil)
	ctx := context.Background()

	require.NoError(t, b.PublishEvent(ctx, application.Event{
		Topic:   application.TopicAlertTriggered,
		Payload: application.AlertTriggered{Symbol: "000001", Rule: "000001_ma5_touch", Message: "touch", Price: 12, At: at},
	}))
	require.NoError(t, b.PublishEvent(ctx, application.Event{
		Topic:   application.TopicBatchCompleted,
		Payload: application.BatchCompleted{Batch: domain.Batch{ID: "b-1", Total: 2, Completed: 2, Status: domain.BatchStatusCompleted}},
	}))

	var alert map[string]any
	require.NoError(t, json.Unmarshal(p.bodies[0], &alert))
	require.Equal(t, "000001", alert["symbol"])
	require.Equal(t, "000001_ma5_touch", alert["payload"].(map[string]any)["rule"])

	var batch map[string]any
	require.NoError(t, json.Unmarshal(p.bodies[1], &batch))
	require.Equal(t, "batch.completed", batch["event"])
	require.Equal(t, "b-1", batch["payload"].(map[string]any)["id"])
}

func TestBridge_PublishError(t *testing.T) {
	t.Parallel()
	p := &fakeProducer{err: errors.New("nsqd down")}
	b := NewBridge(p, "t", nil)

	err := b.PublishEvent(context.Background(), application.Event{Topic: application.TopicBatchCompleted, Payload: application.BatchCompleted{}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "nsqd down")

	b.Close()
	require.True(t, p.stopped)
}

func TestBridge_CanceledContext(t *testing.T) {
	t.Parallel()
	p := &fakeProducer{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewBridge(p, "t", nil).PublishEvent(ctx, application.Event{Topic: application.TopicQuoteUpdated})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, p.bodies)
}
