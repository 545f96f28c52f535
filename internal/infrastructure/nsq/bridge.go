package nsq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stockquote-service/internal/application"

	gonsq "github.com/nsqio/go-nsq"
	"go.uber.org/zap"
)

// Producer is the subset of *nsq.Producer the bridge needs.
type Producer interface {
	Publish(topic string, body []byte) error
	Stop()
}

var (
	_ Producer                   = (*gonsq.Producer)(nil)
	_ application.EventPublisher = (*Bridge)(nil)
)

// Envelope is the JSON message written to the topic.
type Envelope struct {
	Event       string    `json:"event"`
	Symbol      string    `json:"symbol,omitempty"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"published_at"`
}

// Bridge publishes bus events as JSON envelopes to one NSQ topic.
type Bridge struct {
	producer Producer
	topic    string
	clock    application.Clock
	log      *zap.Logger
}

func NewBridge(producer Producer, topic string, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{producer: producer, topic: topic, clock: application.SystemClock, log: log}
}

// Dial connects a producer to nsqd at addr and checks it answers.
func Dial(addr string, log *zap.Logger) (*gonsq.Producer, error) {
	cfg := gonsq.NewConfig()
	producer, err := gonsq.NewProducer(addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("init nsq producer %s: %w", addr, err)
	}
	if log != nil {
		producer.SetLogger(zap.NewStdLog(log), gonsq.LogLevelWarning)
	}
	if err := producer.Ping(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("ping nsqd %s: %w", addr, err)
	}
	return producer, nil
}

func envelopeOf(ev application.Event, at time.Time) Envelope {
	env := Envelope{Event: string(ev.Topic), Payload: ev.Payload, PublishedAt: at}
	switch p := ev.Payload.(type) {
	case application.QuoteUpdated:
		env.Symbol, env.Payload = p.Symbol, p.Quote
	case application.AlertTriggered:
		env.Symbol = p.Symbol
		env.Payload = map[string]any{
			"rule":    p.Rule,
			"message": p.Message,
			"price":   p.Price,
			"at":      p.At,
		}
	case application.BatchCompleted:
		env.Payload = p.Batch
	}
	return env
}

func (b *Bridge) PublishEvent(ctx context.Context, ev application.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(envelopeOf(ev, b.clock.Now()))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Topic, err)
	}
	if err := b.producer.Publish(b.topic, body); err != nil {
		return fmt.Errorf("publish %s to %s: %w", ev.Topic, b.topic, err)
	}
	b.log.Debug("nsq.published", zap.String("topic", b.topic), zap.String("event", string(ev.Topic)))
	return nil
}

func (b *Bridge) Close() {
	if b.producer == nil {
		return
	}
	b.producer.Stop()
}
