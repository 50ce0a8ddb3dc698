package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zbxtools/zbxcall/internal/events/config"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// Event is published once per finished call
type Event struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Transport string    `json:"transport"`
	Subject   string    `json:"subject,omitempty"`
	Check     bool      `json:"check"`
	Changed   bool      `json:"changed"`
	Failed    bool      `json:"failed"`
	Msg       string    `json:"msg,omitempty"`
	Time      time.Time `json:"time"`
}

// FromRecord builds the event of a stored call
func FromRecord(r types.CallRecord) Event {
	return Event{
		ID:        r.ID,
		Method:    r.Method,
		Transport: r.Transport,
		Subject:   r.Subject,
		Check:     r.CheckMode,
		Changed:   r.Changed,
		Failed:    r.Failed,
		Msg:       r.Msg,
		Time:      r.Started,
	}
}

// Publisher sends call events to a broker
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// writer is one broker connection
type writer interface {
	Write(ctx context.Context, topic string, body []byte) error
	Close() error
}

type publisher struct {
	backend string
	topic   string
	w       writer
}

func (p *publisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := p.w.Write(ctx, p.topic, body); err != nil {
		return fmt.Errorf("%s publish to %q: %w", p.backend, p.topic, err)
	}
	log.Debugf("Published event of call %s to %s %s", e.ID, p.backend, p.topic)
	return nil
}

func (p *publisher) Close() error {
	return p.w.Close()
}

type nopPublisher struct{}

func (nopPublisher) Publish(ctx context.Context, e Event) error { return nil }
func (nopPublisher) Close() error                               { return nil }

// NewPublisher connects the backend configured in the [events] section
func NewPublisher() (Publisher, error) {
	return New(config.NewConfig())
}

// New connects the backend named in cfg
func New(cfg config.Events) (Publisher, error) {
	var (
		w   writer
		err error
	)
	switch cfg.Backend {
	case "", "none":
		return nopPublisher{}, nil
	case "amqp":
		w, err = newAMQPWriter(cfg)
	case "nats":
		w, err = newNATSWriter(cfg)
	case "kafka":
		w, err = newKafkaWriter(cfg)
	default:
		return nil, fmt.Errorf("Unsupported events backend %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	log.Infof("Publishing call events to %s %s", cfg.Backend, cfg.Topic)
	return &publisher{backend: cfg.Backend, topic: cfg.Topic, w: w}, nil
}
