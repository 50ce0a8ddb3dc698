package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/zbxtools/zbxcall/internal/events/config"
)

type kafkaWriter struct {
	cl *kgo.Client
}

func newKafkaWriter(cfg config.Events) (writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers required")
	}
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, kgo.DialTimeout(time.Duration(cfg.Timeout)*time.Second))
	}
	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client init: %w", err)
	}
	return &kafkaWriter{cl: cl}, nil
}

func (w *kafkaWriter) Write(ctx context.Context, topic string, body []byte) error {
	rec := &kgo.Record{
		Topic:   topic,
		Value:   body,
		Headers: []kgo.RecordHeader{{Key: "content-type", Value: []byte("application/json")}},
	}
	return w.cl.ProduceSync(ctx, rec).FirstErr()
}

func (w *kafkaWriter) Close() error {
	w.cl.Close()
	return nil
}
