package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/zbxtools/zbxcall/internal/events/config"
)

type natsWriter struct {
	nc *nats.Conn
}

func newNATSWriter(cfg config.Events) (writer, error) {
	if cfg.URL == "" {
		return nil, errors.New("nats url required")
	}
	opts := []nats.Option{}
	if cfg.ClientID != "" {
		opts = append(opts, nats.Name(cfg.ClientID))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(time.Duration(cfg.Timeout)*time.Second))
	}
	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &natsWriter{nc: nc}, nil
}

func (w *natsWriter) Write(ctx context.Context, topic string, body []byte) error {
	msg := &nats.Msg{Subject: topic, Data: body, Header: nats.Header{}}
	msg.Header.Set("Content-Type", "application/json")
	if err := w.nc.PublishMsg(msg); err != nil {
		return err
	}
	return w.nc.Flush()
}

func (w *natsWriter) Close() error {
	if w.nc.IsClosed() {
		return nil
	}
	return w.nc.Drain()
}
