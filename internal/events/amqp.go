package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/streadway/amqp"

	"github.com/zbxtools/zbxcall/internal/events/config"
)

type amqpWriter struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func newAMQPWriter(cfg config.Events) (writer, error) {
	if cfg.URL == "" {
		return nil, errors.New("amqp url required")
	}
	timeout := 30 * time.Second
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{Dial: amqp.DefaultDial(timeout)})
	if err != nil {
		return nil, fmt.Errorf("Dial: %s", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("Channel: %s", err)
	}
	if err = channel.ExchangeDeclare(
		cfg.Exchange, // name of the exchange
		"topic",      // type
		true,         // durable
		false,        // delete when complete
		false,        // internal
		false,        // noWait
		nil,          // arguments
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("Exchange Declare: %s", err)
	}
	return &amqpWriter{conn: conn, channel: channel, exchange: cfg.Exchange}, nil
}

func (w *amqpWriter) Write(ctx context.Context, topic string, body []byte) error {
	return w.channel.Publish(
		w.exchange, // exchange
		topic,      // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

func (w *amqpWriter) Close() error {
	return w.conn.Close()
}
