package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
	"github.com/zbxtools/zbxcall/internal/queue/config"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// Executor runs one call request
type Executor interface {
	Execute(ctx context.Context, req types.CallRequest) dispatcher.Outcome
}

// replier sends the outcome of d back to its sender
type replier func(d amqp.Delivery, body []byte) error

// Consumer takes call requests from a queue and replies with their outcome
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	tag     string
	done    chan error
}

// NewConsumer connects to the broker and starts consuming
func NewConsumer(cfg config.AMQP, exec Executor) (*Consumer, error) {
	c := &Consumer{
		tag:  cfg.ConsumerTag,
		done: make(chan error),
	}

	var err error
	log.Infof("dialing %q", cfg.URL)
	c.conn, err = amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("Dial: %s", err)
	}

	go func() {
		log.Infof("closing: %s", <-c.conn.NotifyClose(make(chan *amqp.Error)))
	}()

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("Channel: %s", err)
	}

	if cfg.Prefetch > 0 {
		if err = c.channel.Qos(cfg.Prefetch, 0, false); err != nil {
			c.conn.Close()
			return nil, fmt.Errorf("Qos: %s", err)
		}
	}

	queue, err := c.channel.QueueDeclare(
		cfg.Queue, // name of the queue
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // noWait
		nil,       // arguments
	)
	if err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("Queue Declare: %s", err)
	}

	log.Infof("declared Queue (%q %d messages, %d consumers), starting Consume (consumer tag %q)",
		queue.Name, queue.Messages, queue.Consumers, c.tag)
	deliveries, err := c.channel.Consume(
		queue.Name, // name
		c.tag,      // consumerTag,
		false,      // noAck
		false,      // exclusive
		false,      // noLocal
		false,      // noWait
		nil,        // arguments
	)
	if err != nil {
		c.conn.Close()
		return nil, fmt.Errorf("Queue Consume: %s", err)
	}

	go handle(deliveries, exec, c.reply, c.done)

	return c, nil
}

// Done receives the result of the delivery loop once deliveries stop
func (c *Consumer) Done() <-chan error {
	return c.done
}

// Close stops consuming and waits for the delivery in progress
func (c *Consumer) Close() error {
	// will close() the deliveries channel
	if err := c.channel.Cancel(c.tag, true); err != nil {
		return fmt.Errorf("Consumer cancel failed: %s", err)
	}

	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("AMQP connection close error: %s", err)
	}

	defer log.Infof("AMQP shutdown OK")

	// wait for handle() to exit
	return <-c.done
}

func (c *Consumer) reply(d amqp.Delivery, body []byte) error {
	return c.channel.Publish(
		"",        // default exchange
		d.ReplyTo, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			CorrelationId: d.CorrelationId,
			Body:          body,
		},
	)
}

func handle(deliveries <-chan amqp.Delivery, exec Executor, reply replier, done chan error) {
	for d := range deliveries {
		out := handleBody(context.Background(), exec, d.Body, d.UserId)
		if d.ReplyTo != "" {
			body, err := json.Marshal(out)
			if err != nil {
				log.Errorf("Failed to encode outcome: %s", err)
			} else if err := reply(d, body); err != nil {
				log.Errorf("Failed to reply to %s: %s", d.ReplyTo, err)
			}
		}
		d.Ack(false)
	}
	log.Infoln("handle: deliveries channel closed")
	done <- nil
}

// handleBody runs the call request encoded in body.
// subject is the broker validated user id of the publisher.
func handleBody(ctx context.Context, exec Executor, body []byte, subject string) dispatcher.Outcome {
	req := types.CallRequest{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		log.Errorf("Call request unmarshal error: %s", err)
		return dispatcher.Failure(fmt.Errorf("Failed to read call request: %v", err))
	}
	req.Subject = subject
	req.Transport = types.TransportAMQP
	return exec.Execute(ctx, req)
}
