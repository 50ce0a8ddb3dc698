package config

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Events is the [events] section
type Events struct {
	// Backend is one of none, amqp, nats, kafka
	Backend string `toml:"backend"`
	// URL of the amqp or nats server
	URL string `toml:"url"`
	// Brokers are the kafka seed brokers
	Brokers []string `toml:"brokers"`
	// Exchange is the amqp topic exchange
	Exchange string `toml:"exchange"`
	// Topic is the amqp routing key, nats subject or kafka topic
	Topic    string `toml:"topic"`
	ClientID string `toml:"clientid"`
	// Timeout in seconds for connecting and publishing
	Timeout int `toml:"timeout"`
}

var once sync.Once
var events = &Events{
	Backend:  "none",
	Exchange: "zbxcall",
	Topic:    "zbxcall.calls",
	ClientID: "zbxcall",
	Timeout:  5,
}

// NewConfig loads the [events] section once
func NewConfig() Events {
	once.Do(func() {
		if err := viper.UnmarshalKey("events", events); err != nil {
			logrus.Errorf("Failed to read [events] config, using defaults: %v", err)
		}
	})
	return *events
}
