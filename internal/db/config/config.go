package config

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Database struct
type Database struct {
	Backend   string `toml:"backend"`
	Transport string `toml:"transport"`
	DBName    string `toml:"dbname"`
	// Retention of call history in hours, 0 keeps everything
	Retention int `toml:"retention"`
}

var configOnce sync.Once

var db = &Database{"bolt", "var/run/zbxcall.db", "zbxcall", 720}

// NewConfig is Concurrency safe.
func NewConfig() Database {
	configOnce.Do(func() {
		if err := viper.UnmarshalKey("database", db); err != nil {
			logrus.Errorf("Failed to read [database] config, using defaults: %v", err)
		}
	})

	return *db
}
