package config

import (
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Log is the log config struct
type Log struct {
	Path   string `toml:"path"`
	Env    string `toml:"env"`
	Level  string `toml:"level"`
	Stdout bool   `toml:"stdout"`
}

var configOnce sync.Once
var log = &Log{"var/log/zbxcall.log", "dev", "info", true}

// NewConfig loads log config
func NewConfig() Log {
	configOnce.Do(func() {
		if err := viper.UnmarshalKey("log", log); err != nil {
			logrus.Errorf("Failed to read [log] config, using defaults: %v", err)
		}

		if f := pflag.Lookup("log-dir"); f != nil && f.Value.String() != "" {
			log.Path = f.Value.String()
			log.Stdout = false
		}

		if f := pflag.Lookup("logtostderr"); f != nil {
			if tostd, _ := strconv.ParseBool(f.Value.String()); tostd {
				log.Stdout = true
			}
		}
	})

	return *log
}
