package log

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	appconf "github.com/zbxtools/zbxcall/utils/config"
	"github.com/zbxtools/zbxcall/utils/log/config"
)

// Init does log config init.
// Stdout logging goes to stderr, stdout carries the call outcome.
func Init() error {
	config := config.NewConfig()
	l := level(config.Level, appconf.NewConfig().Dbg.Enabled)
	if config.Stdout {
		logrus.SetOutput(os.Stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(
			config.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_SYNC, 0660)
		if err != nil {
			return err
		}
		logrus.SetOutput(f)
	}

	logrus.SetLevel(l)
	if config.Env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}

// level is debug when [debug] is enabled, the [log] level otherwise
func level(name string, debug bool) logrus.Level {
	if debug {
		return logrus.DebugLevel
	}
	l, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
