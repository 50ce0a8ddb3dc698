package zabbix

import (
	"strconv"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config represents connection settings of the Zabbix API
type Config struct {
	URL               string `toml:"url"`
	URLPath           string `toml:"urlpath"`
	User              string `toml:"user"`
	Password          string `toml:"password"`
	AuthKey           string `toml:"authkey"`
	HTTPLoginUser     string `toml:"httploginuser"`
	HTTPLoginPassword string `toml:"httploginpassword"`
	ValidateCerts     bool   `toml:"validatecerts"`
	// Timeout of a single HTTP request in seconds
	Timeout int `toml:"timeout"`
}

var zcfg = &Config{
	URL:           "http://localhost",
	URLPath:       "zabbix",
	User:          "Admin",
	ValidateCerts: true,
	Timeout:       10,
}
var runOnce sync.Once

// NewConfig reads the [zabbix] section of the configuration file.
// Command line flags, when given, take precedence.
func NewConfig() Config {
	runOnce.Do(func() {
		if err := viper.UnmarshalKey("zabbix", zcfg); err != nil {
			log.Error("zabbix.NewConfig() error:", err)
		}
		applyFlags(zcfg)
	})
	return *zcfg
}

func applyFlags(c *Config) {
	changed := func(name string) (string, bool) {
		f := pflag.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}
	if v, ok := changed("url"); ok {
		c.URL = v
	}
	if v, ok := changed("url-path"); ok {
		c.URLPath = v
	}
	if v, ok := changed("user"); ok {
		c.User = v
	}
	if v, ok := changed("password"); ok {
		c.Password = v
	}
	if v, ok := changed("auth-key"); ok {
		c.AuthKey = v
	}
	if v, ok := changed("validate-certs"); ok {
		c.ValidateCerts, _ = strconv.ParseBool(v)
	}
	if v, ok := changed("timeout"); ok {
		if t, err := strconv.Atoi(v); err == nil {
			c.Timeout = t
		}
	}
}
