package config

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// ACL is the [acl] section
type ACL struct {
	Enabled bool `toml:"enabled"`
	// Model and Policy are casbin files, both or neither
	Model  string `toml:"model"`
	Policy string `toml:"policy"`
	// Rules is a yaml file with extra allow/deny method patterns
	Rules string   `toml:"rules"`
	Allow []string `toml:"allow"`
	Deny  []string `toml:"deny"`
	Watch bool     `toml:"watch"`
}

var once sync.Once
var acl = &ACL{}

// NewConfig loads the [acl] section once
func NewConfig() ACL {
	once.Do(func() {
		if err := viper.UnmarshalKey("acl", acl); err != nil {
			logrus.Errorf("Failed to read [acl] config, using defaults: %v", err)
		}
	})
	return *acl
}
