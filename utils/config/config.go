package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defaultConfigPath = []string{
	"/usr/local/etc/zbxcall/",
	"/etc/zbxcall/",
	"./etc/zbxcall",
}

// Init reads zbxcall.toml from --conf-dir or the default paths
func Init() error {
	viper.SetConfigName("zbxcall") // no need to include file extension
	if f := pflag.Lookup("conf-dir"); f != nil && f.Value.String() != "" {
		viper.AddConfigPath(f.Value.String())
	}
	for _, p := range defaultConfigPath {
		viper.AddConfigPath(p)
	}
	err := viper.ReadInConfig()
	if err != nil {
		// log is not initialized yet, and stdout carries the call outcome
		fmt.Fprintf(os.Stderr, "No config file found from %v, fall back to using default setting\n", defaultConfigPath)
	}
	return nil
}

// Default is the configuration in default section of config file
type Default struct {
	Address string `toml:"address"`
	Port    uint   `toml:"port"`
	PIDFile string `toml:"pidfile"`
	// RPCAddress serves the plugin transport over TCP when set
	RPCAddress string `toml:"rpcaddress"`
	// TLS switches the REST gateway to HTTPS
	TLS          bool   `toml:"tls"`
	CertPath     string `toml:"certpath"`
	ClientCAPath string `toml:"clientcapath"`
	ClientAuth   string `toml:"clientauth"`
}

// Debug configurations
type Debug struct {
	// Enabled forces debug level logging
	Enabled bool `toml:"enabled"`
}

// Config represent the configuration struct
type Config struct {
	Def Default `mapstructure:"default"`
	Dbg Debug   `mapstructure:"debug"`
}

var configOnce sync.Once
var config = &Config{
	Def: Default{
		Address:      "localhost",
		Port:         8088,
		PIDFile:      "var/run/zbxcall.pid",
		CertPath:     "etc/zbxcall/cert/server",
		ClientCAPath: "etc/zbxcall/cert/client",
		ClientAuth:   "challenge_given",
	},
}

// NewConfig loads configurations from config file and pflag
func NewConfig() Config {
	configOnce.Do(func() {
		// Take the value from pflag which was defined in flag.go.
		// Unset flags would hide the defaults of the struct, so only bind changed ones.
		bind := func(key, name string) {
			if f := pflag.Lookup(name); f != nil && f.Changed {
				viper.BindPFlag(key, f)
			}
		}
		bind("default.address", "address")
		bind("default.port", "port")
		bind("default.rpcaddress", "rpc-address")
		bind("default.tls", "tls")
		bind("default.clientauth", "clientauth")
		bind("debug.enabled", "debug")

		err := viper.Unmarshal(config)
		if err != nil {
			panic(err)
		}
	})

	return *config
}
