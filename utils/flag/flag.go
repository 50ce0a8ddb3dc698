package flag

import (
	"github.com/spf13/pflag"
)

// InitFlags declares and parses the command line flags.
// Positional arguments (the command and an args file) stay in pflag.Args().
func InitFlags() {
	// common
	pflag.String("conf-dir", "", "Directory of config file")
	pflag.String("log-dir", "", "Log file path, overrides [log] path")
	pflag.Bool("logtostderr", false, "Log to standard error")
	pflag.BoolP("version", "v", false, "Print version and exit")

	// zabbix connection
	pflag.String("url", "", "Zabbix server URL")
	pflag.String("url-path", "", "Path of the frontend below the server URL")
	pflag.String("user", "", "Zabbix user name")
	pflag.String("password", "", "Zabbix user password")
	pflag.String("auth-key", "", "Zabbix API token, replaces user and password")
	pflag.Bool("validate-certs", true, "Verify the server TLS certificate")
	pflag.Int("timeout", 10, "Timeout of one HTTP request in seconds")

	// call
	pflag.StringP("method", "m", "", "API method, <object>.<action>")
	pflag.StringP("params", "p", "", "Method params as JSON or YAML")
	pflag.String("params-file", "", "File with method params as JSON or YAML")
	pflag.Bool("check", false, "Check mode, report changed without calling the API")
	pflag.String("subject", "", "Caller identity checked by the method policy")

	// history
	pflag.String("id", "", "History record ID")
	pflag.Int("prune-hours", 0, "Remove history records older than this many hours")

	// serve, plugin
	pflag.String("address", "", "REST listen address")
	pflag.Uint("port", 0, "REST listen port")
	pflag.BoolP("debug", "d", false, "Enable debug logging")
	pflag.Bool("tls", false, "Serve the REST API over HTTPS")
	pflag.String("clientauth", "", "Client certificate policy: no, require, require_any, challenge_given, challenge")
	pflag.String("rpc-address", "", "Serve net/rpc on this TCP address instead of stdin/stdout")

	pflag.Parse()
}
