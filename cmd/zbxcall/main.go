package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	loginfo "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/zbxtools/zbxcall/internal/acl"
	"github.com/zbxtools/zbxcall/internal/db"
	"github.com/zbxtools/zbxcall/internal/dispatcher"
	"github.com/zbxtools/zbxcall/internal/events"
	"github.com/zbxtools/zbxcall/internal/zabbix"
	"github.com/zbxtools/zbxcall/modules/call"
	appconf "github.com/zbxtools/zbxcall/utils/config"
	"github.com/zbxtools/zbxcall/utils/flag"
	"github.com/zbxtools/zbxcall/utils/log"
	"github.com/zbxtools/zbxcall/version"
)

const usage = `Usage:
  zbxcall call --method <object.action> [--params <json|yaml>] [--params-file <file>] [--check]
  zbxcall <args-file>
  zbxcall history [--id <id>] [--method <object.action>] [--prune-hours <hours>]
  zbxcall serve | plugin | consume
  zbxcall --version
`

func main() {
	flag.InitFlags()

	if pflag.Lookup("version").Value.String() == "true" {
		fmt.Printf("zbxcall version: %s (%s)\n", version.Info["version"], version.Info["revision"])
		os.Exit(0)
	}

	if err := appconf.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "Init config failed:", err)
		os.Exit(1)
	}
	if err := log.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "Init log failed:", err)
		os.Exit(1)
	}

	switch cmd := pflag.Arg(0); cmd {
	case "":
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	case "call":
		os.Exit(runCall())
	case "history":
		os.Exit(runHistory())
	case "serve":
		os.Exit(runServe())
	case "plugin":
		os.Exit(runPlugin())
	case "consume":
		os.Exit(runConsume())
	default:
		os.Exit(runArgsFile(cmd))
	}
}

// deps are the connections shared by all commands
type deps struct {
	api    dispatcher.API
	db     db.DB
	events events.Publisher
	policy *acl.Policy
}

// newDeps is replaced in tests
var newDeps = setup

// setup connects everything configured. A history database that cannot be
// opened is logged and skipped: calls work without it.
func setup() (*deps, error) {
	d := &deps{}

	store, err := db.NewDB()
	if err != nil {
		loginfo.Warnf("Call history disabled, failed to open database: %v", err)
	} else {
		d.db = store
	}

	opts := []zabbix.Option{}
	if d.db != nil {
		opts = append(opts, zabbix.WithSessionStore(d.db))
	}
	client, err := zabbix.NewClient(zabbix.NewConfig(), opts...)
	if err != nil {
		d.close()
		return nil, err
	}
	d.api = client

	if d.policy, err = acl.NewPolicy(); err != nil {
		d.close()
		return nil, err
	}

	if d.events, err = events.NewPublisher(); err != nil {
		d.close()
		return nil, err
	}
	return d, nil
}

func (d *deps) service() *call.Service {
	opts := []call.Option{call.WithPolicy(d.policy)}
	if d.db != nil {
		opts = append(opts, call.WithDB(d.db))
	}
	if d.events != nil {
		opts = append(opts, call.WithEvents(d.events))
	}
	return call.NewService(d.api, opts...)
}

func (d *deps) close() {
	if d.events != nil {
		if err := d.events.Close(); err != nil {
			loginfo.Errorf("Failed to close event publisher: %v", err)
		}
	}
	if d.db != nil {
		d.db.Close()
	}
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigchan:
			loginfo.Infof("Caught signal %s: zbxcall exits!", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigchan)
	}()
	return ctx, cancel
}

func printJSON(v interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, "Failed to encode output:", err)
	}
}
