package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	. "github.com/prashantv/gostub"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
)

func newRegistry(invoked *int) *dispatcher.Registry {
	reg := dispatcher.NewRegistry()
	reg.MustRegister("host.get", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		*invoked++
		return []interface{}{map[string]interface{}{"hostid": "10084", "output": params["output"]}}, nil
	})
	reg.MustRegister("host.delete", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		*invoked++
		return nil, errors.New("No permissions to referred object or it does not exist!")
	})
	return reg
}

func newFlags(args ...string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("zbxcall", pflag.ContinueOnError)
	fs.StringP("method", "m", "", "")
	fs.StringP("params", "p", "", "")
	fs.String("params-file", "", "")
	fs.Bool("check", false, "")
	fs.String("subject", "", "")
	fs.String("rpc-address", "", "")
	So(fs.Parse(args), ShouldBeNil)
	return fs
}

// runCaptured runs a command and decodes every JSON value it wrote to stdout
func runCaptured(dir string, run func() int) (int, []map[string]interface{}) {
	f, err := os.Create(filepath.Join(dir, "stdout"))
	So(err, ShouldBeNil)
	defer f.Close()

	stubs := Stub(&os.Stdout, f)
	code := run()
	stubs.Reset()

	_, err = f.Seek(0, io.SeekStart)
	So(err, ShouldBeNil)
	outs := []map[string]interface{}{}
	dec := json.NewDecoder(f)
	for {
		out := map[string]interface{}{}
		err := dec.Decode(&out)
		if err == io.EOF {
			break
		}
		So(err, ShouldBeNil)
		outs = append(outs, out)
	}
	return code, outs
}

func writeArgs(dir, content string) string {
	path := filepath.Join(dir, "args")
	So(ioutil.WriteFile(path, []byte(content), 0600), ShouldBeNil)
	return path
}

func TestRunArgsFile(t *testing.T) {
	Convey("Given an args file handed over by the orchestration tool", t, func() {
		dir, err := ioutil.TempDir("", "zbxcall-cli")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		invoked := 0
		stubs := Stub(&newDeps, func() (*deps, error) {
			return &deps{api: newRegistry(&invoked)}, nil
		})
		defer stubs.Reset()

		Convey("Check mode prints only the changed report and exits 0", func() {
			path := writeArgs(dir, `{"method": "host.delete", "params": {"0": "10084"}, "_ansible_check_mode": true}`)
			code, outs := runCaptured(dir, func() int { return runArgsFile(path) })
			So(code, ShouldEqual, 0)
			So(len(outs), ShouldEqual, 1)
			So(outs[0], ShouldResemble, map[string]interface{}{"changed": true})
			So(invoked, ShouldEqual, 0)
		})

		Convey("A yaml args file with check_mode off calls the method", func() {
			path := writeArgs(dir, "method: host.get\nparams:\n  output: extend\ncheck_mode: false\n")
			code, outs := runCaptured(dir, func() int { return runArgsFile(path) })
			So(code, ShouldEqual, 0)
			So(len(outs), ShouldEqual, 1)
			So(outs[0]["changed"], ShouldEqual, true)
			result := outs[0]["result"].([]interface{})
			So(result[0].(map[string]interface{})["output"], ShouldEqual, "extend")
			So(invoked, ShouldEqual, 1)
		})

		Convey("An invalid method prints the failure and exits 1", func() {
			path := writeArgs(dir, `{"method": "Foo.bar"}`)
			code, outs := runCaptured(dir, func() int { return runArgsFile(path) })
			So(code, ShouldEqual, 1)
			So(len(outs), ShouldEqual, 1)
			So(outs[0], ShouldResemble, map[string]interface{}{"failed": true, "msg": "Foo.bar is invalid value."})
			So(invoked, ShouldEqual, 0)
		})

		Convey("An api error prints the failure and exits 1", func() {
			path := writeArgs(dir, `{"method": "host.delete", "params": {"0": "10084"}}`)
			code, outs := runCaptured(dir, func() int { return runArgsFile(path) })
			So(code, ShouldEqual, 1)
			So(len(outs), ShouldEqual, 1)
			So(outs[0]["msg"], ShouldEqual, "Failed to call api: No permissions to referred object or it does not exist!")
		})

		Convey("A missing args file is a failure", func() {
			code, outs := runCaptured(dir, func() int { return runArgsFile(filepath.Join(dir, "missing")) })
			So(code, ShouldEqual, 1)
			So(len(outs), ShouldEqual, 1)
			So(outs[0]["failed"], ShouldEqual, true)
		})

		Convey("A failed setup is a failure", func() {
			stubs.Stub(&newDeps, func() (*deps, error) {
				return nil, errors.New("Zabbix server url is required")
			})
			path := writeArgs(dir, `{"method": "host.get"}`)
			code, outs := runCaptured(dir, func() int { return runArgsFile(path) })
			So(code, ShouldEqual, 1)
			So(len(outs), ShouldEqual, 1)
			So(outs[0]["msg"], ShouldEqual, "Zabbix server url is required")
		})
	})
}

func TestRunCall(t *testing.T) {
	Convey("Given the call command", t, func() {
		dir, err := ioutil.TempDir("", "zbxcall-cli")
		So(err, ShouldBeNil)
		defer os.RemoveAll(dir)

		invoked := 0
		stubs := Stub(&newDeps, func() (*deps, error) {
			return &deps{api: newRegistry(&invoked)}, nil
		})
		defer stubs.Reset()

		run := func(args ...string) (int, []map[string]interface{}) {
			stubs.Stub(&pflag.CommandLine, newFlags(args...))
			return runCaptured(dir, runCall)
		}

		Convey("Params given as json reach the method", func() {
			code, outs := run("--method", "host.get", "--params", `{"output": "extend"}`)
			So(code, ShouldEqual, 0)
			So(len(outs), ShouldEqual, 1)
			result := outs[0]["result"].([]interface{})
			So(result[0].(map[string]interface{})["output"], ShouldEqual, "extend")
		})

		Convey("Params read from a yaml file reach the method", func() {
			path := filepath.Join(dir, "params.yaml")
			So(ioutil.WriteFile(path, []byte("output: count\n"), 0600), ShouldBeNil)
			code, outs := run("-m", "host.get", "--params-file", path)
			So(code, ShouldEqual, 0)
			result := outs[0]["result"].([]interface{})
			So(result[0].(map[string]interface{})["output"], ShouldEqual, "count")
		})

		Convey("Check mode skips the method", func() {
			code, outs := run("--method", "host.delete", "--check")
			So(code, ShouldEqual, 0)
			So(outs, ShouldResemble, []map[string]interface{}{{"changed": true}})
			So(invoked, ShouldEqual, 0)
		})

		Convey("Unreadable params exit 1 without calling", func() {
			code, outs := run("--method", "host.get", "--params", "[1")
			So(code, ShouldEqual, 1)
			So(len(outs), ShouldEqual, 1)
			So(outs[0]["msg"], ShouldStartWith, "Failed to read params: ")
			So(invoked, ShouldEqual, 0)
		})

		Convey("An invalid method exits 1", func() {
			code, outs := run("--method", "Foo.bar")
			So(code, ShouldEqual, 1)
			So(outs, ShouldResemble, []map[string]interface{}{{"failed": true, "msg": "Foo.bar is invalid value."}})
		})
	})
}
