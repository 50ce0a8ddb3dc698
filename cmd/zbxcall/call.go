package main

import (
	"fmt"

	loginfo "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
	proxyclient "github.com/zbxtools/zbxcall/internal/proxy/client"
	"github.com/zbxtools/zbxcall/modules/call/types"
	"github.com/zbxtools/zbxcall/utils/params"
)

// runCall handles "zbxcall call"
func runCall() int {
	req := types.CallRequest{
		Method:    flagString("method"),
		Subject:   flagString("subject"),
		Transport: types.TransportCLI,
	}
	req.CheckMode, _ = pflag.CommandLine.GetBool("check")

	var err error
	switch {
	case flagString("params-file") != "":
		req.Params, err = params.ReadFile(flagString("params-file"))
	case flagString("params") != "":
		req.Params, err = params.Parse([]byte(flagString("params")))
	}
	if err != nil {
		return report(dispatcher.Failure(fmt.Errorf("Failed to read params: %v", err)))
	}

	if f := pflag.Lookup("rpc-address"); f != nil && f.Changed {
		return report(remoteCall(f.Value.String(), req))
	}
	return execute(req)
}

// runArgsFile handles "zbxcall <args-file>", the binary module convention
// of the orchestration tool
func runArgsFile(path string) int {
	req, err := params.ReadArgs(path)
	if err != nil {
		return report(dispatcher.Failure(err))
	}
	req.Transport = types.TransportCLI
	return execute(req)
}

func execute(req types.CallRequest) int {
	d, err := newDeps()
	if err != nil {
		return report(dispatcher.Failure(err))
	}
	defer d.close()

	ctx, cancel := signalContext()
	defer cancel()
	return report(d.service().Execute(ctx, req))
}

func remoteCall(addr string, req types.CallRequest) dispatcher.Outcome {
	client, err := proxyclient.Dial(addr)
	if err != nil {
		return dispatcher.Failure(fmt.Errorf("Failed to connect %s: %v", addr, err))
	}
	defer client.Close()
	out, err := client.Call(req)
	if err != nil {
		return dispatcher.Failure(err)
	}
	return out
}

// report prints the outcome and gives the exit status
func report(out dispatcher.Outcome) int {
	printJSON(out)
	if out.Failed {
		loginfo.Debugf("Call failed: %s", out.Msg)
		return 1
	}
	return 0
}

func flagString(name string) string {
	f := pflag.Lookup(name)
	if f == nil {
		return ""
	}
	return f.Value.String()
}

