package types

import (
	"bytes"
	"encoding/gob"
	"encoding/json"

	"github.com/zbxtools/zbxcall/internal/dispatcher"
)

// params of a CallRequest are decoded JSON or YAML
func init() {
	gob.Register(map[string]interface{}{})
	gob.Register([]interface{}{})
	gob.Register(json.Number(""))
}

// CallResponse is the reply of Proxy.Call. Result is JSON encoded.
type CallResponse struct {
	Changed bool
	Failed  bool
	Msg     string
	Result  []byte
}

// NewCallResponse encodes out for the wire
func NewCallResponse(out dispatcher.Outcome) (CallResponse, error) {
	resp := CallResponse{Changed: out.Changed, Failed: out.Failed, Msg: out.Msg}
	if out.Result != nil {
		b, err := json.Marshal(out.Result)
		if err != nil {
			return resp, err
		}
		resp.Result = b
	}
	return resp, nil
}

// Outcome decodes the response. Numbers in the result are kept as json.Number.
func (r CallResponse) Outcome() (dispatcher.Outcome, error) {
	out := dispatcher.Outcome{Changed: r.Changed, Failed: r.Failed, Msg: r.Msg}
	if len(r.Result) == 0 {
		return out, nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Result))
	dec.UseNumber()
	if err := dec.Decode(&out.Result); err != nil {
		return out, err
	}
	return out, nil
}
