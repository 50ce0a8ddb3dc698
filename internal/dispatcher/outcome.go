package dispatcher

import (
	"encoding/json"
)

// Outcome is the report handed back to the orchestration tool.
//
// A successful call serialises to {"changed": true, "result": ...}, a check-mode call to
// {"changed": true} and a failure to {"failed": true, "msg": "..."}.
type Outcome struct {
	Changed bool        `json:"changed"`
	Failed  bool        `json:"failed,omitempty"`
	Msg     string      `json:"msg,omitempty"`
	Result  interface{} `json:"result,omitempty"`

	// Err keeps the underlying error of a failure for in-process callers
	Err error `json:"-"`
}

// Success builds the outcome of an invoked (or skipped) call.
// changed is unconditional: no read/write classification of API methods is made.
func Success(result interface{}) Outcome {
	return Outcome{Changed: true, Result: result}
}

// Failure builds the outcome of a failed call. The message is the error text.
func Failure(err error) Outcome {
	return Outcome{Failed: true, Msg: err.Error(), Err: err}
}

// OK reports whether the call succeeded
func (o Outcome) OK() bool {
	return !o.Failed
}

// MarshalJSON keeps empty results such as [] in the report
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Failed {
		return json.Marshal(map[string]interface{}{"failed": true, "msg": o.Msg})
	}
	m := map[string]interface{}{"changed": o.Changed}
	if o.Result != nil {
		m["result"] = o.Result
	}
	return json.Marshal(m)
}
