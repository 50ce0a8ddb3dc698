package types

import (
	"time"
)

// Transport names recorded with every call
const (
	TransportCLI  = "cli"
	TransportREST = "rest"
	TransportRPC  = "rpc"
	TransportAMQP = "amqp"
)

// CallRequest is one step handed over by the orchestration tool
type CallRequest struct {
	Method    string                 `json:"method" yaml:"method"`
	Params    map[string]interface{} `json:"params,omitempty" yaml:"params"`
	CheckMode bool                   `json:"check_mode,omitempty" yaml:"check_mode"`

	// Subject is the caller identity used by the method policy
	Subject string `json:"-" yaml:"-"`
	// Transport is the channel the request came from
	Transport string `json:"-" yaml:"-"`
}

// CallRecord is the audit entry of one call
type CallRecord struct {
	ID        string                 `json:"id" bson:"id"`
	Method    string                 `json:"method" bson:"method"`
	Params    map[string]interface{} `json:"params,omitempty" bson:"params,omitempty"`
	CheckMode bool                   `json:"check_mode" bson:"check_mode"`
	Changed   bool                   `json:"changed" bson:"changed"`
	Failed    bool                   `json:"failed" bson:"failed"`
	Msg       string                 `json:"msg,omitempty" bson:"msg,omitempty"`
	Subject   string                 `json:"subject,omitempty" bson:"subject,omitempty"`
	Transport string                 `json:"transport" bson:"transport"`
	Started   time.Time              `json:"started" bson:"started"`
	// Duration in milliseconds
	Duration int64 `json:"duration_ms" bson:"duration_ms"`
}
