package call

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zbxtools/zbxcall/internal/acl"
	"github.com/zbxtools/zbxcall/internal/db"
	"github.com/zbxtools/zbxcall/internal/dispatcher"
	"github.com/zbxtools/zbxcall/internal/events"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// DefaultSubject is the caller identity when a transport does not provide one
const DefaultSubject = "anonymous"

// timeNow is replaced in tests
var timeNow = time.Now

// Service runs calls against the API and keeps their audit trail
type Service struct {
	api    dispatcher.API
	policy *acl.Policy
	db     db.DB
	events events.Publisher
}

// Option configures a Service
type Option func(*Service)

// WithPolicy guards every call with p
func WithPolicy(p *acl.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithDB records every call in d
func WithDB(d db.DB) Option {
	return func(s *Service) {
		s.db = d
	}
}

// WithEvents publishes an event for every call
func WithEvents(p events.Publisher) Option {
	return func(s *Service) {
		s.events = p
	}
}

// NewService creates a call service bound to api
func NewService(api dispatcher.API, opts ...Option) *Service {
	s := &Service{api: api}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Execute dispatches one request. Recording and publishing failures are
// logged and never change the outcome.
func (s *Service) Execute(ctx context.Context, req types.CallRequest) dispatcher.Outcome {
	subject := req.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	d := dispatcher.New(s.api,
		dispatcher.WithCheckMode(req.CheckMode),
		dispatcher.WithGuard(s.policy.Guard(subject)))

	started := timeNow()
	out := d.Call(ctx, req.Method, req.Params)
	elapsed := timeNow().Sub(started)

	r := types.CallRecord{
		Method:    req.Method,
		Params:    req.Params,
		CheckMode: req.CheckMode,
		Changed:   out.Changed,
		Failed:    out.Failed,
		Msg:       out.Msg,
		Subject:   subject,
		Transport: req.Transport,
		Started:   started.UTC(),
		Duration:  int64(elapsed / time.Millisecond),
	}

	entry := log.WithFields(log.Fields{
		"method":    r.Method,
		"subject":   r.Subject,
		"transport": r.Transport,
		"check":     r.CheckMode,
		"duration":  r.Duration,
	})
	if out.Failed {
		entry.Warnf("Call failed: %s", out.Msg)
	} else {
		entry.Info("Call succeeded")
	}

	s.record(ctx, r)
	return out
}

func (s *Service) record(ctx context.Context, r types.CallRecord) {
	if s.db != nil {
		if err := s.db.CreateCall(&r); err != nil {
			log.Errorf("Failed to record call %s: %v", r.Method, err)
		}
	}
	if s.events != nil {
		if err := s.events.Publish(ctx, events.FromRecord(r)); err != nil {
			log.Errorf("Failed to publish call %s: %v", r.Method, err)
		}
	}
}
