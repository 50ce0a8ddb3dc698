package dispatcher

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Operation is a remote API call bound to one "<object>.<action>" name.
// params is passed through unmodified; the returned value is reported verbatim.
type Operation func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// Object resolves action names of one API object to operations
type Object interface {
	Method(name string) (Operation, error)
}

// API resolves object names on a remote API handle.
// Implementations are not required to know the object names in advance.
type API interface {
	Object(name string) (Object, error)
}

// Guard decides whether a validated method may be called.
// A non-nil error is reported as a call failure.
type Guard func(m Method, check bool) error

// Dispatcher forwards one named call to an API handle
type Dispatcher struct {
	api   API
	check bool
	guard Guard
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithCheckMode makes Call skip invocation and report "would change"
func WithCheckMode(check bool) Option {
	return func(d *Dispatcher) {
		d.check = check
	}
}

// WithGuard attaches a method policy check
func WithGuard(g Guard) Option {
	return func(d *Dispatcher) {
		d.guard = g
	}
}

// New creates a dispatcher bound to api
func New(api API, opts ...Option) *Dispatcher {
	d := &Dispatcher{api: api}
	for _, o := range opts {
		o(d)
	}
	return d
}

// CheckMode reports whether the dispatcher runs dry
func (d *Dispatcher) CheckMode() bool {
	return d.check
}

// Call validates method, resolves it on the API handle and invokes it with params.
//
// Call never returns an error or panics: every failure is turned into a failed Outcome.
// An invalid method name fails with "<method> is invalid value." and nothing else is attempted.
// Any later failure is reported as "Failed to call api: <details>".
func (d *Dispatcher) Call(ctx context.Context, method string, params map[string]interface{}) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Recovered from panic while calling %s: %v", method, r)
			out = Failure(&CallError{Method: method, Err: fmt.Errorf("%v", r)})
		}
	}()

	m, err := ParseMethod(method)
	if err != nil {
		log.Debugf("Rejected method name %q", method)
		return Failure(err)
	}

	if params == nil {
		params = map[string]interface{}{}
	}

	if d.guard != nil {
		if err := d.guard(m, d.check); err != nil {
			return Failure(&CallError{Method: method, Err: err})
		}
	}

	// check mode always reports a change
	if d.check {
		log.Debugf("Check mode, skipping %s", method)
		return Success(nil)
	}

	op, err := d.resolve(m)
	if err != nil {
		return Failure(&CallError{Method: method, Err: err})
	}

	log.WithFields(log.Fields{"method": method}).Debug("Invoking api method")
	res, err := op(ctx, params)
	if err != nil {
		return Failure(&CallError{Method: method, Err: err})
	}
	return Success(res)
}

func (d *Dispatcher) resolve(m Method) (Operation, error) {
	if d.api == nil {
		return nil, fmt.Errorf("no api handle to resolve %s", m)
	}
	obj, err := d.api.Object(m.Object)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, m.Object)
	}
	op, err := obj.Method(m.Action)
	if err != nil {
		return nil, err
	}
	if op == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, m)
	}
	return op, nil
}
