package dispatcher

import (
	"errors"
	"fmt"
	"sync"
)

// Registry is an in-process API handle mapping method names to closures
type Registry struct {
	mu      sync.RWMutex
	objects map[string]registryObject
}

type registryObject map[string]Operation

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{objects: make(map[string]registryObject)}
}

// Register stores op under the dotted method name
//
// If the name is not a valid method, op is nil or the name is already taken
// error is returned
func (r *Registry) Register(name string, op Operation) error {
	m, err := ParseMethod(name)
	if err != nil {
		return err
	}
	if op == nil {
		return errors.New("Invalid parameter: nil operation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[m.Object]
	if !ok {
		obj = make(registryObject)
		r.objects[m.Object] = obj
	}
	if _, ok := obj[m.Action]; ok {
		return fmt.Errorf("Method %s already registered", name)
	}
	obj[m.Action] = op
	return nil
}

// MustRegister is Register that panics on error
func (r *Registry) MustRegister(name string, op Operation) {
	if err := r.Register(name, op); err != nil {
		panic(err)
	}
}

// Object implements API
func (r *Registry) Object(name string) (Object, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, name)
	}
	// copy so that later registrations do not race with the caller
	cp := make(registryObject, len(obj))
	for k, v := range obj {
		cp[k] = v
	}
	return registryHandle{name: name, ops: cp}, nil
}

// Methods lists registered method names
func (r *Registry) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for o, obj := range r.objects {
		for a := range obj {
			names = append(names, o+"."+a)
		}
	}
	return names
}

type registryHandle struct {
	name string
	ops  registryObject
}

func (h registryHandle) Method(name string) (Operation, error) {
	op, ok := h.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMethod, h.name, name)
	}
	return op, nil
}
