package acl

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/casbin/casbin"
	"github.com/gobwas/glob"
	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/zbxtools/zbxcall/internal/acl/config"
	"github.com/zbxtools/zbxcall/internal/dispatcher"
)

// Casbin request actions
const (
	ActionCall  = "call"
	ActionCheck = "check"
)

// Policy decides which subject may call which method
type Policy struct {
	cfg config.ACL

	lock     sync.RWMutex
	allow    []glob.Glob
	deny     []glob.Glob
	enforcer *casbin.Enforcer
}

type rules struct {
	Allow []string `yaml:"allow"`
	Deny  []string `yaml:"deny"`
}

// NewPolicy builds the policy from the [acl] section.
// It returns nil when the policy is disabled.
func NewPolicy() (*Policy, error) {
	cfg := config.NewConfig()
	if !cfg.Enabled {
		return nil, nil
	}
	return New(cfg)
}

// New builds a policy from cfg
func New(cfg config.ACL) (*Policy, error) {
	if (cfg.Model == "") != (cfg.Policy == "") {
		return nil, errors.New("acl model and policy must be configured together")
	}
	p := &Policy{cfg: cfg}
	if err := p.Reload(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reload reads patterns and casbin files again.
// On error the previous policy stays in effect.
func (p *Policy) Reload() error {
	allowPatterns := append([]string{}, p.cfg.Allow...)
	denyPatterns := append([]string{}, p.cfg.Deny...)
	if p.cfg.Rules != "" {
		r, err := loadRules(p.cfg.Rules)
		if err != nil {
			return err
		}
		allowPatterns = append(allowPatterns, r.Allow...)
		denyPatterns = append(denyPatterns, r.Deny...)
	}

	allow, err := compile(allowPatterns)
	if err != nil {
		return err
	}
	deny, err := compile(denyPatterns)
	if err != nil {
		return err
	}

	var e *casbin.Enforcer
	if p.cfg.Model != "" {
		if e, err = newEnforcer(p.cfg.Model, p.cfg.Policy); err != nil {
			return err
		}
	}

	p.lock.Lock()
	p.allow, p.deny, p.enforcer = allow, deny, e
	p.lock.Unlock()

	log.Infof("Loaded method policy: %d allow, %d deny patterns, casbin %t",
		len(allow), len(deny), e != nil)
	return nil
}

// Check returns an error wrapping dispatcher.ErrDenied when subject may not call m
func (p *Policy) Check(subject string, m dispatcher.Method, check bool) error {
	name := m.String()

	p.lock.RLock()
	defer p.lock.RUnlock()

	for _, g := range p.deny {
		if g.Match(name) {
			return fmt.Errorf("%w: %s", dispatcher.ErrDenied, name)
		}
	}
	if len(p.allow) > 0 && !matchAny(p.allow, name) {
		return fmt.Errorf("%w: %s", dispatcher.ErrDenied, name)
	}
	if p.enforcer != nil {
		act := ActionCall
		if check {
			act = ActionCheck
		}
		if !p.enforcer.Enforce(subject, name, act) {
			return fmt.Errorf("%w: %s may not %s %s", dispatcher.ErrDenied, subject, act, name)
		}
	}
	return nil
}

// Guard binds the policy to subject. A nil policy gives a nil guard.
func (p *Policy) Guard(subject string) dispatcher.Guard {
	if p == nil {
		return nil
	}
	return func(m dispatcher.Method, check bool) error {
		err := p.Check(subject, m, check)
		if err != nil {
			log.WithFields(log.Fields{"subject": subject, "method": m.String()}).Warn("Call denied")
		}
		return err
	}
}

func compile(patterns []string) ([]glob.Glob, error) {
	gs := make([]glob.Glob, 0, len(patterns))
	for _, v := range patterns {
		g, err := glob.Compile(v, '.')
		if err != nil {
			return nil, fmt.Errorf("bad method pattern %q: %v", v, err)
		}
		gs = append(gs, g)
	}
	return gs, nil
}

func matchAny(gs []glob.Glob, name string) bool {
	for _, g := range gs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

func loadRules(path string) (rules, error) {
	r := rules{}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("bad rules file %s: %v", path, err)
	}
	return r, nil
}

// casbin panics on unreadable model files
func newEnforcer(model, policy string) (e *casbin.Enforcer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("init Enforcer error: %v", r)
		}
	}()
	e = casbin.NewEnforcer(model, policy)
	return e, nil
}
