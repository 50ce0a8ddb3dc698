package acl

import (
	"context"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/zbxtools/zbxcall/internal/acl/config"
	"github.com/zbxtools/zbxcall/internal/dispatcher"
)

func method(name string) dispatcher.Method {
	m, err := dispatcher.ParseMethod(name)
	if err != nil {
		panic(err)
	}
	return m
}

func TestPatterns(t *testing.T) {
	Convey("Given inline allow and deny patterns", t, func() {
		p, err := New(config.ACL{
			Allow: []string{"host.*", "dashboard.get"},
			Deny:  []string{"*.delete"},
		})
		So(err, ShouldBeNil)

		Convey("Allowed methods pass", func() {
			So(p.Check("anonymous", method("host.get"), false), ShouldBeNil)
			So(p.Check("anonymous", method("dashboard.get"), false), ShouldBeNil)
		})

		Convey("Deny wins over allow", func() {
			err := p.Check("anonymous", method("host.delete"), false)
			So(errors.Is(err, dispatcher.ErrDenied), ShouldBeTrue)
		})

		Convey("Methods outside the allow list are denied", func() {
			err := p.Check("anonymous", method("user.get"), false)
			So(errors.Is(err, dispatcher.ErrDenied), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "method denied by policy: user.get")
		})
	})

	Convey("Given a bad pattern", t, func() {
		_, err := New(config.ACL{Allow: []string{"host.[get"}})
		So(err, ShouldNotBeNil)
	})

	Convey("Given a model without policy", t, func() {
		_, err := New(config.ACL{Model: "testdata/model.conf"})
		So(err, ShouldNotBeNil)
	})
}

func TestCasbin(t *testing.T) {
	Convey("Given a casbin model and policy", t, func() {
		p, err := New(config.ACL{
			Model:  "testdata/model.conf",
			Policy: "testdata/policy.csv",
		})
		So(err, ShouldBeNil)

		Convey("admin may call anything", func() {
			So(p.Check("admin", method("user.delete"), false), ShouldBeNil)
		})

		Convey("ops may call host methods only", func() {
			So(p.Check("ops", method("host.update"), false), ShouldBeNil)
			err := p.Check("ops", method("user.update"), false)
			So(errors.Is(err, dispatcher.ErrDenied), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "method denied by policy: ops may not call user.update")
		})

		Convey("everyone may run check mode", func() {
			So(p.Check("anonymous", method("user.delete"), true), ShouldBeNil)
			So(p.Check("anonymous", method("user.delete"), false), ShouldNotBeNil)
		})
	})
}

func TestGuard(t *testing.T) {
	Convey("A nil policy gives no guard", t, func() {
		var p *Policy
		So(p.Guard("admin"), ShouldBeNil)
	})

	Convey("A guard reports denials through the dispatcher", t, func() {
		p, err := New(config.ACL{Deny: []string{"*.delete"}})
		So(err, ShouldBeNil)

		d := dispatcher.New(dispatcher.NewRegistry(), dispatcher.WithGuard(p.Guard("bob")))
		out := d.Call(context.Background(), "host.delete", nil)
		So(out.Failed, ShouldBeTrue)
		So(out.Msg, ShouldEqual, "Failed to call api: method denied by policy: host.delete")
		So(errors.Is(out.Err, dispatcher.ErrDenied), ShouldBeTrue)
	})
}

func TestRulesReload(t *testing.T) {
	Convey("Given a rules file", t, func() {
		dir := t.TempDir()
		rulesFile := filepath.Join(dir, "rules.yaml")
		data, err := ioutil.ReadFile("testdata/rules.yaml")
		So(err, ShouldBeNil)
		So(ioutil.WriteFile(rulesFile, data, 0644), ShouldBeNil)

		p, err := New(config.ACL{Rules: rulesFile})
		So(err, ShouldBeNil)
		So(p.Check("anonymous", method("item.get"), false), ShouldBeNil)
		So(p.Check("anonymous", method("item.delete"), false), ShouldNotBeNil)

		Convey("A broken file keeps the previous policy", func() {
			So(ioutil.WriteFile(rulesFile, []byte("allow: [unclosed"), 0644), ShouldBeNil)
			So(p.Reload(), ShouldNotBeNil)
			So(p.Check("anonymous", method("item.get"), false), ShouldBeNil)
		})

		Convey("The watcher picks up changes", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			So(p.Watch(ctx), ShouldBeNil)

			So(ioutil.WriteFile(rulesFile, []byte("deny:\n  - \"item.*\"\n"), 0644), ShouldBeNil)

			denied := false
			for i := 0; i < 50 && !denied; i++ {
				denied = p.Check("anonymous", method("item.get"), false) != nil
				if !denied {
					time.Sleep(100 * time.Millisecond)
				}
			}
			So(denied, ShouldBeTrue)
		})
	})
}
