package params

import (
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Parse accepts JSON objects", t, func() {
		m, err := Parse([]byte(`{"filter": {"name": "Zabbix server health"}, "limit": 10}`))
		So(err, ShouldBeNil)
		So(m["limit"], ShouldEqual, json.Number("10"))
		So(m["filter"], ShouldResemble, map[string]interface{}{"name": "Zabbix server health"})
	})

	Convey("Parse accepts YAML mappings", t, func() {
		m, err := Parse([]byte("filter:\n  name: Zabbix server health\nhostids:\n  - 10084\n"))
		So(err, ShouldBeNil)
		So(m["filter"], ShouldResemble, map[string]interface{}{"name": "Zabbix server health"})
		So(m["hostids"], ShouldResemble, []interface{}{10084})
	})

	Convey("Empty input gives empty params", t, func() {
		m, err := Parse([]byte("  \n"))
		So(err, ShouldBeNil)
		So(m, ShouldBeEmpty)
	})

	Convey("Non mappings are rejected", t, func() {
		_, err := Parse([]byte("- host.get\n- host.create\n"))
		So(err, ShouldNotBeNil)

		_, err = Parse([]byte("filter: [unclosed"))
		So(err, ShouldNotBeNil)
	})
}

func TestReadArgs(t *testing.T) {
	write := func(dir, content string) string {
		p := filepath.Join(dir, "args")
		if err := ioutil.WriteFile(p, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	Convey("Given an args file", t, func() {
		dir := t.TempDir()

		Convey("method, params and check mode are read", func() {
			p := write(dir, `{"method": "dashboard.get", "params": {"output": "extend"}, "_ansible_check_mode": true}`)
			req, err := ReadArgs(p)
			So(err, ShouldBeNil)
			So(req.Method, ShouldEqual, "dashboard.get")
			So(req.Params, ShouldResemble, map[string]interface{}{"output": "extend"})
			So(req.CheckMode, ShouldBeTrue)
		})

		Convey("check_mode is accepted as a string", func() {
			p := write(dir, "method: host.get\ncheck_mode: \"false\"\n")
			req, err := ReadArgs(p)
			So(err, ShouldBeNil)
			So(req.Params, ShouldBeNil)
			So(req.CheckMode, ShouldBeFalse)
		})

		Convey("method is required", func() {
			_, err := ReadArgs(write(dir, `{"params": {}}`))
			So(err, ShouldNotBeNil)
		})

		Convey("params must be a mapping", func() {
			_, err := ReadArgs(write(dir, `{"method": "host.get", "params": [1, 2]}`))
			So(err, ShouldNotBeNil)
		})

		Convey("a missing file is an error", func() {
			_, err := ReadArgs(filepath.Join(dir, "nothing"))
			So(err, ShouldNotBeNil)
		})
	})
}
