package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zbxtools/zbxcall/internal/zabbix"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

func Setup(t *testing.T) DB {
	testdb, err := Open("bolt", filepath.Join(t.TempDir(), "run", "testdb"), "zbxcall")
	if err != nil {
		t.Fatalf("Unable to create database - exiting test: %v", err)
	}
	t.Cleanup(func() { testdb.Close() })
	return testdb
}

func TestOpen_UnsupportedBackend(t *testing.T) {
	if _, err := Open("sqlite", "unused", "unused"); err == nil {
		t.Error("Open() expected error for unknown backend")
	}
	if _, err := Open("bolt", "", "unused"); err == nil {
		t.Error("Open() expected error for empty path")
	}
}

func TestBoltDB_Initialize(t *testing.T) {
	db := Setup(t)

	type args struct {
		transport string
		dbname    string
	}
	tests := []struct {
		name    string
		b       DB
		args    args
		wantErr bool
	}{
		{"Proper DB initialization", db, args{"unused", "unused"}, false},
		{"Repeated DB initialization", db, args{"", ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.b.Initialize(tt.args.transport, tt.args.dbname); (err != nil) != tt.wantErr {
				t.Errorf("BoltDB.Initialize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBoltDB_CreateAndGet(t *testing.T) {
	db := Setup(t)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := &types.CallRecord{
		Method:    "host.get",
		Params:    map[string]interface{}{"output": "extend"},
		Changed:   true,
		Transport: types.TransportCLI,
		Started:   started,
	}
	if err := db.CreateCall(first); err != nil {
		t.Fatalf("BoltDB.CreateCall() error = %v", err)
	}
	if first.ID != "1" {
		t.Errorf("BoltDB.CreateCall() ID = %q, want 1", first.ID)
	}

	if err := db.CreateCall(nil); err == nil {
		t.Error("BoltDB.CreateCall(nil) expected error")
	}

	got, err := db.GetCallByID(first.ID)
	if err != nil {
		t.Fatalf("BoltDB.GetCallByID() error = %v", err)
	}
	if got.Method != "host.get" || !got.Changed || !got.Started.Equal(started) {
		t.Errorf("BoltDB.GetCallByID() = %+v", got)
	}

	if _, err := db.GetCallByID("42"); err != ErrNotFound {
		t.Errorf("BoltDB.GetCallByID() error = %v, want ErrNotFound", err)
	}
}

func TestBoltDB_RedactsSecrets(t *testing.T) {
	db := Setup(t)

	r := &types.CallRecord{
		Method: "user.create",
		Params: map[string]interface{}{
			"username": "ops",
			"passwd":   "s3cret",
			"medias":   []interface{}{map[string]interface{}{"token": "abc"}},
		},
	}
	if err := db.CreateCall(r); err != nil {
		t.Fatalf("BoltDB.CreateCall() error = %v", err)
	}
	got, err := db.GetCallByID(r.ID)
	if err != nil {
		t.Fatalf("BoltDB.GetCallByID() error = %v", err)
	}
	if got.Params["passwd"] != redacted {
		t.Errorf("passwd = %v, want redacted", got.Params["passwd"])
	}
	if got.Params["username"] != "ops" {
		t.Errorf("username = %v, want ops", got.Params["username"])
	}
	medias := got.Params["medias"].([]interface{})
	if medias[0].(map[string]interface{})["token"] != redacted {
		t.Errorf("nested token was not redacted: %v", medias)
	}
}

func TestBoltDB_QueryCalls(t *testing.T) {
	db := Setup(t)

	records := []types.CallRecord{
		{Method: "host.get", Changed: true},
		{Method: "host.create", Failed: true, Msg: "Failed to call api: boom"},
		{Method: "host.get", Changed: true},
	}
	for i := range records {
		if err := db.CreateCall(&records[i]); err != nil {
			t.Fatalf("BoltDB.CreateCall() error = %v", err)
		}
	}

	tests := []struct {
		name  string
		query map[string]interface{}
		want  []string
	}{
		{"all", map[string]interface{}{}, []string{"1", "2", "3"}},
		{"by method", map[string]interface{}{"Method": "host.get"}, []string{"1", "3"}},
		{"failed", map[string]interface{}{"Failed": true}, []string{"2"}},
		{"unknown field", map[string]interface{}{"Nothing": 1}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := db.QueryCalls(tt.query)
			if err != nil {
				t.Fatalf("BoltDB.QueryCalls() error = %v", err)
			}
			if len(rs) != len(tt.want) {
				t.Fatalf("BoltDB.QueryCalls() = %d records, want %d", len(rs), len(tt.want))
			}
			for i, r := range rs {
				if r.ID != tt.want[i] {
					t.Errorf("record %d ID = %s, want %s", i, r.ID, tt.want[i])
				}
			}
		})
	}
}

func TestBoltDB_GetAllCallsOrder(t *testing.T) {
	db := Setup(t)
	for i := 0; i < 11; i++ {
		if err := db.CreateCall(&types.CallRecord{Method: "host.get"}); err != nil {
			t.Fatalf("BoltDB.CreateCall() error = %v", err)
		}
	}
	rs, err := db.GetAllCalls()
	if err != nil {
		t.Fatalf("BoltDB.GetAllCalls() error = %v", err)
	}
	if len(rs) != 11 || rs[9].ID != "10" || rs[10].ID != "11" {
		t.Errorf("BoltDB.GetAllCalls() not in sequence order: %v", rs)
	}
}

func TestBoltDB_PruneCalls(t *testing.T) {
	db := Setup(t)
	now := time.Now().UTC()

	for _, started := range []time.Time{now.Add(-48 * time.Hour), now.Add(-2 * time.Hour), now} {
		if err := db.CreateCall(&types.CallRecord{Method: "host.get", Started: started}); err != nil {
			t.Fatalf("BoltDB.CreateCall() error = %v", err)
		}
	}

	removed, err := db.PruneCalls(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("BoltDB.PruneCalls() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("BoltDB.PruneCalls() removed = %d, want 1", removed)
	}
	rs, _ := db.GetAllCalls()
	if len(rs) != 2 {
		t.Errorf("remaining calls = %d, want 2", len(rs))
	}
}

func TestBoltDB_Sessions(t *testing.T) {
	db := Setup(t)
	key := "http://zabbix.local/api_jsonrpc.php|Admin"

	if _, err := db.GetSession(key); err != zabbix.ErrSessionNotFound {
		t.Errorf("BoltDB.GetSession() error = %v, want ErrSessionNotFound", err)
	}
	if err := db.PutSession(key, "0424bd59b807674191e7d77572075f33"); err != nil {
		t.Fatalf("BoltDB.PutSession() error = %v", err)
	}
	token, err := db.GetSession(key)
	if err != nil || token != "0424bd59b807674191e7d77572075f33" {
		t.Errorf("BoltDB.GetSession() = %q, %v", token, err)
	}
	if err := db.DeleteSession(key); err != nil {
		t.Fatalf("BoltDB.DeleteSession() error = %v", err)
	}
	if _, err := db.GetSession(key); err != zabbix.ErrSessionNotFound {
		t.Errorf("BoltDB.GetSession() after delete error = %v", err)
	}
}
