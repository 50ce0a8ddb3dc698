package db

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/zbxtools/zbxcall/internal/db/config"
	"github.com/zbxtools/zbxcall/internal/zabbix"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// CallTableName is the table name for call history
const CallTableName = "calls"

// SessionTableName keeps cached zabbix auth tokens
const SessionTableName = "sessions"

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("No record found for given ID")

// redacted replaces secret values before a call is persisted
const redacted = "********"

var secretKeys = []string{"password", "passwd", "token", "authkey", "auth_key", "secret"}

// DB is the interface for a db engine
type DB interface {
	Initialize(transport, dbname string) error
	CreateCall(r *types.CallRecord) error
	GetAllCalls() ([]types.CallRecord, error)
	GetCallByID(id string) (types.CallRecord, error)
	QueryCalls(query map[string]interface{}) ([]types.CallRecord, error)
	PruneCalls(before time.Time) (int, error)

	GetSession(key string) (string, error)
	PutSession(key, token string) error
	DeleteSession(key string) error

	Close() error
}

// DB backends cache zabbix sessions
var _ zabbix.SessionStore = DB(nil)

// NewDB return DB connection configured in the [database] section
func NewDB() (DB, error) {
	dbcon := config.NewConfig()
	return Open(dbcon.Backend, dbcon.Transport, dbcon.DBName)
}

// Open returns a DB connection of the given backend
func Open(backend, transport, dbname string) (DB, error) {
	switch backend {
	case "bolt":
		return newBoltDB(transport)
	case "mgo":
		return newMgoDB(transport, dbname)
	default:
		return nil, fmt.Errorf("Unsupported DB backend %s", backend)
	}
}

// Redact returns a deep copy of params with secret values masked
func Redact(params map[string]interface{}) map[string]interface{} {
	if params == nil {
		return nil
	}
	out := make(map[string]interface{}, len(params))
	for k, v := range params {
		if isSecretKey(k) {
			out[k] = redacted
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return Redact(t)
	case []interface{}:
		cp := make([]interface{}, len(t))
		for i, e := range t {
			cp[i] = redactValue(e)
		}
		return cp
	default:
		return v
	}
}

func isSecretKey(k string) bool {
	k = strings.ToLower(k)
	for _, s := range secretKeys {
		if k == s {
			return true
		}
	}
	return false
}

// matchCall checks every query key against the record field of the same name
// example: {"Method": "host.get", "Failed": true}
func matchCall(r types.CallRecord, query map[string]interface{}) bool {
	for k, v := range query {
		if _, ok := reflect.TypeOf(r).FieldByName(k); !ok {
			return false
		}
		if !reflect.DeepEqual(reflect.ValueOf(r).FieldByName(k).Interface(), v) {
			return false
		}
	}
	return true
}
