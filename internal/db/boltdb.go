package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/zbxtools/zbxcall/internal/zabbix"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// BoltDB connection
type BoltDB struct {
	session *bolt.DB
}

func newBoltDB(transport string) (DB, error) {
	if transport == "" {
		return nil, errors.New("Database path is required")
	}
	if fi, err := os.Stat(transport); err == nil && !fi.Mode().IsRegular() {
		return nil, errors.New("Provided database path is not a regular file")
	}
	if dir := filepath.Dir(transport); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	session, err := bolt.Open(transport, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("Failed to open %s: %v", transport, err)
	}
	db := &BoltDB{session: session}
	if err := db.Initialize("", ""); err != nil {
		session.Close()
		return nil, err
	}
	return db, nil
}

// Initialize creates two buckets: for call history and cached sessions
func (b *BoltDB) Initialize(transport, dbname string) error {
	return b.session.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(CallTableName)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(SessionTableName))
		return err
	})
}

// CreateCall stores r, generating its ID when empty
func (b *BoltDB) CreateCall(r *types.CallRecord) error {
	if r == nil {
		return errors.New("NIL call record given")
	}

	return b.session.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CallTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		if r.ID == "" {
			id, err := bucket.NextSequence()
			if err != nil {
				return err
			}
			r.ID = strconv.FormatUint(id, 10)
		}
		r.Params = Redact(r.Params)
		buf, err := json.Marshal(r)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(r.ID), buf)
	})
}

// GetAllCalls returns all calls in db, oldest first
func (b *BoltDB) GetAllCalls() ([]types.CallRecord, error) {
	rs := []types.CallRecord{}
	err := b.session.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CallTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		return bucket.ForEach(func(k, v []byte) error {
			r := types.CallRecord{}
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			rs = append(rs, r)
			return nil
		})
	})
	sortCalls(rs)
	return rs, err
}

// GetCallByID by ID
func (b *BoltDB) GetCallByID(id string) (types.CallRecord, error) {
	r := types.CallRecord{}
	err := b.session.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CallTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		v := bucket.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		return json.Unmarshal(v, &r)
	})
	return r, err
}

// QueryCalls with given params
func (b *BoltDB) QueryCalls(query map[string]interface{}) ([]types.CallRecord, error) {
	rs, err := b.GetAllCalls()
	if err != nil {
		return []types.CallRecord{}, err
	}
	found := []types.CallRecord{}
	for _, r := range rs {
		if matchCall(r, query) {
			found = append(found, r)
		}
	}
	return found, nil
}

// PruneCalls removes calls started before the given time
func (b *BoltDB) PruneCalls(before time.Time) (int, error) {
	removed := 0
	err := b.session.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(CallTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		var stale [][]byte
		err := bucket.ForEach(func(k, v []byte) error {
			r := types.CallRecord{}
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			if r.Started.Before(before) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

// GetSession returns the cached token for key
func (b *BoltDB) GetSession(key string) (string, error) {
	var token string
	err := b.session.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(SessionTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		v := bucket.Get([]byte(key))
		if v == nil {
			return zabbix.ErrSessionNotFound
		}
		token = string(v)
		return nil
	})
	return token, err
}

// PutSession caches token under key
func (b *BoltDB) PutSession(key, token string) error {
	return b.session.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(SessionTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		return bucket.Put([]byte(key), []byte(token))
	})
}

// DeleteSession removes the cached token for key
func (b *BoltDB) DeleteSession(key string) error {
	return b.session.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(SessionTableName))
		if bucket == nil {
			return errors.New("Bucket fetching failed")
		}
		return bucket.Delete([]byte(key))
	})
}

// Close releases the database file
func (b *BoltDB) Close() error {
	return b.session.Close()
}

// keys are decimal sequence numbers, so byte order is not numeric order
func sortCalls(rs []types.CallRecord) {
	sort.SliceStable(rs, func(i, j int) bool {
		a, errA := strconv.ParseUint(rs[i].ID, 10, 64)
		b, errB := strconv.ParseUint(rs[j].ID, 10, 64)
		if errA != nil || errB != nil {
			return rs[i].ID < rs[j].ID
		}
		return a < b
	})
}
