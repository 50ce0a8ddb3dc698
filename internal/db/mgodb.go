package db

import (
	"errors"
	"strconv"
	"time"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"

	"github.com/zbxtools/zbxcall/internal/zabbix"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

const counterTableName = "counters"

// MgoDB is connection of mgodb
type MgoDB struct {
	session *mgo.Session
	dbname  string
}

type sessionDoc struct {
	Key   string `bson:"_id"`
	Token string `bson:"token"`
}

type counterDoc struct {
	Name string `bson:"_id"`
	Seq  uint64 `bson:"seq"`
}

func newMgoDB(transport, dbname string) (DB, error) {
	if transport == "" {
		return nil, errors.New("Mongo URL is required")
	}
	session, err := mgo.DialWithTimeout(transport, 10*time.Second)
	if err != nil {
		return nil, err
	}
	db := &MgoDB{session: session}
	if err := db.Initialize(transport, dbname); err != nil {
		session.Close()
		return nil, err
	}
	return db, nil
}

// Initialize ensures the unique index on call IDs
func (m *MgoDB) Initialize(transport, dbname string) error {
	m.dbname = dbname

	c := m.session.DB(m.dbname).C(CallTableName)
	index := mgo.Index{
		Key:    []string{"id"},
		Unique: true,
	}
	if err := c.EnsureIndex(index); err != nil {
		return err
	}
	return c.EnsureIndexKey("started")
}

func (m *MgoDB) collection(name string) (*mgo.Session, *mgo.Collection) {
	s := m.session.Copy()
	return s, s.DB(m.dbname).C(name)
}

// CreateCall stores r, generating its ID when empty
func (m *MgoDB) CreateCall(r *types.CallRecord) error {
	if r == nil {
		return errors.New("NIL call record given")
	}
	if r.ID == "" {
		id, err := m.nextSequence(CallTableName)
		if err != nil {
			return err
		}
		r.ID = id
	}
	r.Params = Redact(r.Params)
	s, c := m.collection(CallTableName)
	defer s.Close()
	return c.Insert(r)
}

func (m *MgoDB) nextSequence(name string) (string, error) {
	s, c := m.collection(counterTableName)
	defer s.Close()
	var doc counterDoc
	_, err := c.Find(bson.M{"_id": name}).Apply(mgo.Change{
		Update:    bson.M{"$inc": bson.M{"seq": 1}},
		Upsert:    true,
		ReturnNew: true,
	}, &doc)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(doc.Seq, 10), nil
}

// GetAllCalls returns all calls in db, oldest first
func (m *MgoDB) GetAllCalls() ([]types.CallRecord, error) {
	s, c := m.collection(CallTableName)
	defer s.Close()
	rs := []types.CallRecord{}
	err := c.Find(nil).Sort("started").All(&rs)
	return rs, err
}

// GetCallByID by ID
func (m *MgoDB) GetCallByID(id string) (types.CallRecord, error) {
	s, c := m.collection(CallTableName)
	defer s.Close()
	r := types.CallRecord{}
	err := c.Find(bson.M{"id": id}).One(&r)
	if err == mgo.ErrNotFound {
		return r, ErrNotFound
	}
	return r, err
}

// QueryCalls with given params
func (m *MgoDB) QueryCalls(query map[string]interface{}) ([]types.CallRecord, error) {
	rs, err := m.GetAllCalls()
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
func (m *MgoDB) PruneCalls(before time.Time) (int, error) {
	s, c := m.collection(CallTableName)
	defer s.Close()
	info, err := c.RemoveAll(bson.M{"started": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return info.Removed, nil
}

// GetSession returns the cached token for key
func (m *MgoDB) GetSession(key string) (string, error) {
	s, c := m.collection(SessionTableName)
	defer s.Close()
	var doc sessionDoc
	err := c.FindId(key).One(&doc)
	if err == mgo.ErrNotFound {
		return "", zabbix.ErrSessionNotFound
	}
	return doc.Token, err
}

// PutSession caches token under key
func (m *MgoDB) PutSession(key, token string) error {
	s, c := m.collection(SessionTableName)
	defer s.Close()
	_, err := c.UpsertId(key, sessionDoc{Key: key, Token: token})
	return err
}

// DeleteSession removes the cached token for key
func (m *MgoDB) DeleteSession(key string) error {
	s, c := m.collection(SessionTableName)
	defer s.Close()
	err := c.RemoveId(key)
	if err == mgo.ErrNotFound {
		return nil
	}
	return err
}

// Close ends the mongo session
func (m *MgoDB) Close() error {
	m.session.Close()
	return nil
}
