package history

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/zbxtools/zbxcall/internal/db"
	"github.com/zbxtools/zbxcall/modules/call/types"
)

// timeNow is replaced in tests
var timeNow = time.Now

// Service reads and prunes the call history
type Service struct {
	db db.DB
}

// NewService creates a history service over d
func NewService(d db.DB) *Service {
	return &Service{db: d}
}

// List returns the calls matching query, all calls for an empty query
// example query: {"Method": "host.get", "Failed": true}
func (s *Service) List(query map[string]interface{}) ([]types.CallRecord, error) {
	if len(query) == 0 {
		return s.db.GetAllCalls()
	}
	return s.db.QueryCalls(query)
}

// Get returns one call, db.ErrNotFound when it does not exist
func (s *Service) Get(id string) (types.CallRecord, error) {
	return s.db.GetCallByID(id)
}

// Prune removes calls older than retention
func (s *Service) Prune(retention time.Duration) (int, error) {
	n, err := s.db.PruneCalls(timeNow().Add(-retention))
	if err != nil {
		return n, err
	}
	if n > 0 {
		log.Infof("Pruned %d calls older than %s", n, retention)
	}
	return n, nil
}

// RunPruner prunes every interval until ctx is done. A zero retention keeps everything.
func (s *Service) RunPruner(ctx context.Context, retention, interval time.Duration) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.Prune(retention); err != nil {
			log.Errorf("Failed to prune call history: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
