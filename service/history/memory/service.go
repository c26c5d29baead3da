// Package memory provides the in-memory history archive.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/samrum/doorflow/service/dao"
	"github.com/samrum/doorflow/service/dao/criteria"
	"github.com/samrum/doorflow/service/dao/store"
	"github.com/samrum/doorflow/service/history"
)

func recordKey(r *history.Record) string { return r.ProcessInstanceID }

type service struct {
	store *store.MemoryStore[string, history.Record]
	// serialises the archived check with the save so that the exactly-once
	// invariant holds under concurrent terminal transitions
	mu sync.Mutex
}

// New creates an empty in-memory archive.
func New() history.Service {
	return &service{store: store.NewMemoryStore[string, history.Record](recordKey)}
}

func (s *service) Archive(ctx context.Context, record *history.Record) error {
	if record == nil {
		return dao.ErrNilEntity
	}
	if record.ProcessInstanceID == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.store.Load(ctx, record.ProcessInstanceID)
	if err != nil {
		return err
	}
	if existing != nil {
		return history.ErrAlreadyArchived
	}
	return s.store.Save(ctx, record)
}

func (s *service) GetByInstanceID(ctx context.Context, id string) (*history.Record, error) {
	record, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, history.ErrNotFound
	}
	return record, nil
}

func (s *service) ListCompleted(ctx context.Context, definitionKey string) ([]*history.Record, error) {
	var parameters []*dao.Parameter
	if definitionKey != "" {
		parameters = append(parameters, dao.NewParameter("DefinitionKey", definitionKey))
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*history.Record, 0, len(all))
	for _, record := range all {
		if criteria.Match("DefinitionKey", record.DefinitionKey, parameters) {
			ret = append(ret, record)
		}
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].EndTime.After(ret[j].EndTime) })
	return ret, nil
}

var _ history.Service = (*service)(nil)
