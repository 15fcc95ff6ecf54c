package assessment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mindline-health/psychrec/internal/scale"
)

type Store interface {
	Start(ctx context.Context, patientID, scaleName, administeredBy string) (Assessment, error)
	SaveResponses(ctx context.Context, id string, resp map[int]int) (Assessment, error)
	Submit(ctx context.Context, id string) (Assessment, error)
	Get(ctx context.Context, id string) (Assessment, error)
	List(ctx context.Context, opts ListOpts) ([]Assessment, error)
	Delete(ctx context.Context, id string) error
}

// memoryStore backs tests and single-session tooling; the server uses SQLStore.
type memoryStore struct {
	mu      sync.RWMutex
	catalog *scale.Catalog
	items   map[string]Assessment
}

func NewInMemoryStore(catalog *scale.Catalog) Store {
	return &memoryStore{catalog: catalog, items: map[string]Assessment{}}
}

// detach gives the caller its own responses map; the stored one must not be
// reachable from outside the lock.
func detach(a Assessment) Assessment {
	resp := make(map[int]int, len(a.Responses))
	for k, v := range a.Responses {
		resp[k] = v
	}
	a.Responses = resp
	return a
}

func (m *memoryStore) Start(_ context.Context, patientID, scaleName, administeredBy string) (Assessment, error) {
	def, ok := m.catalog.Get(scaleName)
	if !ok {
		return Assessment{}, ErrUnknownScale
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := Assessment{
		ID:             uuid.NewString(),
		PatientID:      patientID,
		ScaleName:      def.Name,
		AdministeredBy: administeredBy,
		Status:         StatusInProgress,
		Responses:      map[int]int{},
		StartedAt:      time.Now().Unix(),
	}
	m.items[a.ID] = a
	return detach(a), nil
}

func (m *memoryStore) SaveResponses(_ context.Context, id string, resp map[int]int) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	if a.Status == StatusCompleted {
		return Assessment{}, ErrCompleted
	}
	for k, v := range resp {
		a.Responses[k] = v
	}
	m.items[id] = a
	return detach(a), nil
}

func (m *memoryStore) Submit(_ context.Context, id string) (Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	if a.Status == StatusCompleted {
		return detach(a), nil
	}
	def, ok := m.catalog.Get(a.ScaleName)
	if !ok {
		return Assessment{}, ErrUnknownScale
	}
	res, err := scale.Score(def, scale.Response{Selected: a.Responses})
	if err != nil {
		return Assessment{}, err
	}
	a.Status = StatusCompleted
	a.Score = res.Total
	a.Severity = res.Severity
	a.Interpretation = res.Band.Interpretation
	a.CompletedAt = time.Now().Unix()
	m.items[id] = a
	return detach(a), nil
}

func (m *memoryStore) Get(_ context.Context, id string) (Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.items[id]
	if !ok {
		return Assessment{}, ErrNotFound
	}
	return detach(a), nil
}

func (m *memoryStore) List(_ context.Context, opts ListOpts) ([]Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Assessment{}
	for _, a := range m.items {
		if opts.PatientID != "" && a.PatientID != opts.PatientID {
			continue
		}
		if opts.ScaleName != "" && a.ScaleName != opts.ScaleName {
			continue
		}
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		out = append(out, detach(a))
	}
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status == StatusCompleted {
		return ErrCompleted
	}
	delete(m.items, id)
	return nil
}
