package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is a mutex-guarded in-memory implementation of both stores.
// It backs the test suite and doubles as a zero-dependency local mode.
type Memory struct {
	mu       sync.Mutex
	services []*Service
	apps     []*Application
}

func NewMemory() *Memory {
	return &Memory{}
}

func matchesFilter(s *Service, f ServiceFilter) bool {
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(s.ServiceName), needle) &&
			!strings.Contains(strings.ToLower(s.ServiceArea), needle) {
			return false
		}
	}
	if f.ProviderEmail != "" && s.ProviderEmail != f.ProviderEmail {
		return false
	}
	if f.OnlyWithApplications && s.ApplicationCount == 0 {
		return false
	}
	return true
}

// filtered returns matching services ordered per the filter: price
// ascending when requested, otherwise newest first.
func (m *Memory) filtered(f ServiceFilter) []*Service {
	var out []*Service
	for i := len(m.services) - 1; i >= 0; i-- {
		if matchesFilter(m.services[i], f) {
			out = append(out, m.services[i])
		}
	}
	if f.SortByPriceAsc {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	}
	return out
}

func (m *Memory) ListServices(_ context.Context, f ServiceFilter) ([]Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matched := m.filtered(f)
	offset, limit := f.Offset(), f.Limit()
	if offset >= len(matched) {
		return nil, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page := make([]Service, 0, end-offset)
	for _, s := range matched[offset:end] {
		page = append(page, *s)
	}
	return page, nil
}

func (m *Memory) CountServices(_ context.Context, f ServiceFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.filtered(f))), nil
}

func (m *Memory) GetService(_ context.Context, id string) (*Service, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.services {
		if s.ID == id {
			copied := *s
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) CreateService(_ context.Context, s *Service) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.ID = uuid.New().String()
	copied := *s
	m.services = append(m.services, &copied)
	return s.ID, nil
}

func (m *Memory) UpdateService(_ context.Context, id string, patch ServicePatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.services {
		if s.ID != id {
			continue
		}
		changed := false
		apply := func(dst *string, src *string) {
			if src != nil && *dst != *src {
				*dst = *src
				changed = true
			}
		}
		apply(&s.ServiceName, patch.ServiceName)
		apply(&s.ServiceArea, patch.ServiceArea)
		apply(&s.ServiceDescription, patch.ServiceDescription)
		apply(&s.ProviderName, patch.ProviderName)
		apply(&s.ProviderImage, patch.ProviderImage)
		apply(&s.ApplicationDate, patch.ApplicationDate)
		if patch.Price != nil && s.Price != *patch.Price {
			s.Price = *patch.Price
			changed = true
		}
		if !changed {
			return ErrNotFound
		}
		return nil
	}
	return ErrNotFound
}

func (m *Memory) DeleteService(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.services {
		if s.ID == id {
			m.services = append(m.services[:i], m.services[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) AdjustApplicationCount(_ context.Context, id string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.services {
		if s.ID == id {
			s.ApplicationCount += delta
			if s.ApplicationCount < 0 {
				s.ApplicationCount = 0
			}
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateApplication(_ context.Context, a *Application) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = uuid.New().String()
	copied := *a
	m.apps = append(m.apps, &copied)
	return a.ID, nil
}

func (m *Memory) collectApplications(match func(*Application) bool) []Application {
	var out []Application
	for i := len(m.apps) - 1; i >= 0; i-- {
		if match(m.apps[i]) {
			out = append(out, *m.apps[i])
		}
	}
	return out
}

func (m *Memory) ApplicationsByService(_ context.Context, serviceID string) ([]Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectApplications(func(a *Application) bool { return a.ServiceID == serviceID }), nil
}

func (m *Memory) ApplicationsByApplicant(_ context.Context, email string) ([]Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectApplications(func(a *Application) bool { return a.ApplicantEmail == email }), nil
}

func (m *Memory) ApplicationsByServiceIDs(_ context.Context, serviceIDs []string) ([]Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make(map[string]bool, len(serviceIDs))
	for _, id := range serviceIDs {
		ids[id] = true
	}
	return m.collectApplications(func(a *Application) bool { return ids[a.ServiceID] }), nil
}

func (m *Memory) UpdateApplicationStatus(_ context.Context, id string, status Status, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.apps {
		if a.ID == id {
			if a.Status == status {
				return ErrNotFound
			}
			a.Status = status
			a.UpdatedAt = &now
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) DeleteApplication(_ context.Context, id string) (*Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.apps {
		if a.ID == id {
			deleted := *a
			m.apps = append(m.apps[:i], m.apps[i+1:]...)
			return &deleted, nil
		}
	}
	return nil, ErrNotFound
}
