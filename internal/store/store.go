// Package store is the persistence boundary: two collections (services
// and service applications) behind small interfaces, with a Postgres
// implementation for production and an in-memory one for tests.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no document, or when an
// update/delete touched zero rows. Callers deliberately cannot tell
// "no such id" apart from "nothing actually changed"; both surface as
// this error.
var ErrNotFound = errors.New("store: not found")

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

// ServiceFilter selects and orders services for listing and counting.
type ServiceFilter struct {
	Search               string // case-insensitive substring over serviceName OR serviceArea
	ProviderEmail        string
	OnlyWithApplications bool // restrict to applicationCount > 0 (provider dashboard variant)
	SortByPriceAsc       bool // default order is newest first
	Page                 int
	PageSize             int
}

// Limit normalizes PageSize: non-positive falls back to the default,
// oversized values are capped.
func (f ServiceFilter) Limit() int {
	if f.PageSize <= 0 {
		return defaultPageSize
	}
	if f.PageSize > maxPageSize {
		return maxPageSize
	}
	return f.PageSize
}

// Offset normalizes Page: anything below 1 is treated as page 1.
func (f ServiceFilter) Offset() int {
	page := f.Page
	if page < 1 {
		page = 1
	}
	return (page - 1) * f.Limit()
}

// ServicePatch carries the allow-listed updatable service fields. Nil
// means "leave unchanged". applicationCount and createdAt are not here
// on purpose: they are never client-writable.
type ServicePatch struct {
	ServiceName        *string
	ServiceArea        *string
	ServiceDescription *string
	ProviderName       *string
	ProviderImage      *string
	Price              *float64
	ApplicationDate    *string
}

// Empty reports whether the patch would change no field at all.
func (p ServicePatch) Empty() bool {
	return p.ServiceName == nil && p.ServiceArea == nil && p.ServiceDescription == nil &&
		p.ProviderName == nil && p.ProviderImage == nil && p.Price == nil && p.ApplicationDate == nil
}

// ServiceStore is the services collection.
type ServiceStore interface {
	ListServices(ctx context.Context, f ServiceFilter) ([]Service, error)
	CountServices(ctx context.Context, f ServiceFilter) (int64, error)
	GetService(ctx context.Context, id string) (*Service, error)
	// CreateService assigns the identifier and returns it; the caller is
	// responsible for having set CreatedAt and ApplicationCount.
	CreateService(ctx context.Context, s *Service) (string, error)
	// UpdateService applies the patch; ErrNotFound covers both an absent
	// id and a patch that changed nothing.
	UpdateService(ctx context.Context, id string, p ServicePatch) error
	DeleteService(ctx context.Context, id string) error
	// AdjustApplicationCount moves the denormalized counter by delta in
	// one atomic update-by-filter statement, flooring at zero. Returns
	// ErrNotFound when the service does not exist.
	AdjustApplicationCount(ctx context.Context, id string, delta int) error
}

// ApplicationStore is the service applications collection.
type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *Application) (string, error)
	ApplicationsByService(ctx context.Context, serviceID string) ([]Application, error)
	ApplicationsByApplicant(ctx context.Context, email string) ([]Application, error)
	// ApplicationsByServiceIDs fetches applications whose service_id is in
	// the given set, in one query (set membership, not per-item lookup).
	ApplicationsByServiceIDs(ctx context.Context, serviceIDs []string) ([]Application, error)
	// UpdateApplicationStatus sets status and updatedAt; ErrNotFound
	// covers both an absent id and an unchanged status.
	UpdateApplicationStatus(ctx context.Context, id string, status Status, now time.Time) error
	// DeleteApplication removes the application and returns it so the
	// caller can pair the delete with a counter decrement.
	DeleteApplication(ctx context.Context, id string) (*Application, error)
}
