package store

import "time"

// Service represents a provider's listed repair offering.
type Service struct {
	ID                 string    `json:"id"`
	ProviderEmail      string    `json:"providerEmail"`
	ServiceName        string    `json:"serviceName"`
	ServiceArea        string    `json:"serviceArea,omitempty"`
	ServiceDescription string    `json:"serviceDescription,omitempty"`
	ProviderName       string    `json:"providerName,omitempty"`
	ProviderImage      string    `json:"providerImage,omitempty"`
	Price              float64   `json:"price"`
	ApplicationDate    string    `json:"applicationDate,omitempty"`
	ApplicationCount   int       `json:"applicationCount"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Status is the lifecycle state of an application.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusWorking  Status = "Working"
	StatusComplete Status = "Complete"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusWorking, StatusComplete:
		return true
	}
	return false
}

// Application represents an applicant's request against a service.
// ServiceID is stored as a bare string with no foreign-key enforcement;
// it is validated only when dereferenced.
type Application struct {
	ID             string     `json:"id"`
	ServiceID      string     `json:"service_id"`
	ApplicantEmail string     `json:"applicant_email"`
	ApplicantName  string     `json:"applicant_name,omitempty"`
	Status         Status     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}
