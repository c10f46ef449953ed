// Package application implements the service-application lifecycle:
// creation paired with an atomic counter increment on the referenced
// service, read-time enrichment joins, the status state machine, and
// deletion paired with the symmetric decrement.
package application

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/repairhub/internal/store"
)

type Handler struct {
	Services     store.ServiceStore
	Applications store.ApplicationStore
}

func NewHandler(services store.ServiceStore, applications store.ApplicationStore) *Handler {
	return &Handler{Services: services, Applications: applications}
}

// sessionEmail returns the verified email set by the session guard.
func sessionEmail(c echo.Context) string {
	email, _ := c.Get("email").(string)
	return email
}

type createApplicationRequest struct {
	ServiceID      string `json:"service_id"`
	ApplicantEmail string `json:"applicant_email"`
	ApplicantName  string `json:"applicant_name"`
}

// ===== Create =====
// POST /service-applications. The application is stored first; the
// referenced service's counter is then bumped by exactly one atomic
// update, but only if service_id resolves. A dangling reference still
// produces an application (the store never enforced the foreign key),
// and the response says so via "counted" rather than hiding it.
func (h *Handler) Create(c echo.Context) error {
	var req createApplicationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ServiceID == "" || req.ApplicantEmail == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id and applicant_email are required"})
	}

	app := store.Application{
		ServiceID:      req.ServiceID,
		ApplicantEmail: req.ApplicantEmail,
		ApplicantName:  req.ApplicantName,
		Status:         store.StatusPending,
		CreatedAt:      time.Now(),
	}
	id, err := h.Applications.CreateApplication(c.Request().Context(), &app)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create application"})
	}

	counted := false
	if _, err := uuid.Parse(req.ServiceID); err == nil {
		switch err := h.Services.AdjustApplicationCount(c.Request().Context(), req.ServiceID, 1); {
		case err == nil:
			counted = true
		case errors.Is(err, store.ErrNotFound):
			// dangling service_id: application stands, nothing to count
		default:
			log.Printf("application %s created but count update failed: %v", id, err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update application count"})
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{"insertedId": id, "counted": counted})
}

// ===== ListByService =====
// GET /service-application/services/:service_id. Public by contract:
// anyone can see who applied to a service.
func (h *Handler) ListByService(c echo.Context) error {
	serviceID := c.Param("service_id")
	if _, err := uuid.Parse(serviceID); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	apps, err := h.Applications.ApplicationsByService(c.Request().Context(), serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch applications"})
	}
	if apps == nil {
		apps = []store.Application{}
	}
	return c.JSON(http.StatusOK, apps)
}

// applicantView is an application enriched with a read-time snapshot of
// the referenced service. The snapshot is never stored: a later service
// edit shows up in later reads of old applications.
type applicantView struct {
	store.Application
	ServiceName      string     `json:"serviceName,omitempty"`
	ProviderImage    string     `json:"providerImage,omitempty"`
	ServiceArea      string     `json:"serviceArea,omitempty"`
	ProviderName     string     `json:"providerName,omitempty"`
	Price            *float64   `json:"price,omitempty"`
	ServiceCreatedAt *time.Time `json:"serviceCreatedAt,omitempty"`
}

// ===== ListByApplicant =====
// GET /service-application?email=. Session-gated; the token identity
// must match the requested email.
func (h *Handler) ListByApplicant(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	if sessionEmail(c) != email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden access"})
	}

	apps, err := h.Applications.ApplicationsByApplicant(c.Request().Context(), email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch applications"})
	}

	result := make([]applicantView, 0, len(apps))
	for _, app := range apps {
		view := applicantView{Application: app}
		if _, err := uuid.Parse(app.ServiceID); err == nil {
			if service, err := h.Services.GetService(c.Request().Context(), app.ServiceID); err == nil {
				view.ServiceName = service.ServiceName
				view.ProviderImage = service.ProviderImage
				view.ServiceArea = service.ServiceArea
				view.ProviderName = service.ProviderName
				price := service.Price
				view.Price = &price
				created := service.CreatedAt
				view.ServiceCreatedAt = &created
			}
			// a service that no longer resolves just leaves the snapshot
			// fields empty; the application's own fields still go out
		}
		result = append(result, view)
	}
	return c.JSON(http.StatusOK, result)
}

// providerView is an application on one of the provider's services with
// the fields the provider dashboard displays. CreatedAt shadows the
// embedded field: it prefers the application's own timestamp and falls
// back to the service's.
type providerView struct {
	store.Application
	ServiceName string    `json:"serviceName,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Location    string    `json:"location,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ===== ListForProvider =====
// GET /service-application/provider?email=. Session-gated. Two-step
// join: the provider's services first, then every application whose
// service_id falls in that id set, fetched as one set-membership query.
func (h *Handler) ListForProvider(c echo.Context) error {
	email := c.QueryParam("email")
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
	}
	if sessionEmail(c) != email {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden access"})
	}

	ctx := c.Request().Context()
	services, err := h.Services.ListServices(ctx, store.ServiceFilter{
		ProviderEmail: email,
		PageSize:      100,
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}

	byID := make(map[string]store.Service, len(services))
	ids := make([]string, 0, len(services))
	for _, s := range services {
		byID[s.ID] = s
		ids = append(ids, s.ID)
	}

	apps, err := h.Applications.ApplicationsByServiceIDs(ctx, ids)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch applications"})
	}

	result := make([]providerView, 0, len(apps))
	for _, app := range apps {
		view := providerView{Application: app}
		service := byID[app.ServiceID]
		view.ServiceName = service.ServiceName
		price := service.Price
		view.Price = &price
		view.Location = service.ServiceArea
		view.CreatedAt = app.CreatedAt
		if view.CreatedAt.IsZero() {
			view.CreatedAt = service.CreatedAt
		}
		result = append(result, view)
	}
	return c.JSON(http.StatusOK, result)
}

type updateStatusRequest struct {
	Status store.Status `json:"status"`
}

// ===== UpdateStatus =====
// PATCH /service-application/:id. Any known status may move to any
// other; the only validation is enum membership. A zero-row match is
// "not found or unchanged", same ambiguity as service updates.
func (h *Handler) UpdateStatus(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !req.Status.Valid() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be Pending, Working or Complete"})
	}

	err := h.Applications.UpdateApplicationStatus(c.Request().Context(), id, req.Status, time.Now())
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found or unchanged"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update status"})
	}
	return c.JSON(http.StatusOK, echo.Map{"modifiedCount": 1})
}

// ===== Delete =====
// DELETE /service-application/:id. Deletion decrements the referenced
// service's counter with the same atomic update used on create, so the
// counter tracks live applications. The decrement is skipped when the
// reference no longer resolves.
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid application id"})
	}

	deleted, err := h.Applications.DeleteApplication(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "application not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete application"})
	}

	if _, err := uuid.Parse(deleted.ServiceID); err == nil {
		if err := h.Services.AdjustApplicationCount(c.Request().Context(), deleted.ServiceID, -1); err != nil &&
			!errors.Is(err, store.ErrNotFound) {
			log.Printf("application %s deleted but count update failed: %v", id, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"deletedCount": 1})
}
