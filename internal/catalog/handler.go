// Package catalog exposes CRUD, search and pagination over the
// services collection.
package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/repairhub/internal/store"
)

type Handler struct {
	Store store.ServiceStore
}

func NewHandler(s store.ServiceStore) *Handler {
	return &Handler{Store: s}
}

func filterFromQuery(c echo.Context) store.ServiceFilter {
	f := store.ServiceFilter{
		Search:               c.QueryParam("search"),
		ProviderEmail:        c.QueryParam("providerEmail"),
		OnlyWithApplications: c.QueryParam("onlyWithApplications") == "true",
		SortByPriceAsc:       c.QueryParam("sort") == "price_asc",
	}
	if p := c.QueryParam("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			f.Page = v
		}
	}
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil {
			f.PageSize = v
		}
	}
	return f
}

// ===== List =====
// GET /services
func (h *Handler) List(c echo.Context) error {
	f := filterFromQuery(c)

	services, err := h.Store.ListServices(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	total, err := h.Store.CountServices(c.Request().Context(), f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not count services"})
	}
	if services == nil {
		services = []store.Service{}
	}

	return c.JSON(http.StatusOK, echo.Map{"services": services, "total": total})
}

// ===== Count =====
// GET /services-count
func (h *Handler) Count(c echo.Context) error {
	count, err := h.Store.CountServices(c.Request().Context(), store.ServiceFilter{
		Search: c.QueryParam("search"),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not count services"})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// ===== Get =====
// GET /services/:id
func (h *Handler) Get(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	service, err := h.Store.GetService(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch service"})
	}
	return c.JSON(http.StatusOK, service)
}

type createServiceRequest struct {
	ProviderEmail      string  `json:"providerEmail"`
	ServiceName        string  `json:"serviceName"`
	ServiceArea        string  `json:"serviceArea"`
	ServiceDescription string  `json:"serviceDescription"`
	ProviderName       string  `json:"providerName"`
	ProviderImage      string  `json:"providerImage"`
	Price              float64 `json:"price"`
	ApplicationDate    string  `json:"applicationDate"`
}

// ===== Create =====
// POST /services. createdAt and applicationCount are server-set; any
// client-supplied values for them never make it past the bind struct.
func (h *Handler) Create(c echo.Context) error {
	var req createServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.ProviderEmail == "" || req.ServiceName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "providerEmail and serviceName are required"})
	}

	service := store.Service{
		ProviderEmail:      req.ProviderEmail,
		ServiceName:        req.ServiceName,
		ServiceArea:        req.ServiceArea,
		ServiceDescription: req.ServiceDescription,
		ProviderName:       req.ProviderName,
		ProviderImage:      req.ProviderImage,
		Price:              req.Price,
		ApplicationDate:    req.ApplicationDate,
		ApplicationCount:   0,
		CreatedAt:          time.Now(),
	}
	id, err := h.Store.CreateService(c.Request().Context(), &service)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
	}

	return c.JSON(http.StatusCreated, echo.Map{"insertedId": id})
}

type updateServiceRequest struct {
	ServiceName        *string  `json:"serviceName"`
	ServiceArea        *string  `json:"serviceArea"`
	ServiceDescription *string  `json:"serviceDescription"`
	ProviderName       *string  `json:"providerName"`
	ProviderImage      *string  `json:"providerImage"`
	Price              *float64 `json:"price"`
	ApplicationDate    *string  `json:"applicationDate"`
}

// ===== Update =====
// PUT /services/:id. Only allow-listed fields are applied. A zero-row
// match is reported as "not found or unchanged": callers cannot tell a
// missing id from a no-op patch, and that ambiguity is the contract.
func (h *Handler) Update(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	var req updateServiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	patch := store.ServicePatch{
		ServiceName:        req.ServiceName,
		ServiceArea:        req.ServiceArea,
		ServiceDescription: req.ServiceDescription,
		ProviderName:       req.ProviderName,
		ProviderImage:      req.ProviderImage,
		Price:              req.Price,
		ApplicationDate:    req.ApplicationDate,
	}
	if patch.Empty() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no updatable fields in request"})
	}

	err := h.Store.UpdateService(c.Request().Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found or unchanged"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"modifiedCount": 1})
}

// ===== Delete =====
// DELETE /services/:id. No cascade: applications referencing this
// service stay behind and the lifecycle component tolerates them.
func (h *Handler) Delete(c echo.Context) error {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid service id"})
	}

	err := h.Store.DeleteService(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	return c.JSON(http.StatusOK, echo.Map{"deletedCount": 1})
}
