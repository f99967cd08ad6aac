package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/match"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/pricing"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type Dispatcher interface {
	Dispatch(ctx context.Context, lead *domain.Lead) (*service.DispatchResult, error)
}

type LeadHandler struct {
	leads      repository.LeadRepository
	dispatcher Dispatcher
}

func NewLeadHandler(leads repository.LeadRepository, dispatcher Dispatcher) (*LeadHandler, error) {
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	return &LeadHandler{leads: leads, dispatcher: dispatcher}, nil
}

func RegisterLeadRoutes(router fiber.Router, leads repository.LeadRepository, dispatcher Dispatcher) error {
	h, err := NewLeadHandler(leads, dispatcher)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/leads", h.CreateLead)
	v1.Get("/leads/:id", h.GetLead)
	v1.Get("/leads", h.ListLeads)

	return nil
}

type createLeadRequest struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   *string `json:"email,omitempty"`
	Street  *string `json:"street,omitempty"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     string  `json:"zip"`
	Urgency string  `json:"urgency"`
	Notes   string  `json:"notes"`
}

type leadResponse struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Phone      string     `json:"phone"`
	Email      *string    `json:"email,omitempty"`
	Street     *string    `json:"street,omitempty"`
	City       string     `json:"city"`
	State      string     `json:"state"`
	Zip        string     `json:"zip"`
	Urgency    string     `json:"urgency"`
	Notes      string     `json:"notes,omitempty"`
	PriceCents int        `json:"priceCents"`
	Status     string     `json:"status"`
	RoutedToID *string    `json:"routedToId,omitempty"`
	RoutedAt   *time.Time `json:"routedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt,omitempty"`
}

type listLeadsResponse struct {
	Data []leadResponse `json:"data"`
	Meta listMeta       `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// CreateLead takes one intake request through the full cascade and
// answers with the settled lead. The submitter sees DELIVERED or
// UNSERVED; per-candidate payment detail stays internal.
func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	var req createLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	urgency, err := domain.ParseUrgencyFromString(req.Urgency)
	if err != nil {
		return toHTTPError(err)
	}

	price, err := pricing.PriceFor(urgency)
	if err != nil {
		return toHTTPError(err)
	}

	lead := &domain.Lead{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
		Email:      req.Email,
		Street:     req.Street,
		City:       strings.TrimSpace(req.City),
		State:      strings.ToUpper(strings.TrimSpace(req.State)),
		Zip:        strings.TrimSpace(req.Zip),
		Urgency:    urgency,
		Notes:      req.Notes,
		PriceCents: price,
		Status:     domain.LeadStatusOpen,
	}
	if err := lead.Validate(); err != nil {
		return toHTTPError(err)
	}
	// ZIPs outside every allocated span pass through; the cascade
	// handles unknown territory, a contradictory address does not.
	if s := match.StateForZip(lead.Zip); s != "" && s != lead.State {
		return toHTTPError(fmt.Errorf("%w: zip %s is in %s, not %s", domain.ErrValidation, lead.Zip, s, lead.State))
	}

	if err := h.leads.Create(c.Context(), lead); err != nil {
		return toHTTPError(err)
	}

	if _, err := h.dispatcher.Dispatch(c.Context(), lead); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toLeadResponse(lead))
}

func (h *LeadHandler) GetLead(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "lead id is required")
	}

	lead, err := h.leads.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(toLeadResponse(lead))
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	params := repository.ListLeadsParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}
	if zip := strings.TrimSpace(c.Query("zip")); zip != "" {
		params.Zip = &zip
	}

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status, err := domain.ParseLeadStatusFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		params.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("urgency")); raw != "" {
		urgency, err := domain.ParseUrgencyFromString(raw)
		if err != nil {
			return toHTTPError(err)
		}
		params.Urgency = &urgency
	}

	leads, total, err := h.leads.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]leadResponse, 0, len(leads))
	for i := range leads {
		data = append(data, toLeadResponse(&leads[i]))
	}

	return c.JSON(listLeadsResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func toLeadResponse(l *domain.Lead) leadResponse {
	if l == nil {
		return leadResponse{}
	}

	return leadResponse{
		ID:         l.ID,
		Name:       l.Name,
		Phone:      l.Phone,
		Email:      l.Email,
		Street:     l.Street,
		City:       l.City,
		State:      l.State,
		Zip:        l.Zip,
		Urgency:    string(l.Urgency),
		Notes:      l.Notes,
		PriceCents: l.PriceCents,
		Status:     string(l.Status),
		RoutedToID: l.RoutedToID,
		RoutedAt:   l.RoutedAt,
		CreatedAt:  l.CreatedAt,
	}
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
