package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

type ProviderHandler struct {
	providers repository.ProviderRepository
}

func NewProviderHandler(providers repository.ProviderRepository) (*ProviderHandler, error) {
	if providers == nil {
		return nil, fmt.Errorf("provider repository is required")
	}
	return &ProviderHandler{providers: providers}, nil
}

func RegisterProviderRoutes(router fiber.Router, providers repository.ProviderRepository) error {
	h, err := NewProviderHandler(providers)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/providers", h.CreateProvider)
	v1.Get("/providers/:id", h.GetProvider)
	v1.Put("/providers/:id", h.UpdateProvider)
	v1.Get("/providers", h.ListProviders)

	return nil
}

type providerRequest struct {
	Name               string   `json:"name"`
	Phone              *string  `json:"phone,omitempty"`
	Email              *string  `json:"email,omitempty"`
	ClaimEmail         *string  `json:"claimEmail,omitempty"`
	NotificationEmail  *string  `json:"notificationEmail,omitempty"`
	ZipCodes           string   `json:"zipCodes"`
	ServiceRadiusMiles *float64 `json:"serviceRadiusMiles,omitempty"`
	PaymentCustomerRef *string  `json:"paymentCustomerRef,omitempty"`
	PaymentMethodRef   *string  `json:"paymentMethodRef,omitempty"`
	EligibleForLeads   bool     `json:"eligibleForLeads"`
	IsFeatured         bool     `json:"isFeatured"`
	NotifyEnabled      bool     `json:"notifyEnabled"`
}

type providerResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Phone              *string   `json:"phone,omitempty"`
	Email              *string   `json:"email,omitempty"`
	ClaimEmail         *string   `json:"claimEmail,omitempty"`
	NotificationEmail  *string   `json:"notificationEmail,omitempty"`
	ZipCodes           string    `json:"zipCodes"`
	ServiceRadiusMiles *float64  `json:"serviceRadiusMiles,omitempty"`
	EligibleForLeads   bool      `json:"eligibleForLeads"`
	IsFeatured         bool      `json:"isFeatured"`
	NotifyEnabled      bool      `json:"notifyEnabled"`
	ChargeEligible     bool      `json:"chargeEligible"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
}

type listProvidersResponse struct {
	Data []providerResponse `json:"data"`
	Meta listMeta           `json:"meta"`
}

func (h *ProviderHandler) CreateProvider(c *fiber.Ctx) error {
	var req providerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	provider := requestToProvider(req)
	provider.ID = uuid.NewString()

	if strings.TrimSpace(provider.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider name is required")
	}

	if err := h.providers.Create(c.Context(), provider); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toProviderResponse(provider))
}

func (h *ProviderHandler) GetProvider(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider id is required")
	}

	provider, err := h.providers.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(toProviderResponse(provider))
}

func (h *ProviderHandler) UpdateProvider(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider id is required")
	}

	existing, err := h.providers.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	var req providerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updated := requestToProvider(req)
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	if strings.TrimSpace(updated.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "provider name is required")
	}

	if err := h.providers.Update(c.Context(), updated); err != nil {
		return toHTTPError(err)
	}

	return c.JSON(toProviderResponse(updated))
}

func (h *ProviderHandler) ListProviders(c *fiber.Ctx) error {
	params := repository.ListProvidersParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}
	if params.PageSize > maxPageSize {
		params.PageSize = maxPageSize
	}

	providers, total, err := h.providers.List(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]providerResponse, 0, len(providers))
	for i := range providers {
		data = append(data, toProviderResponse(&providers[i]))
	}

	return c.JSON(listProvidersResponse{
		Data: data,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func requestToProvider(req providerRequest) *domain.Provider {
	return &domain.Provider{
		Name:               strings.TrimSpace(req.Name),
		Phone:              req.Phone,
		Email:              req.Email,
		ClaimEmail:         req.ClaimEmail,
		NotificationEmail:  req.NotificationEmail,
		ZipCodes:           strings.TrimSpace(req.ZipCodes),
		ServiceRadiusMiles: req.ServiceRadiusMiles,
		PaymentCustomerRef: req.PaymentCustomerRef,
		PaymentMethodRef:   req.PaymentMethodRef,
		EligibleForLeads:   req.EligibleForLeads,
		IsFeatured:         req.IsFeatured,
		NotifyEnabled:      req.NotifyEnabled,
	}
}

func toProviderResponse(p *domain.Provider) providerResponse {
	if p == nil {
		return providerResponse{}
	}

	return providerResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Phone:              p.Phone,
		Email:              p.Email,
		ClaimEmail:         p.ClaimEmail,
		NotificationEmail:  p.NotificationEmail,
		ZipCodes:           p.ZipCodes,
		ServiceRadiusMiles: p.ServiceRadiusMiles,
		EligibleForLeads:   p.EligibleForLeads,
		IsFeatured:         p.IsFeatured,
		NotifyEnabled:      p.NotifyEnabled,
		ChargeEligible:     p.ChargeEligible(),
		CreatedAt:          p.CreatedAt,
	}
}
