package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/repository"
)

type Broadcaster interface {
	NotifyFeatured(ctx context.Context, lead *domain.Lead) (int, error)
	BlastSMS(ctx context.Context, lead *domain.Lead) (int, error)
}

type BroadcastHandler struct {
	leads       repository.LeadRepository
	attempts    repository.AttemptRepository
	broadcaster Broadcaster
}

func NewBroadcastHandler(
	leads repository.LeadRepository,
	attempts repository.AttemptRepository,
	broadcaster Broadcaster,
) (*BroadcastHandler, error) {
	if leads == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if broadcaster == nil {
		return nil, fmt.Errorf("broadcaster is required")
	}
	return &BroadcastHandler{leads: leads, attempts: attempts, broadcaster: broadcaster}, nil
}

func RegisterBroadcastRoutes(
	router fiber.Router,
	leads repository.LeadRepository,
	attempts repository.AttemptRepository,
	broadcaster Broadcaster,
) error {
	h, err := NewBroadcastHandler(leads, attempts, broadcaster)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/leads/:id/broadcasts/featured", h.BroadcastFeatured)
	v1.Post("/leads/:id/broadcasts/sms", h.BroadcastSMS)
	v1.Get("/leads/:id/attempts", h.ListAttempts)

	return nil
}

type broadcastResponse struct {
	LeadID     string `json:"leadId"`
	Recipients int    `json:"recipients"`
}

type attemptResponse struct {
	ID         string  `json:"id"`
	LeadID     string  `json:"leadId"`
	ProviderID *string `json:"providerId,omitempty"`
	Channel    string  `json:"channel"`
	Kind       string  `json:"kind"`
	Status     string  `json:"status"`
	Recipient  string  `json:"recipient"`
	Error      *string `json:"error,omitempty"`
}

func (h *BroadcastHandler) BroadcastFeatured(c *fiber.Ctx) error {
	lead, err := h.loadLead(c)
	if err != nil {
		return err
	}

	count, err := h.broadcaster.NotifyFeatured(c.Context(), lead)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(broadcastResponse{
		LeadID:     lead.ID,
		Recipients: count,
	})
}

func (h *BroadcastHandler) BroadcastSMS(c *fiber.Ctx) error {
	lead, err := h.loadLead(c)
	if err != nil {
		return err
	}

	count, err := h.broadcaster.BlastSMS(c.Context(), lead)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(broadcastResponse{
		LeadID:     lead.ID,
		Recipients: count,
	})
}

func (h *BroadcastHandler) ListAttempts(c *fiber.Ctx) error {
	lead, err := h.loadLead(c)
	if err != nil {
		return err
	}

	attempts, err := h.attempts.GetByLeadID(c.Context(), lead.ID)
	if err != nil {
		return toHTTPError(err)
	}

	data := make([]attemptResponse, 0, len(attempts))
	for i := range attempts {
		a := attempts[i]
		data = append(data, attemptResponse{
			ID:         a.ID,
			LeadID:     a.LeadID,
			ProviderID: a.ProviderID,
			Channel:    string(a.Channel),
			Kind:       string(a.Kind),
			Status:     string(a.Status),
			Recipient:  a.Recipient,
			Error:      a.Error,
		})
	}

	return c.JSON(fiber.Map{"data": data})
}

func (h *BroadcastHandler) loadLead(c *fiber.Ctx) (*domain.Lead, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return nil, fiber.NewError(fiber.StatusBadRequest, "lead id is required")
	}

	lead, err := h.leads.GetByID(c.Context(), id)
	if err != nil {
		return nil, toHTTPError(err)
	}
	return lead, nil
}
