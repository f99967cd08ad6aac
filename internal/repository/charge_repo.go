package repository

import (
	"context"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"gorm.io/gorm"
)

// ChargeAttemptRepository records every cascade charge attempt,
// append-only, with the ordinal that anchors payment idempotency.
type ChargeAttemptRepository interface {
	Create(ctx context.Context, c *domain.ChargeAttempt) error
	GetByLeadID(ctx context.Context, leadID string) ([]domain.ChargeAttempt, error)
	// NextOrdinal returns 1 + the number of prior attempts for this
	// lead/provider pair, so a reprocessed lead reuses prior key space
	// only when the prior attempt is replayed verbatim.
	NextOrdinal(ctx context.Context, leadID, providerID string) (int, error)
}

type GormChargeAttemptRepo struct {
	db *gorm.DB
}

func NewGormChargeAttemptRepo(db *gorm.DB) *GormChargeAttemptRepo {
	return &GormChargeAttemptRepo{db: db}
}

func (r *GormChargeAttemptRepo) Create(ctx context.Context, c *domain.ChargeAttempt) error {
	model := chargeModelFromDomain(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if c != nil {
		*c = *chargeModelToDomain(model)
	}
	return nil
}

func (r *GormChargeAttemptRepo) GetByLeadID(ctx context.Context, leadID string) ([]domain.ChargeAttempt, error) {
	var models []ChargeAttemptModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.ChargeAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *chargeModelToDomain(&models[i]))
	}

	return attempts, nil
}

func (r *GormChargeAttemptRepo) NextOrdinal(ctx context.Context, leadID, providerID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ChargeAttemptModel{}).
		Where("lead_id = ? AND provider_id = ?", leadID, providerID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}
