package repository

import (
	"context"
	"errors"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"gorm.io/gorm"
)

// AttemptRepository tracks notification delivery. Rows are append-only:
// created QUEUED and moved exactly once to SENT or FAILED.
type AttemptRepository interface {
	Create(ctx context.Context, a *domain.NotificationAttempt) error
	GetByID(ctx context.Context, id string) (*domain.NotificationAttempt, error)
	GetByLeadID(ctx context.Context, leadID string) ([]domain.NotificationAttempt, error)
	// MarkSent transitions QUEUED→SENT; ErrConflict when the attempt
	// already left QUEUED.
	MarkSent(ctx context.Context, id string) error
	// MarkFailed transitions QUEUED→FAILED recording the transport error.
	MarkFailed(ctx context.Context, id string, errMsg string) error
}

type GormAttemptRepo struct {
	db *gorm.DB
}

func NewGormAttemptRepo(db *gorm.DB) *GormAttemptRepo {
	return &GormAttemptRepo{db: db}
}

func (r *GormAttemptRepo) Create(ctx context.Context, a *domain.NotificationAttempt) error {
	model := attemptModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *attemptModelToDomain(model)
	}
	return nil
}

func (r *GormAttemptRepo) GetByID(ctx context.Context, id string) (*domain.NotificationAttempt, error) {
	var model NotificationAttemptModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return attemptModelToDomain(&model), nil
}

func (r *GormAttemptRepo) GetByLeadID(ctx context.Context, leadID string) ([]domain.NotificationAttempt, error) {
	var models []NotificationAttemptModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.NotificationAttempt, 0, len(models))
	for i := range models {
		attempts = append(attempts, *attemptModelToDomain(&models[i]))
	}

	return attempts, nil
}

func (r *GormAttemptRepo) MarkSent(ctx context.Context, id string) error {
	return r.transition(ctx, id, domain.AttemptStatusSent, nil)
}

func (r *GormAttemptRepo) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return r.transition(ctx, id, domain.AttemptStatusFailed, &errMsg)
}

func (r *GormAttemptRepo) transition(ctx context.Context, id string, status domain.AttemptStatus, errMsg *string) error {
	updates := map[string]any{"status": status}
	if errMsg != nil {
		updates["error"] = *errMsg
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationAttemptModel{}).
		Where("id = ? AND status = ?", id, domain.AttemptStatusQueued).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
