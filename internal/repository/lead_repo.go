package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"gorm.io/gorm"
)

type ListLeadsParams struct {
	Status   *domain.LeadStatus
	Urgency  *domain.Urgency
	Zip      *string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type LeadRepository interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, params ListLeadsParams) ([]domain.Lead, int64, error)
	// MarkDelivered transitions OPEN→DELIVERED and records routing. The
	// update is conditional on the lead still being OPEN; ErrConflict
	// means another invocation already settled it.
	MarkDelivered(ctx context.Context, id string, providerID string, routedAt time.Time) error
	// MarkUnserved transitions OPEN→UNSERVED under the same guard.
	MarkUnserved(ctx context.Context, id string) error
}

type GormLeadRepo struct {
	db *gorm.DB
}

func NewGormLeadRepo(db *gorm.DB) *GormLeadRepo {
	return &GormLeadRepo{db: db}
}

func (r *GormLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	model := leadModelFromDomain(l)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if l != nil {
		*l = *leadModelToDomain(model)
	}
	return nil
}

func (r *GormLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var model LeadModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return leadModelToDomain(&model), nil
}

func (r *GormLeadRepo) List(ctx context.Context, params ListLeadsParams) ([]domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&LeadModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Urgency != nil {
		query = query.Where("urgency = ?", *params.Urgency)
	}
	if params.Zip != nil {
		query = query.Where("zip = ?", *params.Zip)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []LeadModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	leads := make([]domain.Lead, 0, len(models))
	for i := range models {
		leads = append(leads, *leadModelToDomain(&models[i]))
	}

	return leads, total, nil
}

func (r *GormLeadRepo) MarkDelivered(ctx context.Context, id string, providerID string, routedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("id = ? AND status = ?", id, domain.LeadStatusOpen).
		Updates(map[string]any{
			"status":       domain.LeadStatusDelivered,
			"routed_to_id": providerID,
			"routed_at":    routedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormLeadRepo) MarkUnserved(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&LeadModel{}).
		Where("id = ? AND status = ?", id, domain.LeadStatusOpen).
		Update("status", domain.LeadStatusUnserved)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}
