package repository

import (
	"context"
	"errors"

	"github.com/Hmvalles75/mobile-phlebotomy-directory/internal/domain"
	"gorm.io/gorm"
)

type ListProvidersParams struct {
	Page     int
	PageSize int
}

type ProviderRepository interface {
	Create(ctx context.Context, p *domain.Provider) error
	GetByID(ctx context.Context, id string) (*domain.Provider, error)
	Update(ctx context.Context, p *domain.Provider) error
	List(ctx context.Context, params ListProvidersParams) ([]domain.Provider, int64, error)
	// ListAll returns every provider for in-process eligibility
	// filtering. The directory is small enough that candidate selection
	// filters in memory rather than in SQL.
	ListAll(ctx context.Context) ([]domain.Provider, error)
}

type GormProviderRepo struct {
	db *gorm.DB
}

func NewGormProviderRepo(db *gorm.DB) *GormProviderRepo {
	return &GormProviderRepo{db: db}
}

func (r *GormProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	model := providerModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if p != nil {
		*p = *providerModelToDomain(model)
	}
	return nil
}

func (r *GormProviderRepo) GetByID(ctx context.Context, id string) (*domain.Provider, error) {
	var model ProviderModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return providerModelToDomain(&model), nil
}

func (r *GormProviderRepo) Update(ctx context.Context, p *domain.Provider) error {
	model := providerModelFromDomain(p)
	result := r.db.WithContext(ctx).
		Model(&ProviderModel{}).
		Where("id = ?", model.ID).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormProviderRepo) List(ctx context.Context, params ListProvidersParams) ([]domain.Provider, int64, error) {
	query := r.db.WithContext(ctx).Model(&ProviderModel{})

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

	var models []ProviderModel
	err := query.
		Order("name ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	providers := make([]domain.Provider, 0, len(models))
	for i := range models {
		providers = append(providers, *providerModelToDomain(&models[i]))
	}

	return providers, total, nil
}

func (r *GormProviderRepo) ListAll(ctx context.Context) ([]domain.Provider, error) {
	var models []ProviderModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, err
	}

	providers := make([]domain.Provider, 0, len(models))
	for i := range models {
		providers = append(providers, *providerModelToDomain(&models[i]))
	}

	return providers, nil
}
