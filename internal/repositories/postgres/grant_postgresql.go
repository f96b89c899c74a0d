package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lestari-hub/forestry-service/internal/cache"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type grantRepository struct {
	db    *gorm.DB
	cache *cache.CacheHelper
}

func NewGrantPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.GrantRepository {
	return &grantRepository{
		db:    db,
		cache: cache.NewCacheHelper(redisClient, cache.GrantCacheConfig.Prefix),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *grantRepository) Create(ctx context.Context, grant *models.Grant) error {
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		return handleDBError(err, "create grant")
	}
	return nil
}

func (r *grantRepository) GetByID(ctx context.Context, id string) (*models.Grant, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var cached models.Grant
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	var grant models.Grant
	if err := r.db.WithContext(ctx).First(&grant, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get grant by id")
	}

	_ = r.cache.Set(ctx, cacheKey, &grant, cache.GrantCacheConfig.TTL)
	return &grant, nil
}

func (r *grantRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.Grant, error) {
	var grant models.Grant
	if err := r.db.WithContext(ctx).
		Preload("Organizations.Organization").
		First(&grant, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get grant with details")
	}
	return &grant, nil
}

func (r *grantRepository) GetByCode(ctx context.Context, code string) (*models.Grant, error) {
	var grant models.Grant
	if err := r.db.WithContext(ctx).First(&grant, "code = ?", code).Error; err != nil {
		return nil, handleDBError(err, "get grant by code")
	}
	return &grant, nil
}

func (r *grantRepository) List(ctx context.Context, filters repositories.GrantFilters) ([]*models.Grant, int64, error) {
	var grants []*models.Grant
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Grant{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count grants")
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&grants).Error; err != nil {
		return nil, 0, handleDBError(err, "list grants")
	}

	return grants, total, nil
}

func (r *grantRepository) Update(ctx context.Context, grant *models.Grant) error {
	if err := r.db.WithContext(ctx).Save(grant).Error; err != nil {
		return handleDBError(err, "update grant")
	}
	r.invalidate(ctx, grant.ID)
	return nil
}

func (r *grantRepository) UpdateStatus(ctx context.Context, id string, status models.GrantStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Grant{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return handleDBError(result.Error, "update grant status")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update grant status: %w", repositories.ErrNotFound)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *grantRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Grant{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete grant")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete grant: %w", repositories.ErrNotFound)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *grantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Grant{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "grant exists by code")
	}
	return count > 0, nil
}

// ===== HELPERS =====

func (r *grantRepository) applyFilters(query *gorm.DB, filters repositories.GrantFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Scheme != nil {
		query = query.Where("scheme = ?", *filters.Scheme)
	}
	if filters.Regency != nil {
		query = query.Where("regency = ?", *filters.Regency)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}
	return query
}

func (r *grantRepository) invalidate(ctx context.Context, id string) {
	if err := r.cache.Delete(ctx, fmt.Sprintf("id:%s", id)); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return
	}
	_ = r.cache.InvalidatePattern(ctx, "list:*")
}
