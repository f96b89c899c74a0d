package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lestari-hub/forestry-service/internal/cache"
	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type carbonRepository struct {
	db    *gorm.DB
	cache *cache.CacheHelper
}

func NewCarbonPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.CarbonRepository {
	return &carbonRepository{
		db:    db,
		cache: cache.NewCacheHelper(redisClient, cache.CarbonCacheConfig.Prefix),
	}
}

// ===== BASIC CRUD OPERATIONS =====

func (r *carbonRepository) Create(ctx context.Context, project *models.CarbonProject) error {
	if err := r.db.WithContext(ctx).Create(project).Error; err != nil {
		return handleDBError(err, "create carbon project")
	}
	return nil
}

func (r *carbonRepository) GetByID(ctx context.Context, id string) (*models.CarbonProject, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	var cached models.CarbonProject
	if err := r.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}

	var project models.CarbonProject
	if err := r.db.WithContext(ctx).First(&project, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get carbon project by id")
	}

	_ = r.cache.Set(ctx, cacheKey, &project, cache.CarbonCacheConfig.TTL)
	return &project, nil
}

func (r *carbonRepository) GetByIDWithDetails(ctx context.Context, id string) (*models.CarbonProject, error) {
	var project models.CarbonProject
	if err := r.db.WithContext(ctx).
		Preload("Organizations.Organization").
		First(&project, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get carbon project with details")
	}
	return &project, nil
}

func (r *carbonRepository) GetByCode(ctx context.Context, code string) (*models.CarbonProject, error) {
	var project models.CarbonProject
	if err := r.db.WithContext(ctx).First(&project, "code = ?", code).Error; err != nil {
		return nil, handleDBError(err, "get carbon project by code")
	}
	return &project, nil
}

func (r *carbonRepository) List(ctx context.Context, filters repositories.CarbonFilters) ([]*models.CarbonProject, int64, error) {
	var projects []*models.CarbonProject
	var total int64

	query := r.db.WithContext(ctx).Model(&models.CarbonProject{})
	query = r.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count carbon projects")
	}

	query = applyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
	if err := query.Find(&projects).Error; err != nil {
		return nil, 0, handleDBError(err, "list carbon projects")
	}

	return projects, total, nil
}

func (r *carbonRepository) Update(ctx context.Context, project *models.CarbonProject) error {
	if err := r.db.WithContext(ctx).Save(project).Error; err != nil {
		return handleDBError(err, "update carbon project")
	}
	r.invalidate(ctx, project.ID)
	return nil
}

func (r *carbonRepository) UpdateStatus(ctx context.Context, id string, status models.CarbonProjectStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.CarbonProject{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return handleDBError(result.Error, "update carbon project status")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update carbon project status: %w", repositories.ErrNotFound)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *carbonRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.CarbonProject{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete carbon project")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete carbon project: %w", repositories.ErrNotFound)
	}
	r.invalidate(ctx, id)
	return nil
}

func (r *carbonRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CarbonProject{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "carbon project exists by code")
	}
	return count > 0, nil
}

// ===== ESTIMATE AND VERIFICATION =====

func (r *carbonRepository) UpsertEstimate(ctx context.Context, estimate *models.CarbonEstimate) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			UpdateAll: true,
		}).
		Create(estimate).Error
	if err != nil {
		return handleDBError(err, "upsert carbon estimate")
	}
	return nil
}

func (r *carbonRepository) GetEstimate(ctx context.Context, projectID string) (*models.CarbonEstimate, error) {
	var estimate models.CarbonEstimate
	if err := r.db.WithContext(ctx).First(&estimate, "project_id = ?", projectID).Error; err != nil {
		return nil, handleDBError(err, "get carbon estimate")
	}
	return &estimate, nil
}

func (r *carbonRepository) UpsertVerificationSchedule(ctx context.Context, schedule *models.VerificationSchedule) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			UpdateAll: true,
		}).
		Create(schedule).Error
	if err != nil {
		return handleDBError(err, "upsert verification schedule")
	}
	return nil
}

func (r *carbonRepository) GetVerificationSchedule(ctx context.Context, projectID string) (*models.VerificationSchedule, error) {
	var schedule models.VerificationSchedule
	if err := r.db.WithContext(ctx).First(&schedule, "project_id = ?", projectID).Error; err != nil {
		return nil, handleDBError(err, "get verification schedule")
	}
	return &schedule, nil
}

// ===== HELPERS =====

func (r *carbonRepository) applyFilters(query *gorm.DB, filters repositories.CarbonFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Regency != nil {
		query = query.Where("regency = ?", *filters.Regency)
	}
	if filters.GrantID != nil {
		query = query.Where("grant_id = ?", *filters.GrantID)
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

func (r *carbonRepository) invalidate(ctx context.Context, id string) {
	_ = r.cache.Delete(ctx, fmt.Sprintf("id:%s", id))
	_ = r.cache.InvalidatePattern(ctx, "list:*")
}
