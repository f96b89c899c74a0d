package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationPostgreSQL(db *gorm.DB) repositories.OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Create(org).Error; err != nil {
		return handleDBError(err, "create organization")
	}
	return nil
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.WithContext(ctx).First(&org, "id = ?", id).Error; err != nil {
		return nil, handleDBError(err, "get organization by id")
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context, filters repositories.OrganizationFilters) ([]*models.Organization, int64, error) {
	var orgs []*models.Organization
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Organization{})
	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.Regency != nil {
		query = query.Where("regency = ?", *filters.Regency)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count organizations")
	}

	query = applyPaginationAndSort(query, "name", "asc", filters.Limit, filters.Offset)
	if err := query.Find(&orgs).Error; err != nil {
		return nil, 0, handleDBError(err, "list organizations")
	}

	return orgs, total, nil
}

func (r *organizationRepository) Update(ctx context.Context, org *models.Organization) error {
	if err := r.db.WithContext(ctx).Save(org).Error; err != nil {
		return handleDBError(err, "update organization")
	}
	return nil
}

func (r *organizationRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Organization{}, "id = ?", id)
	if result.Error != nil {
		return handleDBError(result.Error, "delete organization")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete organization: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *organizationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Organization{}).
		Where("code = ?", code).
		Count(&count).Error
	if err != nil {
		return false, handleDBError(err, "organization exists by code")
	}
	return count > 0, nil
}

// ===== PROJECT LINKS =====

func (r *organizationRepository) LinkProject(ctx context.Context, link *models.ProjectOrganization) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		return handleDBError(err, "link project organization")
	}
	return nil
}

func (r *organizationRepository) UnlinkProject(ctx context.Context, projectID, organizationID string) error {
	result := r.db.WithContext(ctx).
		Where("project_id = ? AND organization_id = ?", projectID, organizationID).
		Delete(&models.ProjectOrganization{})
	if result.Error != nil {
		return handleDBError(result.Error, "unlink project organization")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("unlink project organization: %w", repositories.ErrNotFound)
	}
	return nil
}

func (r *organizationRepository) ListProjectLinks(ctx context.Context, projectID string) ([]*models.ProjectOrganization, error) {
	var links []*models.ProjectOrganization
	err := r.db.WithContext(ctx).
		Preload("Organization").
		Where("project_id = ?", projectID).
		Find(&links).Error
	if err != nil {
		return nil, handleDBError(err, "list project links")
	}
	return links, nil
}

func (r *organizationRepository) CountProjectLinks(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ProjectOrganization{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count project links")
	}
	return count, nil
}
