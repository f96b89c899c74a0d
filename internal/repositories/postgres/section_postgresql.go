package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type sectionRepository struct {
	db *gorm.DB
}

func NewSectionPostgreSQL(db *gorm.DB) repositories.SectionRepository {
	return &sectionRepository{db: db}
}

// ===== ORGANIZATIONAL PROFILE =====

func (r *sectionRepository) UpsertOrganizationalProfile(ctx context.Context, profile *models.OrganizationalProfile) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
	if err != nil {
		return handleDBError(err, "upsert organizational profile")
	}
	return nil
}

func (r *sectionRepository) GetOrganizationalProfile(ctx context.Context, projectID string) (*models.OrganizationalProfile, error) {
	var profile models.OrganizationalProfile
	if err := r.db.WithContext(ctx).First(&profile, "project_id = ?", projectID).Error; err != nil {
		return nil, handleDBError(err, "get organizational profile")
	}
	return &profile, nil
}

// ===== LAND TENURE =====

func (r *sectionRepository) UpsertLandTenure(ctx context.Context, tenure *models.LandTenure) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			UpdateAll: true,
		}).
		Create(tenure).Error
	if err != nil {
		return handleDBError(err, "upsert land tenure")
	}
	return nil
}

func (r *sectionRepository) GetLandTenure(ctx context.Context, projectID string) (*models.LandTenure, error) {
	var tenure models.LandTenure
	if err := r.db.WithContext(ctx).First(&tenure, "project_id = ?", projectID).Error; err != nil {
		return nil, handleDBError(err, "get land tenure")
	}
	return &tenure, nil
}

// ===== FOREST STATUS HISTORY =====

func (r *sectionRepository) AddForestStatusRecord(ctx context.Context, record *models.ForestStatusRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return handleDBError(err, "add forest status record")
	}
	return nil
}

func (r *sectionRepository) ListForestStatusRecords(ctx context.Context, projectID string) ([]*models.ForestStatusRecord, error) {
	var records []*models.ForestStatusRecord
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("year ASC").
		Find(&records).Error
	if err != nil {
		return nil, handleDBError(err, "list forest status records")
	}
	return records, nil
}

func (r *sectionRepository) CountForestStatusRecords(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ForestStatusRecord{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count forest status records")
	}
	return count, nil
}

// ===== DEFORESTATION DRIVERS =====

func (r *sectionRepository) AddDeforestationDriver(ctx context.Context, driver *models.DeforestationDriver) error {
	if err := r.db.WithContext(ctx).Create(driver).Error; err != nil {
		return handleDBError(err, "add deforestation driver")
	}
	return nil
}

func (r *sectionRepository) ListDeforestationDrivers(ctx context.Context, projectID string) ([]*models.DeforestationDriver, error) {
	var drivers []*models.DeforestationDriver
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&drivers).Error
	if err != nil {
		return nil, handleDBError(err, "list deforestation drivers")
	}
	return drivers, nil
}

func (r *sectionRepository) CountDeforestationDrivers(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.DeforestationDriver{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count deforestation drivers")
	}
	return count, nil
}

// ===== PROJECT MODELS =====

func (r *sectionRepository) UpsertModel(ctx context.Context, model *models.ProjectModel) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "kind"}},
			UpdateAll: true,
		}).
		Create(model).Error
	if err != nil {
		return handleDBError(err, "upsert project model")
	}
	return nil
}

func (r *sectionRepository) GetModel(ctx context.Context, projectID, kind string) (*models.ProjectModel, error) {
	var model models.ProjectModel
	err := r.db.WithContext(ctx).
		First(&model, "project_id = ? AND kind = ?", projectID, kind).Error
	if err != nil {
		return nil, handleDBError(err, "get project model")
	}
	return &model, nil
}

// ===== TIMELINE =====

func (r *sectionRepository) AddMilestone(ctx context.Context, milestone *models.TimelineMilestone) error {
	if err := r.db.WithContext(ctx).Create(milestone).Error; err != nil {
		return handleDBError(err, "add milestone")
	}
	return nil
}

func (r *sectionRepository) ListMilestones(ctx context.Context, projectID string) ([]*models.TimelineMilestone, error) {
	var milestones []*models.TimelineMilestone
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("start_date ASC").
		Find(&milestones).Error
	if err != nil {
		return nil, handleDBError(err, "list milestones")
	}
	return milestones, nil
}

func (r *sectionRepository) CountMilestones(ctx context.Context, projectID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TimelineMilestone{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	if err != nil {
		return 0, handleDBError(err, "count milestones")
	}
	return count, nil
}

// ===== KML FILES =====

func (r *sectionRepository) AddKMLFile(ctx context.Context, file *models.KMLFile) error {
	if err := r.db.WithContext(ctx).Create(file).Error; err != nil {
		return handleDBError(err, "add kml file")
	}
	return nil
}

func (r *sectionRepository) GetLatestKMLFile(ctx context.Context, projectID string, isVerra bool) (*models.KMLFile, error) {
	var file models.KMLFile
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND is_verra = ?", projectID, isVerra).
		Order("created_at DESC").
		First(&file).Error
	if err != nil {
		return nil, handleDBError(err, "get latest kml file")
	}
	return &file, nil
}
