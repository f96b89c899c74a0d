package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/lestari-hub/forestry-service/internal/models"
	"github.com/lestari-hub/forestry-service/internal/repositories"
)

type dashboardRepository struct {
	db *gorm.DB
}

func NewDashboardPostgreSQL(db *gorm.DB) repositories.DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountGrants(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Grant{}).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count grants")
	}
	return count, nil
}

func (r *dashboardRepository) CountCarbonProjects(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CarbonProject{}).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count carbon projects")
	}
	return count, nil
}

func (r *dashboardRepository) CountOrganizations(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Organization{}).Count(&count).Error; err != nil {
		return 0, handleDBError(err, "count organizations")
	}
	return count, nil
}

func (r *dashboardRepository) GrantsByStatus(ctx context.Context) ([]repositories.StatusCount, error) {
	var counts []repositories.StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.Grant{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, handleDBError(err, "grants by status")
	}
	return counts, nil
}

func (r *dashboardRepository) GrantsByRegency(ctx context.Context, limit int) ([]repositories.RegencyCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var counts []repositories.RegencyCount
	err := r.db.WithContext(ctx).
		Model(&models.Grant{}).
		Select("regency, COUNT(*) AS count").
		Group("regency").
		Order("count DESC").
		Limit(limit).
		Scan(&counts).Error
	if err != nil {
		return nil, handleDBError(err, "grants by regency")
	}
	return counts, nil
}

func (r *dashboardRepository) CarbonByStatus(ctx context.Context) ([]repositories.StatusCount, error) {
	var counts []repositories.StatusCount
	err := r.db.WithContext(ctx).
		Model(&models.CarbonProject{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&counts).Error
	if err != nil {
		return nil, handleDBError(err, "carbon projects by status")
	}
	return counts, nil
}

func (r *dashboardRepository) TotalGrantAreaHa(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.Grant{}).
		Select("COALESCE(SUM(area_ha), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, handleDBError(err, "total grant area")
	}
	return total, nil
}

func (r *dashboardRepository) TotalEstimatedTCO2e(ctx context.Context) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.CarbonEstimate{}).
		Select("COALESCE(SUM(projected_tco2e), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, handleDBError(err, "total estimated tco2e")
	}
	return total, nil
}

func (r *dashboardRepository) RecentGrants(ctx context.Context, limit int) ([]*models.Grant, error) {
	if limit <= 0 {
		limit = 5
	}
	var grants []*models.Grant
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&grants).Error
	if err != nil {
		return nil, handleDBError(err, "recent grants")
	}
	return grants, nil
}

func (r *dashboardRepository) RecentTransactions(ctx context.Context, limit int) ([]*models.Transaction, error) {
	if limit <= 0 {
		limit = 5
	}
	var txs []*models.Transaction
	err := r.db.WithContext(ctx).
		Order("tx_date DESC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, handleDBError(err, "recent transactions")
	}
	return txs, nil
}
