package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/lestari-hub/forestry-service/internal/repositories"
)

// handleDBError translates GORM errors into the repository sentinel errors,
// wrapping the operation name for diagnostics.
func handleDBError(err error, op string) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, repositories.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, repositories.ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// applyPaginationAndSort applies pagination and sorting with a whitelist of
// sortable columns.
func applyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"name":       true,
		"code":       true,
		"status":     true,
		"regency":    true,
		"area_ha":    true,
		"tx_date":    true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if sortOrder != "asc" && sortOrder != "ASC" {
		sortOrder = "DESC"
	} else {
		sortOrder = "ASC"
	}

	query = query.Order(sortBy + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
