package persistence

import (
	"regexp"
	"strings"

	"github.com/bizledger/backend/internal/domain/shared"
	"gorm.io/gorm"
)

var sortColumnPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// applyFilter applies pagination and ordering from the filter. OrderBy is
// validated against a conservative column-name pattern before it reaches the
// query to keep user input out of the ORDER BY clause.
func applyFilter(query *gorm.DB, filter shared.Filter, defaultOrder string) *gorm.DB {
	if filter.OrderBy != "" && sortColumnPattern.MatchString(filter.OrderBy) {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else if defaultOrder != "" {
		query = query.Order(defaultOrder)
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	return query
}
