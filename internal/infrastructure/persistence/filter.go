package persistence

import (
	"strings"

	"github.com/pharmstock/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// orderableColumns is the allow-list for ORDER BY input. Anything else falls
// back to created_at to keep user input out of the SQL text.
var orderableColumns = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"fiscal_year":    true,
	"reserved_at":    true,
	"received_date":  true,
	"expiry_date":    true,
	"receipt_number": true,
	"status":         true,
}

// applyPagination applies page, page size and ordering to a query
func applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := filter.OrderBy
	if !orderableColumns[orderBy] {
		orderBy = "created_at"
	}
	orderDir := "DESC"
	if strings.EqualFold(filter.OrderDir, "asc") {
		orderDir = "ASC"
	}
	return query.Order(orderBy + " " + orderDir)
}

// normalizePage returns sane page values for building Paginated results
func normalizePage(filter shared.Filter) (page, pageSize int) {
	page = filter.Page
	if page < 1 {
		page = 1
	}
	pageSize = filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return page, pageSize
}
