package repository

import (
	"strings"

	"gorm.io/gorm"
)

// MaxPageSize is the maximum allowed page size for paginated queries
const MaxPageSize = 100

// DefaultPageSize is used when a caller passes no limit
const DefaultPageSize = 20

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// SortConfig holds sorting configuration for list queries
type SortConfig struct {
	Field string    // The field to sort by (API field name)
	Order SortOrder // asc or desc
}

// DefaultSortConfig returns a default sort configuration (created_at DESC)
func DefaultSortConfig() SortConfig {
	return SortConfig{
		Field: "createdAt",
		Order: SortOrderDesc,
	}
}

// ParseSortOrder parses a string into SortOrder, defaulting to desc
func ParseSortOrder(s string) SortOrder {
	if strings.ToLower(s) == "asc" {
		return SortOrderAsc
	}
	return SortOrderDesc
}

// BuildOrderClause builds the SQL ORDER BY clause from field mapping and sort config
// fieldMap maps API field names to database column names
// Returns the default sort if field is not in whitelist
func BuildOrderClause(config SortConfig, fieldMap map[string]string, defaultColumn string) string {
	column, ok := fieldMap[config.Field]
	if !ok {
		column = defaultColumn
	}

	order := "DESC"
	if config.Order == SortOrderAsc {
		order = "ASC"
	}

	return column + " " + order
}

// NormalizePage clamps page and limit into the accepted range
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// paginate is a gorm scope applying offset and limit for a normalized page
func paginate(page, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		page, limit = NormalizePage(page, limit)
		return db.Offset((page - 1) * limit).Limit(limit)
	}
}
