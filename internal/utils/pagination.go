package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Pagination is the page window requested by a list endpoint.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads the page and limit query params. Out-of-range values
// fall back to the first page of defaultPageSize; limit is capped at
// maxPageSize so a client cannot ask for the whole table.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page"), 1)
	limit := parseInt(c.Query("limit"), defaultPageSize)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
