// Package pagination parses page/limit/sort/order/search query parameters and
// applies them to gorm queries.
package pagination

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/market-hub/apperr"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Sorts maps the public sort key to the column expression it orders by.
type Sorts map[string]string

type Params struct {
	Page   int
	Limit  int
	Sort   string
	Order  string
	Search string

	column string
}

// Parse reads pagination parameters from the request. Unknown sort keys and
// malformed numbers are validation errors; defaultSort must be a key of sorts.
func Parse(c *gin.Context, sorts Sorts, defaultSort string) (Params, error) {
	p := Params{
		Page:   1,
		Limit:  DefaultLimit,
		Sort:   defaultSort,
		Order:  "desc",
		Search: strings.TrimSpace(c.Query("search")),
	}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Params{}, apperr.Field("page", "must be a positive integer")
		}
		p.Page = n
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			return Params{}, apperr.Field("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
		}
		p.Limit = n
	}
	if raw := c.Query("sort"); raw != "" {
		p.Sort = raw
	}
	column, ok := sorts[p.Sort]
	if !ok {
		return Params{}, apperr.Field("sort", "must be one of: "+strings.Join(keys(sorts), ", "))
	}
	p.column = column

	if raw := strings.ToLower(c.Query("order")); raw != "" {
		if raw != "asc" && raw != "desc" {
			return Params{}, apperr.Field("order", "must be one of: asc, desc")
		}
		p.Order = raw
	}

	return p, nil
}

func (p Params) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Apply adds ORDER BY, OFFSET and LIMIT.
func (p Params) Apply(db *gorm.DB) *gorm.DB {
	q := db
	if p.column != "" {
		q = q.Order(p.column + " " + p.Order)
	}
	return q.Offset(p.Offset()).Limit(p.Limit)
}

// Like returns the search term wrapped for a LIKE match, lower-cased.
func (p Params) Like() string {
	return "%" + strings.ToLower(p.Search) + "%"
}

type Result[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// Paginate counts the rows matched by query and loads the requested page into a
// slice of T. query must already carry the Model and filters; load scopes
// (preloads, selects) are applied to the page query only.
func Paginate[T any](query *gorm.DB, p Params, load ...func(*gorm.DB) *gorm.DB) (Result[T], error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return Result[T]{}, fmt.Errorf("count: %w", err)
	}

	items := make([]T, 0, p.Limit)
	if total > 0 {
		if err := p.Apply(query.Session(&gorm.Session{})).Scopes(load...).Find(&items).Error; err != nil {
			return Result[T]{}, fmt.Errorf("find: %w", err)
		}
	}

	return Result[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: int((total + int64(p.Limit) - 1) / int64(p.Limit)),
	}, nil
}

// Map converts the items of a page, keeping the paging metadata.
func Map[T, U any](r Result[T], fn func(T) U) Result[U] {
	out := Result[U]{Page: r.Page, Limit: r.Limit, Total: r.Total, TotalPages: r.TotalPages}
	out.Items = make([]U, 0, len(r.Items))
	for _, item := range r.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}

func keys(s Sorts) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
