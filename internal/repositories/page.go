package repositories

import (
	"time"

	"gorm.io/gorm"
)

// sinceScope narrows a catch-up query to rows updated at or after the
// cursor. The boundary is inclusive so a client resuming from the
// updated_at of its last seen row never skips an equal-timestamp write.
// A zero cursor applies no filter.
func sinceScope(since time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if since.IsZero() {
			return db
		}
		return db.Where("updated_at >= ?", since)
	}
}

// Page is a zero-based page request.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	if p.Number < 0 {
		return 0
	}
	return p.Number * p.limit()
}

func (p Page) limit() int {
	if p.Size <= 0 {
		return 20
	}
	return p.Size
}

// Slice is one page of results plus a has-next flag. Repositories fetch one
// row beyond the page size so HasNext never needs a count query.
type Slice[T any] struct {
	Items   []T  `json:"items"`
	HasNext bool `json:"has_next"`
}

func sliceOf[T any](items []T, limit int) Slice[T] {
	if len(items) > limit {
		return Slice[T]{Items: items[:limit], HasNext: true}
	}
	return Slice[T]{Items: items, HasNext: false}
}
