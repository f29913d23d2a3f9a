package domain

import (
	"fmt"
	"math"
	"time"
)

// PageRequest addresses a 0-based page of Size items.
type PageRequest struct {
	Page int
	Size int
}

// Offset is the index of the first item on the page. It saturates at
// math.MaxInt, which lies past the end of any result set.
func (p PageRequest) Offset() int {
	if p.Page > 0 && p.Size > math.MaxInt/p.Page {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// PageEnd returns the exclusive end index of [offset, offset+size) clamped to
// total, without computing offset+size.
func PageEnd(offset, size, total int) int {
	if size >= total-offset {
		return total
	}
	return offset + size
}

// Validate rejects negative pages and non-positive sizes.
func (p PageRequest) Validate() error {
	if p.Page < 0 {
		return InvalidInputf("page must be greater than or equal to 0")
	}
	if p.Size < 1 {
		return InvalidInputf("size must be greater than or equal to 1")
	}
	return nil
}

// Page is one slice of an ordered result set. Total counts the whole set.
type Page struct {
	Items []*Employee
	Total int64
	Page  int
	Size  int
}

// EmptyPage returns a page with no items and a zero total.
func EmptyPage(req PageRequest) *Page {
	return &Page{Items: []*Employee{}, Page: req.Page, Size: req.Size}
}

// TotalPages is the number of pages needed to hold Total items.
func (p *Page) TotalPages() int {
	if p.Size <= 0 || p.Total == 0 {
		return 0
	}
	return int((p.Total-1)/int64(p.Size) + 1)
}

// Paginate cuts [offset, offset+size) out of an already ordered slice.
// A start past the end yields an empty page with the true total.
func Paginate(all []*Employee, req PageRequest) *Page {
	page := &Page{Total: int64(len(all)), Page: req.Page, Size: req.Size}
	start := req.Offset()
	if start < 0 || start >= len(all) {
		page.Items = []*Employee{}
		return page
	}
	page.Items = all[start:PageEnd(start, req.Size, len(all))]
	return page
}

// NewBirthDate builds a calendar date and rejects impossible ones such as
// Feb 30.
func NewBirthDate(day, month, year int) (time.Time, error) {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, InvalidInputf("invalid birthdate %04d-%02d-%02d", year, month, day)
	}
	return t, nil
}

// FormatBirthDate renders the day, month and year parts with fixed widths.
func FormatBirthDate(t time.Time) (day, month, year string) {
	return fmt.Sprintf("%02d", t.Day()), fmt.Sprintf("%02d", int(t.Month())), fmt.Sprintf("%04d", t.Year())
}
