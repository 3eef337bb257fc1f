// Package service implements the application operations behind the HTTP API.
// Services return *domain.Error values for anything the caller should see.
package service

import (
	"github.com/getkayan/kayan-notes/domain"
)

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T
	Total      int64
	Page       int
	TotalPages int
}

func newPage[T any](items []T, total int64, p domain.Page) *Page[T] {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return &Page[T]{Items: items, Total: total, Page: p.Page, TotalPages: pages}
}
