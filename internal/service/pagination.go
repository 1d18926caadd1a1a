package service

import (
	"fmt"
	"strconv"
)

// Page carries one page of items plus an optional cursor for fetching the
// next page. A nil NextCursor means the listing is complete.
type Page[T any] struct {
	Items      []T
	NextCursor *string
}

// PageOption configures a Page constructed via NewPage.
type PageOption[T any] func(*Page[T])

// WithNextCursor sets the next cursor on the Page to indicate that more
// results are available.
func WithNextCursor[T any](cursor string) PageOption[T] {
	return func(p *Page[T]) {
		p.NextCursor = &cursor
	}
}

// NewPage constructs a Page with the provided items. If items is nil, it is
// replaced with an empty slice so JSON encodes [] rather than null.
func NewPage[T any](items []T, opts ...PageOption[T]) Page[T] {
	if items == nil {
		items = make([]T, 0)
	}
	p := Page[T]{Items: items}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// PageOf cuts a default-sized page out of a full listing. Capability
// implementations outside this package use it for offset-cursor pagination.
func PageOf[T any](all []T, cursor *string) Page[T] {
	return pageSlice(all, 0, cursor)
}

// parseCursor interprets an opaque cursor as a start offset. Unparseable or
// absent cursors read from the beginning.
func parseCursor(cursor *string) int {
	if cursor == nil || *cursor == "" {
		return 0
	}
	n, err := strconv.Atoi(*cursor)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// pageSlice cuts one page out of a full listing using offset cursors.
func pageSlice[T any](all []T, pageSize int, cursor *string) Page[T] {
	if pageSize <= 0 {
		pageSize = 50
	}
	start := parseCursor(cursor)
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]T, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[T](fmt.Sprintf("%d", end)))
	}
	return NewPage(items)
}
