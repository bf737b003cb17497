package model

import (
	"slices"
	"strings"
)

// Category groups tasks by business area.
type Category string

const (
	CategoryProduct   Category = "product"
	CategorySales     Category = "sales"
	CategoryMarketing Category = "marketing"
)

// Categories lists valid categories in display order.
var Categories = []Category{CategoryProduct, CategorySales, CategoryMarketing}

// Valid reports whether c is a known category.
func (c Category) Valid() bool { return slices.Contains(Categories, c) }

// ParseCategory validates s as a Category.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSpace(s))
	if !c.Valid() {
		return "", Invalid("category", "must be one of product, sales, marketing")
	}
	return c, nil
}

// Priority ranks tasks.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists valid priorities from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return slices.Contains(Priorities, p) }

// ParsePriority validates s as a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.TrimSpace(s))
	if !p.Valid() {
		return "", Invalid("priority", "must be one of low, medium, high")
	}
	return p, nil
}

// PostStatus tracks a LinkedIn post through publication.
type PostStatus string

const (
	PostScheduled PostStatus = "scheduled"
	PostPosted    PostStatus = "posted"
	PostOpen      PostStatus = "open"
)

// PostStatuses lists valid post statuses.
var PostStatuses = []PostStatus{PostScheduled, PostPosted, PostOpen}

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool { return slices.Contains(PostStatuses, s) }

// ParsePostStatus validates s as a PostStatus.
func ParsePostStatus(s string) (PostStatus, error) {
	st := PostStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", Invalid("status", "Invalid status value")
	}
	return st, nil
}
