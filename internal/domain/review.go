package domain

import (
	"strings"
	"time"
)

// ReviewStatus is the lifecycle status of a review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known review status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewStatusPending, ReviewStatusApproved, ReviewStatusRejected:
		return true
	}
	return false
}

// Scope declares the breadth of a lifecycle action: individual affects a
// single product's review instance, bundle affects the original and all of
// its syndicated copies.
type Scope string

const (
	ScopeIndividual Scope = "individual"
	ScopeBundle     Scope = "bundle"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeIndividual || s == ScopeBundle
}

// Review represents a customer review of a product. A review is either
// submitted directly by a customer (IsSyndicated = false) or materialized as
// a copy on a bundle sibling product by the syndication engine
// (IsSyndicated = true).
type Review struct {
	ID        string       `json:"id"`
	ShopID    string       `json:"shop_id"`
	ProductID string       `json:"product_id"`
	Rating    int          `json:"rating"`
	Author    string       `json:"author"`
	Email     string       `json:"email,omitempty"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Images    []string     `json:"images,omitempty"`
	Status    ReviewStatus `json:"status"`
	// IsSyndicated marks reviews created by the syndication engine.
	IsSyndicated bool `json:"is_syndicated"`
	// Source is a free-text provenance note. For syndicated copies it names
	// the bundle and the original review the copy was derived from.
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Aggregate is the deduplicated rating summary for one product. It is derived
// on demand and never persisted.
type Aggregate struct {
	Count int     `json:"review_count"`
	Mean  float64 `json:"rating_mean"`
}

// NormalizeProductID reduces a possibly prefixed compound product identifier
// (e.g. "gid://shop/Product/12345") to its bare trailing segment. Bare
// identifiers pass through unchanged.
func NormalizeProductID(id string) string {
	id = strings.TrimSpace(id)
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return id
}
