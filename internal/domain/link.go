package domain

import "time"

// SyndicationLink is the provenance edge between an original review and one
// syndicated copy on a bundle sibling product. At most one link exists per
// (original review, target product) pair; the store enforces this with a
// uniqueness constraint so concurrent first approvals cannot create
// duplicates.
type SyndicationLink struct {
	ID               string    `json:"id"`
	OriginalReviewID string    `json:"original_review_id"`
	CopyReviewID     string    `json:"copy_review_id"`
	BundleID         string    `json:"bundle_id"`
	TargetProductID  string    `json:"target_product_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// SyndicatedRating is a syndication link joined to its copy review's rating,
// as read by the aggregation engine. Only links whose copy is approved are
// returned by the store.
type SyndicatedRating struct {
	LinkID           string `json:"link_id"`
	OriginalReviewID string `json:"original_review_id"`
	Rating           int    `json:"rating"`
}
