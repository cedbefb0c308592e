package domain

import "time"

// Bundle is a named group of products that share one review pool. Bundles are
// maintained administratively and are read-only to this service.
type Bundle struct {
	ID string `json:"id"`
	// Name is unique per shop.
	Name             string `json:"name"`
	ShopID           string `json:"shop_id"`
	PrimaryProductID string `json:"primary_product_id"`
	// ProductIDs holds the ordered member products. The primary product is
	// always a member and a bundle has at least two distinct members.
	ProductIDs []string  `json:"product_ids"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Contains reports whether productID is a member of the bundle.
func (b *Bundle) Contains(productID string) bool {
	for _, id := range b.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// SiblingsOf returns every member product except the given one.
func (b *Bundle) SiblingsOf(productID string) []string {
	siblings := make([]string, 0, len(b.ProductIDs))
	for _, id := range b.ProductIDs {
		if id != productID {
			siblings = append(siblings, id)
		}
	}
	return siblings
}
