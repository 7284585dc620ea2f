package models

// Product is one catalog entry. Search results reference products by SKU
// while action tokens carry the public id, so both identifiers are kept for
// cross-referencing impressions with clicks.
type Product struct {
	SKU      string `json:"sku"`
	PublicID string `json:"publicId"`
	Name     string `json:"productName"`
	Category string `json:"category,omitempty"`
}
