package types

// Image is a product or category picture.
type Image struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Ratings holds the aggregated review score of a product.
type Ratings struct {
	Average float64 `json:"average" gorm:"column:average;not null;default:0"`
	Count   int     `json:"count" gorm:"column:count;not null;default:0"`
}
