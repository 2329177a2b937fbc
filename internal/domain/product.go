package domain

import (
	"time"
)

// Gender constants define the allowed product gender values.
const (
	GenderMen    = "men"
	GenderWomen  = "women"
	GenderKid    = "kid"
	GenderUnisex = "unisex"
)

// ValidGenders returns the set of valid product gender values.
func ValidGenders() []string {
	return []string{GenderMen, GenderWomen, GenderKid, GenderUnisex}
}

// IsValidGender checks whether the given string is a valid product gender.
func IsValidGender(gender string) bool {
	for _, g := range ValidGenders() {
		if g == gender {
			return true
		}
	}
	return false
}

// Product represents a catalog item.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	Slug        string    `json:"slug"`
	Stock       int       `json:"stock"`
	Sizes       []string  `json:"sizes"`
	Gender      string    `json:"gender"`
	Tags        []string  `json:"tags"`
	Images      []string  `json:"images"`
	UserID      string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
