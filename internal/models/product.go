package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Slugify derives a URL-safe slug from a product name: lowercase,
// non-alphanumeric runs collapsed to a single hyphen, no leading or
// trailing hyphens.
func Slugify(name string) string {

	var b strings.Builder
	lastHyphen := true

	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}

	return strings.TrimRight(b.String(), "-")
}

type CreateProductRequest struct {
	Name  string          `json:"name" validate:"required,min=2,max=100"`
	Price decimal.Decimal `json:"price"`
}

type UpdateProductRequest struct {
	Name  *string          `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Price *decimal.Decimal `json:"price,omitempty"`
}

// sortable columns are whitelisted in the repository
type ProductListOptions struct {
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Size      int
}
