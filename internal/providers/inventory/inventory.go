package inventory

import (
	"context"
	"fmt"

	"github.com/chachabrian/hotelbook-backend/internal/apperr"
)

// Listing is a hotel record in the shape this service exposes, independent of the
// upstream catalog's schema.
type Listing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
	Address     string  `json:"address"`
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Rating      float64 `json:"rating"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
}

type Page struct {
	Items []Listing `json:"data"`
	Total int       `json:"total"`
}

// Gateway lists hotels from an external catalog.
type Gateway interface {
	ListHotels(ctx context.Context, page, limit int) (Page, error)
}

// Paginate returns the items in [(page-1)*limit, page*limit) and the full count.
func Paginate(all []Listing, page, limit int) (Page, error) {
	if page < 1 {
		return Page{}, fmt.Errorf("page must be >= 1: %w", apperr.ErrValidation)
	}
	if limit < 1 {
		return Page{}, fmt.Errorf("limit must be >= 1: %w", apperr.ErrValidation)
	}

	out := Page{Items: []Listing{}, Total: len(all)}
	if page-1 > len(all)/limit {
		return out, nil
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return out, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	out.Items = append(out.Items, all[start:end]...)
	return out, nil
}
