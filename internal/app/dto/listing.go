package dto

import (
	"time"

	domainlistings "github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
)

type Listing struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Condition   string    `json:"condition,omitempty"`
	Location    string    `json:"location,omitempty"`
	Photos      []string  `json:"photos,omitempty"`
	State       string    `json:"state"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func NewListing(listing *domainlistings.Listing) Listing {
	if listing == nil {
		return Listing{}
	}
	return Listing{
		ID:          string(listing.ID),
		SellerID:    string(listing.Seller),
		Title:       listing.Title,
		Description: listing.Description,
		Category:    listing.Category,
		PriceCents:  listing.PriceCents,
		Currency:    listing.Currency,
		Condition:   listing.Condition,
		Location:    listing.Location,
		Photos:      append([]string(nil), listing.Photos...),
		State:       string(listing.State),
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
}

func NewListingCollection(items []*domainlistings.Listing) ListingCollection {
	collection := ListingCollection{Items: make([]Listing, 0, len(items))}
	for _, item := range items {
		collection.Items = append(collection.Items, NewListing(item))
	}
	return collection
}
