package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired     = errors.New("listings: id is required")
	ErrSellerRequired = errors.New("listings: seller is required")
	ErrTitleRequired  = errors.New("listings: title is required")
	ErrPriceNegative  = errors.New("listings: price must be non-negative")
	ErrInvalidState   = errors.New("listings: invalid state transition")
	ErrNotFound       = errors.New("listings: not found")
)

type ListingID string
type SellerID string

type ListingState string

const (
	ListingDraft  ListingState = "DRAFT"
	ListingActive ListingState = "ACTIVE"
	ListingSold   ListingState = "SOLD"
)

// Listing is a marketplace item offered by a seller.
type Listing struct {
	ID          ListingID
	Seller      SellerID
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
	Condition   string
	Location    string
	Photos      []string
	State       ListingState
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary is the display projection the messaging subsystem resolves a listing to.
type Summary struct {
	ID           ListingID
	Title        string
	PrimaryImage string
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	List(ctx context.Context) ([]*Listing, error)
}

type CreateListingParams struct {
	ID          ListingID
	Seller      SellerID
	Title       string
	Description string
	Category    string
	PriceCents  int64
	Currency    string
	Condition   string
	Location    string
	Photos      []string
	Now         time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Seller)) == "" {
		return nil, ErrSellerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if params.PriceCents < 0 {
		return nil, ErrPriceNegative
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	currency := strings.ToUpper(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "USD"
	}

	return &Listing{
		ID:          params.ID,
		Seller:      params.Seller,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Category:    strings.TrimSpace(params.Category),
		PriceCents:  params.PriceCents,
		Currency:    currency,
		Condition:   strings.TrimSpace(params.Condition),
		Location:    strings.TrimSpace(params.Location),
		Photos:      append([]string(nil), params.Photos...),
		State:       ListingDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (l *Listing) Activate(now time.Time) error {
	if l.State == ListingSold {
		return ErrInvalidState
	}
	l.State = ListingActive
	l.touch(now)
	return nil
}

func (l *Listing) MarkSold(now time.Time) error {
	if l.State != ListingActive {
		return ErrInvalidState
	}
	l.State = ListingSold
	l.touch(now)
	return nil
}

func (l *Listing) AddPhoto(url string, now time.Time) {
	url = strings.TrimSpace(url)
	if url == "" {
		return
	}
	l.Photos = append(l.Photos, url)
	l.touch(now)
}

// Summary returns the display record used in conversation views. The first
// photo is the primary image.
func (l *Listing) Summary() Summary {
	primary := ""
	if len(l.Photos) > 0 {
		primary = l.Photos[0]
	}
	return Summary{ID: l.ID, Title: l.Title, PrimaryImage: primary}
}

func (l *Listing) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
}
