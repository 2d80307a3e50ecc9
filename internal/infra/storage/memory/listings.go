package memory

import (
	"context"
	"sort"
	"sync"

	domainlistings "github.com/chrishamcode/marketplace-app-sub001/internal/domain/listings"
)

// ListingRepository stores listings in memory.
type ListingRepository struct {
	mu   sync.RWMutex
	byID map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{byID: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if listing, ok := r.byID[id]; ok {
		return cloneListing(listing), nil
	}
	return nil, domainlistings.ErrNotFound
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if listing == nil {
		return domainlistings.ErrIDRequired
	}
	if listing.ID == "" {
		return domainlistings.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) List(ctx context.Context) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainlistings.Listing, 0, len(r.byID))
	for _, listing := range r.byID {
		out = append(out, cloneListing(listing))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	if l == nil {
		return nil
	}
	copyListing := *l
	copyListing.Photos = append([]string(nil), l.Photos...)
	return &copyListing
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
