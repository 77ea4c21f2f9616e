package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
)

// ListingRepository is an in-memory listing catalogue, filled from fixtures.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{items: make(map[domainlistings.ListingID]*domainlistings.Listing)}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	clone := *listing
	return &clone, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *listing
	r.items[listing.ID] = &clone
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainlistings.Listing
	for _, l := range r.items {
		if l.Host == host {
			clone := *l
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// OverrideRepository keeps one override per listing and day.
type OverrideRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]map[string]domainavailability.Override
}

func NewOverrideRepository() *OverrideRepository {
	return &OverrideRepository{items: make(map[domainlistings.ListingID]map[string]domainavailability.Override)}
}

func (r *OverrideRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]domainavailability.Override, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	days := r.items[listingID]
	out := make([]domainavailability.Override, 0, len(days))
	for _, o := range days {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *OverrideRepository) Upsert(ctx context.Context, overrides []domainavailability.Override) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range overrides {
		days, ok := r.items[o.ListingID]
		if !ok {
			days = make(map[string]domainavailability.Override)
			r.items[o.ListingID] = days
		}
		days[o.Date.Format("2006-01-02")] = o
	}
	return nil
}

// ReservationRepository stores reservations with optimistic versioning and a unique code index.
type ReservationRepository struct {
	mu     sync.RWMutex
	items  map[domainreservation.ID]*domainreservation.Reservation
	byCode map[domainreservation.Code]domainreservation.ID
}

func NewReservationRepository() *ReservationRepository {
	return &ReservationRepository{
		items:  make(map[domainreservation.ID]*domainreservation.Reservation),
		byCode: make(map[domainreservation.Code]domainreservation.ID),
	}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.items[id]
	if !ok {
		return nil, domainreservation.ErrNotFound
	}
	return res.Clone(), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.byCode[res.Code]; taken {
		return fmt.Errorf("%w: %w", domainreservation.ErrCodeTaken, uow.ErrConflict)
	}
	if _, exists := r.items[res.ID]; exists {
		return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
	}
	res.Version = 1
	r.items[res.ID] = res.Clone()
	r.byCode[res.Code] = res.ID
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[res.ID]
	if !ok {
		return domainreservation.ErrNotFound
	}
	if stored.Version != res.Version {
		return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
	}
	res.Version++
	r.items[res.ID] = res.Clone()
	return nil
}

func (r *ReservationRepository) ActiveByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainreservation.Reservation
	for _, res := range r.items {
		if res.ListingID == listingID && res.Status != domainreservation.StatusCancelled {
			out = append(out, res.Clone())
		}
	}
	return out, nil
}

func (r *ReservationRepository) List(ctx context.Context, filter domainreservation.ListFilter) ([]*domainreservation.Reservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainreservation.Reservation
	for _, res := range r.items {
		if filter.Match(res) {
			out = append(out, res.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// TransactionRepository is the in-memory ledger.
type TransactionRepository struct {
	mu            sync.RWMutex
	items         map[domainledger.TransactionID]*domainledger.Transaction
	byReservation map[domainreservation.ID][]domainledger.TransactionID
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{
		items:         make(map[domainledger.TransactionID]*domainledger.Transaction),
		byReservation: make(map[domainreservation.ID][]domainledger.TransactionID),
	}
}

func (r *TransactionRepository) ByID(ctx context.Context, id domainledger.TransactionID) (*domainledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.items[id]
	if !ok {
		return nil, domainledger.ErrNotFound
	}
	return tx.Clone(), nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domainledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[tx.ID]; exists {
		return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
	}
	tx.Version = 1
	r.items[tx.ID] = tx.Clone()
	r.byReservation[tx.ReservationID] = append(r.byReservation[tx.ReservationID], tx.ID)
	return nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainledger.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[tx.ID]
	if !ok {
		return domainledger.ErrNotFound
	}
	if stored.Version != tx.Version {
		return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
	}
	tx.Version++
	r.items[tx.ID] = tx.Clone()
	return nil
}

func (r *TransactionRepository) ListByReservation(ctx context.Context, id domainreservation.ID) ([]*domainledger.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byReservation[id]
	out := make([]*domainledger.Transaction, 0, len(ids))
	for _, txID := range ids {
		out = append(out, r.items[txID].Clone())
	}
	return out, nil
}

var (
	_ domainlistings.Repository             = (*ListingRepository)(nil)
	_ domainavailability.OverrideRepository = (*OverrideRepository)(nil)
	_ domainreservation.Repository          = (*ReservationRepository)(nil)
	_ domainledger.Repository               = (*TransactionRepository)(nil)
)
