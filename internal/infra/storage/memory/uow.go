package memory

import (
	"context"
	"errors"
	"sync"

	"rentgate/internal/app/outbox"
	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	domainuser "rentgate/internal/domain/user"
)

var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Factory wires in-memory repositories into a unit-of-work boundary. Writes land
// immediately; only calendar locks and outbox records are scoped to the unit.
type Factory struct {
	ListingsRepo     *ListingRepository
	UsersRepo        *UserRepository
	OverridesRepo    *OverrideRepository
	ReservationsRepo *ReservationRepository
	TransactionsRepo *TransactionRepository
	Outbox           *Outbox

	locks *CalendarLocks
}

// NewFactory builds a factory over fresh repositories.
func NewFactory() *Factory {
	return &Factory{
		ListingsRepo:     NewListingRepository(),
		UsersRepo:        NewUserRepository(),
		OverridesRepo:    NewOverrideRepository(),
		ReservationsRepo: NewReservationRepository(),
		TransactionsRepo: NewTransactionRepository(),
		Outbox:           NewOutbox(false),
		locks:            NewCalendarLocks(),
	}
}

func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ListingsRepo == nil || f.UsersRepo == nil || f.OverridesRepo == nil || f.ReservationsRepo == nil || f.TransactionsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	if f.locks == nil {
		f.locks = NewCalendarLocks()
	}
	return &Unit{factory: f, held: make(map[domainlistings.ListingID]func())}, nil
}

// Unit is a uow.UnitOfWork backed by the in-memory repositories.
type Unit struct {
	factory *Factory

	mu     sync.Mutex
	held   map[domainlistings.ListingID]func()
	staged []outbox.EventRecord
	done   bool
}

func (u *Unit) Listings() domainlistings.Repository              { return u.factory.ListingsRepo }
func (u *Unit) Users() domainuser.Repository                     { return u.factory.UsersRepo }
func (u *Unit) Overrides() domainavailability.OverrideRepository { return u.factory.OverridesRepo }
func (u *Unit) Reservations() domainreservation.Repository       { return u.factory.ReservationsRepo }
func (u *Unit) Transactions() domainledger.Repository            { return u.factory.TransactionsRepo }

// LockCalendar blocks until no other unit holds the listing's calendar. Locking the
// same listing twice within one unit is a no-op.
func (u *Unit) LockCalendar(ctx context.Context, listingID domainlistings.ListingID) error {
	u.mu.Lock()
	if _, ok := u.held[listingID]; ok {
		u.mu.Unlock()
		return nil
	}
	u.mu.Unlock()

	release, err := u.factory.locks.Acquire(ctx, listingID)
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.held[listingID] = release
	u.mu.Unlock()
	return nil
}

func (u *Unit) stage(rec outbox.EventRecord) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.staged = append(u.staged, rec)
}

func (u *Unit) Commit(ctx context.Context) error {
	staged := u.finish()
	if u.factory.Outbox != nil {
		u.factory.Outbox.append(staged...)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.finish()
	return nil
}

func (u *Unit) finish() []outbox.EventRecord {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	for id, release := range u.held {
		release()
		delete(u.held, id)
	}
	staged := u.staged
	u.staged = nil
	return staged
}

// CalendarLocks hands out one exclusive slot per listing.
type CalendarLocks struct {
	mu    sync.Mutex
	locks map[domainlistings.ListingID]chan struct{}
}

func NewCalendarLocks() *CalendarLocks {
	return &CalendarLocks{locks: make(map[domainlistings.ListingID]chan struct{})}
}

// Acquire waits for the listing's slot or for ctx to end. The returned func releases it.
func (c *CalendarLocks) Acquire(ctx context.Context, listingID domainlistings.ListingID) (func(), error) {
	c.mu.Lock()
	ch, ok := c.locks[listingID]
	if !ok {
		ch = make(chan struct{}, 1)
		c.locks[listingID] = ch
	}
	c.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}

var _ uow.UoWFactory = (*Factory)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
