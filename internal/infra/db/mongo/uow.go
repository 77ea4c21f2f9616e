package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	domainuser "rentgate/internal/domain/user"
)

const calendarLocksCollection = "calendar_locks"

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ListingsRepo     domainlistings.Repository
	UsersRepo        domainuser.Repository
	OverridesRepo    domainavailability.OverrideRepository
	ReservationsRepo domainreservation.Repository
	TransactionsRepo domainledger.Repository
}

// NewFactory builds the repositories over db.
func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:               db,
		ListingsRepo:     NewListingRepository(db),
		UsersRepo:        NewUserRepository(db),
		OverridesRepo:    NewOverrideRepository(db),
		ReservationsRepo: NewReservationRepository(db),
		TransactionsRepo: NewTransactionRepository(db),
	}
}

// Begin starts a MongoDB session/transaction. Read-only units use snapshot reads.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		db:           f.DB,
		session:      session,
		listings:     f.ListingsRepo,
		users:        f.UsersRepo,
		overrides:    f.OverridesRepo,
		reservations: f.ReservationsRepo,
		transactions: f.TransactionsRepo,
	}, nil
}

type Unit struct {
	db      *mongo.Database
	session mongo.Session

	listings     domainlistings.Repository
	users        domainuser.Repository
	overrides    domainavailability.OverrideRepository
	reservations domainreservation.Repository
	transactions domainledger.Repository
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }
func (u *Unit) Users() domainuser.Repository { return u.users }
func (u *Unit) Overrides() domainavailability.OverrideRepository { return u.overrides }
func (u *Unit) Reservations() domainreservation.Repository { return u.reservations }
func (u *Unit) Transactions() domainledger.Repository { return u.transactions }

// LockCalendar writes the listing's lock document inside the transaction. A second
// transaction touching the same document gets a write conflict and is retried.
func (u *Unit) LockCalendar(ctx context.Context, listingID domainlistings.ListingID) error {
	_, err := u.db.Collection(calendarLocksCollection).UpdateOne(ctx,
		bson.M{"_id": string(listingID)},
		bson.M{"$inc": bson.M{"seq": 1}, "$set": bson.M{"locked_at": time.Now().UTC()}},
		options.Update().SetUpsert(true),
	)
	return classify(err)
}

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return classify(u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
