package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentgate/internal/app/uow"
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/daterange"
)

type ReservationRepository struct {
	col *mongo.Collection
}

func NewReservationRepository(db *mongo.Database) *ReservationRepository {
	return &ReservationRepository{col: db.Collection("agg_reservation")}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var doc reservationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, classify(err)
	}
	return doc.toAggregate(), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		switch {
		case duplicateOn(err, "code"):
			return fmt.Errorf("%w: %w", domainreservation.ErrCodeTaken, uow.ErrConflict)
		case mongo.IsDuplicateKeyError(err):
			return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
		}
		return classify(err)
	}
	res.Version = 1
	return nil
}

// Save matches on the version the aggregate was loaded with and bumps it.
func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	doc := newReservationDocument(res)
	filter := bson.M{"_id": doc.ID, "version": res.Version}
	doc.Version = res.Version + 1
	out, err := r.col.ReplaceOne(ctx, filter, doc)
	if err != nil {
		return classify(err)
	}
	if out.MatchedCount == 0 {
		n, err := r.col.CountDocuments(ctx, bson.M{"_id": doc.ID})
		if err != nil {
			return classify(err)
		}
		if n == 0 {
			return domainreservation.ErrNotFound
		}
		return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
	}
	res.Version = doc.Version
	return nil
}

func (r *ReservationRepository) ActiveByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	return r.find(ctx, bson.M{
		"listing_id": string(listingID),
		"status":     bson.M{"$ne": string(domainreservation.StatusCancelled)},
	}, nil)
}

func (r *ReservationRepository) List(ctx context.Context, filter domainreservation.ListFilter) ([]*domainreservation.Reservation, error) {
	q := bson.M{}
	if filter.GuestID != "" {
		q["guest_id"] = filter.GuestID
	}
	if filter.HostID != "" {
		q["host_id"] = string(filter.HostID)
	}
	if filter.ListingID != "" {
		q["listing_id"] = string(filter.ListingID)
	}
	if filter.Status != "" {
		q["status"] = string(filter.Status)
	}
	if !filter.IncludeArchived {
		q["archived"] = false
	}
	return r.find(ctx, q, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *ReservationRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domainreservation.Reservation, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cur.Close(ctx)
	var out []*domainreservation.Reservation
	for cur.Next(ctx) {
		var doc reservationDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type reservationDocument struct {
	ID                 string        `bson:"_id"`
	Code               string        `bson:"code"`
	GuestID            string        `bson:"guest_id"`
	ListingID          string        `bson:"listing_id"`
	HostID             string        `bson:"host_id"`
	Mode               string        `bson:"mode"`
	StartDate          string        `bson:"start_date,omitempty"`
	EndDate            string        `bson:"end_date,omitempty"`
	VisitDate          string        `bson:"visit_date,omitempty"`
	VisitTime          string        `bson:"visit_time,omitempty"`
	Message            string        `bson:"message"`
	Quote              quoteDocument `bson:"quote"`
	Status             string        `bson:"status"`
	ArrivalStatus      string        `bson:"arrival_status"`
	HostPaymentStatus  string        `bson:"host_payment_status"`
	Archived           bool          `bson:"archived"`
	CancellationReason string        `bson:"cancellation_reason,omitempty"`
	CancelledBy        string        `bson:"cancelled_by,omitempty"`
	CreatedAt          int64         `bson:"created_at"`
	UpdatedAt          int64         `bson:"updated_at"`
	Version            int64         `bson:"version"`
}

type quoteDocument struct {
	Mode         string        `bson:"mode"`
	Nights       int           `bson:"nights"`
	BasePrice    moneyDocument `bson:"base_price"`
	Commission   moneyDocument `bson:"commission"`
	TotalPrice   moneyDocument `bson:"total_price"`
	AmountDueNow moneyDocument `bson:"amount_due_now"`
}

func newReservationDocument(r *domainreservation.Reservation) reservationDocument {
	return reservationDocument{
		ID:        string(r.ID),
		Code:      string(r.Code),
		GuestID:   r.GuestID,
		ListingID: string(r.ListingID),
		HostID:    string(r.HostID),
		Mode:      string(r.Mode),
		StartDate: dayToString(r.Range.Start),
		EndDate:   dayToString(r.Range.End),
		VisitDate: dayToString(r.VisitDate),
		VisitTime: r.VisitTime,
		Message:   r.Message,
		Quote: quoteDocument{
			Mode:         string(r.Quote.Mode),
			Nights:       r.Quote.Nights,
			BasePrice:    newMoneyDocument(r.Quote.BasePrice),
			Commission:   newMoneyDocument(r.Quote.Commission),
			TotalPrice:   newMoneyDocument(r.Quote.TotalPrice),
			AmountDueNow: newMoneyDocument(r.Quote.AmountDueNow),
		},
		Status:             string(r.Status),
		ArrivalStatus:      string(r.ArrivalStatus),
		HostPaymentStatus:  string(r.HostPaymentStatus),
		Archived:           r.Archived,
		CancellationReason: r.CancellationReason,
		CancelledBy:        r.CancelledBy,
		CreatedAt:          timeToTimestamp(r.CreatedAt),
		UpdatedAt:          timeToTimestamp(r.UpdatedAt),
		Version:            r.Version,
	}
}

func (d reservationDocument) toAggregate() *domainreservation.Reservation {
	return &domainreservation.Reservation{
		ID:        domainreservation.ID(d.ID),
		Code:      domainreservation.Code(d.Code),
		GuestID:   d.GuestID,
		ListingID: domainlistings.ListingID(d.ListingID),
		HostID:    domainlistings.HostID(d.HostID),
		Mode:      domainlistings.RentalMode(d.Mode),
		Range:     daterange.DateRange{Start: stringToDay(d.StartDate), End: stringToDay(d.EndDate)},
		VisitDate: stringToDay(d.VisitDate),
		VisitTime: d.VisitTime,
		Message:   d.Message,
		Quote: domainpricing.Quote{
			Mode:         domainlistings.RentalMode(d.Quote.Mode),
			Nights:       d.Quote.Nights,
			BasePrice:    d.Quote.BasePrice.toMoney(),
			Commission:   d.Quote.Commission.toMoney(),
			TotalPrice:   d.Quote.TotalPrice.toMoney(),
			AmountDueNow: d.Quote.AmountDueNow.toMoney(),
		},
		Status:             domainreservation.Status(d.Status),
		ArrivalStatus:      domainreservation.ArrivalStatus(d.ArrivalStatus),
		HostPaymentStatus:  domainreservation.HostPaymentStatus(d.HostPaymentStatus),
		Archived:           d.Archived,
		CancellationReason: d.CancellationReason,
		CancelledBy:        d.CancelledBy,
		CreatedAt:          timestampToTime(d.CreatedAt),
		UpdatedAt:          timestampToTime(d.UpdatedAt),
		Version:            d.Version,
	}
}
