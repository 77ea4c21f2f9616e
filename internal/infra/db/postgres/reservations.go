package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rentgate/internal/app/uow"
	domainavailability "rentgate/internal/domain/availability"
	domainlistings "rentgate/internal/domain/listings"
	domainpricing "rentgate/internal/domain/pricing"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/daterange"
	"rentgate/internal/domain/shared/money"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) ByID(ctx context.Context, id domainreservation.ID) (*domainreservation.Reservation, error) {
	var m reservationModel
	if err := conn(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainreservation.ErrNotFound
		}
		return nil, classify(err)
	}
	return m.toDomain(), nil
}

func (r *ReservationRepository) Create(ctx context.Context, res *domainreservation.Reservation) error {
	m := newReservationModel(res)
	m.Version = 1
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		switch {
		case uniqueViolationOn(err, "reservations_code_key"):
			return fmt.Errorf("%w: %w", domainreservation.ErrCodeTaken, uow.ErrConflict)
		case uniqueViolationOn(err, "reservations_pkey"):
			return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
		}
		return classify(err)
	}
	res.Version = 1
	return nil
}

func (r *ReservationRepository) Save(ctx context.Context, res *domainreservation.Reservation) error {
	m := newReservationModel(res)
	m.Version = res.Version + 1
	result := conn(ctx, r.db).Model(&reservationModel{}).
		Where("id = ? AND version = ?", m.ID, res.Version).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := conn(ctx, r.db).Model(&reservationModel{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
			return classify(err)
		}
		if n == 0 {
			return domainreservation.ErrNotFound
		}
		return fmt.Errorf("%w: %w", domainreservation.ErrConcurrentUpdate, uow.ErrConflict)
	}
	res.Version = m.Version
	return nil
}

func (r *ReservationRepository) ActiveByListing(ctx context.Context, listingID domainlistings.ListingID) ([]*domainreservation.Reservation, error) {
	var rows []reservationModel
	err := conn(ctx, r.db).
		Where("listing_id = ? AND status <> ?", string(listingID), string(domainreservation.StatusCancelled)).
		Find(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	return toReservations(rows), nil
}

func (r *ReservationRepository) List(ctx context.Context, filter domainreservation.ListFilter) ([]*domainreservation.Reservation, error) {
	q := conn(ctx, r.db)
	if filter.GuestID != "" {
		q = q.Where("guest_id = ?", filter.GuestID)
	}
	if filter.HostID != "" {
		q = q.Where("host_id = ?", string(filter.HostID))
	}
	if filter.ListingID != "" {
		q = q.Where("listing_id = ?", string(filter.ListingID))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if !filter.IncludeArchived {
		q = q.Where("archived = ?", false)
	}
	var rows []reservationModel
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return toReservations(rows), nil
}

func toReservations(rows []reservationModel) []*domainreservation.Reservation {
	out := make([]*domainreservation.Reservation, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out
}

func dayPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	day := daterange.Day(t)
	return &day
}

func dayValue(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return daterange.Day(*t)
}

func newReservationModel(r *domainreservation.Reservation) reservationModel {
	return reservationModel{
		ID:                 string(r.ID),
		Code:               string(r.Code),
		GuestID:            r.GuestID,
		ListingID:          string(r.ListingID),
		HostID:             string(r.HostID),
		Mode:               string(r.Mode),
		StartDate:          dayPtr(r.Range.Start),
		EndDate:            dayPtr(r.Range.End),
		VisitDate:          dayPtr(r.VisitDate),
		VisitTime:          r.VisitTime,
		Message:            r.Message,
		QuoteNights:        r.Quote.Nights,
		Currency:           r.Quote.TotalPrice.Currency,
		BasePrice:          r.Quote.BasePrice.Amount,
		Commission:         r.Quote.Commission.Amount,
		TotalPrice:         r.Quote.TotalPrice.Amount,
		AmountDueNow:       r.Quote.AmountDueNow.Amount,
		Status:             string(r.Status),
		ArrivalStatus:      string(r.ArrivalStatus),
		HostPaymentStatus:  string(r.HostPaymentStatus),
		Archived:           r.Archived,
		CancellationReason: r.CancellationReason,
		CancelledBy:        r.CancelledBy,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
		Version:            r.Version,
	}
}

func (m reservationModel) toDomain() *domainreservation.Reservation {
	amount := func(v int64) money.Money { return money.Money{Amount: v, Currency: m.Currency} }
	return &domainreservation.Reservation{
		ID:        domainreservation.ID(m.ID),
		Code:      domainreservation.Code(m.Code),
		GuestID:   m.GuestID,
		ListingID: domainlistings.ListingID(m.ListingID),
		HostID:    domainlistings.HostID(m.HostID),
		Mode:      domainlistings.RentalMode(m.Mode),
		Range:     daterange.DateRange{Start: dayValue(m.StartDate), End: dayValue(m.EndDate)},
		VisitDate: dayValue(m.VisitDate),
		VisitTime: m.VisitTime,
		Message:   m.Message,
		Quote: domainpricing.Quote{
			Mode:         domainlistings.RentalMode(m.Mode),
			Nights:       m.QuoteNights,
			BasePrice:    amount(m.BasePrice),
			Commission:   amount(m.Commission),
			TotalPrice:   amount(m.TotalPrice),
			AmountDueNow: amount(m.AmountDueNow),
		},
		Status:             domainreservation.Status(m.Status),
		ArrivalStatus:      domainreservation.ArrivalStatus(m.ArrivalStatus),
		HostPaymentStatus:  domainreservation.HostPaymentStatus(m.HostPaymentStatus),
		Archived:           m.Archived,
		CancellationReason: m.CancellationReason,
		CancelledBy:        m.CancelledBy,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
		Version:            m.Version,
	}
}

type OverrideRepository struct {
	db *gorm.DB
}

func NewOverrideRepository(db *gorm.DB) *OverrideRepository {
	return &OverrideRepository{db: db}
}

func (r *OverrideRepository) ByListing(ctx context.Context, listingID domainlistings.ListingID) ([]domainavailability.Override, error) {
	var rows []overrideModel
	if err := conn(ctx, r.db).Where("listing_id = ?", string(listingID)).Order("date ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]domainavailability.Override, 0, len(rows))
	for _, m := range rows {
		out = append(out, domainavailability.Override{
			ListingID:   domainlistings.ListingID(m.ListingID),
			Date:        daterange.Day(m.Date),
			IsAvailable: m.IsAvailable,
			UpdatedBy:   m.UpdatedBy,
			UpdatedAt:   m.UpdatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *OverrideRepository) Upsert(ctx context.Context, overrides []domainavailability.Override) error {
	if len(overrides) == 0 {
		return nil
	}
	rows := make([]overrideModel, 0, len(overrides))
	for _, o := range overrides {
		rows = append(rows, overrideModel{
			ListingID:   string(o.ListingID),
			Date:        daterange.Day(o.Date),
			IsAvailable: o.IsAvailable,
			UpdatedBy:   o.UpdatedBy,
			UpdatedAt:   o.UpdatedAt,
		})
	}
	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "listing_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_available", "updated_by", "updated_at"}),
	}).Create(&rows).Error
	return classify(err)
}

var (
	_ domainreservation.Repository          = (*ReservationRepository)(nil)
	_ domainavailability.OverrideRepository = (*OverrideRepository)(nil)
)
