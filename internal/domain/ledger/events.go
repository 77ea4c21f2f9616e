package ledger

import (
	"time"

	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/money"
)

type TransactionRecorded struct {
	TransactionID TransactionID
	ReservationID reservation.ID
	Method        Method
	Amount        money.Money
	At            time.Time
}

func (e TransactionRecorded) EventName() string     { return "ledger.transaction_recorded" }
func (e TransactionRecorded) AggregateID() string   { return string(e.TransactionID) }
func (e TransactionRecorded) OccurredAt() time.Time { return e.At }

type TransactionUpdated struct {
	TransactionID TransactionID
	ReservationID reservation.ID
	Previous      StatusPair
	Current       StatusPair
	UpdatedBy     string
	At            time.Time
}

func (e TransactionUpdated) EventName() string     { return "ledger.transaction_updated" }
func (e TransactionUpdated) AggregateID() string   { return string(e.TransactionID) }
func (e TransactionUpdated) OccurredAt() time.Time { return e.At }
