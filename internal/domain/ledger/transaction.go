package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/events"
	"rentgate/internal/domain/shared/money"
	"rentgate/internal/domain/shared/rejection"
)

var (
	ErrNotFound          = errors.New("ledger: transaction not found")
	ErrConcurrentUpdate  = errors.New("ledger: concurrent update")
	ErrIDRequired        = errors.New("ledger: id is required")
	ErrInvalidMethod     = errors.New("ledger: unknown payment method")
	ErrInvalidAmount     = errors.New("ledger: amount must be positive")
	ErrInvalidProcessing = errors.New("ledger: unknown processing status")
	ErrInvalidSettlement = errors.New("ledger: unknown settlement status")
	ErrEmptyUpdate       = errors.New("ledger: at least one status must be provided")
)

type TransactionID string

type Method string

const (
	MethodMobileMoney Method = "mobile_money"
	MethodCard        Method = "card"
	MethodCash        Method = "cash"
)

func ParseMethod(raw string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodMobileMoney, "mobile-money", "momo":
		return MethodMobileMoney, nil
	case MethodCard:
		return MethodCard, nil
	case MethodCash:
		return MethodCash, nil
	default:
		return "", ErrInvalidMethod
	}
}

type ProcessingStatus string

const (
	ProcessingPending   ProcessingStatus = "pending"
	ProcessingSucceeded ProcessingStatus = "succeeded"
	ProcessingFailed    ProcessingStatus = "failed"
)

func ParseProcessingStatus(raw string) (ProcessingStatus, error) {
	switch s := ProcessingStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case ProcessingPending, ProcessingSucceeded, ProcessingFailed:
		return s, nil
	default:
		return "", ErrInvalidProcessing
	}
}

type SettlementStatus string

const (
	SettlementUnpaid  SettlementStatus = "unpaid"
	SettlementPartial SettlementStatus = "partial"
	SettlementPaid    SettlementStatus = "paid"
)

func ParseSettlementStatus(raw string) (SettlementStatus, error) {
	switch s := SettlementStatus(strings.ToLower(strings.TrimSpace(raw))); s {
	case SettlementUnpaid, SettlementPartial, SettlementPaid:
		return s, nil
	default:
		return "", ErrInvalidSettlement
	}
}

// Payer fields are opaque strings kept for manual reconciliation.
type Payer struct {
	Name   string
	Number string
}

type Transaction struct {
	ID               TransactionID
	ReservationID    reservation.ID
	Method           Method
	Amount           money.Money
	ProcessingStatus ProcessingStatus
	SettlementStatus SettlementStatus
	Reference        string
	Payer            Payer
	ReceiptURL       string
	RecordedBy       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id TransactionID) (*Transaction, error)
	Create(ctx context.Context, tx *Transaction) error
	// Save fails with ErrConcurrentUpdate when the stored version moved since it was read.
	Save(ctx context.Context, tx *Transaction) error
	ListByReservation(ctx context.Context, id reservation.ID) ([]*Transaction, error)
}

type RecordParams struct {
	ID            TransactionID
	ReservationID reservation.ID
	Method        Method
	Amount        money.Money
	Reference     string
	Payer         Payer
	RecordedBy    string
	Now           time.Time
}

// Record appends a payment attempt. New transactions always start pending and unpaid.
func Record(params RecordParams) (*Transaction, error) {
	if strings.TrimSpace(string(params.ID)) == "" || strings.TrimSpace(string(params.ReservationID)) == "" {
		return nil, ErrIDRequired
	}
	switch params.Method {
	case MethodMobileMoney, MethodCard, MethodCash:
	default:
		return nil, ErrInvalidMethod
	}
	if !params.Amount.IsPositive() || params.Amount.Currency == "" {
		return nil, ErrInvalidAmount
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	tx := &Transaction{
		ID:               params.ID,
		ReservationID:    params.ReservationID,
		Method:           params.Method,
		Amount:           params.Amount,
		ProcessingStatus: ProcessingPending,
		SettlementStatus: SettlementUnpaid,
		Reference:        strings.TrimSpace(params.Reference),
		Payer:            Payer{Name: strings.TrimSpace(params.Payer.Name), Number: strings.TrimSpace(params.Payer.Number)},
		RecordedBy:       params.RecordedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	tx.Record(TransactionRecorded{
		TransactionID: tx.ID,
		ReservationID: tx.ReservationID,
		Method:        tx.Method,
		Amount:        tx.Amount,
		At:            now,
	})
	return tx, nil
}

type StatusUpdate struct {
	Processing *ProcessingStatus
	Settlement *SettlementStatus
}

// Warning flags an accepted but suspicious update.
type Warning string

const WarningPaidWhileFailed Warning = "settlement marked paid while processing failed"

// UpdateStatus reassigns either status freely. Only admins and trusted integrations may
// call it. Settling a failed attempt is allowed (cash collected out of band) and reported
// as a warning.
func (t *Transaction) UpdateStatus(a actor.Actor, update StatusUpdate, now time.Time) ([]Warning, error) {
	if !a.IsAdmin() && !a.IsSystem() {
		return nil, rejection.New(rejection.Unauthorized, "ledger: only admins can update transaction status")
	}
	if update.Processing == nil && update.Settlement == nil {
		return nil, ErrEmptyUpdate
	}
	processing, settlement := t.ProcessingStatus, t.SettlementStatus
	if update.Processing != nil {
		if _, err := ParseProcessingStatus(string(*update.Processing)); err != nil {
			return nil, err
		}
		processing = *update.Processing
	}
	if update.Settlement != nil {
		if _, err := ParseSettlementStatus(string(*update.Settlement)); err != nil {
			return nil, err
		}
		settlement = *update.Settlement
	}
	if processing == t.ProcessingStatus && settlement == t.SettlementStatus {
		return nil, rejection.New(rejection.AlreadyInTargetState, "ledger: transaction already has these statuses")
	}

	var warnings []Warning
	if settlement == SettlementPaid && processing == ProcessingFailed {
		warnings = append(warnings, WarningPaidWhileFailed)
	}
	previous := StatusPair{Processing: t.ProcessingStatus, Settlement: t.SettlementStatus}
	t.ProcessingStatus = processing
	t.SettlementStatus = settlement
	if now.IsZero() {
		now = time.Now()
	}
	t.UpdatedAt = now.UTC()
	t.Record(TransactionUpdated{
		TransactionID: t.ID,
		ReservationID: t.ReservationID,
		Previous:      previous,
		Current:       StatusPair{Processing: processing, Settlement: settlement},
		UpdatedBy:     a.ID,
		At:            t.UpdatedAt,
	})
	return warnings, nil
}

func (t *Transaction) AttachReceipt(url string, now time.Time) {
	t.ReceiptURL = url
	if now.IsZero() {
		now = time.Now()
	}
	t.UpdatedAt = now.UTC()
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	clone.EventRecorder = events.EventRecorder{}
	return &clone
}

type StatusPair struct {
	Processing ProcessingStatus
	Settlement SettlementStatus
}

// Evidence summarises a reservation's transactions for the state machine guards.
// It checks existence, so a later failed retry never hides an earlier success.
func Evidence(txs []*Transaction) reservation.PaymentEvidence {
	var ev reservation.PaymentEvidence
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		succeeded := tx.ProcessingStatus == ProcessingSucceeded
		paid := tx.SettlementStatus == SettlementPaid
		ev.Succeeded = ev.Succeeded || succeeded
		ev.Paid = ev.Paid || paid
		ev.SucceededAndPaid = ev.SucceededAndPaid || (succeeded && paid)
	}
	return ev
}

// Latest returns the transaction with the greatest CreatedAt, for display only.
func Latest(txs []*Transaction) *Transaction {
	var latest *Transaction
	for _, tx := range txs {
		if tx == nil {
			continue
		}
		if latest == nil || tx.CreatedAt.After(latest.CreatedAt) {
			latest = tx
		}
	}
	return latest
}

// SortNewestFirst orders transactions by CreatedAt descending, ties broken by id.
func SortNewestFirst(txs []*Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if txs[i].CreatedAt.Equal(txs[j].CreatedAt) {
			return txs[i].ID > txs[j].ID
		}
		return txs[i].CreatedAt.After(txs[j].CreatedAt)
	})
}
