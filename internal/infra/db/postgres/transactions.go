package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/money"
)

type TransactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) ByID(ctx context.Context, id domainledger.TransactionID) (*domainledger.Transaction, error) {
	var m transactionModel
	if err := conn(ctx, r.db).Where("id = ?", string(id)).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainledger.ErrNotFound
		}
		return nil, classify(err)
	}
	return m.toDomain(), nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domainledger.Transaction) error {
	m := newTransactionModel(tx)
	m.Version = 1
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		if uniqueViolationOn(err, "transactions_pkey") {
			return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
		}
		return classify(err)
	}
	tx.Version = 1
	return nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainledger.Transaction) error {
	m := newTransactionModel(tx)
	m.Version = tx.Version + 1
	result := conn(ctx, r.db).Model(&transactionModel{}).
		Where("id = ? AND version = ?", m.ID, tx.Version).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if result.Error != nil {
		return classify(result.Error)
	}
	if result.RowsAffected == 0 {
		var n int64
		if err := conn(ctx, r.db).Model(&transactionModel{}).Where("id = ?", m.ID).Count(&n).Error; err != nil {
			return classify(err)
		}
		if n == 0 {
			return domainledger.ErrNotFound
		}
		return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
	}
	tx.Version = m.Version
	return nil
}

func (r *TransactionRepository) ListByReservation(ctx context.Context, id domainreservation.ID) ([]*domainledger.Transaction, error) {
	var rows []transactionModel
	if err := conn(ctx, r.db).Where("reservation_id = ?", string(id)).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	out := make([]*domainledger.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func newTransactionModel(tx *domainledger.Transaction) transactionModel {
	return transactionModel{
		ID:               string(tx.ID),
		ReservationID:    string(tx.ReservationID),
		Method:           string(tx.Method),
		Amount:           tx.Amount.Amount,
		Currency:         tx.Amount.Currency,
		ProcessingStatus: string(tx.ProcessingStatus),
		SettlementStatus: string(tx.SettlementStatus),
		Reference:        tx.Reference,
		PayerName:        tx.Payer.Name,
		PayerNumber:      tx.Payer.Number,
		ReceiptURL:       tx.ReceiptURL,
		RecordedBy:       tx.RecordedBy,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		Version:          tx.Version,
	}
}

func (m transactionModel) toDomain() *domainledger.Transaction {
	return &domainledger.Transaction{
		ID:               domainledger.TransactionID(m.ID),
		ReservationID:    domainreservation.ID(m.ReservationID),
		Method:           domainledger.Method(m.Method),
		Amount:           money.Money{Amount: m.Amount, Currency: m.Currency},
		ProcessingStatus: domainledger.ProcessingStatus(m.ProcessingStatus),
		SettlementStatus: domainledger.SettlementStatus(m.SettlementStatus),
		Reference:        m.Reference,
		Payer:            domainledger.Payer{Name: m.PayerName, Number: m.PayerNumber},
		ReceiptURL:       m.ReceiptURL,
		RecordedBy:       m.RecordedBy,
		CreatedAt:        m.CreatedAt.UTC(),
		UpdatedAt:        m.UpdatedAt.UTC(),
		Version:          m.Version,
	}
}

var _ domainledger.Repository = (*TransactionRepository)(nil)
