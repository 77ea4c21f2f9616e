package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	domainreservation "rentgate/internal/domain/reservation"
)

type TransactionRepository struct {
	col *mongo.Collection
}

func NewTransactionRepository(db *mongo.Database) *TransactionRepository {
	return &TransactionRepository{col: db.Collection("agg_transaction")}
}

func (r *TransactionRepository) ByID(ctx context.Context, id domainledger.TransactionID) (*domainledger.Transaction, error) {
	var doc transactionDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainledger.ErrNotFound
		}
		return nil, classify(err)
	}
	return doc.toAggregate(), nil
}

func (r *TransactionRepository) Create(ctx context.Context, tx *domainledger.Transaction) error {
	doc := newTransactionDocument(tx)
	doc.Version = 1
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
		}
		return classify(err)
	}
	tx.Version = 1
	return nil
}

func (r *TransactionRepository) Save(ctx context.Context, tx *domainledger.Transaction) error {
	doc := newTransactionDocument(tx)
	filter := bson.M{"_id": doc.ID, "version": tx.Version}
	doc.Version = tx.Version + 1
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
			return domainledger.ErrNotFound
		}
		return fmt.Errorf("%w: %w", domainledger.ErrConcurrentUpdate, uow.ErrConflict)
	}
	tx.Version = doc.Version
	return nil
}

func (r *TransactionRepository) ListByReservation(ctx context.Context, id domainreservation.ID) ([]*domainledger.Transaction, error) {
	cur, err := r.col.Find(ctx, bson.M{"reservation_id": string(id)}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, classify(err)
	}
	defer cur.Close(ctx)
	var out []*domainledger.Transaction
	for cur.Next(ctx) {
		var doc transactionDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cur.Err()
}

type transactionDocument struct {
	ID               string        `bson:"_id"`
	ReservationID    string        `bson:"reservation_id"`
	Method           string        `bson:"method"`
	Amount           moneyDocument `bson:"amount"`
	ProcessingStatus string        `bson:"processing_status"`
	SettlementStatus string        `bson:"settlement_status"`
	Reference        string        `bson:"reference,omitempty"`
	PayerName        string        `bson:"payer_name,omitempty"`
	PayerNumber      string        `bson:"payer_number,omitempty"`
	ReceiptURL       string        `bson:"receipt_url,omitempty"`
	RecordedBy       string        `bson:"recorded_by"`
	CreatedAt        int64         `bson:"created_at"`
	UpdatedAt        int64         `bson:"updated_at"`
	Version          int64         `bson:"version"`
}

func newTransactionDocument(tx *domainledger.Transaction) transactionDocument {
	return transactionDocument{
		ID:               string(tx.ID),
		ReservationID:    string(tx.ReservationID),
		Method:           string(tx.Method),
		Amount:           newMoneyDocument(tx.Amount),
		ProcessingStatus: string(tx.ProcessingStatus),
		SettlementStatus: string(tx.SettlementStatus),
		Reference:        tx.Reference,
		PayerName:        tx.Payer.Name,
		PayerNumber:      tx.Payer.Number,
		ReceiptURL:       tx.ReceiptURL,
		RecordedBy:       tx.RecordedBy,
		CreatedAt:        timeToTimestamp(tx.CreatedAt),
		UpdatedAt:        timeToTimestamp(tx.UpdatedAt),
		Version:          tx.Version,
	}
}

func (d transactionDocument) toAggregate() *domainledger.Transaction {
	return &domainledger.Transaction{
		ID:               domainledger.TransactionID(d.ID),
		ReservationID:    domainreservation.ID(d.ReservationID),
		Method:           domainledger.Method(d.Method),
		Amount:           d.Amount.toMoney(),
		ProcessingStatus: domainledger.ProcessingStatus(d.ProcessingStatus),
		SettlementStatus: domainledger.SettlementStatus(d.SettlementStatus),
		Reference:        d.Reference,
		Payer:            domainledger.Payer{Name: d.PayerName, Number: d.PayerNumber},
		ReceiptURL:       d.ReceiptURL,
		RecordedBy:       d.RecordedBy,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
		Version:          d.Version,
	}
}
