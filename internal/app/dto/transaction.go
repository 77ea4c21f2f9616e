package dto

import (
	"time"

	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/actor"
)

type Transaction struct {
	ID               string    `json:"id"`
	ReservationID    string    `json:"reservation_id"`
	Method           string    `json:"method"`
	Amount           MoneyDTO  `json:"amount"`
	ProcessingStatus string    `json:"processing_status"`
	SettlementStatus string    `json:"settlement_status"`
	Reference        string    `json:"reference,omitempty"`
	PayerName        string    `json:"payer_name,omitempty"`
	PayerNumber      string    `json:"payer_number,omitempty"`
	ReceiptURL       string    `json:"receipt_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type TransactionCollection struct {
	Items  []Transaction `json:"items"`
	Latest *Transaction  `json:"latest,omitempty"`
}

// TransactionUpdate is returned by status updates; warnings flag accepted anomalies.
type TransactionUpdate struct {
	Transaction Transaction `json:"transaction"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// PayerVisible reports whether payer details may be shown to viewer. They follow
// the contact gate unless the viewer recorded the payment or is an admin.
func PayerVisible(viewer actor.Actor, tx *domainledger.Transaction, canViewContact bool) bool {
	if canViewContact || viewer.IsAdmin() || viewer.IsSystem() {
		return true
	}
	return viewer.ID != "" && viewer.ID == tx.RecordedBy
}

func MapTransaction(tx *domainledger.Transaction, viewer actor.Actor, canViewContact bool) Transaction {
	out := Transaction{
		ID:               string(tx.ID),
		ReservationID:    string(tx.ReservationID),
		Method:           string(tx.Method),
		Amount:           MapMoney(tx.Amount),
		ProcessingStatus: string(tx.ProcessingStatus),
		SettlementStatus: string(tx.SettlementStatus),
		Reference:        tx.Reference,
		ReceiptURL:       tx.ReceiptURL,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
	if PayerVisible(viewer, tx, canViewContact) {
		out.PayerName = tx.Payer.Name
		out.PayerNumber = tx.Payer.Number
	}
	return out
}

func MapTransactions(txs []*domainledger.Transaction, viewer actor.Actor, canViewContact bool) TransactionCollection {
	out := TransactionCollection{Items: make([]Transaction, 0, len(txs))}
	for _, tx := range txs {
		out.Items = append(out.Items, MapTransaction(tx, viewer, canViewContact))
	}
	if latest := domainledger.Latest(txs); latest != nil {
		mapped := MapTransaction(latest, viewer, canViewContact)
		out.Latest = &mapped
	}
	return out
}
