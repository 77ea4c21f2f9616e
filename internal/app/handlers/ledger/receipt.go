package ledger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	"rentgate/internal/app/middleware"
	"rentgate/internal/app/policies"
	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/rejection"
)

const attachReceiptKey = "ledger.attach_receipt"

var (
	ErrReceiptStorageMissing = errors.New("ledger: receipt storage not configured")
	ErrUnsupportedReceipt    = errors.New("ledger: receipt must be a jpeg, png or pdf")
)

var receiptExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type AttachReceiptCommand struct {
	Actor         actor.Actor
	TransactionID string `validate:"required"`
	ContentType   string `validate:"required"`
	Size          int64  `validate:"gt=0,lte=10485760"`
	Body          io.Reader
}

func (c AttachReceiptCommand) Key() string            { return attachReceiptKey }
func (c AttachReceiptCommand) Principal() actor.Actor { return c.Actor }

// OneShot keeps the transaction middleware from replaying a consumed Body.
func (c AttachReceiptCommand) OneShot() bool { return true }

type AttachReceiptHandler struct {
	Storage policies.ReceiptStorage
	Clock   policies.Clock
	Logger  *slog.Logger
}

func (h *AttachReceiptHandler) Handle(ctx context.Context, cmd AttachReceiptCommand) (*dto.Transaction, error) {
	if h.Storage == nil {
		return nil, ErrReceiptStorageMissing
	}
	ext, ok := receiptExtensions[strings.ToLower(strings.TrimSpace(cmd.ContentType))]
	if !ok || cmd.Body == nil {
		return nil, errors.Join(middleware.ErrInvalidInput, ErrUnsupportedReceipt)
	}
	unit, err := uow.Require(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := unit.Transactions().ByID(ctx, domainledger.TransactionID(strings.TrimSpace(cmd.TransactionID)))
	if err != nil {
		return nil, err
	}
	res, err := unit.Reservations().ByID(ctx, tx.ReservationID)
	if err != nil {
		return nil, err
	}
	if !res.IsGuest(cmd.Actor) && !cmd.Actor.IsAdmin() {
		return nil, rejection.New(rejection.Unauthorized, "only the guest can attach a receipt")
	}

	key := path.Join("receipts", string(tx.ReservationID), fmt.Sprintf("%s%s", tx.ID, ext))
	url, err := h.Storage.Upload(ctx, key, cmd.Body, cmd.Size, cmd.ContentType)
	if err != nil {
		return nil, fmt.Errorf("ledger: upload receipt: %w", err)
	}
	tx.AttachReceipt(url, h.Clock.Now())
	if err := unit.Transactions().Save(ctx, tx); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("receipt attached", "transaction_id", tx.ID, "reservation_id", tx.ReservationID, "key", key)
	}
	out := dto.MapTransaction(tx, cmd.Actor, false)
	return &out, nil
}

var _ commands.Handler[AttachReceiptCommand, *dto.Transaction] = (*AttachReceiptHandler)(nil)
var _ commands.OneShot = AttachReceiptCommand{}
