package ginserver

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	ledgerapp "rentgate/internal/app/handlers/ledger"
	"rentgate/internal/app/queries"
)

const maxReceiptBytes = 10 << 20

// ReceiptReader serves stored receipts back when the storage has no public URL.
type ReceiptReader interface {
	Open(key string) (io.Reader, string, error)
}

type TransactionHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Receipts ReceiptReader
	Logger   *slog.Logger
}

type recordTransactionRequest struct {
	Method      string `json:"method"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Reference   string `json:"reference"`
	PayerName   string `json:"payer_name"`
	PayerNumber string `json:"payer_number"`
}

type updateTransactionRequest struct {
	ProcessingStatus string `json:"processing_status"`
	SettlementStatus string `json:"settlement_status"`
}

func (h TransactionHandler) Record(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := ledgerapp.RecordTransactionCommand{
		Actor:           who,
		ReservationID:   c.Param("id"),
		Method:          req.Method,
		Amount:          req.Amount,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Reference:       req.Reference,
		PayerName:       req.PayerName,
		PayerNumber:     req.PayerNumber,
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[ledgerapp.RecordTransactionCommand, *dto.Transaction](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h TransactionHandler) List(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[ledgerapp.ListTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries,
		ledgerapp.ListTransactionsQuery{Actor: who, ReservationID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Update is the admin settlement path; the command handler rejects non-admins too.
func (h TransactionHandler) Update(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := commands.Dispatch[ledgerapp.UpdateTransactionStatusCommand, *dto.TransactionUpdate](c.Request.Context(), h.Commands,
		ledgerapp.UpdateTransactionStatusCommand{
			Actor:            who,
			TransactionID:    c.Param("id"),
			ProcessingStatus: strings.ToLower(strings.TrimSpace(req.ProcessingStatus)),
			SettlementStatus: strings.ToLower(strings.TrimSpace(req.SettlementStatus)),
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h TransactionHandler) AttachReceipt(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxReceiptBytes+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read upload"})
		return
	}
	defer file.Close()

	result, err := commands.Dispatch[ledgerapp.AttachReceiptCommand, *dto.Transaction](c.Request.Context(), h.Commands,
		ledgerapp.AttachReceiptCommand{
			Actor:         who,
			TransactionID: c.Param("id"),
			ContentType:   header.Header.Get("Content-Type"),
			Size:          header.Size,
			Body:          file,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Receipt streams a stored receipt to admins reconciling payments.
func (h TransactionHandler) Receipt(c *gin.Context) {
	if _, ok := requireAdmin(c); !ok {
		return
	}
	if h.Receipts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "receipts are served by object storage"})
		return
	}
	key := strings.TrimPrefix(c.Param("key"), "/")
	body, contentType, err := h.Receipts.Open(key)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Debug("receipt lookup failed", "key", key, "error", err)
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "receipt not found"})
		return
	}
	c.DataFromReader(http.StatusOK, -1, contentType, body, nil)
}

var _ TransactionHTTP = TransactionHandler{}
