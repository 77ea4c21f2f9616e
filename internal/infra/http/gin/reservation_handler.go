package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	reservationapp "rentgate/internal/app/handlers/reservations"
	"rentgate/internal/app/queries"
	"rentgate/internal/domain/shared/actor"
	"rentgate/internal/domain/shared/daterange"
)

const idempotencyHeader = "Idempotency-Key"

type ReservationHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type createReservationRequest struct {
	ListingID    string `json:"listing_id"`
	Mode         string `json:"rental_mode"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	VisitDate    string `json:"visit_date"`
	VisitTime    string `json:"visit_time"`
	Message      string `json:"message"`
	QuotedTotal  int64  `json:"quoted_total"`
	QuotedDueNow int64  `json:"quoted_due_now"`
	Currency     string `json:"currency"`
}

type updateReservationRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (h ReservationHandler) Create(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := optionalDay(req.StartDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	end, err := optionalDay(req.EndDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	visit, err := optionalDay(req.VisitDate)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := reservationapp.CreateReservationCommand{
		Actor:           who,
		ListingID:       req.ListingID,
		Mode:            req.Mode,
		StartDate:       start,
		EndDate:         end,
		VisitDate:       visit,
		VisitTime:       req.VisitTime,
		Message:         req.Message,
		QuotedTotal:     req.QuotedTotal,
		QuotedDueNow:    req.QuotedDueNow,
		QuotedCurrency:  strings.ToUpper(strings.TrimSpace(req.Currency)),
		IdempotencyKeyV: c.GetHeader(idempotencyHeader),
	}
	result, err := commands.Dispatch[reservationapp.CreateReservationCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Update accepts {"status": "confirmed"} from the host and {"status": "cancelled"} from either party.
func (h ReservationHandler) Update(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id := c.Param("id")
	switch strings.ToLower(strings.TrimSpace(req.Status)) {
	case "confirmed":
		h.dispatch(c, reservationapp.ConfirmReservationCommand{Actor: who, ReservationID: id})
	case "cancelled", "canceled":
		h.dispatch(c, reservationapp.CancelReservationCommand{Actor: who, ReservationID: id, Reason: req.Reason})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be confirmed or cancelled"})
	}
}

func (h ReservationHandler) Cancel(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req cancelReservationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	h.dispatch(c, reservationapp.CancelReservationCommand{Actor: who, ReservationID: c.Param("id"), Reason: req.Reason})
}

func (h ReservationHandler) Archive(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	h.dispatch(c, reservationapp.ArchiveReservationCommand{Actor: who, ReservationID: c.Param("id")})
}

func (h ReservationHandler) ValidateArrival(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	h.dispatch(c, reservationapp.ValidateArrivalCommand{Actor: who, ReservationID: c.Param("id")})
}

func (h ReservationHandler) ConfirmPayment(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	h.dispatch(c, reservationapp.ConfirmPaymentCommand{Actor: who, ReservationID: c.Param("id")})
}

func (h ReservationHandler) dispatch(c *gin.Context, cmd commands.Command) {
	raw, err := h.Commands.Dispatch(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, raw)
}

func (h ReservationHandler) Get(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.GetReservationQuery, dto.Reservation](c.Request.Context(), h.Queries,
		reservationapp.GetReservationQuery{Actor: who, ReservationID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Contact(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	result, err := queries.Ask[reservationapp.GetContactQuery, dto.Contact](c.Request.Context(), h.Queries,
		reservationapp.GetContactQuery{Actor: who, ReservationID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ListMine(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	h.list(c, reservationapp.ListGuestReservationsQuery{Actor: who, IncludeArchived: boolQuery(c, "archived")}, who)
}

func (h ReservationHandler) ListHosted(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	h.list(c, reservationapp.ListHostReservationsQuery{
		Actor:           who,
		Status:          c.Query("status"),
		ListingID:       c.Query("listing_id"),
		IncludeArchived: boolQuery(c, "archived"),
	}, who)
}

func (h ReservationHandler) list(c *gin.Context, q queries.Query, who actor.Actor) {
	raw, err := h.Queries.Ask(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, ok := raw.(dto.ReservationCollection)
	if !ok {
		respondError(c, h.Logger, queries.ErrResultType)
		return
	}
	if h.Logger != nil {
		h.Logger.Debug("reservations served", "actor_id", who.ID, "count", len(result.Items))
	}
	c.JSON(http.StatusOK, result)
}

func optionalDay(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return daterange.ParseDay(raw)
}

func boolQuery(c *gin.Context, key string) bool {
	v, err := strconv.ParseBool(c.DefaultQuery(key, "false"))
	return err == nil && v
}

var _ ReservationHTTP = ReservationHandler{}
