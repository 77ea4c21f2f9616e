package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/commands"
	"rentgate/internal/app/dto"
	availabilityapp "rentgate/internal/app/handlers/availability"
	"rentgate/internal/app/queries"
	"rentgate/internal/domain/shared/daterange"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type updateAvailabilityRequest struct {
	ListingID   string   `json:"listing_id"`
	Dates       []string `json:"dates"`
	IsAvailable *bool    `json:"is_available"`
}

// Calendar is public; the bearer token only unlocks block sources for the host.
func (h AvailabilityHandler) Calendar(c *gin.Context) {
	from, err := optionalDay(c.Query("from"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	to, err := optionalDay(c.Query("to"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	viewer, _ := currentActor(c)
	query := availabilityapp.GetCalendarQuery{Viewer: viewer, ListingID: c.Param("listingId"), From: from, To: to}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AvailabilityHandler) Update(c *gin.Context) {
	who, ok := requireActor(c)
	if !ok {
		return
	}
	var req updateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.IsAvailable == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "is_available is required"})
		return
	}
	dates := make([]time.Time, 0, len(req.Dates))
	for _, raw := range req.Dates {
		day, err := daterange.ParseDay(raw)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		dates = append(dates, day)
	}
	result, err := commands.Dispatch[availabilityapp.UpdateOverridesCommand, *dto.OverridesResult](c.Request.Context(), h.Commands,
		availabilityapp.UpdateOverridesCommand{
			Actor:       who,
			ListingID:   req.ListingID,
			Dates:       dates,
			IsAvailable: *req.IsAvailable,
		})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
