package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/dto"
	pricingapp "rentgate/internal/app/handlers/pricing"
	"rentgate/internal/app/queries"
)

type QuoteHandler struct {
	Queries queries.Bus
	Logger  *slog.Logger
}

func (h QuoteHandler) Quote(c *gin.Context) {
	start, err := optionalDay(c.Query("start"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	end, err := optionalDay(c.Query("end"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := queries.Ask[pricingapp.GetQuoteQuery, dto.Quote](c.Request.Context(), h.Queries, pricingapp.GetQuoteQuery{
		ListingID: c.Param("id"),
		Mode:      c.Query("mode"),
		Start:     start,
		End:       end,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ QuoteHTTP = QuoteHandler{}
