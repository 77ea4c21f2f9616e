package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentgate/internal/app/middleware"
	"rentgate/internal/app/uow"
	domainledger "rentgate/internal/domain/ledger"
	domainlistings "rentgate/internal/domain/listings"
	domainreservation "rentgate/internal/domain/reservation"
	"rentgate/internal/domain/shared/rejection"
	domainuser "rentgate/internal/domain/user"
)

var notFoundErrors = []error{
	domainreservation.ErrNotFound,
	domainlistings.ErrNotFound,
	domainledger.ErrNotFound,
	domainuser.ErrNotFound,
}

// respondError writes {"error", "reason"} with the status mapped from the rejection taxonomy.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	if reason, ok := rejection.ReasonOf(err); ok {
		c.JSON(statusForReason(reason), gin.H{"error": err.Error(), "reason": string(reason)})
		return
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "reason": "NOT_FOUND"})
			return
		}
	}
	switch {
	case errors.Is(err, middleware.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, uow.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "concurrent update, retry the request"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		if logger != nil {
			logger.Error("request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func statusForReason(reason rejection.Reason) int {
	switch reason {
	case rejection.InvalidRange:
		return http.StatusBadRequest
	case rejection.Unauthorized:
		return http.StatusForbidden
	case rejection.MissingSuccessfulTransaction:
		return http.StatusUnprocessableEntity
	case rejection.DatesUnavailable, rejection.PriceMismatch, rejection.InvalidStateTransition, rejection.AlreadyInTargetState:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}
