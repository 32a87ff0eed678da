package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-table-orderflow/internal/billing"
	"github.com/imrishuroy/go-table-orderflow/internal/checkout"
	"github.com/imrishuroy/go-table-orderflow/internal/orders"
	"github.com/imrishuroy/go-table-orderflow/internal/session"
)

var kindStatus = map[checkout.Kind]int{
	checkout.KindValidation:   http.StatusBadRequest,
	checkout.KindMismatch:     http.StatusUnprocessableEntity,
	checkout.KindPrecondition: http.StatusConflict,
	checkout.KindDeclined:     http.StatusPaymentRequired,
	checkout.KindRateLimited:  http.StatusTooManyRequests,
	checkout.KindClosed:       http.StatusGone,
}

// writeError maps domain errors to HTTP responses.
func (a *api) writeError(c *gin.Context, err error) {
	var ce *checkout.Error
	switch {
	case errors.As(err, &ce):
		status, ok := kindStatus[ce.Kind]
		if !ok {
			status = http.StatusBadRequest
		}
		body := gin.H{"error": ce.Code, "msg": ce.Message}
		if ce.Field != "" {
			body["field"] = ce.Field
		}
		c.JSON(status, body)
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session_not_found"})
	case errors.Is(err, orders.ErrNegativeQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_quantity", "field": "quantity", "msg": err.Error()})
	case errors.Is(err, orders.ErrStatusRegression), errors.Is(err, billing.ErrNoOrderID):
		c.JSON(http.StatusConflict, gin.H{"error": "invalid_state", "msg": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request_cancelled"})
	default:
		a.log.Error("unhandled error", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
