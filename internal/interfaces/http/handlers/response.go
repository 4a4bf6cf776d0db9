// internal/interfaces/http/handlers/response.go
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/your-org/marketplace-backend/internal/domain/shared"
	"github.com/your-org/marketplace-backend/internal/interfaces/http/middleware"
)

// statusClientClosedRequest is nginx's non-standard code for a client that
// went away before the response was written.
const statusClientClosedRequest = 499

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// respondError maps domain errors to HTTP responses. Anything unrecognised is
// logged and reported as a bare 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	if conflicts := shared.Conflicts(err); len(conflicts) > 0 {
		code := "INSUFFICIENT_STOCK"
		var unavailable *shared.ProductUnavailableError
		if errors.As(conflicts[0], &unavailable) {
			code = "PRODUCT_UNAVAILABLE"
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":     "Some items in your cart cannot be purchased",
			"code":      code,
			"conflicts": describeConflicts(conflicts),
		})
		return
	}

	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"error": verr.Message, "code": "VALIDATION_ERROR"}
		if len(verr.Fields) > 0 {
			body["details"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}

	var derr *shared.DomainError
	if errors.As(err, &derr) {
		c.JSON(statusFor(derr), gin.H{"error": derr.Message, "code": derr.Code})
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out", "code": "TIMEOUT"})
		return
	}

	if errors.Is(err, context.Canceled) {
		logger.WithField("request_id", middleware.GetRequestID(c)).
			WithField("route", c.FullPath()).
			Info("Request cancelled by client")
		c.JSON(statusClientClosedRequest, gin.H{"error": "Request cancelled", "code": "REQUEST_CANCELLED"})
		return
	}

	logger.WithError(err).
		WithField("request_id", middleware.GetRequestID(c)).
		WithField("route", c.FullPath()).
		Error("Unhandled error")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": "INTERNAL_ERROR"})
}

func statusFor(err *shared.DomainError) int {
	switch err {
	case shared.ErrNotFound:
		return http.StatusNotFound
	case shared.ErrUnauthorized, shared.ErrTokenInvalid, shared.ErrTokenExpired:
		return http.StatusUnauthorized
	case shared.ErrForbidden:
		return http.StatusForbidden
	case shared.ErrAlreadyReviewed, shared.ErrDuplicateEmail, shared.ErrStockChanged:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func describeConflicts(conflicts []error) []gin.H {
	out := make([]gin.H, 0, len(conflicts))
	for _, err := range conflicts {
		switch e := err.(type) {
		case *shared.InsufficientStockError:
			out = append(out, gin.H{
				"product_id": e.ProductID,
				"code":       "INSUFFICIENT_STOCK",
				"requested":  e.Requested,
				"available":  e.Available,
				"message":    e.Error(),
			})
		case *shared.ProductUnavailableError:
			out = append(out, gin.H{
				"product_id": e.ProductID,
				"code":       "PRODUCT_UNAVAILABLE",
				"message":    e.Error(),
			})
		}
	}
	return out
}

// bindJSON decodes the body into req and reports binding failures as
// validation errors. It returns false once a response has been written.
func bindJSON(c *gin.Context, logger *logrus.Logger, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, logger, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return shared.FromValidator(err)
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return shared.NewValidationError("request body too large")
	}
	if errors.Is(err, io.EOF) {
		return shared.NewValidationError("request body is required")
	}
	return shared.NewValidationError("invalid request body: " + err.Error())
}
