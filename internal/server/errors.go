package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	applicationdomain "github.com/interrail/forwarding/internal/application/domain"
	authdomain "github.com/interrail/forwarding/internal/auth/domain"
	counterpartydomain "github.com/interrail/forwarding/internal/counterparty/domain"
	paymentcodedomain "github.com/interrail/forwarding/internal/paymentcode/domain"
	territorydomain "github.com/interrail/forwarding/internal/territory/domain"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

// ErrorHandlingMiddleware turns domain errors into the API's error
// contract: a JSON body with a single human-readable "error" string.
// Nothing leaves the boundary unformatted.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, message := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, gin.H{"error": message})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// mapError decides the status for each domain error. Allocator lookups
// report missing references as 400 rather than 404; only the dedicated
// entity-by-id paths use 404.
func mapError(err error) (int, string) {
	switch {
	case err == nil:
		return http.StatusInternalServerError, "internal server error"

	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired):
		return http.StatusUnauthorized, err.Error()

	case errors.Is(err, applicationdomain.ErrNotFound),
		errors.Is(err, territorydomain.ErrNotFound),
		errors.Is(err, counterpartydomain.ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, paymentcodedomain.ErrTerritoryNotFound),
		errors.Is(err, paymentcodedomain.ErrApplicationNotFound),
		errors.Is(err, paymentcodedomain.ErrRangeOrder),
		errors.Is(err, paymentcodedomain.ErrCapacityExceeded),
		errors.Is(err, paymentcodedomain.ErrInvalidRange):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, applicationdomain.ErrDocumentGeneration):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, applicationdomain.ErrInvalidForwarder),
		errors.Is(err, applicationdomain.ErrInvalidTerritory),
		errors.Is(err, applicationdomain.ErrInvalidManager),
		errors.Is(err, applicationdomain.ErrInvalidQuantity),
		errors.Is(err, applicationdomain.ErrInvalidSendingType),
		errors.Is(err, applicationdomain.ErrInvalidLoadingType),
		errors.Is(err, applicationdomain.ErrInvalidContainerType),
		errors.Is(err, applicationdomain.ErrDuplicateNumber),
		errors.Is(err, territorydomain.ErrInvalidName),
		errors.Is(err, territorydomain.ErrDuplicateName),
		errors.Is(err, territorydomain.ErrInvalidID),
		errors.Is(err, counterpartydomain.ErrInvalidName),
		errors.Is(err, counterpartydomain.ErrDuplicateName),
		errors.Is(err, counterpartydomain.ErrInvalidID),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, authdomain.ErrInvalidUsername),
		errors.Is(err, authdomain.ErrWeakPassword):
		return http.StatusBadRequest, err.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func classifyErrorForLog(err error) (string, string) {
	status, _ := mapError(err)
	switch {
	case status == http.StatusUnauthorized:
		return "auth", "unauthorized"
	case status == http.StatusNotFound:
		return "not_found", "not_found"
	case status == http.StatusBadRequest:
		return "validation", "bad_request"
	default:
		return "internal", "internal_error"
	}
}
