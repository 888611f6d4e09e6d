// Package apierr maps domain and connection errors onto HTTP responses.
package apierr

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trackadmission/go-services/internal/categories"
	"github.com/trackadmission/go-services/internal/content"
	"github.com/trackadmission/go-services/internal/database"
	"github.com/trackadmission/go-services/internal/leads"
	"github.com/trackadmission/go-services/internal/trending"
	"github.com/trackadmission/go-services/internal/users"
	"github.com/trackadmission/go-services/pkg/logger"
)

// Status returns the HTTP status for err.
func Status(err error) int {
	var (
		cve *content.ValidationError
		tve *trending.ValidationError
		lve *leads.ValidationError
		kve *categories.ValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case database.IsConnectionError(err), errors.Is(err, database.ErrClosed), database.IsConnectionLost(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, content.ErrNotFound), errors.Is(err, trending.ErrNotFound), errors.Is(err, leads.ErrNotFound),
		errors.Is(err, users.ErrNotFound), errors.Is(err, categories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, content.ErrNoChanges), errors.Is(err, users.ErrInvalidPermit),
		errors.Is(err, users.ErrInvalidID), errors.Is(err, users.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrMissingClaims):
		return http.StatusUnauthorized
	case errors.Is(err, users.ErrForbidden):
		return http.StatusForbidden
	case errors.As(err, &cve), errors.As(err, &tve), errors.As(err, &lve), errors.As(err, &kve):
		return http.StatusBadRequest
	case errors.Is(err, content.ErrSlugTaken), errors.Is(err, content.ErrVersionConflict),
		errors.Is(err, categories.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Write sends the JSON error body for err. Server-side failures are logged
// and their details withheld from the client.
func Write(c *gin.Context, err error) {
	status := Status(err)
	body := gin.H{"error": err.Error()}
	var (
		cve *content.ValidationError
		lve *leads.ValidationError
		kve *categories.ValidationError
	)
	switch {
	case errors.As(err, &cve):
		body["details"] = cve.Problems
	case errors.As(err, &lve):
		body["details"] = lve.Fields
	case errors.As(err, &kve):
		body["details"] = kve.Fields
	}
	switch status {
	case http.StatusServiceUnavailable:
		logger.Errorf("%s %s: database unavailable: %v", c.Request.Method, c.FullPath(), err)
		body = gin.H{"error": "database unavailable"}
	case http.StatusInternalServerError, http.StatusGatewayTimeout:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		body = gin.H{"error": http.StatusText(status)}
	}
	c.JSON(status, body)
}
