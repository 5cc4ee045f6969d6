package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platefeed/backend/internal/service"
)

// respondError maps service error kinds to HTTP statuses. Validation errors
// surface as field-tagged messages; absent resource and forbidden actor stay
// distinct.
func respondError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, gin.H{"errors": gin.H{vErr.Field: vErr.Err.Error()}})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrEmptyCollection),
		errors.Is(err, service.ErrDuplicateItem),
		errors.Is(err, service.ErrUnknownIngredient),
		errors.Is(err, service.ErrUnknownTag),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrDuplicateBookmark),
		errors.Is(err, service.ErrDuplicateSubscription),
		errors.Is(err, service.ErrSelfSubscription),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrUsernameTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
