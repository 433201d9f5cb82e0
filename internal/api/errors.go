package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"credexa/internal/credential" // Core error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

// abortWithError maps the core error taxonomy onto HTTP responses. Anything
// outside the taxonomy is a plain 500; the core never hides such errors
// behind a catch-all itself.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, credential.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"}) // Caller error, no retry
	case errors.Is(err, credential.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"}) // Unknown to all sources
	case errors.Is(err, credential.ErrAlreadyAnchored):
		c.JSON(http.StatusConflict, gin.H{"error": "Credential already anchored"}) // At-most-once violation
	case errors.Is(err, credential.ErrAlreadyAnchoredOnChain):
		c.JSON(http.StatusConflict, gin.H{"error": "Hash already anchored on chain"}) // Chain slot occupied
	case errors.Is(err, credential.ErrChainUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Blockchain temporarily unavailable"}) // Retryable
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
