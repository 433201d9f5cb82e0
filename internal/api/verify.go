package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"time"     // Cache TTL

	"credexa/internal/credential" // Anchoring and verification core
	"credexa/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// VerifyHandler checks a presented hash against the chain and the local
// store. Public: third-party verifiers hold only a hash or a shared link, so
// there is no authentication here.
func VerifyHandler(v *credential.Verifier, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Normalize before the cache lookup so mixed-case presentations of
		// the same hash share one cache entry
		hash, err := credential.NormalizeHash(c.Param("hash"))
		if err != nil {
			// Malformed hash: fail fast, no chain or store lookups
			c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed hash"})
			return
		}
		ctx := context.Background()                        // Context for Redis operations
		cacheKey := utils.CacheKey("verify", "hash", hash) // Cache key for the result
		var cached credential.VerificationResult           // Cached verification result
		if rdb != nil {
			found, err := utils.GetCache(ctx, rdb, cacheKey, &cached) // Try to get from cache
			// If found in cache, return it
			if err == nil && found {
				c.JSON(http.StatusOK, gin.H{"result": cached, "cached": true})
				return
			}
		}
		// Reconcile chain and store through the core verifier
		result, err := v.Verify(c.Request.Context(), hash)
		if err != nil {
			abortWithError(c, err)
			return
		}
		// Cache the result for 60 seconds; anchoring invalidates this key
		if rdb != nil {
			_ = utils.SetCache(ctx, rdb, cacheKey, result, 60*time.Second)
		}
		// Return the verification result
		c.JSON(http.StatusOK, gin.H{"result": result, "cached": false})
	}
}
