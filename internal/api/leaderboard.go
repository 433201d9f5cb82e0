package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTL

	"credexa/internal/domain" // Importing domain models
	"credexa/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// LeaderboardEntry is one ranked row: a user and their verified credential count
type LeaderboardEntry struct {
	UserID         uint   `json:"user_id"`         // User ID
	Name           string `json:"name"`            // Display name
	Institute      string `json:"institute"`       // Institute name
	ProfilePicture string `json:"profile_picture"` // Profile picture URL
	Points         int64  `json:"points"`          // Verified credential count
}

// LeaderboardHandler returns users ranked by verified credential count
func LeaderboardHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := 1      // Default page
		pageSize := 20 // Default page size
		// If page exists in query
		if p := c.Query("page"); p != "" {
			// Convert page to integer
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// If page_size exists in query
		if ps := c.Query("page_size"); ps != "" {
			// Convert page_size to integer
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size if valid
			}
		}
		offset := (page - 1) * pageSize // Calculate offset
		// Redis cache key
		cacheKey := utils.CacheKey("leaderboard") + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Entries    []LeaderboardEntry `json:"entries"`     // Ranked entries
			Page       int                `json:"page"`        // Current page
			PageSize   int                `json:"page_size"`   // Page size
			Total      int64              `json:"total"`       // Total users
			TotalPages int                `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"entries":     cached.Entries,    // Cached entries
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,
			})
			return
		}
		var total int64 // Total user count
		// Count users for pagination
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var entries []LeaderboardEntry // Ranked rows
		// One verified credential is one point; ties break by user id for a
		// stable ordering across pages
		if err := db.Table("users").
			Select("users.id AS user_id, users.name, users.institute, users.profile_picture, COUNT(credentials.id) AS points").
			Joins("LEFT JOIN credentials ON credentials.user_id = users.id AND credentials.status = ?", domain.StatusVerified).
			Group("users.id").
			Order("points DESC, users.id ASC").
			Offset(offset).
			Limit(pageSize).
			Scan(&entries).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leaderboard"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"entries":     entries,    // Ranked entries
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total users
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the leaderboard
	}
}
