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

// UserAdminResponse is the admin-facing projection of a user
type UserAdminResponse struct {
	ID            uint   `json:"id"`             // User ID
	Name          string `json:"name"`           // Display name
	Email         string `json:"email"`          // Email address
	Role          string `json:"role"`           // User role
	Institute     string `json:"institute"`      // Institute name
	PublicProfile bool   `json:"public_profile"` // Public verification visibility
	Credentials   int64  `json:"credentials"`    // Total credential count
}

// pagination reads the page and page_size query parameters with the same
// defaults and limits everywhere
func pagination(c *gin.Context) (page, pageSize, offset int) {
	page = 1      // Default page number
	pageSize = 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		// If valid, set page size
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	offset = (page - 1) * pageSize // Calculate offset for pagination
	return page, pageSize, offset
}

// AdminListUsersHandler returns all users with their credential counts
func AdminListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination parameters
		cacheKey := utils.CacheKey("admin", "users") +
			":page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		// Try to get cached response
		var cached struct {
			Users      []UserAdminResponse `json:"users"`       // List of users
			Page       int                 `json:"page"`        // Current page
			PageSize   int                 `json:"page_size"`   // Page size
			Total      int64               `json:"total"`       // Total number of users
			TotalPages int                 `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"users":       cached.Users,      // List of users
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of users
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page, pageSize, offset := pagination(c) // Pagination parameters
		var total int64                         // Total user count
		// Fetch total user count
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"}) // Return on error
			return
		}
		var resp []UserAdminResponse // Admin projections with counts
		// Fetch paginated users joined with their credential counts
		if err := db.Table("users").
			Select("users.id, users.name, users.email, users.role, users.institute, users.public_profile, COUNT(credentials.id) AS credentials").
			Joins("LEFT JOIN credentials ON credentials.user_id = users.id").
			Group("users.id").
			Order("users.id ASC").
			Offset(offset).
			Limit(pageSize).
			Scan(&resp).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"}) // Return on error
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		out := gin.H{
			"users":       resp,       // List of users
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of users
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, out, 60*time.Second)
		c.JSON(http.StatusOK, out) // Return user list
	}
}

// AdminListCredentialsHandler returns all credentials across users
func AdminListCredentialsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination and status filter
		cacheKey := utils.CacheKey("admin", "credentials") +
			":status=" + c.Query("status") +
			":page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		// Try to get cached response
		var cached struct {
			Credentials []domain.Credential `json:"credentials"` // List of credentials
			Page        int                 `json:"page"`        // Current page
			PageSize    int                 `json:"page_size"`   // Page size
			Total       int64               `json:"total"`       // Total credentials
			TotalPages  int                 `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"credentials": cached.Credentials, // List of credentials
				"page":        cached.Page,        // Current page
				"page_size":   cached.PageSize,    // Page size
				"total":       cached.Total,       // Total credentials
				"total_pages": cached.TotalPages,  // Total pages
				"cached":      true,               // Indicate response is from cache
			})
			return
		}
		page, pageSize, offset := pagination(c) // Pagination parameters
		base := db.Model(&domain.Credential{})  // Base query
		// Optional status filter
		if status := c.Query("status"); status != "" {
			base = base.Where("status = ?", status)
		}
		var total int64 // Total credential count
		// Fetch total credential count
		if err := base.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count credentials"}) // Return on error
			return
		}
		var credentials []domain.Credential // Slice to hold credentials
		// Fetch paginated credentials, newest first
		if err := base.Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&credentials).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credentials"}) // Return on error
			return
		}
		// The total number of pages
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		out := gin.H{
			"credentials": credentials, // List of credentials
			"page":        page,        // Current page
			"page_size":   pageSize,    // Page size
			"total":       total,       // Total credentials
			"total_pages": totalPages,  // Total pages
			"cached":      false,       // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, out, 60*time.Second)
		c.JSON(http.StatusOK, out) // Return credential list
	}
}
