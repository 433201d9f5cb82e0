package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error matching
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Issue date parsing

	"credexa/internal/credential" // Anchoring and verification core
	"credexa/internal/domain"     // Importing domain models
	"credexa/internal/extract"    // Extraction service client
	"credexa/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Credential ID generation
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for creating a credential
type CreateCredentialRequest struct {
	Title       string `json:"title" binding:"required"`      // Credential title
	Issuer      string `json:"issuer" binding:"required"`     // Issuing platform or institution
	IssueDate   string `json:"issue_date" binding:"required"` // Issue instant, RFC 3339
	Description string `json:"description"`                   // Free-form description
	Skills      string `json:"skills"`                        // Comma-separated skills
	ImageURL    string `json:"image_url"`                     // Certificate image URL
}

// Request struct for updating a credential; pointers distinguish omitted
// fields from explicit empty values
type UpdateCredentialRequest struct {
	Title       *string `json:"title"`       // Credential title
	Issuer      *string `json:"issuer"`      // Issuing platform, rejected once anchored
	IssueDate   *string `json:"issue_date"`  // Issue instant, rejected once anchored
	Description *string `json:"description"` // Free-form description
	Skills      *string `json:"skills"`      // Comma-separated skills
	ImageURL    *string `json:"image_url"`   // Certificate image URL
}

// invalidateCredentialCaches drops the cached credential list pages for a user
// (simple version: delete first 5 pages)
func invalidateCredentialCaches(ctx context.Context, rdb *redis.Client, userID uint) {
	prefix := utils.CacheKey("credentials", "user", strconv.Itoa(int(userID))) // List cache prefix
	for i := 1; i <= 5; i++ {
		// Delete cache entries
		_ = utils.DeleteCache(ctx, rdb, prefix+":page:"+strconv.Itoa(i)+":size:20")
	}
}

// CreateCredentialHandler creates a credential for the authenticated user
func CreateCredentialHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateCredentialRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Parse the issue date; a malformed date must not reach hash derivation later
		issueDate, err := time.Parse(time.RFC3339, req.IssueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "issue_date must be RFC 3339"})
			return
		}
		// Build the credential with a fresh UUID and pending status
		cred := domain.Credential{
			ID:          uuid.NewString(),     // Opaque unique identifier
			UserID:      userID.(uint),        // Owner
			Title:       req.Title,            // Credential title
			Issuer:      req.Issuer,           // Issuing platform
			IssueDate:   issueDate,            // Issue instant
			Description: req.Description,      // Free-form description
			Skills:      req.Skills,           // Comma-separated skills
			ImageURL:    req.ImageURL,         // Certificate image URL
			Status:      domain.StatusPending, // Not anchored yet
		}
		// Save the new credential
		if err := db.Create(&cred).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to create credential") // Log failure
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create credential"})
			return
		}
		// Invalidate the user's credential list cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			invalidateCredentialCaches(context.Background(), rdb, userID.(uint))
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"credential": cred})
	}
}

// ListCredentialsHandler returns the authenticated user's credentials
func ListCredentialsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
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
		cacheKey := utils.CacheKey("credentials", "user", strconv.Itoa(int(userID.(uint)))) +
			":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Credentials []domain.Credential `json:"credentials"` // List of credentials
			Page        int                 `json:"page"`        // Current page
			PageSize    int                 `json:"page_size"`   // Page size
			Total       int64               `json:"total"`       // Total credentials
			TotalPages  int                 `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"credentials": cached.Credentials, // Cached credentials
				"page":        cached.Page,        // Current page
				"page_size":   cached.PageSize,    // Page size
				"total":       cached.Total,       // Total credentials
				"total_pages": cached.TotalPages,  // Total pages
				"cached":      true,
			})
			return
		}
		var total int64 // Total count of credentials
		// Count total credentials for pagination
		if err := db.Model(&domain.Credential{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count credentials"})
			return
		}
		var credentials []domain.Credential // Slice to hold credentials
		// Fetch paginated credentials
		if err := db.Where("user_id = ?", userID).
			Order("created_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&credentials).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch credentials"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"credentials": credentials, // List of credentials
			"page":        page,        // Current page
			"page_size":   pageSize,    // Page size
			"total":       total,       // Total credentials
			"total_pages": totalPages,  // Total pages
			"cached":      false,       // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return credential list
	}
}

// GetCredentialHandler returns one of the authenticated user's credentials
func GetCredentialHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var cred domain.Credential // Credential struct to hold data
		// Ownership is part of the query so foreign ids read as not found
		if err := db.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&cred).Error; err != nil {
			// If credential not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "Credential not found"})
			return
		}
		// Return the credential
		c.JSON(http.StatusOK, gin.H{"credential": cred})
	}
}

// UpdateCredentialHandler applies a descriptive update to a credential. The
// hash pair can never be written here, and identity fields are rejected once
// the credential is anchored since the anchored hash was derived from them.
func UpdateCredentialHandler(store credential.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateCredentialRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Ownership check; foreign credentials read as not found
		cred, err := store.FindByID(c.Request.Context(), c.Param("id"))
		if err != nil || cred.UserID != userID.(uint) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Credential not found"})
			return
		}
		fields := map[string]any{} // Column updates from the provided fields
		if req.Title != nil {
			fields["title"] = *req.Title
		}
		if req.Description != nil {
			fields["description"] = *req.Description
		}
		if req.Skills != nil {
			fields["skills"] = *req.Skills
		}
		if req.ImageURL != nil {
			fields["image_url"] = *req.ImageURL
		}
		if req.Issuer != nil {
			fields["issuer"] = *req.Issuer
		}
		if req.IssueDate != nil {
			// Parse the issue date before it gets anywhere near the store
			issueDate, err := time.Parse(time.RFC3339, *req.IssueDate)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "issue_date must be RFC 3339"})
				return
			}
			fields["issue_date"] = issueDate
		}
		// The store enforces the whitelist and the post-anchor identity freeze
		if err := store.UpdateDescriptive(c.Request.Context(), cred.ID, fields); err != nil {
			if errors.Is(err, credential.ErrInvalidInput) {
				// Identity edit on an anchored credential
				c.JSON(http.StatusBadRequest, gin.H{"error": "Issuer and issue date cannot change after anchoring"})
				return
			}
			abortWithError(c, err)
			return
		}
		// Invalidate the user's credential list cache
		if v, ok := c.Get("redisClient"); ok {
			if rdb, ok := v.(*redis.Client); ok && rdb != nil {
				invalidateCredentialCaches(context.Background(), rdb, userID.(uint))
			}
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Credential updated"})
	}
}

// DeleteCredentialHandler deletes one of the authenticated user's credentials
func DeleteCredentialHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Delete with ownership in the query; zero rows means not found
		res := db.Where("id = ? AND user_id = ?", c.Param("id"), userID).Delete(&domain.Credential{})
		if res.Error != nil {
			// If deletion fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete credential"})
			return
		}
		if res.RowsAffected == 0 {
			// Nothing matched: absent or not owned
			c.JSON(http.StatusNotFound, gin.H{"error": "Credential not found"})
			return
		}
		// Invalidate the user's credential list cache
		if rdb, ok := c.MustGet("redisClient").(*redis.Client); ok {
			invalidateCredentialCaches(context.Background(), rdb, userID.(uint))
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Credential deleted"})
	}
}

// AnchorCredentialHandler anchors a credential on chain through the anchoring
// service. This is the only write path that sets the hash pair.
func AnchorCredentialHandler(svc *credential.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Anchor through the core service
		cred, err := svc.AnchorCredential(c.Request.Context(), c.Param("id"), userID.(uint))
		if err != nil {
			// Log the error with context
			logrus.WithFields(logrus.Fields{
				"credential_id": c.Param("id"), // Credential ID
				"user_id":       userID,        // User ID
				"error":         err.Error(),   // Error message
			}).Warn("Anchoring failed") // Log anchoring failure
			abortWithError(c, err)
			return
		}
		// Invalidate the verification cache for the fresh hash and the list cache
		if rdb != nil {
			ctx := context.Background() // Context for Redis operations
			if cred.CredentialHash != nil {
				_ = utils.DeleteCache(ctx, rdb, utils.CacheKey("verify", "hash", *cred.CredentialHash))
			}
			invalidateCredentialCaches(ctx, rdb, userID.(uint))
		}
		// Return the updated credential
		c.JSON(http.StatusOK, gin.H{"credential": cred})
	}
}

// ExtractCredentialHandler forwards a certificate image to the extraction
// service and returns the parsed fields for the client to prefill a
// credential form with
func ExtractCredentialHandler(client *extract.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The upload field matches the extraction service's contract
		fileHeader, err := c.FormFile("certificateFile")
		if err != nil {
			// If no file uploaded, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		file, err := fileHeader.Open() // Open the uploaded file
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
			return
		}
		defer file.Close()
		// Forward to the extraction service with the optional platform hint
		result, err := client.Extract(c.Request.Context(), fileHeader.Filename, file, c.PostForm("platform"))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"filename": fileHeader.Filename, // Uploaded file name
				"error":    err.Error(),         // Error message
			}).Error("Certificate extraction failed") // Log extraction failure
			// The extraction service is an external collaborator, so its
			// failure is a bad gateway
			c.JSON(http.StatusBadGateway, gin.H{"error": "Extraction service unavailable"})
			return
		}
		// Return the parsed fields
		c.JSON(http.StatusOK, gin.H{"extracted": result})
	}
}
