package api

import (
	"net/http" // HTTP status codes

	"credexa/internal/domain" // Importing domain models

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// SettingsResponse is the authenticated user's own profile and privacy settings
type SettingsResponse struct {
	Name           string `json:"name"`            // Display name
	Email          string `json:"email"`           // Email address
	Institute      string `json:"institute"`       // Institute name
	ProfilePicture string `json:"profile_picture"` // Profile picture URL
	PublicProfile  bool   `json:"public_profile"`  // Public verification visibility
}

// Request struct for updating settings; pointers distinguish omitted fields
// from explicit empty or false values
type UpdateSettingsRequest struct {
	Name           *string `json:"name"`            // Display name
	Institute      *string `json:"institute"`       // Institute name
	ProfilePicture *string `json:"profile_picture"` // Profile picture URL
	PublicProfile  *bool   `json:"public_profile"`  // Public verification visibility
}

// Request struct for linking an external learning platform
type LinkPlatformRequest struct {
	Platform string `json:"platform" binding:"required"` // Platform name, e.g. coursera
	Username string `json:"username"`                    // Username on the platform
}

// GetSettingsHandler returns the authenticated user's settings
func GetSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.First(&user, userID).Error; err != nil {
			// If user not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Return the settings projection
		c.JSON(http.StatusOK, gin.H{"settings": SettingsResponse{
			Name:           user.Name,           // Display name
			Email:          user.Email,          // Email address
			Institute:      user.Institute,      // Institute name
			ProfilePicture: user.ProfilePicture, // Profile picture URL
			PublicProfile:  user.PublicProfile,  // Public verification visibility
		}})
	}
}

// UpdateSettingsHandler updates the authenticated user's profile and privacy
// settings. Email, password and role are not editable through this path.
func UpdateSettingsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req UpdateSettingsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		updates := map[string]any{} // Whitelisted column updates
		if req.Name != nil {
			updates["name"] = *req.Name
		}
		if req.Institute != nil {
			updates["institute"] = *req.Institute
		}
		if req.ProfilePicture != nil {
			updates["profile_picture"] = *req.ProfilePicture
		}
		if req.PublicProfile != nil {
			updates["public_profile"] = *req.PublicProfile
		}
		if len(updates) == 0 {
			// Nothing to change
			c.JSON(http.StatusOK, gin.H{"message": "Nothing to update"})
			return
		}
		// Apply the update
		if err := db.Model(&domain.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": userID,      // User ID
				"error":   err.Error(), // Error message
			}).Error("Failed to update settings") // Log failure
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update settings"})
			return
		}
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
	}
}

// LinkPlatformHandler records an external learning platform account for the
// authenticated user, for the sync pipeline's bookkeeping
func LinkPlatformHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get userID from context
		// Check if userID exists in context
		if !exists {
			// If not, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req LinkPlatformRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// One account per platform per user, enforced by the composite unique index
		account := domain.PlatformAccount{
			UserID:   userID.(uint), // Owner
			Platform: req.Platform,  // Platform name
			Username: req.Username,  // Platform username
		}
		// Save the account link
		if err := db.Create(&account).Error; err != nil {
			// If creation fails (e.g., duplicate platform link), return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Platform already linked"})
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"platform_account": account})
	}
}
