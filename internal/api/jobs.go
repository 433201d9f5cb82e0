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
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request struct for ingesting a job posting
type CreateJobRequest struct {
	Title          string `json:"title" binding:"required"`   // Job title
	Company        string `json:"company" binding:"required"` // Hiring company
	Location       string `json:"location"`                   // Job location
	SkillsRequired string `json:"skills_required"`            // Comma-separated required skills
	URL            string `json:"url"`                        // Link to the original posting
}

// SearchJobsHandler returns job postings matching an optional text query
func SearchJobsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := c.Query("q") // Optional search term
		page := 1             // Default page
		pageSize := 20        // Default page size
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
		// Redis cache key includes the query term
		cacheKey := utils.CacheKey("jobs", "q", query) + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background() // Context for Redis operations
		var cached struct {
			Jobs       []domain.Job `json:"jobs"`        // Matching jobs
			Page       int          `json:"page"`        // Current page
			PageSize   int          `json:"page_size"`   // Page size
			Total      int64        `json:"total"`       // Total matches
			TotalPages int          `json:"total_pages"` // Total pages
		}
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		// If found in cache, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"jobs":        cached.Jobs,       // Cached jobs
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total matches
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,
			})
			return
		}
		base := db.Model(&domain.Job{}) // Base query
		// Apply the text filter over title, company and skills
		if query != "" {
			like := "%" + query + "%"
			base = base.Where("title LIKE ? OR company LIKE ? OR skills_required LIKE ?", like, like, like)
		}
		var total int64 // Total match count
		// Count matches for pagination
		if err := base.Count(&total).Error; err != nil {
			// If counting fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count jobs"})
			return
		}
		var jobs []domain.Job // Slice to hold jobs
		// Fetch paginated jobs, newest first
		if err := base.Order("posted_at desc").
			Offset(offset).
			Limit(pageSize).
			Find(&jobs).Error; err != nil {
			// If fetching fails, return error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch jobs"})
			return
		}
		// Calculate total pages
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"jobs":        jobs,       // Matching jobs
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total matches
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Not from cache
		}
		// Cache the result for 60 seconds
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp) // Return the job list
	}
}

// CreateJobHandler ingests a job posting (admin only; the aggregation
// pipeline feeding this endpoint lives outside this service)
func CreateJobHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateJobRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Build the job posting
		job := domain.Job{
			Title:          req.Title,          // Job title
			Company:        req.Company,        // Hiring company
			Location:       req.Location,       // Job location
			SkillsRequired: req.SkillsRequired, // Required skills
			URL:            req.URL,            // Original posting link
		}
		// Save the job
		if err := db.Create(&job).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"title":   req.Title,   // Job title
				"company": req.Company, // Hiring company
				"error":   err.Error(), // Error message
			}).Error("Failed to create job") // Log failure
			// Return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
			return
		}
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"job": job})
	}
}
