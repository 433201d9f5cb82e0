package domain

// Job Model
type Job struct {
	ID             uint   `gorm:"primaryKey"` // Primary key
	Title          string `gorm:"not null"`   // Job title
	Company        string `gorm:"not null"`   // Hiring company
	Location       string // Job location
	SkillsRequired string // Comma-separated required skills
	URL            string // Link to the original posting
	PostedAt       int64  `gorm:"autoCreateTime:milli"` // Timestamp of posting in milliseconds
}
