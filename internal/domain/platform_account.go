package domain

// PlatformAccount Model
type PlatformAccount struct {
	ID           uint   `gorm:"primaryKey"`                            // Primary key
	UserID       uint   `gorm:"uniqueIndex:idx_user_platform"`         // Foreign key to User
	Platform     string `gorm:"uniqueIndex:idx_user_platform;size:32"` // Platform name, e.g. coursera
	Username     string // Username on the external platform
	LastSyncedAt int64  // Timestamp of the last sync in milliseconds, zero if never synced
}
