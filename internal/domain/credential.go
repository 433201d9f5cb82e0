package domain

import "time"

// Credential status values
const (
	StatusPending  = "pending"  // Created but not anchored
	StatusVerified = "verified" // Anchored on chain
	StatusExpired  = "expired"  // Past its expiry date
)

// Credential Model
type Credential struct {
	ID              string    `gorm:"primaryKey;size:36"` // UUID, assigned at creation
	UserID          uint      `gorm:"index;not null"`     // Foreign key to User (owner)
	Issuer          string    `gorm:"not null"`           // Issuing platform or institution, immutable once anchored
	IssueDate       time.Time `gorm:"not null"`           // Issue instant, immutable once anchored
	Title           string    // Credential title
	Description     string    // Free-form description
	Skills          string    // Comma-separated skills
	ImageURL        string    // Certificate image URL
	CredentialHash  *string   `gorm:"uniqueIndex;size:66"`  // 0x-prefixed SHA-256 digest, set only by anchoring
	TransactionHash *string   `gorm:"size:66"`              // Chain transaction reference, set with CredentialHash
	Status          string    `gorm:"default:pending"`      // pending, verified or expired
	CreatedAt       int64     `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
