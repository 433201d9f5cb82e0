package domain

// User Model
type User struct {
	ID             uint   `gorm:"primaryKey"`        // Primary key
	Name           string `gorm:"not null"`          // Display name
	Email          string `gorm:"unique;not null"`   // Unique email address
	Password       string `gorm:"not null" json:"-"` // Hashed password, never serialized
	Role           string `gorm:"default:user"`      // Role: user or admin
	Institute      string // Institute or university name
	ProfilePicture string // Profile picture URL
	PublicProfile  bool   `gorm:"default:false"`        // Whether public verification may show the holder
	CreatedAt      int64  `gorm:"autoCreateTime:milli"` // Timestamp of creation in milliseconds
}
