package utils

import (
	"context"     // Context for Redis operations
	"crypto/rand" // Cryptographically secure code generation
	"fmt"         // Code formatting
	"math/big"    // Random range
	"net/smtp"    // OTP mail delivery
	"time"        // Code TTL

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// OTPTTL is how long a one-time code stays valid
const OTPTTL = 5 * time.Minute

// otpKey builds the Redis key for a user's pending one-time code
func otpKey(email string) string {
	return CacheKey("otp", "email", email)
}

// GenerateOTP creates a 6-digit one-time code and stores it in Redis with a TTL
func GenerateOTP(ctx context.Context, rdb *redis.Client, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000)) // Random value in [0, 1000000)
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64()) // Zero-padded 6-digit code
	// Store the code; a new request overwrites any pending one
	if err := rdb.Set(ctx, otpKey(email), code, OTPTTL).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// VerifyOTP checks a submitted code against the pending one and consumes it
// on success so a code cannot be replayed
func VerifyOTP(ctx context.Context, rdb *redis.Client, email, code string) (bool, error) {
	stored, err := rdb.Get(ctx, otpKey(email)).Result() // Fetch the pending code
	if err == redis.Nil {
		return false, nil // No pending code or it expired
	} else if err != nil {
		return false, err // Other Redis error
	}
	if stored != code {
		return false, nil // Wrong code
	}
	_ = rdb.Del(ctx, otpKey(email)).Err() // Consume the code
	return true, nil
}

// SendOTPMail delivers a one-time code over SMTP. With no SMTP address
// configured the code is logged instead, which is the development setup.
func SendOTPMail(smtpAddr, from, email, code string) error {
	if smtpAddr == "" {
		// Development fallback: no mail server configured
		logrus.WithFields(logrus.Fields{
			"email": email, // Recipient
			"code":  code,  // One-time code
		}).Info("OTP issued (SMTP not configured, logging instead)")
		return nil
	}
	msg := []byte("To: " + email + "\r\n" +
		"Subject: Your Credexa verification code\r\n" +
		"\r\n" +
		"Your verification code is " + code + ". It expires in 5 minutes.\r\n")
	return smtp.SendMail(smtpAddr, nil, from, []string{email}, msg) // Send the mail
}
