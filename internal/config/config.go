package config

import (
	"fmt"     // For DSN formatting
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"time"    // For duration parsing

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort         string        // Application port
	DBUser          string        // Database user
	DBPassword      string        // Database password
	DBHost          string        // Database host
	DBPort          string        // Database port
	DBName          string        // Database name
	JWTSecret       string        // JWT secret key
	RedisAddr       string        // Redis server address
	RedisPass       string        // Redis password
	RedisDB         int           // Redis database number
	ChainRPCURL     string        // Blockchain JSON-RPC endpoint
	ChainPrivateKey string        // Hex-encoded signing key for anchoring transactions
	ContractAddress string        // Deployed anchor contract address
	ChainTimeout    time.Duration // Per-call timeout for chain operations
	ExtractionURL   string        // Certificate extraction service base URL
	SMTPAddr        string        // SMTP server address for OTP mail, empty disables sending
	SMTPFrom        string        // Sender address for OTP mail
	IsProd          bool          // Is production environment
}

// DSN builds the MySQL connection string. parseTime is required because the
// credential models carry time.Time columns
func (c *Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	// Chain calls are bounded by a timeout, default 15s
	chainTimeout := 15 * time.Second
	if v, err := time.ParseDuration(os.Getenv("CHAIN_TIMEOUT")); err == nil && v > 0 {
		chainTimeout = v
	}
	return &Config{
		AppPort:         os.Getenv("APP_PORT"),          // Application port
		DBUser:          os.Getenv("DB_USER"),           // Database user
		DBPassword:      os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:          os.Getenv("DB_HOST"),           // Database host
		DBPort:          os.Getenv("DB_PORT"),           // Database port
		DBName:          os.Getenv("DB_NAME"),           // Database name
		JWTSecret:       os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:       os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:       os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:         redisDB,                        // Redis database number
		ChainRPCURL:     os.Getenv("CHAIN_RPC_URL"),     // Blockchain JSON-RPC endpoint
		ChainPrivateKey: os.Getenv("CHAIN_PRIVATE_KEY"), // Anchoring key
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),  // Anchor contract address
		ChainTimeout:    chainTimeout,                   // Per-call chain timeout
		ExtractionURL:   os.Getenv("EXTRACTION_URL"),    // Extraction service base URL
		SMTPAddr:        os.Getenv("SMTP_ADDR"),         // SMTP server address
		SMTPFrom:        os.Getenv("SMTP_FROM"),         // OTP mail sender
		IsProd:          os.Getenv("IS_PROD") == "true", // Is production environment
	}
}
