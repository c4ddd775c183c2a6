package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For splitting list values
	"time"    // For timeout durations

	"github.com/joho/godotenv" // For loading .env files
)

// Default values applied when a variable is missing or malformed
const (
	defaultAppPort           = "8080"
	defaultSMTPHost          = "smtp.gmail.com"
	defaultSMTPPort          = 587
	defaultEmailFrom         = `"QFS Wallet" <noreply@qfs-wallet.com>`
	defaultAdminURL          = "http://localhost:3000/admin"
	defaultConnectionTimeout = 10 * time.Second
	defaultGreetingTimeout   = 5 * time.Second
	defaultSocketTimeout     = 10 * time.Second
	defaultSendTimeout       = 10 * time.Second
	defaultKafkaTopic        = "wallet.transactions"
	defaultCacheTTL          = 60 * time.Second
)

// Config holds the application configuration
type Config struct {
	AppPort    string        // Application port
	DBUser     string        // Database user
	DBPassword string        // Database password
	DBHost     string        // Database host
	DBPort     string        // Database port
	DBName     string        // Database name
	JWTSecret  string        // JWT secret key
	RedisAddr  string        // Redis server address, empty disables the cache
	RedisPass  string        // Redis password
	RedisDB    int           // Redis database number
	CacheTTL   time.Duration // TTL of cached admin listings
	IsProd     bool          // Is production environment
	Mail       MailConfig    // Mail transport settings
	AdminURL   string        // Admin console base URL used in email links
	Kafka      KafkaConfig   // Event stream settings

	NotifyOnReject bool // Send transactionRejected to admins on Reject
}

// MailConfig holds the SMTP transport settings. All fields are optional.
type MailConfig struct {
	Host              string        // SMTP host
	Port              int           // SMTP port
	User              string        // SMTP username
	Pass              string        // SMTP password
	From              string        // Sender address
	ConnectionTimeout time.Duration // Dial timeout
	GreetingTimeout   time.Duration // Time allowed for the server greeting
	SocketTimeout     time.Duration // Idle socket timeout during the session
	SendTimeout       time.Duration // Upper bound for one whole send, enforced by the dispatcher
}

// Enabled reports whether credentials are present.
func (m MailConfig) Enabled() bool {
	return m.User != "" && m.Pass != ""
}

// KafkaConfig holds the event stream settings
type KafkaConfig struct {
	Brokers []string // Broker addresses, empty disables publishing
	Topic   string   // Topic for transaction lifecycle events
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	return FromEnv()
}

// FromEnv builds the configuration from the current process environment
func FromEnv() *Config {
	return &Config{
		AppPort:    getEnv("APP_PORT", defaultAppPort), // Application port
		DBUser:     os.Getenv("DB_USER"),               // Database user
		DBPassword: os.Getenv("DB_PASSWORD"),           // Database password
		DBHost:     os.Getenv("DB_HOST"),               // Database host
		DBPort:     os.Getenv("DB_PORT"),               // Database port
		DBName:     os.Getenv("DB_NAME"),               // Database name
		JWTSecret:  os.Getenv("JWT_SECRET"),            // JWT secret key
		RedisAddr:  os.Getenv("REDIS_ADDR"),            // Redis server address
		RedisPass:  os.Getenv("REDIS_PASS"),            // Redis password
		RedisDB:    getInt("REDIS_DB", 0),              // Redis database number
		CacheTTL:   getSeconds("CACHE_TTL_SECONDS", defaultCacheTTL),
		IsProd:     os.Getenv("IS_PROD") == "true",       // Is production environment
		AdminURL:   getEnv("ADMIN_URL", defaultAdminURL), // Admin console base URL
		Mail: MailConfig{
			Host:              getEnv("SMTP_HOST", defaultSMTPHost),
			Port:              getInt("SMTP_PORT", defaultSMTPPort),
			User:              os.Getenv("SMTP_USER"),
			Pass:              os.Getenv("SMTP_PASS"),
			From:              getEnv("EMAIL_FROM", defaultEmailFrom),
			ConnectionTimeout: getMillis("EMAIL_CONNECTION_TIMEOUT", defaultConnectionTimeout),
			GreetingTimeout:   getMillis("EMAIL_GREETING_TIMEOUT", defaultGreetingTimeout),
			SocketTimeout:     getMillis("EMAIL_SOCKET_TIMEOUT", defaultSocketTimeout),
			SendTimeout:       getMillis("EMAIL_SEND_TIMEOUT", defaultSendTimeout),
		},
		Kafka: KafkaConfig{
			Brokers: getList("KAFKA_BROKERS"),
			Topic:   getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		},
		NotifyOnReject: os.Getenv("NOTIFY_ON_REJECT") == "true",
	}
}

// DSN returns the MySQL data source name
func (c *Config) DSN() string {
	return c.DBUser + ":" + c.DBPassword + "@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName + "?parseTime=true"
}

// getEnv returns the variable or the fallback when unset or empty
func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// getInt parses an integer variable, falling back on absence or parse error
func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

// getMillis parses a positive millisecond count into a duration
func getMillis(key string, fallback time.Duration) time.Duration {
	ms := getInt(key, 0)
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getSeconds(key string, fallback time.Duration) time.Duration {
	s := getInt(key, 0)
	if s <= 0 {
		return fallback
	}
	return time.Duration(s) * time.Second
}

// getList splits a comma separated variable, dropping blanks
func getList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
