package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Strings are used for identifiers and secrets,
// ints for durations, costs and size limits.
type Config struct {
	Env  string // application environment (e.g. "dev", "prod")
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host address
	DBPort string // database port number
	DBName string // database name

	JWTAccessSecret  string // secret used to sign access tokens
	JWTRefreshSecret string // secret used to sign refresh tokens
	AccessTTLMin     int    // access token time-to-live in minutes
	RefreshTTLDays   int    // refresh token time-to-live in days
	BcryptCost       int    // bcrypt cost for password hashing

	UploadDir       string // directory for complaint attachments
	MaxFileSizeByte int64  // per-file upload limit in bytes

	SMTPHost string // outbound mail server host
	SMTPPort string // outbound mail server port
	SMTPUser string // SMTP auth username (may be empty for local relays)
	SMTPPass string // SMTP auth password
	MailFrom string // From address on outbound mail

	OpenAIKey     string // API key for the assistant backend
	OpenAIBaseURL string // chat-completions endpoint base (OpenAI-compatible)
	OpenAIModel   string // model identifier passed on every request
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values
// fall back to sensible defaults.
func Load() Config {
	return Config{
		Env:  must("APP_ENV"),
		Port: must("APP_PORT"),

		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTAccessSecret:  must("JWT_ACCESS_SECRET"),
		JWTRefreshSecret: must("JWT_REFRESH_SECRET"),
		AccessTTLMin:     intOr("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays:   intOr("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:       intOr("BCRYPT_COST", 12),

		UploadDir:       strOr("UPLOAD_DIR", "./uploads"),
		MaxFileSizeByte: int64(intOr("MAX_FILE_SIZE", 5*1024*1024)),

		SMTPHost: strOr("SMTP_HOST", "localhost"),
		SMTPPort: strOr("SMTP_PORT", "587"),
		SMTPUser: os.Getenv("SMTP_USER"),
		SMTPPass: os.Getenv("SMTP_PASS"),
		MailFrom: strOr("EMAIL_FROM", "ASTU Complaints <noreply@astu.edu.et>"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: strOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   strOr("AI_MODEL", "gpt-4o-mini"),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// strOr returns the variable's value or the given default when unset.
func strOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// intOr is like strOr but converts the retrieved string into an integer.
// Invalid values cause a fatal log so misconfiguration is caught at boot.
func intOr(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, v)
	}
	return n
}
