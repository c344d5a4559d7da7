package config // loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; required ones are enforced by must() which halts
// the process with a fatal log message when missing.
type Config struct {
	Env             string   // application environment ("dev", "prod")
	Port            string   // HTTP port to listen on
	LogLevel        string   // zap level name ("debug", "info", ...)
	Debug           bool     // gates dev-only behaviors
	DBUser          string   // database username
	DBPass          string   // database password (optional)
	DBHost          string   // database host address
	DBPort          string   // database port number
	DBName          string   // database name
	JWTSecret       string   // secret used to sign JWTs
	AccessTTLMin    int      // access token time-to-live in minutes
	RefreshTTLDays  int      // refresh token time-to-live in days
	BcryptCost      int      // bcrypt cost for password hashing
	AllowedHosts    []string // comma-separated Host allow-list
	DefaultCurrency string   // base currency for the rate snapshot, e.g. "TRY"
	UploadDir       string   // directory uploaded media is written to
	GeoIPPath       string   // path to the MaxMind mmdb file
	RateProviderURL string   // external exchange-rate endpoint
	RateProviderKey string   // optional API key for the rate provider
	IdentityTTLSec  int      // TTL of cached token->user lookups in seconds
	ChatSendBuffer  int      // per-subscriber message buffer before disconnect
}

// Load reads configuration from the environment. Missing required variables
// abort startup.
func Load() Config {
	return Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Debug:           os.Getenv("DEBUG") == "true" || os.Getenv("DEBUG") == "1",
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"),
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		AccessTTLMin:    mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays:  mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:      mustInt("BCRYPT_COST"),
		AllowedHosts:    splitList(must("ALLOWED_HOSTS")),
		DefaultCurrency: must("DEFAULT_CURRENCY"),
		UploadDir:       getenv("MEDIA_DIR", "media"),
		GeoIPPath:       os.Getenv("GEOIP_DB_PATH"),
		RateProviderURL: getenv("RATE_PROVIDER_URL", "https://api.exchangerate.host/latest"),
		RateProviderKey: os.Getenv("RATE_PROVIDER_API_KEY"),
		IdentityTTLSec:  atoiDefault(os.Getenv("IDENTITY_CACHE_TTL_SEC"), 300),
		ChatSendBuffer:  atoiDefault(os.Getenv("CHAT_SEND_BUFFER"), 256),
	}
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the value to an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
