package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/tradeyard/auth-service/pkg/constant"
)

type Config struct {
	Env  string
	Port string

	DBURL         string
	RedisAddr     string
	RedisPassword string

	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessExpiryMin    int
	RefreshExpiryMin   int

	LoginMaxAttempts  int
	MaxActiveSessions int
	LockoutWindowMin  int

	GlobalLimit       int
	GlobalWindowMin   int
	LoginLimit        int
	LoginWindowMin    int
	RegisterLimit     int
	RegisterWindowMin int
	UserAPILimit      int
	UserAPIWindowMin  int

	// RateLimitFailOpen controls the degrade policy when the counter store is
	// unreachable: true lets requests through unthrottled, false rejects them.
	RateLimitFailOpen bool

	GeoIPDBPath string
}

func Load() *Config {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		Env:  getEnv("ENV", "development"),
		Port: getEnv("PORT", "8080"),

		DBURL:         mustGetEnv("DB_URL"),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		AccessTokenSecret:  mustGetEnv("ACCESS_TOKEN_SECRET"),
		RefreshTokenSecret: mustGetEnv("REFRESH_TOKEN_SECRET"),
		AccessExpiryMin:    getEnvAsInt("ACCESS_TOKEN_EXPIRY", constant.DefaultAccessExpiryMin),
		RefreshExpiryMin:   getEnvAsInt("REFRESH_TOKEN_EXPIRY", constant.DefaultRefreshExpiryMin),

		LoginMaxAttempts:  getEnvAsInt("LOGIN_MAX_ATTEMPTS", constant.DefaultLoginMaxAttempts),
		MaxActiveSessions: getEnvAsInt("MAX_ACTIVE_SESSIONS", constant.DefaultMaxActiveSessions),
		LockoutWindowMin:  getEnvAsInt("LOCKOUT_WINDOW_MIN", constant.DefaultLockoutWindowMin),

		GlobalLimit:       getEnvAsInt("GLOBAL_RATE_LIMIT", constant.DefaultGlobalLimit),
		GlobalWindowMin:   getEnvAsInt("GLOBAL_RATE_WINDOW_MIN", constant.DefaultGlobalWindowMin),
		LoginLimit:        getEnvAsInt("LOGIN_RATE_LIMIT", constant.DefaultLoginLimit),
		LoginWindowMin:    getEnvAsInt("LOGIN_RATE_WINDOW_MIN", constant.DefaultLoginWindowMin),
		RegisterLimit:     getEnvAsInt("REGISTER_RATE_LIMIT", constant.DefaultRegisterLimit),
		RegisterWindowMin: getEnvAsInt("REGISTER_RATE_WINDOW_MIN", constant.DefaultRegisterWindowMin),
		UserAPILimit:      getEnvAsInt("USER_API_RATE_LIMIT", constant.DefaultUserAPILimit),
		UserAPIWindowMin:  getEnvAsInt("USER_API_RATE_WINDOW_MIN", constant.DefaultUserAPIWindowMin),

		RateLimitFailOpen: getEnvAsBool("RATE_LIMIT_FAIL_OPEN", true),

		GeoIPDBPath: getEnv("GEOIP_DB_PATH", ""),
	}
}

func (c *Config) AccessExpiry() time.Duration {
	return time.Duration(c.AccessExpiryMin) * time.Minute
}

func (c *Config) RefreshExpiry() time.Duration {
	return time.Duration(c.RefreshExpiryMin) * time.Minute
}

func (c *Config) LockoutWindow() time.Duration {
	return time.Duration(c.LockoutWindowMin) * time.Minute
}

func getEnv(key string, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustGetEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	log.Fatalf("Missing required environment variable: %s", key)
	return ""
}

func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %d", key, defaultVal)
		return defaultVal
	}
	return val
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Invalid value for %s, using default %t", key, defaultVal)
		return defaultVal
	}
	return val
}
