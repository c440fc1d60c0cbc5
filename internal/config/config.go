package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dima4663737373/linera-skribble/logger"
)

// Config carries everything the server reads from the environment.
type Config struct {
	Addr         string
	RedisAddr    string
	RedisPass    string
	JWTSecret    string
	WordBankPath string
	TokenTTL     time.Duration
	Debug        bool
}

// Load reads .env if present, then the environment. Only the JWT secret is
// mandatory.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warn("no .env file, using environment variables directly")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable not set")
	}

	cfg := &Config{
		Addr:         getEnv("ADDR", ":3000"),
		RedisAddr:    getEnv("REDIS_HOST", "127.0.0.1") + ":" + getEnv("REDIS_PORT", "6379"),
		RedisPass:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:    secret,
		WordBankPath: getEnv("WORD_BANK_PATH", "skribbl-word-bank/skribbl_words_drawability_en.txt"),
		TokenTTL:     24 * time.Hour,
		Debug:        os.Getenv("DEBUG") == "1",
	}
	return cfg, nil
}

// MySQLDSN builds the gorm DSN from the environment. User and password must
// be set; host, port and database name have local-dev defaults.
func MySQLDSN() (string, error) {
	user := os.Getenv("MYSQL_USER")
	if user == "" {
		return "", fmt.Errorf("MYSQL_USER environment variable not set")
	}
	password := os.Getenv("MYSQL_PASSWORD")
	if password == "" {
		return "", fmt.Errorf("MYSQL_PASSWORD environment variable not set")
	}
	host := getEnv("MYSQL_HOST", "127.0.0.1")
	port := getEnv("MYSQL_PORT", "3306")
	db := getEnv("MYSQL_DB", "skribble_db")
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, db)
	return dsn, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
