package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	DeepLKey     string
	DeepLBaseURL string
	TranslateRPS int
	// TranslateConcurrency bounds in-flight provider calls.
	TranslateConcurrency int
	TranslateAsync       bool
	RetranslateWorkers   int

	MediaDir       string
	MediaBaseURL   string
	MediaMaxWidth  int
	MediaMaxHeight int
	MaxImageBytes  int64
	MaxFileBytes   int64
	RequestTimeout time.Duration
}

// Load reads the environment, after an optional .env file in the working
// directory. Malformed numbers fall back to their defaults.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}
	return fromEnv()
}

func fromEnv() Config {
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/douro?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", "localhost:6379"),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,

		DeepLKey:             env("DEEPL_API_KEY", ""),
		DeepLBaseURL:         env("DEEPL_BASE_URL", ""),
		TranslateRPS:         atoi("TRANSLATE_RPS", 5),
		TranslateConcurrency: atoi("TRANSLATE_CONCURRENCY", 4),
		TranslateAsync:       flag("TRANSLATE_ASYNC", true),
		RetranslateWorkers:   atoi("RETRANSLATE_WORKERS", 4),

		MediaDir:       env("MEDIA_DIR", "./uploads"),
		MediaBaseURL:   strings.TrimRight(env("MEDIA_BASE_URL", "/media"), "/"),
		MediaMaxWidth:  atoi("MEDIA_MAX_WIDTH", 1920),
		MediaMaxHeight: atoi("MEDIA_MAX_HEIGHT", 1080),
		MaxImageBytes:  int64(atoi("MAX_IMAGE_MB", 200)) << 20,
		MaxFileBytes:   int64(atoi("MAX_FILE_MB", 50)) << 20,
		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
	}
	if c.DeepLKey == "" {
		log.Warn().Msg("DEEPL_API_KEY is empty; translations are disabled")
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}

func flag(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not a boolean, using default")
	}
	return def
}
