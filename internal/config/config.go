package config

import (
	"errors"
	"fmt"
	"github.com/golang/glog"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	FetchModeHTTP     = "http"
	FetchModeHeadless = "headless"

	ChartRendererImage = "image"
	ChartRendererHTML  = "html"

	HistoryBackendCSV      = "csv"
	HistoryBackendPostgres = "postgres"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/91.0.4472.124 Safari/537.36"

// Config is built once at startup and handed to every component.
type Config struct {
	TicketURL   string
	EventName   string
	TargetPrice decimal.Decimal

	Fetch struct {
		Mode      string
		UserAgent string
		Timeout   time.Duration
	}

	History struct {
		Backend     string
		CSVFilename string
		DatabaseURL string
	}

	Chart struct {
		Enabled  bool
		Renderer string
		Path     string
		FontPath string
	}

	Notify struct {
		WebhookURL    string
		Timeout       time.Duration
		WeChatGroup   string
		WeChatStorage string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
		Prefix   string
	}
}

// Load reads an optional .env file at path, then the environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(path); err != nil {
		glog.V(1).Infof("config: %s not loaded, using environment only: %v", path, err)
	}

	cfg := &Config{}
	cfg.TicketURL = getEnv("TICKET_URL", "https://www.maizetix.com/games/398")
	cfg.EventName = getEnv("EVENT_NAME", "Michigan vs MSU")

	target, err := getEnvDecimal("TARGET_PRICE", decimal.RequireFromString("70.00"))
	if err != nil {
		return nil, err
	}
	cfg.TargetPrice = target

	cfg.Fetch.Mode = strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP))
	cfg.Fetch.UserAgent = getEnv("USER_AGENT", defaultUserAgent)
	cfg.Fetch.Timeout = getEnvDuration("FETCH_TIMEOUT", 30*time.Second)

	cfg.History.Backend = strings.ToLower(getEnv("HISTORY_BACKEND", HistoryBackendCSV))
	cfg.History.CSVFilename = getEnv("CSV_FILENAME", "ticket_prices.csv")
	cfg.History.DatabaseURL = getEnv("DATABASE_URL", "")

	cfg.Chart.Enabled = getEnvBool("CHART_ENABLED", true)
	cfg.Chart.Renderer = strings.ToLower(getEnv("CHART_RENDERER", ChartRendererImage))
	cfg.Chart.Path = getEnv("CHART_PATH", "price_trend.png")
	cfg.Chart.FontPath = getEnv("CHART_FONT_PATH", "")

	cfg.Notify.WebhookURL = getEnv("DISCORD_WEBHOOK", "")
	cfg.Notify.Timeout = getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second)
	cfg.Notify.WeChatGroup = getEnv("WECHAT_GROUP", "")
	cfg.Notify.WeChatStorage = getEnv("WECHAT_STORAGE", "storage.json")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)
	cfg.Redis.Prefix = getEnv("REDIS_PREFIX", "tickets")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations that cannot run.
func (c *Config) Validate() error {
	if c.TicketURL == "" {
		return errors.New("config: TICKET_URL is empty")
	}
	if c.TargetPrice.IsNegative() {
		return fmt.Errorf("config: TARGET_PRICE must not be negative, got %s", c.TargetPrice)
	}
	switch c.Fetch.Mode {
	case FetchModeHTTP, FetchModeHeadless:
	default:
		return fmt.Errorf("config: unknown FETCH_MODE %q", c.Fetch.Mode)
	}
	switch c.Chart.Renderer {
	case ChartRendererImage, ChartRendererHTML:
	default:
		return fmt.Errorf("config: unknown CHART_RENDERER %q", c.Chart.Renderer)
	}
	switch c.History.Backend {
	case HistoryBackendCSV:
		if c.History.CSVFilename == "" {
			return errors.New("config: CSV_FILENAME is empty")
		}
	case HistoryBackendPostgres:
		if c.History.DatabaseURL == "" {
			return errors.New("config: HISTORY_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("config: unknown HISTORY_BACKEND %q", c.History.Backend)
	}
	if c.Chart.Enabled && c.Chart.Path == "" {
		return errors.New("config: CHART_PATH is empty")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		glog.Warningf("config: %s=%q is not an integer, using %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		glog.Warningf("config: %s=%q is not a boolean, using %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		glog.Warningf("config: %s=%q is not a duration, using %s", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDecimal returns an error for malformed values instead of falling back.
func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("config: %s=%q: %w", key, value, err)
	}
	return d, nil
}
