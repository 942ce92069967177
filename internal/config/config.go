package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/maltedev/amazon-bestsellers/internal/models"
	"github.com/maltedev/amazon-bestsellers/internal/storage"
)

type Config struct {
	Scraper    ScraperConfig
	Browser    BrowserConfig
	Output     OutputConfig
	Logging    LoggingConfig
	Metrics    MetricsConfig
	Categories []models.Category
}

type ScraperConfig struct {
	BaseURL           string
	MaxProducts       int
	DiscountThreshold float64
	LoginAttempts     int
	LoginRetryDelay   time.Duration
	ProductDelayMin   time.Duration
	ProductDelayMax   time.Duration
	CategoryDelayMin  time.Duration
	CategoryDelayMax  time.Duration
}

type BrowserConfig struct {
	Headless        bool
	PageLoadTimeout time.Duration
	ImplicitWait    time.Duration
	ViewportWidth   int
	ViewportHeight  int
	UserAgent       string
}

type OutputConfig struct {
	Dir    string
	Format string
}

type LoggingConfig struct {
	Level string
	File  string
}

type MetricsConfig struct {
	Addr string
}

// Load reads the configuration from the environment. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Scraper: ScraperConfig{
			BaseURL:           getEnvOrDefault("SCRAPER_BASE_URL", "https://www.amazon.in"),
			MaxProducts:       getIntOrDefault("SCRAPER_MAX_PRODUCTS", 100),
			DiscountThreshold: getFloatOrDefault("SCRAPER_DISCOUNT_THRESHOLD", 50),
			LoginAttempts:     getIntOrDefault("SCRAPER_LOGIN_ATTEMPTS", 3),
			LoginRetryDelay:   getDurationOrDefault("SCRAPER_LOGIN_RETRY_DELAY", 2*time.Second),
			ProductDelayMin:   getDurationOrDefault("SCRAPER_PRODUCT_DELAY_MIN", 1*time.Second),
			ProductDelayMax:   getDurationOrDefault("SCRAPER_PRODUCT_DELAY_MAX", 3*time.Second),
			CategoryDelayMin:  getDurationOrDefault("SCRAPER_CATEGORY_DELAY_MIN", 2*time.Second),
			CategoryDelayMax:  getDurationOrDefault("SCRAPER_CATEGORY_DELAY_MAX", 5*time.Second),
		},
		Browser: BrowserConfig{
			Headless:        getBoolOrDefault("BROWSER_HEADLESS", false),
			PageLoadTimeout: getDurationOrDefault("BROWSER_PAGE_LOAD_TIMEOUT", 30*time.Second),
			ImplicitWait:    getDurationOrDefault("BROWSER_IMPLICIT_WAIT", 10*time.Second),
			ViewportWidth:   getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight:  getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			UserAgent:       getEnvOrDefault("BROWSER_USER_AGENT", defaultUserAgent),
		},
		Output: OutputConfig{
			Dir:    getEnvOrDefault("SCRAPER_OUTPUT_DIR", "."),
			Format: strings.ToLower(getEnvOrDefault("SCRAPER_OUTPUT_FORMAT", storage.FormatJSON)),
		},
		Logging: LoggingConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
			File:  getEnvOrDefault("LOG_FILE", "amazon_scraper.log"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
		Categories: DefaultCategories(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("SCRAPER_BASE_URL is required")
	}

	if c.Scraper.MaxProducts < 1 {
		return fmt.Errorf("SCRAPER_MAX_PRODUCTS must be at least 1")
	}

	if c.Scraper.DiscountThreshold < 0 {
		return fmt.Errorf("SCRAPER_DISCOUNT_THRESHOLD cannot be negative")
	}

	if c.Scraper.LoginAttempts < 1 {
		return fmt.Errorf("SCRAPER_LOGIN_ATTEMPTS must be at least 1")
	}

	if c.Scraper.ProductDelayMin > c.Scraper.ProductDelayMax {
		return fmt.Errorf("SCRAPER_PRODUCT_DELAY_MIN cannot be greater than SCRAPER_PRODUCT_DELAY_MAX")
	}

	if c.Scraper.CategoryDelayMin > c.Scraper.CategoryDelayMax {
		return fmt.Errorf("SCRAPER_CATEGORY_DELAY_MIN cannot be greater than SCRAPER_CATEGORY_DELAY_MAX")
	}

	if c.Output.Format != storage.FormatJSON && c.Output.Format != storage.FormatCSV {
		return fmt.Errorf("SCRAPER_OUTPUT_FORMAT must be %q or %q, got %q", storage.FormatJSON, storage.FormatCSV, c.Output.Format)
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// DefaultCategories is the fixed set of amazon.in best-seller listings.
func DefaultCategories() []models.Category {
	return []models.Category{
		{Name: "Kitchen", URL: "https://www.amazon.in/gp/bestsellers/kitchen/ref=zg_bs_nav_kitchen_0"},
		{Name: "Books", URL: "https://www.amazon.in/gp/bestsellers/books/ref=zg_bs_nav_books_0"},
		{Name: "Beauty", URL: "https://www.amazon.in/gp/bestsellers/beauty/ref=zg_bs_nav_beauty_0"},
		{Name: "Car & Motorbike", URL: "https://www.amazon.in/gp/bestsellers/automotive/ref=zg_bs_nav_automotive_0"},
		{Name: "Electronics", URL: "https://www.amazon.in/gp/bestsellers/electronics/ref=zg_bs_nav_electronics_0"},
		{Name: "Computers & Accessories", URL: "https://www.amazon.in/gp/bestsellers/computers/ref=zg_bs_nav_computers_0"},
		{Name: "Watches", URL: "https://www.amazon.in/gp/bestsellers/watches/ref=zg_bs_nav_watches_0"},
		{Name: "Shoes & Handbags", URL: "https://www.amazon.in/gp/bestsellers/shoes/ref=zg_bs_nav_shoes_0"},
		{Name: "Sports", URL: "https://www.amazon.in/gp/bestsellers/sports/ref=zg_bs_nav_sports_0"},
		{Name: "Health & Personal Care", URL: "https://www.amazon.in/gp/bestsellers/hpc/ref=zg_bs_nav_hpc_0"},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
