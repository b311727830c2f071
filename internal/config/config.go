// backend-go/internal/config/config.go
package config

import (
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Export   ExportConfig
	Engine   EngineConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ForecastTTLSecs int
}

// ExportConfig holds connection info for the S3-compatible report bucket.
type ExportConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// EngineConfig gathers every tunable of the analytical engine in one place.
// Each component receives only its own section; none of the thresholds are
// hardcoded inline.
type EngineConfig struct {
	Forecast   ForecastConfig
	Hourly     HourlyConfig
	Prep       PrepConfig
	Anomaly    AnomalyConfig
	Confidence ConfidenceConfig
	Transfer   TransferConfig
}

// ForecastConfig drives the daily demand forecaster and the derived
// inventory health metrics.
type ForecastConfig struct {
	WindowDays      int     // trailing sales window (default 28)
	Decay           float64 // exponential decay per step back in time (default 0.95)
	LeadTimeDays    int     // supplier lead time for the reorder point (default 3)
	SafetyStockDays int     // demand days folded into safety stock (default 2)
	OrderCoverDays  int     // days of demand per recommended order (default 14)
	MinDailyDemand  float64 // demand floor below which ratios are not computed (default 0.1)
	MaxDaysOfCover  float64 // sentinel for "no measurable demand" (default 999)
}

// HourlyConfig drives the hourly/peak forecaster and the stockout walk.
type HourlyConfig struct {
	LookbackWeeks int           // historical samples per hour/day-of-week key (default 8)
	Decay         float64       // same decayed weighting as the daily forecaster
	PeakBuffer    float64       // multiplier applied to positive peak-hour estimates (default 1.15)
	CacheTTL      time.Duration // hourly forecast cache lifetime (default 5m)
	OpenHour      int           // first operating hour for day curves (default 6)
	CloseHour     int           // exclusive closing hour for the stockout walk (default 24)
}

// PrepConfig drives the prep schedule generator.
type PrepConfig struct {
	LeadTimeHours      int      // hours of prep lead before a predicted stockout (default 2)
	BufferFactor       float64  // multiplier on post-stockout demand (default 1.1)
	CoverHours         int      // hours of demand covered by one prep batch (default 2)
	SkipOnHandAbove    float64  // generous on-hand threshold that skips an item (default 100)
	CriticalCategories []string // perishable/critical categories worth prepping
}

// AnomalyConfig drives anomaly detection and pattern scanning.
type AnomalyConfig struct {
	Threshold         float64 // residual below this (strict) flags an anomaly (default -5)
	PatternWindowDays int     // trailing window for shrink patterns (default 30)
	ShrinkRatio       float64 // negative-residual fraction that flags systematic shrink (default 0.6)
	ScanDaysBack      int     // how far back a full scan looks (default 7)
	ScanWorkers       int     // store/SKU pairs reconciled in parallel (default 4)
}

// ConfidenceConfig drives the inventory-accuracy scoring model.
type ConfidenceConfig struct {
	AnomalyWindowDays  int     // trailing window for anomaly deductions (default 30)
	FreqPointsPerEvent float64 // deduction per anomaly event (default 5)
	FreqCap            float64 // cap on the frequency deduction (default 30)
	MagnitudeFactor    float64 // deduction per absolute unit of residual (default 0.5)
	MagnitudeCap       float64 // cap on the magnitude deduction (default 20)
	StalenessPerDay    float64 // deduction per day since the last count (default 0.3)
	StalenessCap       float64 // cap on the staleness deduction (default 20)
	NeverCountedPoints float64 // flat deduction when no count exists (default 30)
	PerishablePoints   float64 // flat deduction for stale perishables (default 10)
	PerishableMaxAge   int     // days a perishable count stays fresh (default 7)
	ShrinkPoints       float64 // flat deduction for a systematic shrink pattern (default 15)
}

// TransferConfig drives the cross-store transfer optimizer.
type TransferConfig struct {
	TargetCoverDays   int     // days of demand each store should hold (default 10)
	SafetyBufferDays  int     // extra days a donor keeps before giving (default 2)
	MinUrgency        float64 // receivers below this urgency are not matched (default 0.5)
	DefaultDistanceKM float64 // assumed distance for unrecorded store pairs (default 1000)
	MaxSupplyDays     int     // cap on transferred quantity in receiver demand days (default 7)
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "shelfwatch")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("EXPORT_ENABLED", false)
		viper.SetDefault("EXPORT_ENDPOINT", "")
		viper.SetDefault("EXPORT_BUCKET", "shelfwatch-reports")
		viper.SetDefault("EXPORT_REGION", "us-east-1")
		viper.SetDefault("EXPORT_USE_SSL", true)

		// Engine tunables kept overridable from the environment so ops can
		// retune thresholds without a rebuild.
		viper.SetDefault("FORECAST_WINDOW_DAYS", 28)
		viper.SetDefault("FORECAST_DECAY", 0.95)
		viper.SetDefault("FORECAST_LEAD_TIME_DAYS", 3)
		viper.SetDefault("FORECAST_SAFETY_STOCK_DAYS", 2)
		viper.SetDefault("HOURLY_LOOKBACK_WEEKS", 8)
		viper.SetDefault("ANOMALY_THRESHOLD", -5.0)
		viper.SetDefault("ANOMALY_SCAN_DAYS_BACK", 7)
		viper.SetDefault("ANOMALY_SCAN_WORKERS", 4)
		viper.SetDefault("TRANSFER_TARGET_COVER_DAYS", 10)
		viper.SetDefault("TRANSFER_SAFETY_BUFFER_DAYS", 2)
		viper.SetDefault("TRANSFER_MIN_URGENCY", 0.5)
		viper.SetDefault("PREP_LEAD_TIME_HOURS", 2)

		// Read from environment variables
		viper.AutomaticEnv()

		engine := DefaultEngineConfig()
		engine.Forecast.WindowDays = viper.GetInt("FORECAST_WINDOW_DAYS")
		engine.Forecast.Decay = viper.GetFloat64("FORECAST_DECAY")
		engine.Forecast.LeadTimeDays = viper.GetInt("FORECAST_LEAD_TIME_DAYS")
		engine.Forecast.SafetyStockDays = viper.GetInt("FORECAST_SAFETY_STOCK_DAYS")
		engine.Hourly.LookbackWeeks = viper.GetInt("HOURLY_LOOKBACK_WEEKS")
		engine.Hourly.Decay = engine.Forecast.Decay
		engine.Anomaly.Threshold = viper.GetFloat64("ANOMALY_THRESHOLD")
		engine.Anomaly.ScanDaysBack = viper.GetInt("ANOMALY_SCAN_DAYS_BACK")
		engine.Anomaly.ScanWorkers = viper.GetInt("ANOMALY_SCAN_WORKERS")
		engine.Transfer.TargetCoverDays = viper.GetInt("TRANSFER_TARGET_COVER_DAYS")
		engine.Transfer.SafetyBufferDays = viper.GetInt("TRANSFER_SAFETY_BUFFER_DAYS")
		engine.Transfer.MinUrgency = viper.GetFloat64("TRANSFER_MIN_URGENCY")
		engine.Prep.LeadTimeHours = viper.GetInt("PREP_LEAD_TIME_HOURS")

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:         viper.GetBool("CACHE_ENABLED"),
				RedisURL:        viper.GetString("REDIS_URL"),
				RedisHost:       viper.GetString("REDIS_HOST"),
				RedisPort:       viper.GetString("REDIS_PORT"),
				RedisPassword:   viper.GetString("REDIS_PASSWORD"),
				RedisDB:         viper.GetInt("REDIS_DB"),
				ForecastTTLSecs: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Export: ExportConfig{
				Enabled:   viper.GetBool("EXPORT_ENABLED"),
				Endpoint:  viper.GetString("EXPORT_ENDPOINT"),
				AccessKey: viper.GetString("EXPORT_ACCESS_KEY"),
				SecretKey: viper.GetString("EXPORT_SECRET_KEY"),
				Bucket:    viper.GetString("EXPORT_BUCKET"),
				Region:    viper.GetString("EXPORT_REGION"),
				UseSSL:    viper.GetBool("EXPORT_USE_SSL"),
			},
			Engine: engine,
		}
	})

	return instance
}

// DefaultEngineConfig returns the documented defaults for every engine
// tunable. Tests construct components from this and override single fields.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Forecast: ForecastConfig{
			WindowDays:      28,
			Decay:           0.95,
			LeadTimeDays:    3,
			SafetyStockDays: 2,
			OrderCoverDays:  14,
			MinDailyDemand:  0.1,
			MaxDaysOfCover:  999,
		},
		Hourly: HourlyConfig{
			LookbackWeeks: 8,
			Decay:         0.95,
			PeakBuffer:    1.15,
			CacheTTL:      5 * time.Minute,
			OpenHour:      6,
			CloseHour:     24,
		},
		Prep: PrepConfig{
			LeadTimeHours:      2,
			BufferFactor:       1.1,
			CoverHours:         2,
			SkipOnHandAbove:    100,
			CriticalCategories: []string{"Proteins", "Salsas & Sauces", "Produce"},
		},
		Anomaly: AnomalyConfig{
			Threshold:         -5.0,
			PatternWindowDays: 30,
			ShrinkRatio:       0.6,
			ScanDaysBack:      7,
			ScanWorkers:       4,
		},
		Confidence: ConfidenceConfig{
			AnomalyWindowDays:  30,
			FreqPointsPerEvent: 5,
			FreqCap:            30,
			MagnitudeFactor:    0.5,
			MagnitudeCap:       20,
			StalenessPerDay:    0.3,
			StalenessCap:       20,
			NeverCountedPoints: 30,
			PerishablePoints:   10,
			PerishableMaxAge:   7,
			ShrinkPoints:       15,
		},
		Transfer: TransferConfig{
			TargetCoverDays:   10,
			SafetyBufferDays:  2,
			MinUrgency:        0.5,
			DefaultDistanceKM: 1000,
			MaxSupplyDays:     7,
		},
	}
}
