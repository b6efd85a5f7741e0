package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Marketplace MarketplaceConfig
	Repricer    RepricerConfig
	Redis       RedisConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

// MarketplaceConfig drives the outbound price-push client. The API key is
// stored AES-CBC encrypted and decrypted at startup with EncryptionKey.
type MarketplaceConfig struct {
	BaseURL         string
	ProxyURL        string
	APIKeyEncrypted string
	EncryptionKey   string
	BasicAuthUser   string
}

type RepricerConfig struct {
	// VendorID is the vendor this deployment reprices for.
	VendorID string
	// ComparisonMode is "unit" or "shipping".
	ComparisonMode string
	IgnoreTie      bool
	Workers        int
	// CronInterval is the batch interval in minutes; 0 disables the loop.
	CronInterval int
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database")
	}

	redisPoolSize, err := strconv.Atoi(getEnv("REDIS_POOL_SIZE", "10"))
	if err != nil || redisPoolSize <= 0 {
		return nil, errors.New("invalid redis pool size")
	}

	workers, err := strconv.Atoi(getEnv("REPRICER_WORKERS", "8"))
	if err != nil || workers <= 0 {
		return nil, errors.New("invalid repricer workers")
	}

	cronInterval, err := strconv.Atoi(getEnv("REPRICER_CRON_INTERVAL_MINUTES", "0"))
	if err != nil || cronInterval < 0 {
		return nil, errors.New("invalid repricer cron interval")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Market Repricer API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "market_repricer"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Marketplace: MarketplaceConfig{
			BaseURL:         getEnv("MARKETPLACE_BASE_URL", ""),
			ProxyURL:        getEnv("MARKETPLACE_PROXY_URL", ""),
			APIKeyEncrypted: getEnv("MARKETPLACE_API_KEY_ENCRYPTED", ""),
			EncryptionKey:   getEnv("MARKETPLACE_ENCRYPTION_KEY", ""),
			BasicAuthUser:   getEnv("MARKETPLACE_BASIC_AUTH_USER", ""),
		},
		Repricer: RepricerConfig{
			VendorID:       getEnv("REPRICER_VENDOR_ID", ""),
			ComparisonMode: getEnv("REPRICER_COMPARISON_MODE", "unit"),
			IgnoreTie:      getEnv("REPRICER_IGNORE_TIE", "") == "true",
			Workers:        workers,
			CronInterval:   cronInterval,
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			RedisPoolSize: redisPoolSize,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.Marketplace.APIKeyEncrypted != "" && cfg.Marketplace.EncryptionKey == "" {
		return nil, errors.New("missing marketplace encryption key")
	}

	if cfg.Repricer.VendorID == "" {
		return nil, errors.New("missing repricer vendor id")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
