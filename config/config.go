package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the discovery backend.
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Session SessionConfig `mapstructure:"session"`
	Search  SearchConfig  `mapstructure:"search"`
}

// GeneralConfig contains HTTP server and logging settings.
type GeneralConfig struct {
	Listen   string `mapstructure:"listen"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// RemoteConfig describes the external semantic search/chat service.
type RemoteConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retries int           `mapstructure:"retries"`
	Backoff time.Duration `mapstructure:"backoff"`
	// HealthTTL bounds how long a health probe result is trusted before
	// the connected/offline flag is refreshed.
	HealthTTL time.Duration `mapstructure:"health_ttl"`
}

// CatalogConfig selects where the read-only product catalog is loaded from.
// Source is "file" or "postgres".
type CatalogConfig struct {
	Source   string         `mapstructure:"source"`
	FilePath string         `mapstructure:"file_path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains the products database connection settings.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN assembles a connection string, preferring an explicit URL.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (catalog.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig contains connection settings for session and cache storage.
// An empty host disables redis; sessions then live in process memory.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Addr() string {
	port := r.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", r.Host, port)
}

// SessionConfig controls conversation persistence.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
	// MaxMessages caps history length per session; oldest turns are dropped.
	MaxMessages int `mapstructure:"max_messages"`
	// JanitorCron drives the in-memory expiry sweep (redis expires by TTL).
	JanitorCron string `mapstructure:"janitor_cron"`
}

// SearchConfig exposes the relevance scoring bonuses and limits as tunables.
// The defaults are chosen so that a lone exact title match always outranks
// quality bonuses and a single strong token hit clears the threshold.
type SearchConfig struct {
	TitleExact       int `mapstructure:"title_exact"`
	BrandExact       int `mapstructure:"brand_exact"`
	TitleContains    int `mapstructure:"title_contains"`
	BrandContains    int `mapstructure:"brand_contains"`
	CategoryContains int `mapstructure:"category_contains"`
	TokenTitle       int `mapstructure:"token_title"`
	TokenBrand       int `mapstructure:"token_brand"`
	TokenCategory    int `mapstructure:"token_category"`
	TokenDescription int `mapstructure:"token_description"`
	RatingBonus      int `mapstructure:"rating_bonus"`
	ReviewsBonus     int `mapstructure:"reviews_bonus"`
	ImageBonus       int `mapstructure:"image_bonus"`
	MinScore         int `mapstructure:"min_score"`
	DefaultLimit     int `mapstructure:"default_limit"`

	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// AppConfig is the process-wide configuration, populated by LoadConfig.
var AppConfig *Config

// LoadConfig reads configuration from the given path (or ./config.yaml) with
// SHOPMATE_-prefixed environment overrides, applies defaults and stores the
// result in AppConfig.
func LoadConfig(cfgPath string, fatal bool) *Config {
	v := viper.New()
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	v.SetEnvPrefix("SHOPMATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("[CONFIG] no config file found, using defaults and environment")
		} else if fatal {
			log.Fatalf("[CONFIG] read error: %v", err)
		} else {
			log.Printf("[CONFIG] read error (continuing with defaults): %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		if fatal {
			log.Fatalf("[CONFIG] unmarshal error: %v", err)
		}
		log.Printf("[CONFIG] unmarshal error: %v", err)
	}

	AppConfig = &cfg
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.listen", ":8080")
	v.SetDefault("general.log_level", "info")

	v.SetDefault("remote.timeout", 10*time.Second)
	v.SetDefault("remote.retries", 1)
	v.SetDefault("remote.backoff", 300*time.Millisecond)
	v.SetDefault("remote.health_ttl", 30*time.Second)

	v.SetDefault("catalog.source", "file")
	v.SetDefault("catalog.file_path", "data/products.json")

	v.SetDefault("redis.timeout", 5*time.Second)

	v.SetDefault("session.ttl", 7*24*time.Hour)
	v.SetDefault("session.max_messages", 40)
	v.SetDefault("session.janitor_cron", "0 * * * *")

	v.SetDefault("search.title_exact", 100)
	v.SetDefault("search.brand_exact", 60)
	v.SetDefault("search.title_contains", 40)
	v.SetDefault("search.brand_contains", 25)
	v.SetDefault("search.category_contains", 15)
	v.SetDefault("search.token_title", 10)
	v.SetDefault("search.token_brand", 6)
	v.SetDefault("search.token_category", 4)
	v.SetDefault("search.token_description", 2)
	v.SetDefault("search.rating_bonus", 3)
	v.SetDefault("search.reviews_bonus", 3)
	v.SetDefault("search.image_bonus", 2)
	v.SetDefault("search.min_score", 10)
	v.SetDefault("search.default_limit", 20)
	v.SetDefault("search.cache_ttl", 5*time.Minute)
}
