package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"

	defaultConfigPath = "./config/config_local.yaml"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	Timezone string         `yaml:"timezone" env:"TIMEZONE" env-default:"Asia/Seoul"`
	Log      LogConfig      `yaml:"log"`
	Crawler  CrawlerConfig  `yaml:"crawler"`
	Ranking  RankingConfig  `yaml:"ranking"`
	Storage  StorageConfig  `yaml:"storage"`
	Schedule ScheduleConfig `yaml:"schedule"`
	HTTP     HTTPConfig     `yaml:"http"`

	location *time.Location
}

type LogConfig struct {
	File       string `yaml:"file" env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb" env-default:"50"`
	MaxBackups int    `yaml:"max_backups" env-default:"5"`
	MaxAgeDays int    `yaml:"max_age_days" env-default:"14"`
}

type CrawlerConfig struct {
	RankingURL string        `yaml:"ranking_url" env:"RANKING_URL" env-default:"https://news.naver.com/main/ranking/popularDay.naver"`
	UserAgent  string        `yaml:"user_agent" env-default:"Mozilla/5.0"`
	Timeout    time.Duration `yaml:"timeout" env-default:"10s"`
	Workers    int           `yaml:"workers" env-default:"8"`
}

type RankingConfig struct {
	MaxEntries       int           `yaml:"max_entries" env-default:"50"`
	JaccardThreshold float64       `yaml:"jaccard_threshold" env-default:"0.5"`
	BreakingMarkers  []string      `yaml:"breaking_markers"`
	Stopwords        []string      `yaml:"stopwords"`
	ProperNouns      []string      `yaml:"proper_nouns"`
	HistoryWindow    time.Duration `yaml:"history_window" env-default:"25m"`
	HistoryLag       time.Duration `yaml:"history_lag" env-default:"5m"`
	HistoryRetention time.Duration `yaml:"history_retention" env-default:"24h"`
}

type StorageConfig struct {
	Backend       string        `yaml:"backend" env:"STORAGE_BACKEND" env-default:"leveldb"`
	LevelDBPath   string        `yaml:"leveldb_path" env:"STORAGE_PATH" env-default:"./storage/rank.db"`
	RedisAddr     string        `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int           `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`
	RedisPrefix   string        `yaml:"redis_prefix" env-default:"rank:"`
	RedisLogTTL   time.Duration `yaml:"redis_log_ttl" env-default:"24h"`
	AuditPath     string        `yaml:"audit_path" env:"AUDIT_PATH" env-default:"./storage/audit.db"`
}

type ScheduleConfig struct {
	Enabled bool   `yaml:"enabled" env-default:"true"`
	Cron    string `yaml:"cron" env-default:"*/10 * * * *"`
}

type HTTPConfig struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"120s"`
	CronSecret   string        `yaml:"cron_secret" env:"CRON_SECRET"`
}

// Location is the resolved Timezone. It is set by Load.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}

// MustLoad reads the config named by the -config flag, CONFIG_PATH or the default path
// and panics when it is missing or invalid.
func MustLoad() *Config {
	configPathFlag := flag.String("config", "", "Path to the config file")
	flag.Parse()

	configPath := *configPathFlag
	if configPath == "" {
		configPath = fetchConfigPath() // fallback to default method
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load reads a yaml config, overlays the environment (including a .env file in the
// working directory, when present) and validates the result.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("error loading config file: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// fetchConfigPath fetches config path from environment variable or default if it was not set in command line flag.
// Priority: flag > env > default.
func fetchConfigPath() string {
	res := os.Getenv("CONFIG_PATH")
	if res == "" {
		res = defaultConfigPath
	}
	return res
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendLevelDB, BackendRedis:
	default:
		return fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	if cfg.Ranking.JaccardThreshold <= 0 || cfg.Ranking.JaccardThreshold > 1 {
		return fmt.Errorf("jaccard_threshold must be in (0, 1]: %v", cfg.Ranking.JaccardThreshold)
	}
	if cfg.Ranking.MaxEntries < 1 {
		return fmt.Errorf("max_entries must be positive: %d", cfg.Ranking.MaxEntries)
	}
	if cfg.Crawler.Workers < 1 {
		return fmt.Errorf("crawler workers must be positive: %d", cfg.Crawler.Workers)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("unknown timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	return nil
}
