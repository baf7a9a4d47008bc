package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. QUESTFORGE_SERVER_PORT.
const EnvPrefix = "QUESTFORGE"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Security SecurityConfig `mapstructure:"security"`
	Campaign CampaignConfig `mapstructure:"campaign"`
	Events   EventsConfig   `mapstructure:"events"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

type ServerConfig struct {
	Port     int      `mapstructure:"port"`
	Debug    bool     `mapstructure:"debug"`
	AdminKey string   `mapstructure:"admin_key"`
	AdminIPs []string `mapstructure:"admin_ips"` // allow-list for /api/dev/seed; empty allows all
}

type DatabaseConfig struct {
	Mode        string        `mapstructure:"mode"` // memory | sqlite | mysql | postgres | url
	URL         string        `mapstructure:"url"`  // used by mode=url, e.g. postgres://u:p@host/db
	SQLitePath  string        `mapstructure:"sqlite_path"`
	MySQLDSN    string        `mapstructure:"mysql_dsn"`
	PostgresDSN string        `mapstructure:"postgres_dsn"`
	MaxOpen     int           `mapstructure:"max_open"`
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxLife     time.Duration `mapstructure:"max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedOrigins lists the WebSocket origins that are permitted.
	// Empty allows all origins (development only).
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type CampaignConfig struct {
	// InviteCodeAttempts bounds the retry loop on invite code collisions.
	InviteCodeAttempts int `mapstructure:"invite_code_attempts"`
}

type EventsConfig struct {
	AMQPURL      string `mapstructure:"amqp_url"` // empty disables the RabbitMQ publisher
	AMQPExchange string `mapstructure:"amqp_exchange"`
}

type AuditConfig struct {
	RetentionDays int    `mapstructure:"retention_days"`
	PurgeCron     string `mapstructure:"purge_cron"` // robfig/cron spec with seconds field
}

// Load reads config from the given YAML file path. A missing file is not an
// error: defaults and QUESTFORGE_* environment variables (optionally from a
// .env file in the working directory) still apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.admin_ips", []string{})
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.url", "")
	v.SetDefault("database.sqlite_path", "./data/questforge.db")
	v.SetDefault("database.mysql_dsn", "")
	v.SetDefault("database.postgres_dsn", "host=localhost port=5432 user=postgres password=postgres dbname=questforge sslmode=disable")
	v.SetDefault("database.max_open", 25)
	v.SetDefault("database.max_idle", 5)
	v.SetDefault("database.max_life", "1h")
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.bcrypt_cost", 12)
	v.SetDefault("security.rate_limit_rps", 100)
	v.SetDefault("security.rate_limit_burst", 200)
	v.SetDefault("security.allowed_origins", []string{})
	v.SetDefault("campaign.invite_code_attempts", 5)
	v.SetDefault("events.amqp_url", "")
	v.SetDefault("events.amqp_exchange", "questforge.events")
	v.SetDefault("audit.retention_days", 90)
	v.SetDefault("audit.purge_cron", "0 0 3 * * *")

	if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
