package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Search    SearchConfig    `mapstructure:"search"`
	Quality   QualityConfig   `mapstructure:"quality"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"env"`
	LogLevel    string `mapstructure:"log_level"`
}

type HTTPConfig struct {
	Port        string        `mapstructure:"port"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

type DatabaseConfig struct {
	URL                   string        `mapstructure:"url"`
	Host                  string        `mapstructure:"host"`
	Port                  string        `mapstructure:"port"`
	Name                  string        `mapstructure:"name"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	SSLMode               string        `mapstructure:"ssl_mode"`
	ConnectTimeout        time.Duration `mapstructure:"connect_timeout"`
	PoolMaxConns          int32         `mapstructure:"pool_max_conns"`
	PoolMinConns          int32         `mapstructure:"pool_min_conns"`
	PoolMaxConnLifetime   time.Duration `mapstructure:"pool_max_conn_lifetime"`
	PoolMaxConnIdleTime   time.Duration `mapstructure:"pool_max_conn_idle_time"`
	PoolHealthCheckPeriod time.Duration `mapstructure:"pool_health_check_period"`
	SlowQuery             time.Duration `mapstructure:"slow_query"`
	Migrate               bool          `mapstructure:"migrate"`
}

// Enabled reports whether Postgres is configured at all.
func (d DatabaseConfig) Enabled() bool {
	return strings.TrimSpace(d.URL) != "" || strings.TrimSpace(d.Host) != ""
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type SourcesConfig struct {
	SkillSelectURL  string        `mapstructure:"skillselect_url"`
	DataGovAUURL    string        `mapstructure:"datagovau_url"`
	ListsURL        string        `mapstructure:"lists_url"`
	TablesFile      string        `mapstructure:"tables_file"`
	Timeout         time.Duration `mapstructure:"timeout"`
	Retries         int           `mapstructure:"retries"`
	RetryWait       time.Duration `mapstructure:"retry_wait"`
	RetryMaxWait    time.Duration `mapstructure:"retry_max_wait"`
	RateLimit       int           `mapstructure:"rate_limit"`
	BreakerFailures uint32        `mapstructure:"breaker_failures"`
	BreakerCooldown time.Duration `mapstructure:"breaker_cooldown"`
	Headless        bool          `mapstructure:"headless"`
	Debug           bool          `mapstructure:"debug"`
}

type SearchConfig struct {
	MaxResults int           `mapstructure:"max_results"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	HistoryMax int           `mapstructure:"history_max"`
	DatasetTTL time.Duration `mapstructure:"dataset_ttl"`
}

type QualityConfig struct {
	Parallel       bool `mapstructure:"parallel"`
	MaxConcurrency int  `mapstructure:"max_concurrency"`
	SampleSize     int  `mapstructure:"sample_size"`
	AlertThreshold int  `mapstructure:"alert_threshold"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	Issuer            string        `mapstructure:"issuer"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	AdminUser         string        `mapstructure:"admin_user"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
}

type SchedulerConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	RefreshSpec string `mapstructure:"refresh_spec"`
	QualitySpec string `mapstructure:"quality_spec"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type BackupConfig struct {
	Path string `mapstructure:"path"`
	Keep int    `mapstructure:"keep"`
}

var (
	errMissingRequired = errors.New("missing required configuration")
	errInvalid         = errors.New("invalid configuration")
)

// required keys and the environment variables that satisfy them.
var required = []struct {
	key string
	env string
}{
	{"app.name", "APP_NAME"},
	{"app.env", "APP_ENV"},
	{"http.port", "HTTP_PORT"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("http.read_timeout", "15s")

	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.name", "anzsco")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.connect_timeout", "5s")
	v.SetDefault("database.pool_max_conns", 10)
	v.SetDefault("database.pool_min_conns", 0)
	v.SetDefault("database.pool_max_conn_lifetime", "1h")
	v.SetDefault("database.pool_max_conn_idle_time", "30m")
	v.SetDefault("database.pool_health_check_period", "1m")
	v.SetDefault("database.slow_query", "500ms")
	v.SetDefault("database.migrate", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("sources.skillselect_url", "")
	v.SetDefault("sources.datagovau_url", "")
	v.SetDefault("sources.lists_url", "")
	v.SetDefault("sources.tables_file", "")
	v.SetDefault("sources.timeout", "30s")
	v.SetDefault("sources.retries", 2)
	v.SetDefault("sources.retry_wait", "1s")
	v.SetDefault("sources.retry_max_wait", "10s")
	v.SetDefault("sources.rate_limit", 10)
	v.SetDefault("sources.breaker_failures", 5)
	v.SetDefault("sources.breaker_cooldown", "60s")
	v.SetDefault("sources.headless", false)
	v.SetDefault("sources.debug", false)

	v.SetDefault("search.max_results", 50)
	v.SetDefault("search.cache_ttl", "10m")
	v.SetDefault("search.history_max", 10)
	v.SetDefault("search.dataset_ttl", "24h")

	v.SetDefault("quality.parallel", true)
	v.SetDefault("quality.max_concurrency", 10)
	v.SetDefault("quality.sample_size", 10)
	v.SetDefault("quality.alert_threshold", 70)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "anzsco-lookup")
	v.SetDefault("auth.token_ttl", "1h")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.refresh_spec", "@every 24h")
	v.SetDefault("scheduler.quality_spec", "@every 1m")

	v.SetDefault("telemetry.otlp_endpoint", "")

	v.SetDefault("backup.path", "data/snapshots.db")
	v.SetDefault("backup.keep", 3)
}

// Load reads configuration from the optional file at path (yaml or json)
// and the environment. Environment variables use the upper-cased key with
// '.' replaced by '_', e.g. SEARCH_MAX_RESULTS.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, r := range required {
		_ = v.BindEnv(r.key, r.env)
	}
	_ = v.BindEnv("telemetry.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT", "TELEMETRY_OTLP_ENDPOINT")
	_ = v.BindEnv("sources.tables_file", "TABLES_FILE", "SOURCES_TABLES_FILE")

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(v.GetString(r.key)) == "" {
			missing = append(missing, r.env)
		}
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequired, strings.Join(missing, ", "))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Production() bool {
	switch strings.ToLower(strings.TrimSpace(c.App.Environment)) {
	case "prod", "production":
		return true
	}
	return false
}

func (c Config) Validate() error {
	var problems []string
	if c.Search.MaxResults <= 0 {
		problems = append(problems, "SEARCH_MAX_RESULTS must be > 0")
	}
	if c.Search.HistoryMax <= 0 {
		problems = append(problems, "SEARCH_HISTORY_MAX must be > 0")
	}
	if c.Quality.MaxConcurrency < 1 {
		problems = append(problems, "QUALITY_MAX_CONCURRENCY must be >= 1")
	}
	if c.Quality.SampleSize < 1 {
		problems = append(problems, "QUALITY_SAMPLE_SIZE must be >= 1")
	}
	if c.Quality.AlertThreshold < 0 || c.Quality.AlertThreshold > 100 {
		problems = append(problems, "QUALITY_ALERT_THRESHOLD must be within 0..100")
	}
	if c.Sources.Retries < 0 {
		problems = append(problems, "SOURCES_RETRIES must be >= 0")
	}
	if c.Production() && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		problems = append(problems, "AUTH_JWT_SECRET is required in production")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalid, strings.Join(problems, "; "))
	}
	return nil
}
