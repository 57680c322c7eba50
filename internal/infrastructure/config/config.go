package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App            AppConfig
	Server         ServerConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Log            LogConfig
	Telemetry      TelemetryConfig
	CORS           CORSConfig
	RateLimit      RateLimitConfig
	Stripe         StripeConfig
	Shipping       ShippingConfig
	Email          EmailConfig
	Storage        StorageConfig
	Kafka          KafkaConfig
	Scheduler      SchedulerConfig
	Checkout       CheckoutConfig
	Reconciliation ReconciliationConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name     string
	Env      string
	Currency string // ISO 4217, uppercase
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port             string
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	ShutdownTimeout  time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	WebhookBodyLimit int64
	TrustedProxies   []string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	LogLevel        string
	SlowThreshold   time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT settings
type JWTConfig struct {
	Secret                string
	AccessTokenExpiration time.Duration
	Issuer                string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string // debug, info, warn, error
	Format     string // json, console
	Output     string // stdout, stderr, or file path
	TimeFormat string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. localhost:4317
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool
	MetricsEnabled    bool
	MetricsInterval   time.Duration
	LogsEnabled       bool
	DBTraceEnabled    bool
	DBLogFullSQL      bool
	ProfilingEnabled  bool
	PyroscopeURL      string
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// RateLimitConfig holds the per-client request limit
type RateLimitConfig struct {
	Enabled      bool
	Requests     int
	Window       time.Duration
	AuthRequests int
	AuthWindow   time.Duration
}

// StripeConfig holds payment gateway credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Tolerance     time.Duration // accepted webhook timestamp skew
	BackendURL    string        // overrides the API base, used against mocks
}

// ShippingConfig holds the shipping gateway settings
type ShippingConfig struct {
	BaseURL        string
	APIKey         string
	WebhookSecret  string
	DefaultCarrier string
	DefaultService string
	Timeout        time.Duration
}

// EmailConfig holds the email provider and retry settings
type EmailConfig struct {
	Provider    string // http or log
	BaseURL     string
	APIKey      string
	FromAddress string
	FromName    string
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
	BatchSize   int
	Timeout     time.Duration
}

// StorageConfig holds S3-compatible object storage settings
type StorageConfig struct {
	Enabled       bool
	Endpoint      string
	Bucket        string
	AccessKey     string
	SecretKey     string
	Region        string
	UseSSL        bool
	UsePathStyle  bool
	PublicBaseURL string
	MaxImageSize  int64
}

// KafkaConfig holds the domain event forwarder settings
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// SchedulerConfig holds background job intervals
type SchedulerConfig struct {
	Enabled               bool
	JobTimeout            time.Duration
	OrphanSweepInterval   time.Duration
	PaymentScanInterval   time.Duration
	ShipmentSyncInterval  time.Duration
	EmailDispatchInterval time.Duration
	OrderExpiryInterval   time.Duration
}

// CheckoutConfig holds checkout and cart lifetimes
type CheckoutConfig struct {
	PendingOrderTTL time.Duration
	IdempotencyTTL  time.Duration
	CartTTL         time.Duration
}

// ReconciliationConfig holds payment reconciliation settings
type ReconciliationConfig struct {
	OrphanGracePeriod  time.Duration
	MaxRefundAttempts  int
	PaymentScanWindow  time.Duration
	SweepBatchSize     int
	ShipmentSyncBatch  int
	ShipmentSyncMinAge time.Duration
}

// Load loads configuration from TOML file and environment variables.
// Priority (highest to lowest):
// 1. Environment variables with SHOP_ prefix (e.g. SHOP_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/storefront")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds the configuration from an already prepared viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetEnvPrefix("SHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name:     v.GetString("app.name"),
			Env:      v.GetString("app.env"),
			Currency: strings.ToUpper(v.GetString("app.currency")),
		},
		Server: ServerConfig{
			Port:             v.GetString("server.port"),
			ReadTimeout:      v.GetDuration("server.read_timeout"),
			WriteTimeout:     v.GetDuration("server.write_timeout"),
			IdleTimeout:      v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:  v.GetDuration("server.shutdown_timeout"),
			MaxHeaderBytes:   v.GetInt("server.max_header_bytes"),
			MaxBodySize:      v.GetInt64("server.max_body_size"),
			WebhookBodyLimit: v.GetInt64("server.webhook_body_limit"),
			TrustedProxies:   v.GetStringSlice("server.trusted_proxies"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
			LogLevel:        v.GetString("database.log_level"),
			SlowThreshold:   v.GetDuration("database.slow_threshold"),
			ConnectTimeout:  v.GetDuration("database.connect_timeout"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:                v.GetString("jwt.secret"),
			AccessTokenExpiration: v.GetDuration("jwt.access_token_expiration"),
			Issuer:                v.GetString("jwt.issuer"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			TimeFormat: v.GetString("log.time_format"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			PyroscopeURL:      v.GetString("telemetry.pyroscope_url"),
		},
		CORS: CORSConfig{
			AllowOrigins: v.GetStringSlice("cors.allow_origins"),
			AllowMethods: v.GetStringSlice("cors.allow_methods"),
			AllowHeaders: v.GetStringSlice("cors.allow_headers"),
		},
		RateLimit: RateLimitConfig{
			Enabled:      v.GetBool("rate_limit.enabled"),
			Requests:     v.GetInt("rate_limit.requests"),
			Window:       v.GetDuration("rate_limit.window"),
			AuthRequests: v.GetInt("rate_limit.auth_requests"),
			AuthWindow:   v.GetDuration("rate_limit.auth_window"),
		},
		Stripe: StripeConfig{
			SecretKey:     v.GetString("stripe.secret_key"),
			WebhookSecret: v.GetString("stripe.webhook_secret"),
			Tolerance:     v.GetDuration("stripe.tolerance"),
			BackendURL:    v.GetString("stripe.backend_url"),
		},
		Shipping: ShippingConfig{
			BaseURL:        v.GetString("shipping.base_url"),
			APIKey:         v.GetString("shipping.api_key"),
			WebhookSecret:  v.GetString("shipping.webhook_secret"),
			DefaultCarrier: v.GetString("shipping.default_carrier"),
			DefaultService: v.GetString("shipping.default_service"),
			Timeout:        v.GetDuration("shipping.timeout"),
		},
		Email: EmailConfig{
			Provider:    v.GetString("email.provider"),
			BaseURL:     v.GetString("email.base_url"),
			APIKey:      v.GetString("email.api_key"),
			FromAddress: v.GetString("email.from_address"),
			FromName:    v.GetString("email.from_name"),
			BackoffBase: v.GetDuration("email.backoff_base"),
			BackoffCap:  v.GetDuration("email.backoff_cap"),
			MaxAttempts: v.GetInt("email.max_attempts"),
			BatchSize:   v.GetInt("email.batch_size"),
			Timeout:     v.GetDuration("email.timeout"),
		},
		Storage: StorageConfig{
			Enabled:       v.GetBool("storage.enabled"),
			Endpoint:      v.GetString("storage.endpoint"),
			Bucket:        v.GetString("storage.bucket"),
			AccessKey:     v.GetString("storage.access_key"),
			SecretKey:     v.GetString("storage.secret_key"),
			Region:        v.GetString("storage.region"),
			UseSSL:        v.GetBool("storage.use_ssl"),
			UsePathStyle:  v.GetBool("storage.use_path_style"),
			PublicBaseURL: v.GetString("storage.public_base_url"),
			MaxImageSize:  v.GetInt64("storage.max_image_size"),
		},
		Kafka: KafkaConfig{
			Enabled: v.GetBool("kafka.enabled"),
			Brokers: v.GetStringSlice("kafka.brokers"),
			Topic:   v.GetString("kafka.topic"),
		},
		Scheduler: SchedulerConfig{
			Enabled:               v.GetBool("scheduler.enabled"),
			JobTimeout:            v.GetDuration("scheduler.job_timeout"),
			OrphanSweepInterval:   v.GetDuration("scheduler.orphan_sweep_interval"),
			PaymentScanInterval:   v.GetDuration("scheduler.payment_scan_interval"),
			ShipmentSyncInterval:  v.GetDuration("scheduler.shipment_sync_interval"),
			EmailDispatchInterval: v.GetDuration("scheduler.email_dispatch_interval"),
			OrderExpiryInterval:   v.GetDuration("scheduler.order_expiry_interval"),
		},
		Checkout: CheckoutConfig{
			PendingOrderTTL: v.GetDuration("checkout.pending_order_ttl"),
			IdempotencyTTL:  v.GetDuration("checkout.idempotency_ttl"),
			CartTTL:         v.GetDuration("checkout.cart_ttl"),
		},
		Reconciliation: ReconciliationConfig{
			OrphanGracePeriod:  v.GetDuration("reconciliation.orphan_grace_period"),
			MaxRefundAttempts:  v.GetInt("reconciliation.max_refund_attempts"),
			PaymentScanWindow:  v.GetDuration("reconciliation.payment_scan_window"),
			SweepBatchSize:     v.GetInt("reconciliation.sweep_batch_size"),
			ShipmentSyncBatch:  v.GetInt("reconciliation.shipment_sync_batch"),
			ShipmentSyncMinAge: v.GetDuration("reconciliation.shipment_sync_min_age"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "storefront"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Currency == "" {
		cfg.App.Currency = "USD"
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 15 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = 1 << 20
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = 10 << 20
	}
	if cfg.Server.WebhookBodyLimit == 0 {
		cfg.Server.WebhookBodyLimit = 64 << 10
	}

	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "storefront"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Database.LogLevel == "" {
		cfg.Database.LogLevel = "warn"
	}
	if cfg.Database.SlowThreshold == 0 {
		cfg.Database.SlowThreshold = 200 * time.Millisecond
	}
	if cfg.Database.ConnectTimeout == 0 {
		cfg.Database.ConnectTimeout = 30 * time.Second
	}

	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}

	if cfg.JWT.AccessTokenExpiration == 0 {
		cfg.JWT.AccessTokenExpiration = 8 * time.Hour
	}
	if cfg.JWT.Issuer == "" {
		cfg.JWT.Issuer = "storefront"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 60 * time.Second
	}
	if cfg.Telemetry.PyroscopeURL == "" {
		cfg.Telemetry.PyroscopeURL = "http://localhost:4040"
	}

	// An empty origin list allows no cross-origin requests.
	if len(cfg.CORS.AllowMethods) == 0 {
		cfg.CORS.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.CORS.AllowHeaders) == 0 {
		cfg.CORS.AllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID", "Idempotency-Key"}
	}

	if cfg.RateLimit.Requests == 0 {
		cfg.RateLimit.Requests = 100
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Minute
	}
	if cfg.RateLimit.AuthRequests == 0 {
		cfg.RateLimit.AuthRequests = 5
	}
	if cfg.RateLimit.AuthWindow == 0 {
		cfg.RateLimit.AuthWindow = time.Minute
	}

	if cfg.Stripe.Tolerance == 0 {
		cfg.Stripe.Tolerance = 5 * time.Minute
	}

	if cfg.Shipping.DefaultCarrier == "" {
		cfg.Shipping.DefaultCarrier = "ups"
	}
	if cfg.Shipping.DefaultService == "" {
		cfg.Shipping.DefaultService = "ground"
	}
	if cfg.Shipping.Timeout == 0 {
		cfg.Shipping.Timeout = 10 * time.Second
	}

	if cfg.Email.Provider == "" {
		cfg.Email.Provider = "log"
	}
	if cfg.Email.FromAddress == "" {
		cfg.Email.FromAddress = "orders@storefront.local"
	}
	if cfg.Email.FromName == "" {
		cfg.Email.FromName = "Storefront"
	}
	if cfg.Email.BackoffBase == 0 {
		cfg.Email.BackoffBase = 30 * time.Second
	}
	if cfg.Email.BackoffCap == 0 {
		cfg.Email.BackoffCap = time.Hour
	}
	if cfg.Email.MaxAttempts == 0 {
		cfg.Email.MaxAttempts = 6
	}
	if cfg.Email.BatchSize == 0 {
		cfg.Email.BatchSize = 50
	}
	if cfg.Email.Timeout == 0 {
		cfg.Email.Timeout = 10 * time.Second
	}

	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Storage.MaxImageSize == 0 {
		cfg.Storage.MaxImageSize = 5 << 20
	}

	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "storefront.domain-events"
	}

	if cfg.Scheduler.JobTimeout == 0 {
		cfg.Scheduler.JobTimeout = 5 * time.Minute
	}
	if cfg.Scheduler.OrphanSweepInterval == 0 {
		cfg.Scheduler.OrphanSweepInterval = 10 * time.Minute
	}
	if cfg.Scheduler.PaymentScanInterval == 0 {
		cfg.Scheduler.PaymentScanInterval = time.Hour
	}
	if cfg.Scheduler.ShipmentSyncInterval == 0 {
		cfg.Scheduler.ShipmentSyncInterval = 30 * time.Minute
	}
	if cfg.Scheduler.EmailDispatchInterval == 0 {
		cfg.Scheduler.EmailDispatchInterval = 30 * time.Second
	}
	if cfg.Scheduler.OrderExpiryInterval == 0 {
		cfg.Scheduler.OrderExpiryInterval = 5 * time.Minute
	}

	if cfg.Checkout.PendingOrderTTL == 0 {
		cfg.Checkout.PendingOrderTTL = time.Hour
	}
	if cfg.Checkout.IdempotencyTTL == 0 {
		cfg.Checkout.IdempotencyTTL = 24 * time.Hour
	}
	if cfg.Checkout.CartTTL == 0 {
		cfg.Checkout.CartTTL = 7 * 24 * time.Hour
	}

	if cfg.Reconciliation.OrphanGracePeriod == 0 {
		cfg.Reconciliation.OrphanGracePeriod = 15 * time.Minute
	}
	if cfg.Reconciliation.MaxRefundAttempts == 0 {
		cfg.Reconciliation.MaxRefundAttempts = 5
	}
	if cfg.Reconciliation.PaymentScanWindow == 0 {
		cfg.Reconciliation.PaymentScanWindow = 24 * time.Hour
	}
	if cfg.Reconciliation.SweepBatchSize == 0 {
		cfg.Reconciliation.SweepBatchSize = 100
	}
	if cfg.Reconciliation.ShipmentSyncBatch == 0 {
		cfg.Reconciliation.ShipmentSyncBatch = 100
	}
	if cfg.Reconciliation.ShipmentSyncMinAge == 0 {
		cfg.Reconciliation.ShipmentSyncMinAge = 30 * time.Minute
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if len(c.App.Currency) != 3 {
		return fmt.Errorf("app.currency must be a 3 letter ISO 4217 code, got %q", c.App.Currency)
	}
	if c.Email.Provider != "http" && c.Email.Provider != "log" {
		return fmt.Errorf("email.provider must be http or log, got %q", c.Email.Provider)
	}
	if c.Email.Provider == "http" && c.Email.BaseURL == "" {
		return fmt.Errorf("email.base_url is required for the http provider")
	}
	if c.Email.BackoffBase > c.Email.BackoffCap {
		return fmt.Errorf("email.backoff_base (%s) cannot exceed email.backoff_cap (%s)",
			c.Email.BackoffBase, c.Email.BackoffCap)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers is required when kafka is enabled")
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Stripe.SecretKey == "" || c.Stripe.WebhookSecret == "" {
			return fmt.Errorf("stripe.secret_key and stripe.webhook_secret are required in production")
		}
		if c.Shipping.WebhookSecret == "" {
			return fmt.Errorf("shipping.webhook_secret is required in production")
		}
		for _, origin := range c.CORS.AllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors.allow_origins cannot be '*' in production")
			}
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
	}
	return nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
