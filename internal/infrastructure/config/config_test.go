package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "storefront", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "USD", cfg.App.Currency)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(64<<10), cfg.Server.WebhookBodyLimit)
	assert.Equal(t, "storefront", cfg.Database.DBName)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled)

	assert.Equal(t, "log", cfg.Email.Provider)
	assert.Equal(t, 30*time.Second, cfg.Email.BackoffBase)
	assert.Equal(t, time.Hour, cfg.Email.BackoffCap)
	assert.Equal(t, 6, cfg.Email.MaxAttempts)

	assert.Equal(t, time.Hour, cfg.Checkout.PendingOrderTTL)
	assert.Equal(t, 15*time.Minute, cfg.Reconciliation.OrphanGracePeriod)
	assert.Equal(t, 5, cfg.Reconciliation.MaxRefundAttempts)
	assert.Equal(t, 24*time.Hour, cfg.Reconciliation.PaymentScanWindow)
	assert.Equal(t, "storefront", cfg.Telemetry.ServiceName)
	assert.Contains(t, cfg.CORS.AllowHeaders, "Idempotency-Key")
}

func TestFromViper_Environment(t *testing.T) {
	t.Setenv("SHOP_APP_NAME", "shop-test")
	t.Setenv("SHOP_APP_CURRENCY", "eur")
	t.Setenv("SHOP_SERVER_PORT", "9000")
	t.Setenv("SHOP_DATABASE_HOST", "db.internal")
	t.Setenv("SHOP_DATABASE_PORT", "5433")
	t.Setenv("SHOP_REDIS_ENABLED", "true")
	t.Setenv("SHOP_EMAIL_BACKOFF_BASE", "10s")
	t.Setenv("SHOP_EMAIL_MAX_ATTEMPTS", "3")
	t.Setenv("SHOP_CHECKOUT_PENDING_ORDER_TTL", "45m")

	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "shop-test", cfg.App.Name)
	assert.Equal(t, "EUR", cfg.App.Currency)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Email.BackoffBase)
	assert.Equal(t, 3, cfg.Email.MaxAttempts)
	assert.Equal(t, 45*time.Minute, cfg.Checkout.PendingOrderTTL)
}

func TestFromViper_TOML(t *testing.T) {
	v := viper.New()
	v.SetConfigType("toml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
[stripe]
secret_key = "sk_test_123"
webhook_secret = "whsec_123"

[kafka]
enabled = true
brokers = ["kafka-1:9092", "kafka-2:9092"]

[scheduler]
enabled = true
orphan_sweep_interval = "2m"
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_123", cfg.Stripe.SecretKey)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "storefront.domain-events", cfg.Kafka.Topic)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.OrphanSweepInterval)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"idle above open", func(c *Config) { c.Database.MaxIdleConns = 100 }, "max_idle_conns"},
		{"bad currency", func(c *Config) { c.App.Currency = "EURO" }, "app.currency"},
		{"unknown email provider", func(c *Config) { c.Email.Provider = "smtp" }, "email.provider"},
		{"http email without url", func(c *Config) { c.Email.Provider = "http" }, "email.base_url"},
		{"backoff base above cap", func(c *Config) { c.Email.BackoffBase = 2 * time.Hour }, "backoff_base"},
		{"kafka without brokers", func(c *Config) { c.Kafka.Enabled = true }, "kafka.brokers"},
		{"sampling ratio", func(c *Config) { c.Telemetry.SamplingRatio = 2 }, "sampling_ratio"},
		{"production short secret", func(c *Config) { c.App.Env = "production"; c.JWT.Secret = "short" }, "jwt.secret"},
		{"production complete", func(c *Config) {
			c.App.Env = "production"
			c.JWT.Secret = strings.Repeat("s", 32)
			c.Database.Password = "pw"
			c.Database.SSLMode = "require"
			c.Stripe.SecretKey = "sk"
			c.Stripe.WebhookSecret = "whsec"
			c.Shipping.WebhookSecret = "ship"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "shop", Password: "p@ss word", DBName: "storefront", SSLMode: "disable"}
	assert.Equal(t, "postgres://shop:p%40ss%20word@db:5432/storefront?sslmode=disable", d.DSN())
}
