package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every variable, e.g. FULFILLMENT_HTTP_PORT.
const EnvPrefix = "FULFILLMENT"

type Config struct {
	HTTPPort     string `envconfig:"HTTP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	EchoLogLevel string `envconfig:"ECHO_LOG_LEVEL" default:"warn"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSslMode  string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisURL string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	StripeAPIKey      string        `envconfig:"STRIPE_API_KEY" required:"true"`
	StripeEnvironment string        `envconfig:"STRIPE_ENV" default:"test"`
	StripeCurrency    string        `envconfig:"STRIPE_CURRENCY" default:"usd"`
	SideEffectLockTTL time.Duration `envconfig:"SIDE_EFFECT_LOCK_TTL" default:"30s"`

	GoogleRoutesAPIKey  string `envconfig:"GOOGLE_ROUTES_API_KEY" required:"true"`
	GoogleRoutesBaseURL string `envconfig:"GOOGLE_ROUTES_BASE_URL"`

	BaseFee       string  `envconfig:"BASE_FEE" default:"3.99"`
	MinimumFee    string  `envconfig:"MINIMUM_FEE" default:"0"`
	UrbanSpeedMPH float64 `envconfig:"URBAN_SPEED_MPH" default:"25"`

	RetryMaxAttempts     int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"5"`
	RetryInitialInterval time.Duration `envconfig:"RETRY_INITIAL_INTERVAL" default:"20ms"`
	RetryMaxInterval     time.Duration `envconfig:"RETRY_MAX_INTERVAL" default:"500ms"`

	ReconcileSchedule string `envconfig:"RECONCILE_SCHEDULE" default:"0 * * * * *"`
	ReconcileBatch    int    `envconfig:"RECONCILE_BATCH" default:"50"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// LoadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func LoadConfig(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.ReconcileBatch < 1 {
		return Config{}, fmt.Errorf("parsing config: %s_RECONCILE_BATCH must be positive", EnvPrefix)
	}
	// A losing optimistic write is only reported as a domain error on a
	// re-read, which takes a second attempt.
	if cfg.RetryMaxAttempts < 2 {
		return Config{}, fmt.Errorf("parsing config: %s_RETRY_MAX_ATTEMPTS must be at least 2", EnvPrefix)
	}
	return cfg, nil
}

// DSN is the libpq connection string used by both gorm and the change feed
// listener.
func (c Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     c.DBHost + ":" + c.DBPort,
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.DBSslMode}}.Encode(),
	}
	return u.String()
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("0.0.0.0:%s", c.HTTPPort)
}
