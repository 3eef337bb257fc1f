package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppName    string `mapstructure:"APP_NAME"`
	AppVersion string `mapstructure:"APP_VERSION"`
	Port       int    `mapstructure:"PORT"`
	// GlobalPrefix is the path prefix of every API route, without slashes.
	GlobalPrefix string `mapstructure:"GLOBAL_PREFIX"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	DBType          string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN             string `mapstructure:"DSN"`
	SkipAutoMigrate bool   `mapstructure:"SKIP_AUTO_MIGRATE"`

	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTExpiresIn time.Duration `mapstructure:"JWT_EXPIRES_IN"`
	JWTIssuer    string        `mapstructure:"JWT_ISSUER"`
	JWTAudience  string        `mapstructure:"JWT_AUDIENCE"`
	BcryptRounds int           `mapstructure:"BCRYPT_ROUNDS"`

	CORSOrigin     string        `mapstructure:"CORS_ORIGIN"`
	RateLimitTTL   time.Duration `mapstructure:"RATE_LIMIT_TTL"`
	RateLimitLimit int           `mapstructure:"RATE_LIMIT_LIMIT"`
	// Failed password attempts allowed per email within LoginRateWindow.
	LoginRateLimit  int           `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindow time.Duration `mapstructure:"LOGIN_RATE_WINDOW"`
	// RedisURL switches rate limiting to Redis when set.
	RedisURL string `mapstructure:"REDIS_URL"`

	// Administrator seeded at startup when no admin exists.
	SAUser     string `mapstructure:"SA_USER"`
	SAPassword string `mapstructure:"SA_PASSWORD"`

	PolicyCombinator string `mapstructure:"POLICY_COMBINATOR"` // first_match, deny_overrides
	// PolicyFile holds extra YAML policies appended after the built-in set.
	PolicyFile string `mapstructure:"POLICY_FILE"`

	// PublicBaseURL prefixes public link URLs. Derived from PORT and
	// GLOBAL_PREFIX when empty.
	PublicBaseURL string `mapstructure:"PUBLIC_BASE_URL"`

	Environment       string  `mapstructure:"ENVIRONMENT"`
	OTLPEndpoint      string  `mapstructure:"OTLP_ENDPOINT"`
	TraceSamplingRate float64 `mapstructure:"TRACE_SAMPLING_RATE"`
	MetricsEnabled    bool    `mapstructure:"METRICS_ENABLED"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. It reports
// whether a file was read.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("APP_NAME", "notes-backend")
	viper.SetDefault("APP_VERSION", "1.0.0")
	viper.SetDefault("PORT", 3000)
	viper.SetDefault("GLOBAL_PREFIX", "api")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "notes.db")
	viper.SetDefault("SKIP_AUTO_MIGRATE", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("JWT_EXPIRES_IN", "1h")
	viper.SetDefault("JWT_ISSUER", "notes-backend")
	viper.SetDefault("JWT_AUDIENCE", "notes-app")
	viper.SetDefault("BCRYPT_ROUNDS", 12)
	viper.SetDefault("CORS_ORIGIN", "*")
	viper.SetDefault("RATE_LIMIT_TTL", "60s")
	viper.SetDefault("RATE_LIMIT_LIMIT", 100)
	viper.SetDefault("LOGIN_RATE_LIMIT", 5)
	viper.SetDefault("LOGIN_RATE_WINDOW", "15m")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("SA_USER", "")
	viper.SetDefault("SA_PASSWORD", "")
	viper.SetDefault("POLICY_COMBINATOR", "first_match")
	viper.SetDefault("POLICY_FILE", "")
	viper.SetDefault("PUBLIC_BASE_URL", "")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("OTLP_ENDPOINT", "")
	viper.SetDefault("TRACE_SAMPLING_RATE", 1.0)
	viper.SetDefault("METRICS_ENABLED", true)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.GlobalPrefix = strings.Trim(cfg.GlobalPrefix, "/")
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
		if cfg.GlobalPrefix != "" {
			cfg.PublicBaseURL += "/" + cfg.GlobalPrefix
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("config: JWT_SECRET is required"))
	}
	if c.JWTExpiresIn <= 0 {
		errs = append(errs, errors.New("config: JWT_EXPIRES_IN must be positive"))
	}
	if c.RateLimitLimit <= 0 || c.RateLimitTTL <= 0 {
		errs = append(errs, errors.New("config: RATE_LIMIT_LIMIT and RATE_LIMIT_TTL must be positive"))
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		errs = append(errs, errors.New("config: LOGIN_RATE_LIMIT and LOGIN_RATE_WINDOW must be positive"))
	}
	if (c.SAUser == "") != (c.SAPassword == "") {
		errs = append(errs, errors.New("config: SA_USER and SA_PASSWORD must be set together"))
	}
	if c.TraceSamplingRate < 0 || c.TraceSamplingRate > 1 {
		errs = append(errs, errors.New("config: TRACE_SAMPLING_RATE must be between 0 and 1"))
	}
	return errors.Join(errs...)
}
