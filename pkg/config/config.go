package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "nearbuy"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "NEARBUY_APP_ENV"
	EnvDBDSN  = "NEARBUY_DB_DSN"
	EnvDBHost = "NEARBUY_DB_HOST"
	EnvDBUser = "NEARBUY_DB_USER"
	EnvDBName = "NEARBUY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Gateway   GatewayConfig
	Commerce  CommerceConfig
	RateLimit RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commerce.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEARBUY_APP_ENV" required:"true"`
	Port         string `envconfig:"NEARBUY_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NEARBUY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEARBUY_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"NEARBUY_APP_AUTO_MIGRATE" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"NEARBUY_DB_DSN"`
	Driver string `envconfig:"NEARBUY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEARBUY_DB_HOST"`
	LegacyPort     int    `envconfig:"NEARBUY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEARBUY_DB_USER"`
	LegacyPassword string `envconfig:"NEARBUY_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEARBUY_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEARBUY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEARBUY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEARBUY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEARBUY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEARBUY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"NEARBUY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEARBUY_REDIS_ADDR"`
	Password     string        `envconfig:"NEARBUY_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEARBUY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEARBUY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEARBUY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEARBUY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEARBUY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEARBUY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"NEARBUY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"NEARBUY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"NEARBUY_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig bounds per-user request rates on the authenticated API.
// A non-positive limit disables throttling.
type RateLimitConfig struct {
	Limit  int64         `envconfig:"NEARBUY_RATE_LIMIT" default:"120"`
	Window time.Duration `envconfig:"NEARBUY_RATE_LIMIT_WINDOW" default:"1m"`
}

// GatewayConfig configures the Razorpay-compatible payment gateway client.
type GatewayConfig struct {
	BaseURL       string        `envconfig:"NEARBUY_GATEWAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	KeyID         string        `envconfig:"NEARBUY_GATEWAY_KEY_ID" required:"true"`
	KeySecret     string        `envconfig:"NEARBUY_GATEWAY_KEY_SECRET" required:"true"`
	WebhookSecret string        `envconfig:"NEARBUY_GATEWAY_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"NEARBUY_GATEWAY_TIMEOUT" default:"10s"`
}

// CommissionBase selects whether platform commission applies to the
// pre-discount or post-discount merchandise subtotal.
type CommissionBase string

const (
	CommissionBasePreDiscount  CommissionBase = "pre_discount"
	CommissionBasePostDiscount CommissionBase = "post_discount"
)

// CommerceConfig carries the tunable business constants of the fulfillment
// and settlement engine.
type CommerceConfig struct {
	Currency           string         `envconfig:"NEARBUY_CURRENCY" default:"INR"`
	CommissionRate     string         `envconfig:"NEARBUY_COMMISSION_RATE" default:"0.05"`
	CommissionBase     CommissionBase `envconfig:"NEARBUY_COMMISSION_BASE" default:"post_discount"`
	ReturnWindow       time.Duration  `envconfig:"NEARBUY_RETURN_WINDOW" default:"168h"`
	DeliveryBaseFee    string         `envconfig:"NEARBUY_DELIVERY_BASE_FEE" default:"10"`
	DeliveryPerKmFee   string         `envconfig:"NEARBUY_DELIVERY_PER_KM_FEE" default:"1"`
	DeliveryFeeCapPct  string         `envconfig:"NEARBUY_DELIVERY_FEE_CAP_PCT" default:"0.5"`
	SettlementAutoDone bool           `envconfig:"NEARBUY_SETTLEMENT_AUTO_COMPLETE" default:"true"`
}

func (c *CommerceConfig) validate() error {
	for name, raw := range map[string]string{
		"commission rate":      c.CommissionRate,
		"delivery base fee":    c.DeliveryBaseFee,
		"delivery per-km fee":  c.DeliveryPerKmFee,
		"delivery fee cap pct": c.DeliveryFeeCapPct,
	} {
		if _, err := decimal.NewFromString(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	switch c.CommissionBase {
	case CommissionBasePreDiscount, CommissionBasePostDiscount:
	default:
		return fmt.Errorf("invalid commission base %q", c.CommissionBase)
	}
	return nil
}

// CommissionRateDecimal returns the parsed platform commission rate.
func (c CommerceConfig) CommissionRateDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.CommissionRate)
	return d
}

// DeliveryBaseFeeDecimal returns the parsed flat delivery fee component.
func (c CommerceConfig) DeliveryBaseFeeDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.DeliveryBaseFee)
	return d
}

// DeliveryPerKmFeeDecimal returns the parsed per-kilometer fee component.
func (c CommerceConfig) DeliveryPerKmFeeDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.DeliveryPerKmFee)
	return d
}

// DeliveryFeeCapPctDecimal returns the subtotal fraction capping the fee.
func (c CommerceConfig) DeliveryFeeCapPctDecimal() decimal.Decimal {
	d, _ := decimal.NewFromString(c.DeliveryFeeCapPct)
	return d
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
