// Package config provides application configuration loaded from environment variables.
// Use the package-level Get() function to obtain the singleton Config instance.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sub-config structs
// ──────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        // e.g. "8800"
	Env             string        // "development" | "production"
	ReadTimeout     time.Duration // default 10s
	WriteTimeout    time.Duration // default 10s
	AdminAllowedIPs string        // comma-separated IPs; "" = allow all
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	DSN             string        // full postgres DSN
	MaxOpenConns    int           // default 25
	MaxIdleConns    int           // default 10
	ConnMaxLifetime time.Duration // default 5m
}

// JWTConfig holds JWT signing settings.
type JWTConfig struct {
	Secret string        // must be set
	TTL    time.Duration // default 720h (30 days); dev tokens are long-lived
}

// TradingConfig holds outcome-level trading defaults applied at event
// creation when the request leaves them unset.
type TradingConfig struct {
	MinPledge                float64 // default 10
	MaxPledge                float64 // default 1000
	MaxLeverage              float64 // default 10
	MinCashProportionForPool float64 // default 0.22
	StartingWager            float64 // pool seed per outcome, default 350
	PayoutTaxRate            float64 // cut on winner profit shares, default 0.02
}

// WalletConfig holds the starting balances seeded for dev-provisioned users.
type WalletConfig struct {
	SeedTopup  float64 // default 1000
	SeedProfit float64 // default 0
	SeedBonus  float64 // default 10
}

// SchedulerConfig holds background loop settings.
type SchedulerConfig struct {
	AutoCloseInterval time.Duration // default 15s; 0 disables the loop
}

// ──────────────────────────────────────────────────────────────────────────────
// Top-level Config
// ──────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object for the entire application.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	Trading   TradingConfig
	Wallet    WalletConfig
	Scheduler SchedulerConfig
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Server.Env == "production"
}

// Validate checks that all required configuration values are present and valid.
// Returns the first validation error encountered.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET must be set"))
	}

	if c.IsProd() && c.DB.DSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must be set in production"))
	}

	if c.Trading.PayoutTaxRate < 0 || c.Trading.PayoutTaxRate >= 1 {
		errs = append(errs, fmt.Errorf(
			"TRADING_PAYOUT_TAX_RATE must be in [0, 1), got %.4f", c.Trading.PayoutTaxRate))
	}
	if c.Trading.MaxLeverage < 1 {
		errs = append(errs, fmt.Errorf(
			"TRADING_MAX_LEVERAGE must be at least 1, got %.2f", c.Trading.MaxLeverage))
	}
	if c.Trading.MinPledge <= 0 {
		errs = append(errs, fmt.Errorf(
			"TRADING_MIN_PLEDGE must be positive, got %.2f", c.Trading.MinPledge))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, loading it once from environment variables.
// Panics if loading fails — call this early in main() to catch misconfigurations
// at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads and validates configuration. Intended for use in main().
// Panics on any error so misconfiguration is caught immediately at boot.
func MustLoad() *Config {
	cfg := Get()
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: validation failed: %v", err))
	}
	return cfg
}

// ──────────────────────────────────────────────────────────────────────────────
// Internal loader
// ──────────────────────────────────────────────────────────────────────────────

func load() (*Config, error) {
	cfg := &Config{}

	// ── Server ────────────────────────────────────────────────────────────────
	cfg.Server = ServerConfig{
		Port:            getEnv("SERVER_PORT", "8800"),
		Env:             getEnv("ENVIRONMENT", "development"),
		ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
		AdminAllowedIPs: getEnv("ADMIN_ALLOWED_IPS", ""),
	}

	// ── Database ──────────────────────────────────────────────────────────────
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		// Build DSN from individual components for convenience in dev
		dsn = fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			getEnv("DB_HOST", "localhost"),
			getEnv("DB_PORT", "5432"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", ""),
			getEnv("DB_NAME", "predyx_exchange"),
			getEnv("DB_SSLMODE", "disable"),
		)
	}

	maxOpen, err := getInt("DB_MAX_OPEN_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_OPEN_CONNS: %w", err)
	}
	maxIdle, err := getInt("DB_MAX_IDLE_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("DB_MAX_IDLE_CONNS: %w", err)
	}

	cfg.DB = DBConfig{
		DSN:             dsn,
		MaxOpenConns:    maxOpen,
		MaxIdleConns:    maxIdle,
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	// ── JWT ───────────────────────────────────────────────────────────────────
	cfg.JWT = JWTConfig{
		Secret: getEnv("JWT_SECRET", ""),
		TTL:    getDuration("JWT_TTL", 30*24*time.Hour),
	}

	// ── Trading defaults ──────────────────────────────────────────────────────
	minPledge, err := getFloat("TRADING_MIN_PLEDGE", 10)
	if err != nil {
		return nil, fmt.Errorf("TRADING_MIN_PLEDGE: %w", err)
	}
	maxPledge, err := getFloat("TRADING_MAX_PLEDGE", 1000)
	if err != nil {
		return nil, fmt.Errorf("TRADING_MAX_PLEDGE: %w", err)
	}
	maxLeverage, err := getFloat("TRADING_MAX_LEVERAGE", 10)
	if err != nil {
		return nil, fmt.Errorf("TRADING_MAX_LEVERAGE: %w", err)
	}
	minCash, err := getFloat("TRADING_MIN_CASH_PROPORTION", 0.22)
	if err != nil {
		return nil, fmt.Errorf("TRADING_MIN_CASH_PROPORTION: %w", err)
	}
	startingWager, err := getFloat("TRADING_STARTING_WAGER", 350)
	if err != nil {
		return nil, fmt.Errorf("TRADING_STARTING_WAGER: %w", err)
	}
	payoutTax, err := getFloat("TRADING_PAYOUT_TAX_RATE", 0.02)
	if err != nil {
		return nil, fmt.Errorf("TRADING_PAYOUT_TAX_RATE: %w", err)
	}

	cfg.Trading = TradingConfig{
		MinPledge:                minPledge,
		MaxPledge:                maxPledge,
		MaxLeverage:              maxLeverage,
		MinCashProportionForPool: minCash,
		StartingWager:            startingWager,
		PayoutTaxRate:            payoutTax,
	}

	// ── Wallet seeds ──────────────────────────────────────────────────────────
	seedTopup, err := getFloat("WALLET_SEED_TOPUP", 1000)
	if err != nil {
		return nil, fmt.Errorf("WALLET_SEED_TOPUP: %w", err)
	}
	seedProfit, err := getFloat("WALLET_SEED_PROFIT", 0)
	if err != nil {
		return nil, fmt.Errorf("WALLET_SEED_PROFIT: %w", err)
	}
	seedBonus, err := getFloat("WALLET_SEED_BONUS", 10)
	if err != nil {
		return nil, fmt.Errorf("WALLET_SEED_BONUS: %w", err)
	}

	cfg.Wallet = WalletConfig{
		SeedTopup:  seedTopup,
		SeedProfit: seedProfit,
		SeedBonus:  seedBonus,
	}

	// ── Scheduler ─────────────────────────────────────────────────────────────
	cfg.Scheduler = SchedulerConfig{
		AutoCloseInterval: getDuration("SCHEDULER_AUTOCLOSE_INTERVAL", 15*time.Second),
	}

	return cfg, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helper functions
// ──────────────────────────────────────────────────────────────────────────────

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", v)
	}
	return f, nil
}

// getDuration parses an env var as a Go duration string (e.g. "15m", "2s").
// Falls back to defaultVal if the variable is unset or empty.
func getDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Fall back to default; do not crash on parse error
		return defaultVal
	}
	return d
}
