package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// CheckoutConfig carries the tunables the checkout core reads once per call.
type CheckoutConfig struct {
	DefaultCategoryCode      string        `mapstructure:"defaultCategoryCode"`
	DefaultCommissionPercent string        `mapstructure:"defaultCommissionPercent"`
	LockTimeout              time.Duration `mapstructure:"lockTimeout"`
	StatementTimeout         time.Duration `mapstructure:"statementTimeout"`
	ReplayCacheTTL           time.Duration `mapstructure:"replayCacheTTL"`
}

// CommissionPercent returns the fallback commission percent as a decimal.
func (c CheckoutConfig) CommissionPercent() decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(c.DefaultCommissionPercent))
	if err != nil {
		return decimal.NewFromInt(10)
	}
	return v
}

func DefaultCheckoutConfig() CheckoutConfig {
	return CheckoutConfig{
		DefaultCategoryCode:      "PASIEN",
		DefaultCommissionPercent: "10",
		LockTimeout:              5 * time.Second,
		StatementTimeout:         20 * time.Second,
		ReplayCacheTTL:           24 * time.Hour,
	}
}

type CheckoutConfigHolder struct {
	current atomic.Value // holds CheckoutConfig
}

// NewStaticCheckoutConfigHolder wraps a fixed config, used by tests and tools.
func NewStaticCheckoutConfigHolder(cfg CheckoutConfig) *CheckoutConfigHolder {
	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewCheckoutConfigHolder() (*CheckoutConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("checkout")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/kasir")
	v.AddConfigPath(".")

	v.SetEnvPrefix("KASIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCheckoutConfig()
	v.SetDefault("checkout.defaultCategoryCode", defaults.DefaultCategoryCode)
	v.SetDefault("checkout.defaultCommissionPercent", defaults.DefaultCommissionPercent)
	v.SetDefault("checkout.lockTimeout", defaults.LockTimeout)
	v.SetDefault("checkout.statementTimeout", defaults.StatementTimeout)
	v.SetDefault("checkout.replayCacheTTL", defaults.ReplayCacheTTL)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg CheckoutConfig
	if err := v.UnmarshalKey("checkout", &cfg); err != nil {
		return nil, err
	}
	if err := validateCheckoutConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CheckoutConfigHolder{}
	holder.current.Store(cfg)

	if fileLoaded {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			var updated CheckoutConfig
			if err := v.UnmarshalKey("checkout", &updated); err != nil {
				log.Printf("[checkout-config] reload failed: %v", err)
				return
			}
			if err := validateCheckoutConfig(updated); err != nil {
				log.Printf("[checkout-config] invalid config ignored: %v", err)
				return
			}
			holder.current.Store(updated)
			log.Printf("[checkout-config] reloaded from %s", e.Name)
		})
	}

	return holder, nil
}

func (h *CheckoutConfigHolder) Get() CheckoutConfig {
	return h.current.Load().(CheckoutConfig)
}

func validateCheckoutConfig(cfg CheckoutConfig) error {
	if strings.TrimSpace(cfg.DefaultCategoryCode) == "" {
		return errors.New("checkout.defaultCategoryCode cannot be empty")
	}
	percent, err := decimal.NewFromString(strings.TrimSpace(cfg.DefaultCommissionPercent))
	if err != nil {
		return errors.New("checkout.defaultCommissionPercent must be a decimal")
	}
	if percent.IsNegative() || percent.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("checkout.defaultCommissionPercent must be between 0 and 100")
	}
	if cfg.LockTimeout < 0 || cfg.StatementTimeout < 0 {
		return errors.New("checkout timeouts cannot be negative")
	}
	return nil
}
