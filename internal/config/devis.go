package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DevisConfig holds the business settings of the quote editor.
type DevisConfig struct {
	// CatalogPath overrides the embedded services catalog when set.
	CatalogPath      string          `mapstructure:"catalogPath"`
	StandardTaxRates []float64       `mapstructure:"standardTaxRates"`
	SessionTTL       time.Duration   `mapstructure:"sessionTTL"`
	CatalogCacheTTL  time.Duration   `mapstructure:"catalogCacheTTL"`
	RateLimit        RateLimitConfig `mapstructure:"rateLimit"`
}

type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"perSecond"`
	Burst     int     `mapstructure:"burst"`
}

func DefaultDevisConfig() DevisConfig {
	return DevisConfig{
		StandardTaxRates: []float64{0, 5.5, 10, 20},
		SessionTTL:       30 * time.Minute,
		CatalogCacheTTL:  10 * time.Minute,
		RateLimit: RateLimitConfig{
			PerSecond: 10,
			Burst:     20,
		},
	}
}

type DevisConfigHolder struct {
	current atomic.Value // holds DevisConfig
}

// NewDevisConfigHolder reads devis.yml and keeps it current while the file
// changes on disk. A missing file yields the defaults.
func NewDevisConfigHolder(log *zap.Logger) (*DevisConfigHolder, error) {
	log = log.Named("devis-config")
	v := viper.New()

	v.SetConfigName("devis")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/devis")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DEVIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDevisConfig()
	v.SetDefault("devis.catalogPath", defaults.CatalogPath)
	v.SetDefault("devis.standardTaxRates", defaults.StandardTaxRates)
	v.SetDefault("devis.sessionTTL", defaults.SessionTTL)
	v.SetDefault("devis.catalogCacheTTL", defaults.CatalogCacheTTL)
	v.SetDefault("devis.rateLimit.perSecond", defaults.RateLimit.PerSecond)
	v.SetDefault("devis.rateLimit.burst", defaults.RateLimit.Burst)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileFound = false
	}

	var cfg DevisConfig
	if err := v.UnmarshalKey("devis", &cfg); err != nil {
		return nil, err
	}
	if err := validateDevisConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticDevisConfigHolder(cfg)
	if !fileFound {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DevisConfig
		if err := v.UnmarshalKey("devis", &updated); err != nil {
			log.Warn("reload failed", zap.Error(err))
			return
		}
		if err := validateDevisConfig(updated); err != nil {
			log.Warn("invalid config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticDevisConfigHolder wraps a fixed configuration.
func NewStaticDevisConfigHolder(cfg DevisConfig) *DevisConfigHolder {
	holder := &DevisConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *DevisConfigHolder) Get() DevisConfig {
	if h == nil {
		return DefaultDevisConfig()
	}
	cfg, ok := h.current.Load().(DevisConfig)
	if !ok {
		return DefaultDevisConfig()
	}
	return cfg
}

func validateDevisConfig(cfg DevisConfig) error {
	if len(cfg.StandardTaxRates) == 0 {
		return errors.New("devis.standardTaxRates cannot be empty")
	}
	for _, r := range cfg.StandardTaxRates {
		if r < 0 {
			return errors.New("devis.standardTaxRates cannot contain negative rates")
		}
	}
	if cfg.SessionTTL <= 0 {
		return errors.New("devis.sessionTTL must be positive")
	}
	if cfg.RateLimit.PerSecond <= 0 || cfg.RateLimit.Burst <= 0 {
		return errors.New("devis.rateLimit must be positive")
	}
	return nil
}
