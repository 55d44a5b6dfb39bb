package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is populated from the environment. The two JWT secrets are the
// only required settings; everything else has a development default.
type Config struct {
	AccessSecret  string `env:"PORTAL_ACCESS_SECRET,required"`
	RefreshSecret string `env:"PORTAL_REFRESH_SECRET,required"`
	Issuer        string `env:"PORTAL_ISSUER" envDefault:"opsportal"`

	AccessTTL  time.Duration `env:"PORTAL_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"PORTAL_REFRESH_TTL" envDefault:"168h"`

	DatabaseFile string `env:"PORTAL_DATABASE_FILE" envDefault:"portal.db"`

	// Seed admin created on first boot when the users table is empty.
	AdminEmail    string `env:"PORTAL_ADMIN_EMAIL" envDefault:"admin@opsportal.local"`
	AdminName     string `env:"PORTAL_ADMIN_NAME" envDefault:"Administrator"`
	AdminPassword string `env:"PORTAL_ADMIN_PASSWORD"`

	FanoutWidth        int           `env:"PORTAL_FANOUT_WIDTH" envDefault:"8"`
	FanoutWriteTimeout time.Duration `env:"PORTAL_FANOUT_WRITE_TIMEOUT" envDefault:"5s"`

	Env                 string        `env:"ENV" envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT" envDefault:"json"`
	Port                int           `env:"PORT" envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	// SecureCookies should be on anywhere TLS terminates in front of the
	// service; off only for local development over plain HTTP.
	SecureCookies bool `env:"PORTAL_SECURE_COOKIES" envDefault:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.AccessSecret == c.RefreshSecret {
		return errors.New("config: access and refresh secrets must differ")
	}
	if len(c.AccessSecret) < 32 || len(c.RefreshSecret) < 32 {
		return errors.New("config: JWT secrets must be at least 32 bytes")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= c.AccessTTL {
		return errors.New("config: refresh TTL must exceed access TTL")
	}
	return nil
}
