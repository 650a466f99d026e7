// Package config loads the bot configuration from YAML.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Catalog struct {
		CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
	} `yaml:"catalog"`

	Booking struct {
		MaxActivePerUser int `yaml:"max_active_per_user"`
		CancelLeadHours  int `yaml:"cancel_lead_hours"`
	} `yaml:"booking"`

	Flood struct {
		PerMinuteLimit        int `yaml:"per_minute_limit"`
		PerHourLimit          int `yaml:"per_hour_limit"`
		BlockMinutes          int `yaml:"block_minutes"`
		SessionTimeoutMinutes int `yaml:"session_timeout_minutes"`
		SweepIntervalMinutes  int `yaml:"sweep_interval_minutes"`
	} `yaml:"flood"`

	Reminders struct {
		IntervalMinutes int     `yaml:"interval_minutes"`
		SendRate        float64 `yaml:"send_rate"`
		SendBurst       int     `yaml:"send_burst"`
	} `yaml:"reminders"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Admins []int64 `yaml:"admins"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/salonbot.db"
	}
	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) MaxActivePerUser() int {
	if c.Booking.MaxActivePerUser <= 0 {
		return 3
	}
	return c.Booking.MaxActivePerUser
}

func (c *Config) CancelLead() time.Duration {
	if c.Booking.CancelLeadHours <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.Booking.CancelLeadHours) * time.Hour
}

func (c *Config) FloodPerMinute() int {
	if c.Flood.PerMinuteLimit <= 0 {
		return 30
	}
	return c.Flood.PerMinuteLimit
}

func (c *Config) FloodPerHour() int {
	if c.Flood.PerHourLimit <= 0 {
		return 200
	}
	return c.Flood.PerHourLimit
}

func (c *Config) FloodBlock() time.Duration {
	if c.Flood.BlockMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.Flood.BlockMinutes) * time.Minute
}

func (c *Config) SessionTimeout() time.Duration {
	if c.Flood.SessionTimeoutMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Flood.SessionTimeoutMinutes) * time.Minute
}

func (c *Config) FloodSweepInterval() time.Duration {
	if c.Flood.SweepIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Flood.SweepIntervalMinutes) * time.Minute
}

func (c *Config) ReminderInterval() time.Duration {
	if c.Reminders.IntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Reminders.IntervalMinutes) * time.Minute
}

func (c *Config) CatalogCacheTTL() time.Duration {
	return time.Duration(c.Catalog.CacheTTLSeconds) * time.Second
}

// IsAdmin reports whether the caller is a configured operator.
func (c *Config) IsAdmin(callerID int64) bool {
	for _, id := range c.Admins {
		if id == callerID {
			return true
		}
	}
	return false
}
