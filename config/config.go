// Package config loads and validates the server configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/attendance-engine/payroll"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Payroll  PayrollConfig  `yaml:"payroll"`
	Auth     AuthConfig     `yaml:"auth"`
	Company  CompanyConfig  `yaml:"company"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig holds the SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// PayrollConfig pins the payroll calendar. Every punch and period
// computation happens in this timezone; the anchor is a known fortnight
// start that all period boundaries derive from.
type PayrollConfig struct {
	Timezone   string `yaml:"timezone"`
	AnchorDate string `yaml:"anchor_date"`

	Location *time.Location `yaml:"-"`
	Anchor   payroll.Date   `yaml:"-"`
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret      string        `yaml:"secret"`
	TokenTTLRaw string        `yaml:"token_ttl"`
	TokenTTL    time.Duration `yaml:"-"`
}

// CompanyConfig holds the issuing company's invoice details.
type CompanyConfig struct {
	Name        string `yaml:"name"`
	ABN         string `yaml:"abn"`
	Email       string `yaml:"email"`
	Telephone   string `yaml:"telephone"`
	Address     string `yaml:"address"`
	Description string `yaml:"description"`
}

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "./data/attendance.db"

	// A fixed-offset zone. Period and shift-window math assumes the
	// payroll zone has no DST transitions.
	defaultTimezone = "Australia/Brisbane"

	// A known fortnight-start Monday.
	defaultAnchorDate = "2025-01-06"

	defaultTokenTTL = 12 * time.Hour
)

// Load reads and validates the configuration file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with every field at its default. Used
// when no config file is given.
func Default() (*Config, error) {
	var cfg Config
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaultListenAddr
	}
	if c.Database.Path == "" {
		c.Database.Path = defaultDBPath
	}
	if err := c.Payroll.validateAndNormalize(); err != nil {
		return err
	}
	if err := c.Auth.validateAndNormalize(); err != nil {
		return err
	}
	return nil
}

func (p *PayrollConfig) validateAndNormalize() error {
	if p.Timezone == "" {
		p.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return fmt.Errorf("config: payroll.timezone: %w", err)
	}
	p.Location = loc

	if p.AnchorDate == "" {
		p.AnchorDate = defaultAnchorDate
	}
	anchor, err := payroll.ParseDate(p.AnchorDate)
	if err != nil {
		return fmt.Errorf("config: payroll.anchor_date: %w", err)
	}
	if anchor.Weekday() != time.Monday {
		return fmt.Errorf("config: payroll.anchor_date %s is not a Monday", p.AnchorDate)
	}
	p.Anchor = anchor

	return nil
}

func (a *AuthConfig) validateAndNormalize() error {
	if a.TokenTTLRaw == "" {
		a.TokenTTL = defaultTokenTTL
		return nil
	}
	ttl, err := time.ParseDuration(a.TokenTTLRaw)
	if err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("config: auth.token_ttl must be positive")
	}
	a.TokenTTL = ttl
	return nil
}

// Calendar builds the payroll calendar from the normalized settings.
func (p PayrollConfig) Calendar() payroll.Calendar {
	return payroll.NewCalendar(p.Anchor, p.Location)
}
