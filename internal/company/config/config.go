// Package config loads the company service settings from a YAML file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gartstein/companies/internal/company/models"
	"github.com/gartstein/companies/internal/company/notify"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath = "internal/company/config/config.yaml"
	// EnvConfigPath selects another config file.
	EnvConfigPath = "COMPANY_CONFIG"
)

// Config is the YAML configuration. Every key can be overridden by the
// environment variable of the same name (see envOverrides).
type Config struct {
	HTTPPort int    `yaml:"PORT"`
	GRPCPort int    `yaml:"GRPC_PORT"`
	Version  string `yaml:"APP_VERSION"`

	DBHost     string `yaml:"POSTGRES_HOST"`
	DBPort     int    `yaml:"POSTGRES_PORT"`
	DBUser     string `yaml:"POSTGRES_USER"`
	DBPassword string `yaml:"POSTGRES_PASSWORD"`
	DBName     string `yaml:"POSTGRES_DB"`
	DBSSLMode  string `yaml:"POSTGRES_SSLMODE"`
	DBLogging  bool   `yaml:"POSTGRES_LOGGING"`

	NotifyEmails []string `yaml:"NOTIFY_EMAILS"`
	MailHost     string   `yaml:"MAIL_HOST"`
	MailPort     int      `yaml:"MAIL_PORT"`
	MailUser     string   `yaml:"MAIL_USER"`
	MailPassword string   `yaml:"MAIL_PASSWORD"`
	MailFrom     string   `yaml:"MAIL_FROM"`
	MailSecure   bool     `yaml:"MAILER_SECURE"`
	Unsubscribe  string   `yaml:"MAIL_UNSUBSCRIBE"`

	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"KAFKA_TOPIC"`

	ClientURL string `yaml:"CLIENT_URL"`
	MaxLimit  int    `yaml:"MAX_LIMIT"`
}

// Load reads the file at path (if it exists), applies the environment
// overrides and defaults, then validates the result. An empty path means
// $COMPANY_CONFIG or DefaultPath.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath
	}

	cfg := &Config{}
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// environment only
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.loadDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadDefaults() {
	if c.HTTPPort == 0 {
		c.HTTPPort = 3000
	}
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.Version == "" {
		c.Version = "dev"
	}
	if c.DBPort == 0 {
		c.DBPort = 5432
	}
	if c.DBSSLMode == "" {
		c.DBSSLMode = "disable"
	}
	if c.MailPort == 0 {
		c.MailPort = 587
	}
	if c.Topic == "" {
		c.Topic = "company-events"
	}
	if c.MaxLimit <= 0 {
		c.MaxLimit = models.MaxLimit
	}
}

func (c *Config) loadEnv() error {
	strs := map[string]*string{
		"APP_VERSION":       &c.Version,
		"POSTGRES_HOST":     &c.DBHost,
		"POSTGRES_USER":     &c.DBUser,
		"POSTGRES_PASSWORD": &c.DBPassword,
		"POSTGRES_DB":       &c.DBName,
		"POSTGRES_SSLMODE":  &c.DBSSLMode,
		"MAIL_HOST":         &c.MailHost,
		"MAIL_USER":         &c.MailUser,
		"MAIL_PASSWORD":     &c.MailPassword,
		"MAIL_FROM":         &c.MailFrom,
		"MAIL_UNSUBSCRIBE":  &c.Unsubscribe,
		"KAFKA_TOPIC":       &c.Topic,
		"CLIENT_URL":        &c.ClientURL,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"PORT":          &c.HTTPPort,
		"GRPC_PORT":     &c.GRPCPort,
		"POSTGRES_PORT": &c.DBPort,
		"MAIL_PORT":     &c.MailPort,
		"MAX_LIMIT":     &c.MaxLimit,
	}
	for key, dst := range ints {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = n
		}
	}

	bools := map[string]*bool{
		"POSTGRES_LOGGING": &c.DBLogging,
		"MAILER_SECURE":    &c.MailSecure,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", key, v, err)
			}
			*dst = b
		}
	}

	if v := os.Getenv("NOTIFY_EMAILS"); v != "" {
		c.NotifyEmails = notify.ParseRecipients(v)
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.KafkaBrokers = splitList(v)
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	switch {
	case c.DBHost == "":
		return errors.New("POSTGRES_HOST required")
	case c.DBUser == "":
		return errors.New("POSTGRES_USER required")
	case c.DBName == "":
		return errors.New("POSTGRES_DB required")
	case len(c.NotifyEmails) == 0:
		return errors.New("NOTIFY_EMAILS required")
	case c.MailHost != "" && c.MailFrom == "":
		return errors.New("MAIL_FROM required when MAIL_HOST is set")
	case c.MaxLimit < models.DefaultLimit:
		return fmt.Errorf("MAX_LIMIT %d is below the default page size %d", c.MaxLimit, models.DefaultLimit)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
