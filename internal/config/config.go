// Package config loads the chargewatch configuration from a YAML file, with
// environment overrides for secrets so credentials stay out of the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values like "5m" parse directly.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the full configuration surface.
type Config struct {
	AccountLabel string   `yaml:"account_label"`
	Timezone     string   `yaml:"timezone"`
	Schedule     string   `yaml:"schedule"`
	RunTimeout   Duration `yaml:"run_timeout"`
	Stripe       Stripe   `yaml:"stripe"`
	Asana        Asana    `yaml:"asana"`
	Mail         Mail     `yaml:"mail"`
}

// Stripe configures the billing-provider client.
type Stripe struct {
	APIKey    string `yaml:"api_key"`
	PageLimit int    `yaml:"page_limit"`
}

// Asana configures the task-tracking client.
type Asana struct {
	Token      string `yaml:"token"`
	ProjectID  string `yaml:"project_id"`
	AssigneeID string `yaml:"assignee_id"`
	DueInDays  int    `yaml:"due_in_days"`
}

// Mail configures SMTP delivery and the notification template.
type Mail struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
	ReplyTo      string `yaml:"reply_to"`
	Subject      string `yaml:"subject"`
	BodyTemplate string `yaml:"body_template"`
}

// Load reads, defaults, overrides, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.AccountLabel == "" {
		c.AccountLabel = "default"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Schedule == "" {
		// Monday 09:00 in the reference timezone.
		c.Schedule = "0 9 * * 1"
	}
	if c.RunTimeout <= 0 {
		c.RunTimeout = Duration(5 * time.Minute)
	}
	if c.Stripe.PageLimit <= 0 {
		c.Stripe.PageLimit = 100
	}
	if c.Asana.DueInDays <= 0 {
		c.Asana.DueInDays = 3
	}
	if c.Mail.Port <= 0 {
		c.Mail.Port = 587
	}
	if c.Mail.Subject == "" {
		c.Mail.Subject = "Dispute risk report {{start}} to {{end}}"
	}
	if c.Mail.BodyTemplate == "" {
		c.Mail.BodyTemplate = "The weekly dispute risk report covering {{start}} through {{end}} is attached."
	}
}

// applyEnv lets secrets come from the environment instead of the file; the
// environment wins when both are set.
func (c *Config) applyEnv() {
	if v := os.Getenv("STRIPE_API_KEY"); v != "" {
		c.Stripe.APIKey = v
	}
	if v := os.Getenv("ASANA_TOKEN"); v != "" {
		c.Asana.Token = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.Mail.Password = v
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	require := func(value, name string) {
		if value == "" {
			errs = append(errs, fmt.Errorf("config: %s is required", name))
		}
	}
	require(c.Stripe.APIKey, "stripe.api_key (or STRIPE_API_KEY)")
	require(c.Asana.Token, "asana.token (or ASANA_TOKEN)")
	require(c.Asana.ProjectID, "asana.project_id")
	require(c.Mail.Host, "mail.host")
	require(c.Mail.From, "mail.from")
	require(c.Mail.To, "mail.to")
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("config: unknown timezone %q", c.Timezone))
	}
	return errors.Join(errs...)
}

// Location resolves the reference timezone for window and schedule math.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
