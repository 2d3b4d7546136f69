package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type ServerConfig struct {
	Port int `toml:"port"`
}

type MailConfig struct {
	SiteDomain string `toml:"site_domain"`
	FromEmail  string `toml:"from_email"`
	FromName   string `toml:"from_name"`
}

type InboundConfig struct {
	Port     int  `toml:"port"`      // default 2525 to co-exist with a real MTA
	CatchAll bool `toml:"catch_all"` // accept mail for unknown local addresses
}

type RelayConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	Secure   bool   `toml:"secure"` // STARTTLS before AUTH
}

type StorageConfig struct {
	Path string `toml:"path"` // sqlite database file
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Mail    MailConfig    `toml:"mail"`
	Inbound InboundConfig `toml:"inbound"`
	Relay   RelayConfig   `toml:"relay"`
	Storage StorageConfig `toml:"storage"`
}

func LoadConfig(filepath string) (*Config, error) {
	var config Config

	// Set default values
	config.Server.Port = 3000
	config.Inbound.Port = 2525
	config.Relay.Port = 587
	config.Relay.Secure = true
	config.Storage.Path = "./data/mail.db"

	_, err := toml.DecodeFile(filepath, &config)
	if err != nil {
		return nil, err
	}

	if config.Mail.SiteDomain == "" {
		return nil, fmt.Errorf("mail.site_domain is required")
	}
	config.Mail.SiteDomain = strings.ToLower(config.Mail.SiteDomain)

	// If no explicit sender identity is set, derive one from the site domain
	if config.Mail.FromEmail == "" {
		config.Mail.FromEmail = "no-reply@" + config.Mail.SiteDomain
	}
	if config.Mail.FromName == "" {
		config.Mail.FromName = config.Mail.SiteDomain
	}

	return &config, nil
}

// Configured reports whether a relay endpoint is set up at all
func (c *RelayConfig) Configured() bool {
	return c.Host != ""
}

// Addr returns the relay host:port dial address
func (c *RelayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
