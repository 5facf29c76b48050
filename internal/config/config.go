package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"SignalDesk/internal/recipient"
)

// Config holds all application configuration.
type Config struct {
	Broker struct {
		Kind             string `yaml:"kind"` // yahoo | rest | mock
		BaseURL          string `yaml:"base_url"`
		APIKey           string `yaml:"api_key"`
		PaperTrading     bool   `yaml:"paper_trading"`
		RegularHoursOnly bool   `yaml:"regular_hours_only"`
	} `yaml:"broker"`
	Strategy struct {
		Type           string   `yaml:"type"`
		TradeSymbols   []string `yaml:"trade_symbols"`
		SharesPerTrade int64    `yaml:"shares_per_trade"`
	} `yaml:"strategy"`
	Scanner struct {
		Symbols          []string `yaml:"symbols"`
		MarketIndicators []string `yaml:"market_indicators"`
	} `yaml:"scanner"`
	Schedule struct {
		ReportTimes []string `yaml:"report_times"`
		TickCron    string   `yaml:"tick_cron"`
		Timezone    string   `yaml:"timezone"`
	} `yaml:"schedule"`
	Recipients struct {
		StoreFile           string `yaml:"store_file"`
		OwnerID             string `yaml:"owner_id"`
		MinFrequencyMinutes int    `yaml:"min_frequency_minutes"`
	} `yaml:"recipients"`
	Notifications struct {
		Methods  []string `yaml:"methods"`
		Telegram struct {
			BotToken string `yaml:"bot_token"`
			ChatID   string `yaml:"chat_id"`
		} `yaml:"telegram"`
		Email struct {
			SMTPHost string `yaml:"smtp_host"`
			SMTPPort int    `yaml:"smtp_port"`
			From     string `yaml:"from"`
			To       string `yaml:"to"`
			Password string `yaml:"password"`
		} `yaml:"email"`
		WhatsApp struct {
			AccountSID string `yaml:"account_sid"`
			AuthToken  string `yaml:"auth_token"`
			From       string `yaml:"from"`
			To         string `yaml:"to"`
		} `yaml:"whatsapp"`
	} `yaml:"notifications"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Reports struct {
		Dir string `yaml:"dir"`
	} `yaml:"reports"`
	History struct {
		Length int `yaml:"length"`
	} `yaml:"history"`
	Metrics struct {
		Listen string `yaml:"listen"`
	} `yaml:"metrics"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.Broker.PaperTrading = true
	cfg.Broker.RegularHoursOnly = true

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("BROKER_KIND", &cfg.Broker.Kind)
	setString("BROKER_BASE_URL", &cfg.Broker.BaseURL)
	setString("BROKER_API_KEY", &cfg.Broker.APIKey)
	setString("HTTPS_PROXY", &cfg.Proxy)
	setString("SMA_STRATEGY_TYPE", &cfg.Strategy.Type)
	setString("TELEGRAM_BOT_TOKEN", &cfg.Notifications.Telegram.BotToken)
	setString("TELEGRAM_CHAT_ID", &cfg.Notifications.Telegram.ChatID)
	setString("OWNER_CHAT_ID", &cfg.Recipients.OwnerID)
	setString("EMAIL_SMTP_HOST", &cfg.Notifications.Email.SMTPHost)
	setString("EMAIL_FROM", &cfg.Notifications.Email.From)
	setString("EMAIL_TO", &cfg.Notifications.Email.To)
	setString("EMAIL_PASSWORD", &cfg.Notifications.Email.Password)
	setString("TWILIO_ACCOUNT_SID", &cfg.Notifications.WhatsApp.AccountSID)
	setString("TWILIO_AUTH_TOKEN", &cfg.Notifications.WhatsApp.AuthToken)
	setString("TWILIO_WHATSAPP_FROM", &cfg.Notifications.WhatsApp.From)
	setString("TWILIO_WHATSAPP_TO", &cfg.Notifications.WhatsApp.To)
	setString("SQLITE_PATH", &cfg.Database.SQLitePath)
	setString("SCHEDULE_TIMEZONE", &cfg.Schedule.Timezone)
	setString("LOG_LEVEL", &cfg.Log.Level)

	if v := os.Getenv("PAPER_TRADING"); v != "" {
		cfg.Broker.PaperTrading = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SHARES_PER_TRADE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Strategy.SharesPerTrade = n
		}
	}
	if v := os.Getenv("EMAIL_SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Notifications.Email.SMTPPort = n
		}
	}
	if v := os.Getenv("HISTORY_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.Length = n
		}
	}
	if v := os.Getenv("NOTIFICATION_METHODS"); v != "" {
		cfg.Notifications.Methods = strings.Split(strings.ToLower(v), ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Broker.Kind == "" {
		if cfg.Broker.BaseURL != "" {
			cfg.Broker.Kind = "rest"
		} else {
			cfg.Broker.Kind = "yahoo"
		}
	}
	if cfg.Strategy.Type == "" {
		cfg.Strategy.Type = "position"
	}
	if len(cfg.Strategy.TradeSymbols) == 0 {
		cfg.Strategy.TradeSymbols = []string{"SPY", "QQQ", "AAPL", "MSFT"}
	}
	if cfg.Strategy.SharesPerTrade == 0 {
		cfg.Strategy.SharesPerTrade = 10
	}
	if len(cfg.Scanner.Symbols) == 0 {
		cfg.Scanner.Symbols = []string{"SPY", "QQQ", "AAPL", "MSFT", "GOOGL", "AMZN", "META", "NVDA", "TSLA", "MU"}
	}
	if cfg.Scanner.MarketIndicators == nil {
		cfg.Scanner.MarketIndicators = []string{"SPY", "QQQ"}
	}
	if len(cfg.Schedule.ReportTimes) == 0 {
		cfg.Schedule.ReportTimes = append([]string(nil), recipient.FallbackTimes...)
	}
	if cfg.Schedule.TickCron == "" {
		cfg.Schedule.TickCron = "0 * * * * *"
	}
	if cfg.Recipients.StoreFile == "" {
		cfg.Recipients.StoreFile = "data/recipients.json"
	}
	if cfg.Recipients.OwnerID == "" {
		cfg.Recipients.OwnerID = cfg.Notifications.Telegram.ChatID
	}
	if cfg.Recipients.MinFrequencyMinutes == 0 {
		cfg.Recipients.MinFrequencyMinutes = recipient.DefaultMinFrequency
	}
	if len(cfg.Notifications.Methods) == 0 {
		cfg.Notifications.Methods = []string{"telegram"}
	}
	if cfg.Notifications.Email.SMTPHost == "" {
		cfg.Notifications.Email.SMTPHost = "smtp.gmail.com"
	}
	if cfg.Notifications.Email.SMTPPort == 0 {
		cfg.Notifications.Email.SMTPPort = 587
	}
	if cfg.Notifications.WhatsApp.From == "" {
		cfg.Notifications.WhatsApp.From = "whatsapp:+14155238886"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/signaldesk.db"
	}
	if cfg.Reports.Dir == "" {
		cfg.Reports.Dir = "reports"
	}
	if cfg.History.Length == 0 {
		cfg.History.Length = 10
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Location resolves schedule.timezone. Empty means the local zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || strings.EqualFold(c.Schedule.Timezone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}

// HasMethod reports whether the notification method is enabled.
func (c *Config) HasMethod(method string) bool {
	for _, m := range c.Notifications.Methods {
		if strings.EqualFold(strings.TrimSpace(m), method) {
			return true
		}
	}
	return false
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	switch c.Broker.Kind {
	case "yahoo", "mock":
	case "rest":
		if c.Broker.BaseURL == "" {
			return fmt.Errorf("broker.base_url is required for the rest broker")
		}
	default:
		return fmt.Errorf("broker.kind %q is not supported", c.Broker.Kind)
	}
	if c.Strategy.SharesPerTrade <= 0 {
		return fmt.Errorf("strategy.shares_per_trade must be positive")
	}
	for _, t := range c.Schedule.ReportTimes {
		if !recipient.IsValidHHMM(t) {
			return fmt.Errorf("schedule.report_times: %q: %w", t, recipient.ErrInvalidTime)
		}
	}
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Schedule.TickCron); err != nil {
		return fmt.Errorf("schedule.tick_cron: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	if c.Recipients.MinFrequencyMinutes < 1 {
		return fmt.Errorf("recipients.min_frequency_minutes must be positive")
	}
	if c.History.Length < 0 {
		return fmt.Errorf("history.length must not be negative")
	}
	for _, m := range c.Notifications.Methods {
		switch strings.ToLower(strings.TrimSpace(m)) {
		case "telegram":
			if c.Notifications.Telegram.BotToken == "" {
				return fmt.Errorf("notifications.telegram.bot_token is required")
			}
		case "email":
			e := c.Notifications.Email
			if e.From == "" || e.Password == "" {
				return fmt.Errorf("notifications.email.from and password are required")
			}
		case "whatsapp":
			w := c.Notifications.WhatsApp
			if w.AccountSID == "" || w.AuthToken == "" {
				return fmt.Errorf("notifications.whatsapp.account_sid and auth_token are required")
			}
		case "log":
		default:
			return fmt.Errorf("notifications.methods: unknown method %q", m)
		}
	}
	return nil
}
