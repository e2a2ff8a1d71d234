package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// Config holds all application configuration.
type Config struct {
	API struct {
		BaseURL string `yaml:"base_url"`
		Token   string `yaml:"token"`
		UserID  string `yaml:"user_id"`
		Mock    bool   `yaml:"mock"`
	} `yaml:"api"`
	Server struct {
		Addr        string   `yaml:"addr"`
		OpenBrowser bool     `yaml:"open_browser"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Watch struct {
		Metrics     []string `yaml:"metrics"`
		Range       string   `yaml:"range"`
		CheckCron   string   `yaml:"check_cron"`
		DigestCron  string   `yaml:"digest_cron"`
		MinSeverity string   `yaml:"min_severity"`
		StateFile   string   `yaml:"state_file"`
	} `yaml:"watch"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	MQTT struct {
		Broker      string `yaml:"broker"`
		ClientID    string `yaml:"client_id"`
		TopicPrefix string `yaml:"topic_prefix"`
	} `yaml:"mqtt"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// LoadDotEnv loads a .env file into the process environment if present.
// Variables already set are left alone.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("HEALTH_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("HEALTH_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
	if v := os.Getenv("HEALTH_USER_ID"); v != "" {
		cfg.API.UserID = v
	}
	if v := os.Getenv("HEALTH_API_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.API.Mock = b
		}
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("WATCH_METRICS"); v != "" {
		cfg.Watch.Metrics = splitList(v)
	}
	if v := os.Getenv("CRON_CHECK"); v != "" {
		cfg.Watch.CheckCron = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		cfg.MQTT.Broker = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}

	// Defaults
	if cfg.API.Mock && cfg.API.UserID == "" {
		cfg.API.UserID = "demo"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if len(cfg.Watch.Metrics) == 0 {
		for _, d := range metric.All() {
			cfg.Watch.Metrics = append(cfg.Watch.Metrics, string(d.ID))
		}
	}
	if cfg.Watch.Range == "" {
		cfg.Watch.Range = string(model.DefaultRange)
	}
	if cfg.Watch.CheckCron == "" {
		cfg.Watch.CheckCron = "0 */15 * * * *"
	}
	if cfg.Watch.DigestCron == "" {
		cfg.Watch.DigestCron = "0 0 20 * * *"
	}
	if cfg.Watch.MinSeverity == "" {
		cfg.Watch.MinSeverity = model.SeverityDanger.String()
	}
	if cfg.Watch.StateFile == "" {
		cfg.Watch.StateFile = "data/alert_state.json"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "vitalsentinel"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "vitalsentinel/status"
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "health.status"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/vitalsentinel.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and well-formed.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" && !c.API.Mock {
		return fmt.Errorf("api.base_url is required unless api.mock is set")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := model.ParseTimeRange(c.Watch.Range); err != nil {
		return fmt.Errorf("watch.range: %w", err)
	}
	if _, ok := model.ParseSeverity(c.Watch.MinSeverity); !ok {
		return fmt.Errorf("watch.min_severity: unknown severity %q", c.Watch.MinSeverity)
	}
	for _, m := range c.Watch.Metrics {
		if _, err := metric.Parse(m); err != nil {
			return fmt.Errorf("watch.metrics: %w", err)
		}
	}
	return nil
}

// WatchedMetrics resolves Watch.Metrics. Call Validate first.
func (c *Config) WatchedMetrics() []*metric.Definition {
	defs := make([]*metric.Definition, 0, len(c.Watch.Metrics))
	for _, m := range c.Watch.Metrics {
		if d, err := metric.Parse(m); err == nil {
			defs = append(defs, d)
		}
	}
	return defs
}

// AlertSeverity resolves Watch.MinSeverity, defaulting to danger.
func (c *Config) AlertSeverity() model.Severity {
	if s, ok := model.ParseSeverity(c.Watch.MinSeverity); ok {
		return s
	}
	return model.SeverityDanger
}

// WatchRange resolves Watch.Range, defaulting to 7d.
func (c *Config) WatchRange() model.TimeRange {
	if r, err := model.ParseTimeRange(c.Watch.Range); err == nil {
		return r
	}
	return model.DefaultRange
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
