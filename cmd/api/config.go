package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HttpPort     int           `mapstructure:"http_port"`
	DbConnString string        `mapstructure:"db_conn_string"`
	RedisAddr    string        `mapstructure:"redis_addr"`
	LocalZone    string        `mapstructure:"local_zone"`
	Webhook      WebhookConfig `mapstructure:"webhook"`
	Twilio       TwilioConfig  `mapstructure:"twilio"`
	Log          LogConfig     `mapstructure:"log"`
	Db           DbConfig      `mapstructure:"db"`
}

type WebhookConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	// Hostname is the public host twilio reaches the callback webhook on.
	Hostname string `mapstructure:"hostname"`
}

type TwilioConfig struct {
	AccountSID    string        `mapstructure:"account_sid"`
	APISID        string        `mapstructure:"api_sid"`
	APISecret     string        `mapstructure:"api_secret"`
	BaseURL       string        `mapstructure:"base_url"`
	PhoneSource   string        `mapstructure:"phone_source"`
	Recipients    []string      `mapstructure:"-"`
	UseCallback   bool          `mapstructure:"use_callback"`
	ErrorCodeFile string        `mapstructure:"error_code_file"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Debug         bool          `mapstructure:"debug"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type DbConfig struct {
	MaxRetry     int `mapstructure:"max_retry"`
	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

var defaults = map[string]any{
	"http_port":              5080,
	"db_conn_string":         "",
	"redis_addr":             "",
	"local_zone":             "",
	"webhook.user":           "",
	"webhook.password":       "",
	"webhook.hostname":       "",
	"twilio.account_sid":     "",
	"twilio.api_sid":         "",
	"twilio.api_secret":      "",
	"twilio.base_url":        "https://api.twilio.com",
	"twilio.phone_source":    "",
	"twilio.recipients":      "",
	"twilio.use_callback":    false,
	"twilio.error_code_file": "twilio_error_codes.json",
	"twilio.timeout":         "30s",
	"twilio.debug":           false,
	"log.level":              "info",
	"log.format":             "json",
	"db.max_retry":           6,
	"db.max_open_conns":      10,
	"db.max_idle_conns":      5,
}

var requiredKeys = []string{
	"webhook.user",
	"webhook.password",
	"twilio.phone_source",
	"db_conn_string",
}

// ReadConfig reads configuration from the given file. Every key can be
// overridden by an environment variable, e.g. twilio.phone_source by
// TWILIO_PHONE_SOURCE. A missing file leaves only defaults and environment.
func ReadConfig(configFile string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			var pathErr *fs.PathError
			if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	cfg.Twilio.Recipients = parseRecipients(v.Get("twilio.recipients"))

	return cfg, nil
}

// parseRecipients accepts a list or a comma separated string and drops blanks.
func parseRecipients(raw any) []string {
	var parts []string
	switch r := raw.(type) {
	case string:
		parts = strings.Split(r, ",")
	case []string:
		parts = r
	case []any:
		for _, p := range r {
			parts = append(parts, fmt.Sprint(p))
		}
	}

	recipients := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			recipients = append(recipients, p)
		}
	}
	return recipients
}
