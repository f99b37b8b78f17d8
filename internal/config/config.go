package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Client   ClientConfig   `yaml:"client"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // json | text
	File       string `yaml:"file"`
	Console    bool   `yaml:"console"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	StaticDir   string `yaml:"static_dir"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	PingMessage string `yaml:"ping_message"`
}

// WebhookConfig points at the remote workflow backend the proxy forwards to.
type WebhookConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

type AuthConfig struct {
	// JWTSecret enables local HMAC verification of bearer tokens before forwarding.
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// ClientConfig is used by the terminal client.
type ClientConfig struct {
	BaseURL    string `yaml:"base_url"`
	TimeoutSec int    `yaml:"timeout_sec"`
	Email      string `yaml:"email"`
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: 8080, MaxUploadMB: 25, PingMessage: "ping"},
		Log:      LogConfig{Level: "info", Format: "json", Console: true, MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 30},
		Webhook:  WebhookConfig{BaseURL: "http://localhost:5678/webhook", TimeoutSec: 60},
		Database: DatabaseConfig{Port: 3306, Name: "case_chat"},
		Client:   ClientConfig{BaseURL: "http://localhost:8080/webhook", TimeoutSec: 60},
	}
}

func Load(configFile string) *Config {
	_ = godotenv.Load()
	c := Default()

	paths := []string{"etc/config-dev.yaml", "/etc/case-chat/config.yaml"}
	if configFile != "" {
		paths = []string{configFile}
	}
	for _, path := range paths {
		if data, err := os.ReadFile(path); err == nil {
			yaml.Unmarshal(data, c)
			break
		}
	}

	envOverride(&c.Server.StaticDir, "STATIC_DIR")
	envOverride(&c.Server.PingMessage, "PING_MESSAGE")
	envOverride(&c.Webhook.BaseURL, "WEBHOOK_BASE_URL")
	envOverride(&c.Auth.JWTSecret, "JWT_SECRET")
	envOverride(&c.Database.Host, "MO_HOST")
	envOverride(&c.Database.User, "MO_USER")
	envOverride(&c.Database.Password, "MO_PASS")
	envOverride(&c.Database.Name, "MO_DB")
	envOverride(&c.Log.Level, "LOG_LEVEL")
	envOverride(&c.Log.Format, "LOG_FORMAT")
	envOverride(&c.Log.File, "LOG_FILE")
	envOverride(&c.Client.BaseURL, "CASECHAT_BASE_URL")
	envOverride(&c.Client.Email, "CASECHAT_EMAIL")
	envOverrideInt(&c.Server.Port, "PORT")
	envOverrideInt(&c.Server.MaxUploadMB, "MAX_UPLOAD_MB")
	envOverrideInt(&c.Webhook.TimeoutSec, "WEBHOOK_TIMEOUT_SEC")
	envOverrideInt(&c.Database.Port, "MO_PORT")
	envOverrideInt(&c.Client.TimeoutSec, "CASECHAT_TIMEOUT_SEC")

	c.Webhook.BaseURL = strings.TrimRight(c.Webhook.BaseURL, "/")
	c.Client.BaseURL = strings.TrimRight(c.Client.BaseURL, "/")
	return c
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}

func (c *Config) WebhookTimeout() time.Duration {
	return seconds(c.Webhook.TimeoutSec)
}

func (c *Config) ClientTimeout() time.Duration {
	return seconds(c.Client.TimeoutSec)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// AuditEnabled reports whether a database is configured for the webhook audit log.
func (c *Config) AuditEnabled() bool {
	return c.Database.Host != ""
}

func (c *Config) OpenGormDB() (*gorm.DB, error) {
	cfg := gomysql.NewConfig()
	cfg.User = c.Database.User
	cfg.Passwd = c.Database.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)
	cfg.DBName = c.Database.Name
	cfg.ParseTime = true

	connector, err := gomysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	sqlDB := sql.OpenDB(connector)
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return gorm.Open(mysql.New(mysql.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envOverrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
