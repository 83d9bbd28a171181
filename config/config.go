package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultAdminPath = "/ieee-admin-portal-sou-2025"

type Server struct {
	Addr           string   `yaml:"addr"`
	AdminPath      string   `yaml:"admin_path"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Auth struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	TokenTTL          time.Duration `yaml:"token_ttl"`
	AdminEmail        string        `yaml:"admin_email"`
	AdminPasswordHash string        `yaml:"admin_password_hash"`
	CSRFKey           string        `yaml:"csrf_key"`
	SecureCookies     bool          `yaml:"secure_cookies"`
}

type Store struct {
	Driver     string `yaml:"driver"`
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
}

type Admin struct {
	BannerTTL time.Duration `yaml:"banner_ttl"`
}

type Contact struct {
	ResendAPIKey string `yaml:"resend_api_key"`
	From         string `yaml:"from"`
	To           string `yaml:"to"`
}

type Tasks struct {
	UpcomingCron string `yaml:"upcoming_cron"`
}

type Config struct {
	LogLevel string  `yaml:"log_level"`
	Server   Server  `yaml:"server"`
	Auth     Auth    `yaml:"auth"`
	Store    Store   `yaml:"store"`
	Admin    Admin   `yaml:"admin"`
	Contact  Contact `yaml:"contact"`
	Tasks    Tasks   `yaml:"tasks"`
}

// Load reads the optional YAML file named by CONFIG_FILE, applies environment
// overrides and fills in defaults. Call godotenv before Load so .env values are
// visible here.
func Load() (*Config, error) {
	var c Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyEnv() error {
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.Server.Addr, "ADDR")
	setString(&c.Server.AdminPath, "ADMIN_PATH")
	if v := env("ALLOWED_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}

	setString(&c.Auth.JWTSecret, "SUPABASE_JWT_SECRET")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Auth.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setString(&c.Auth.CSRFKey, "CSRF_KEY")
	if v := env("SECURE_COOKIES"); v != "" {
		c.Auth.SecureCookies = v == "1" || strings.EqualFold(v, "true")
	}

	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Store.DSN, "DATABASE_URL")
	if c.Store.DSN == "" {
		c.Store.DSN = discreteDSN()
	}
	setString(&c.Store.SQLitePath, "SQLITE_PATH")

	setString(&c.Contact.ResendAPIKey, "RESEND_API_KEY")
	setString(&c.Contact.From, "CONTACT_FROM")
	setString(&c.Contact.To, "CONTACT_TO")
	setString(&c.Tasks.UpcomingCron, "UPCOMING_CRON")

	for key, dst := range map[string]*time.Duration{
		"TOKEN_TTL":  &c.Auth.TokenTTL,
		"BANNER_TTL": &c.Admin.BannerTTL,
	} {
		if v := env(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("parse %s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.AdminPath == "" {
		c.Server.AdminPath = DefaultAdminPath
	}
	if !strings.HasPrefix(c.Server.AdminPath, "/") {
		c.Server.AdminPath = "/" + c.Server.AdminPath
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 24 * time.Hour
	}
	if c.Store.Driver == "" {
		c.Store.Driver = "postgres"
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "ieeesou.db"
	}
	if c.Admin.BannerTTL == 0 {
		c.Admin.BannerTTL = 4 * time.Second
	}
	if c.Contact.From == "" {
		c.Contact.From = "IEEE SOU Website <onboarding@resend.dev>"
	}
	if c.Tasks.UpcomingCron == "" {
		c.Tasks.UpcomingCron = "5 0 * * *"
	}
}

// discreteDSN builds a Postgres URL from the user/password/host/port/dbname
// keys used by older deployments. It returns "" when host is not set.
func discreteDSN() string {
	host := env("host")
	if host == "" {
		return ""
	}
	port := env("port")
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(env("user"), env("password")),
		Host:     host + ":" + port,
		Path:     "/" + env("dbname"),
		RawQuery: "sslmode=require",
	}
	return u.String()
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
