package config

import (
	"bytes"
	"fmt"
	"net"
	neturl "net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"

	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"

	defaultSQLitePath = "data/puls.db"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "puls_academy"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultAdminEmail    = "admin@pulsacademy.com"
	defaultAdminPassword = "admin123"
	defaultAdminName     = "Puls Academy"
)

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int            `yaml:"port"`
	Env            string         `yaml:"env"` // "development" | "production"
	Database       DatabaseConfig `yaml:"database"`
	Redis          RedisConfig    `yaml:"redis"`
	JWTSecret      string         `yaml:"jwt_secret"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	Timezone       string         `yaml:"timezone"`
	Admin          AdminSeed      `yaml:"admin"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite" | "mysql"
	Path     string `yaml:"path"`   // sqlite file path
	DSN      string `yaml:"dsn"`    // full MySQL DSN, overrides the parts below
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset"`
	Loc      string `yaml:"loc"`
}

type RedisConfig struct {
	URL      string `yaml:"url"` // overrides the parts below
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Disable  bool   `yaml:"disable"`
}

// AdminSeed is the bootstrap admin account created on first start.
type AdminSeed struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// Load reads the YAML config file. A missing file yields the defaults, an
// unreadable or malformed one is an error.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyDefaults()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err.Error() != "EOF" {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Port == 0 {
		c.Port = defaultPort
	}
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	if c.Env == "" {
		c.Env = defaultEnv
	}

	d := &c.Database
	d.Driver = strings.ToLower(strings.TrimSpace(d.Driver))
	if d.Driver == "" {
		d.Driver = DriverSQLite
	}
	if d.Path == "" {
		d.Path = defaultSQLitePath
	}
	if d.Host == "" {
		d.Host = defaultDBHost
	}
	if d.Port == 0 {
		d.Port = defaultDBPort
	}
	if d.User == "" {
		d.User = defaultDBUser
	}
	if d.Password == "" {
		d.Password = defaultDBPassword
	}
	if d.Name == "" {
		d.Name = defaultDBName
	}
	if d.Charset == "" {
		d.Charset = defaultDBCharset
	}
	if d.Loc == "" {
		d.Loc = defaultDBLoc
	}

	r := &c.Redis
	if r.Host == "" {
		r.Host = defaultRedisHost
	}
	if r.Port == 0 {
		r.Port = defaultRedisPort
	}

	if c.Admin.Email == "" {
		c.Admin.Email = defaultAdminEmail
	}
	if c.Admin.Password == "" {
		c.Admin.Password = defaultAdminPassword
	}
	if c.Admin.Name == "" {
		c.Admin.Name = defaultAdminName
	}
}

func (c *AppConfig) IsProduction() bool { return c.Env == "production" }

// DSNValue builds the MySQL DSN from the parts unless a full DSN was given.
func (d *DatabaseConfig) DSNValue() string {
	if dsn := strings.TrimSpace(d.DSN); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=%s&parseTime=True&loc=%s",
		d.User, d.Password,
		net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		d.Name, d.Charset, neturl.QueryEscape(d.Loc))
}

// URLValue builds the Redis connection URL from the parts unless a full URL
// was given.
func (r *RedisConfig) URLValue() string {
	if raw := strings.TrimSpace(r.URL); raw != "" {
		return raw
	}
	u := neturl.URL{
		Scheme: "redis",
		Host:   net.JoinHostPort(r.Host, strconv.Itoa(r.Port)),
		Path:   "/" + strconv.Itoa(r.DB),
	}
	if r.Username != "" || r.Password != "" {
		u.User = neturl.UserPassword(r.Username, r.Password)
	}
	return u.String()
}
