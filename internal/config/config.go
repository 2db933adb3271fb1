package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"local"` // local, dev, prod
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Trade      TradeConfig      `yaml:"trade"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	CORS       CORSConfig       `yaml:"cors"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address         string        `yaml:"address" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host         string `yaml:"host" env-default:"localhost"`
	Port         int    `yaml:"port" env-default:"5432"`
	User         string `yaml:"user" env-required:"true"`
	Password     string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name         string `yaml:"name" env-required:"true"`
	SSLMode      string `yaml:"sslmode" env-default:"disable"`
	MaxOpenConns int    `yaml:"max_open_conns" env-default:"20"`
	MaxIdleConns int    `yaml:"max_idle_conns" env-default:"10"`
}

// DSN собирает строку подключения к postgres
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"` // минуты
}

func (j JWTConfig) TTL() time.Duration {
	return time.Duration(j.TokenTTL) * time.Minute
}

type MigrationsConfig struct {
	Path  string `yaml:"path" env-default:"./migrations"`
	Table string `yaml:"table" env-default:"migrations"`
}

// LedgerConfig - баланс нового пользователя
type LedgerConfig struct {
	StartingBalance int `yaml:"starting_balance" env-default:"100"`
}

// TradeConfig - параметры расчёта сделок
type TradeConfig struct {
	SettlementTimeout time.Duration `yaml:"settlement_timeout" env-default:"3s"`
	SettlementRetries int           `yaml:"settlement_retries" env-default:"2"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" env-default:"10"`
	Burst             int     `yaml:"burst" env-default:"20"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" env-default:"http://localhost:3000"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
