package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env            string `yaml:"env" env-default:"local"`
	FrontendDomain string `yaml:"frontend_domain" env-default:"localhost:5173"`
	Tokens         `yaml:"tokens"`
	Auth           `yaml:"auth"`
	RabbitMQ       `yaml:"rabbitmq"`
	Postgres       `yaml:"postgres"`
	Redis          `yaml:"redis"`
	SMTP           `yaml:"smtp"`
	Agent          `yaml:"agent"`
	HTTPServer     `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env-default:"localhost:6379"`
	Password string `yaml:"password" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

type Tokens struct {
	JWTSecret          string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env-default:"1h"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env-default:"48h"`
	VerificationMaxAge time.Duration `yaml:"verification_max_age" env-default:"24h"`
	ResetMaxAge        time.Duration `yaml:"reset_max_age" env-default:"1h"`
}

type Auth struct {
	// RolePolicy is "enforced" or "disabled". Disabled admits any
	// authenticated caller regardless of required roles and logs that
	// enforcement is off.
	RolePolicy    string `yaml:"role_policy" env-default:"enforced"`
	RotateRefresh bool   `yaml:"rotate_refresh" env-default:"false"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-required:"true"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from"`
}

type Agent struct {
	URL     string        `yaml:"url" env-default:"http://localhost:9000/invoke"`
	Timeout time.Duration `yaml:"timeout" env-default:"30s"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
