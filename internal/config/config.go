package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings. DB_DSN and JWT_SECRET are required;
// everything else has a development default.
type Config struct {
	Port         string `envconfig:"PORT" default:"3000"`
	Env          string `envconfig:"APP_ENV" default:"development"`
	DatabaseDSN  string `envconfig:"DB_DSN" required:"true"`
	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	ClientURL    string `envconfig:"CLIENT_URL" default:"http://localhost:5173"`
	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"chat.events"`
	UploadDir    string `envconfig:"UPLOAD_DIR" default:"uploads"`
	UploadBase   string `envconfig:"UPLOAD_BASE_URL" default:"/uploads"`
	EmailFrom    string `envconfig:"EMAIL_FROM" default:"hello@chatx.local"`
	EmailName    string `envconfig:"EMAIL_FROM_NAME" default:"ChatX"`
	OTLPEndpoint string `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// Load reads .env when present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Production reports whether the service runs with production hardening
// (secure cookies, no permissive upgrader origin).
func (c Config) Production() bool {
	return c.Env == "production"
}
