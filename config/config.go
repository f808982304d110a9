package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/navlight/booking-service/pkg/logger"
	"github.com/navlight/booking-service/pkg/postgres"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"HTTP_HOST"`
	Port         string        `yaml:"port" envconfig:"HTTP_PORT" default:"3001"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"30s"`
	WriteTimeout time.Duration
}

type Admin struct {
	// Password may be either the plain admin password or a bcrypt hash
	// of it.
	Password   string        `json:"-" envconfig:"ADMIN_PASSWORD" required:"true"`
	SessionTTL time.Duration `envconfig:"ADMIN_SESSION_TTL" default:"0"`
}

// SMTP is optional; when Host, User or Pass is empty the notification
// features are silently disabled.
type SMTP struct {
	Host   string `envconfig:"SMTP_HOST"`
	Port   int    `envconfig:"SMTP_PORT" default:"587"`
	Secure bool   `envconfig:"SMTP_SECURE"`
	User   string `envconfig:"SMTP_USER"`
	Pass   string `json:"-" envconfig:"SMTP_PASS"`
	From   string `envconfig:"EMAIL_FROM"`
	BCC    string `envconfig:"NAVLIGHT_FINANCIAL_CONTROLLER_EMAIL"`
}

func (s SMTP) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Pass != ""
}

// FromAddress falls back to the SMTP user when EMAIL_FROM is unset.
func (s SMTP) FromAddress() string {
	if s.From != "" {
		return s.From
	}
	return s.User
}

type Billing struct {
	UnitCharge         float64 `envconfig:"INVOICE_UNIT_CHARGE" default:"2"`
	MissingPunchCharge float64 `envconfig:"MISSING_PUNCH_CHARGE" default:"200"`
	BankAccountName    string  `envconfig:"BANK_ACCOUNT_NAME"`
	BankAccountNumber  string  `envconfig:"BANK_ACCOUNT_NUMBER"`
}

// Redis is optional; when Addr is set the admin session store is kept
// in redis instead of process memory.
type Redis struct {
	Addr     string `envconfig:"REDIS_ADDR"`
	Password string `json:"-" envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB"`
}

// Kafka is optional; when Addrs is empty no lifecycle events are
// published.
type Kafka struct {
	Addrs []string `envconfig:"KAFKA_ADDRS"`
	Topic string   `envconfig:"KAFKA_TOPIC" default:"navlight.bookings"`
}

type Metrics struct {
	Port string `envconfig:"METRICS_PORT" default:"9090"`
}

type Config struct {
	Server   HTTPServer `yaml:"server"`
	Database postgres.Config
	Admin    Admin
	SMTP     SMTP
	Billing  Billing
	Redis    Redis
	Kafka    Kafka
	Metrics  Metrics
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		if err := envconfig.Process("", &config); err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}
