package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Zhima-Mochi/homeflavors/internal/domain/notification"
)

// ConfigurationError lists every required setting that is missing or malformed.
// It is only ever returned at startup.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(e.Invalid, ", "))
	}
	return "configuration: " + strings.Join(parts, "; ")
}

type Config struct {
	ServiceName string
	Env         string
	HTTPAddr    string
	LogFile     string
	Debug       bool

	SquareAccessToken string
	SquareLocationID  string
	SquareEnvironment string
	SquareVersion     string
	UpstreamTimeout   time.Duration

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioWhatsAppFrom string
	OwnerWhatsApp      string

	MongoURI       string
	MongoDB        string
	MenuCollection string

	OrderStoreDSN string
	RunMigrations bool

	AMQPURL        string
	OrdersExchange string

	CORSAllowOrigins []string
}

// Load reads the process environment. Secrets may be supplied through a
// sibling *_FILE variable pointing at a mounted file.
func Load() (Config, error) {
	return load(os.Getenv, os.ReadFile)
}

type loader struct {
	getenv   func(string) string
	readFile func(string) ([]byte, error)
	missing  []string
	invalid  []string
}

func load(getenv func(string) string, readFile func(string) ([]byte, error)) (Config, error) {
	l := &loader{getenv: getenv, readFile: readFile}

	cfg := Config{
		ServiceName: l.optional("SERVICE_NAME", "homeflavors"),
		Env:         l.optional("ENV", "dev"),
		HTTPAddr:    l.optional("HTTP_ADDR", ":8080"),
		LogFile:     l.optional("LOG_FILE", ""),
		Debug:       l.boolean("DEBUG", false),

		SquareAccessToken: l.secret("SQUARE_ACCESS_TOKEN"),
		SquareLocationID:  l.required("SQUARE_LOCATION_ID"),
		SquareEnvironment: strings.ToLower(l.optional("SQUARE_ENVIRONMENT", "sandbox")),
		SquareVersion:     l.optional("SQUARE_VERSION", "2024-07-17"),
		UpstreamTimeout:   l.duration("UPSTREAM_TIMEOUT", 10*time.Second),

		TwilioAccountSID:   l.required("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:    l.secret("TWILIO_AUTH_TOKEN"),
		TwilioWhatsAppFrom: strings.TrimPrefix(l.required("TWILIO_WHATSAPP_FROM"), "whatsapp:"),
		OwnerWhatsApp:      l.required("OWNER_WHATSAPP_NUMBER"),

		MongoURI:       l.secret("MONGODB_URI"),
		MongoDB:        l.optional("MONGODB_DB", "home-flavors"),
		MenuCollection: l.optional("MENU_COLLECTION", "menu"),

		OrderStoreDSN: l.secretOptional("ORDER_STORE_DSN"),
		RunMigrations: l.boolean("RUN_MIGRATIONS", true),

		AMQPURL:        l.secretOptional("AMQP_URL"),
		OrdersExchange: l.optional("ORDERS_EXCHANGE", "orders_topic"),

		CORSAllowOrigins: splitList(l.optional("CORS_ALLOW_ORIGINS", "*")),
	}

	switch cfg.SquareEnvironment {
	case "sandbox", "production":
	default:
		l.invalid = append(l.invalid, "SQUARE_ENVIRONMENT")
	}
	l.phone("TWILIO_WHATSAPP_FROM", cfg.TwilioWhatsAppFrom)
	l.phone("OWNER_WHATSAPP_NUMBER", cfg.OwnerWhatsApp)

	if len(l.missing) > 0 || len(l.invalid) > 0 {
		return Config{}, &ConfigurationError{Missing: l.missing, Invalid: l.invalid}
	}
	return cfg, nil
}

func (l *loader) get(key string) string {
	return strings.TrimSpace(l.getenv(key))
}

func (l *loader) optional(key, def string) string {
	if v := l.get(key); v != "" {
		return v
	}
	return def
}

func (l *loader) required(key string) string {
	v := l.get(key)
	if v == "" {
		l.missing = append(l.missing, key)
	}
	return v
}

func (l *loader) secretOptional(key string) string {
	if path := l.get(key + "_FILE"); path != "" {
		content, err := l.readFile(path)
		if err != nil {
			l.invalid = append(l.invalid, key+"_FILE")
			return ""
		}
		return strings.TrimSpace(string(content))
	}
	return l.get(key)
}

func (l *loader) secret(key string) string {
	invalid := len(l.invalid)
	v := l.secretOptional(key)
	if v == "" && len(l.invalid) == invalid {
		l.missing = append(l.missing, key)
	}
	return v
}

func (l *loader) boolean(key string, def bool) bool {
	v := l.get(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		l.invalid = append(l.invalid, key)
		return def
	}
	return b
}

func (l *loader) duration(key string, def time.Duration) time.Duration {
	v := l.get(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		l.invalid = append(l.invalid, key)
		return def
	}
	return d
}

func (l *loader) phone(key, v string) {
	if v == "" {
		return
	}
	if err := notification.ValidateRecipient(v); err != nil {
		l.invalid = append(l.invalid, key)
	}
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// String renders the config for startup logs without secrets.
func (c Config) String() string {
	store := "memory"
	if c.OrderStoreDSN != "" {
		store = "postgres"
	}
	return fmt.Sprintf("service=%s env=%s addr=%s square=%s order_store=%s relay=%t",
		c.ServiceName, c.Env, c.HTTPAddr, c.SquareEnvironment, store, c.AMQPURL != "")
}
