package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa toda la configuración del servicio.
// Se carga de defaults -> archivo YAML opcional (CONFIG_FILE) -> env vars.
type Config struct {
	Port string     `mapstructure:"port"`
	HTTP HTTPConfig `mapstructure:"http"`

	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Payments  PaymentsConfig  `mapstructure:"payments"`
	Email     EmailConfig     `mapstructure:"email"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Site      SiteConfig      `mapstructure:"site"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
	App       AppConfig       `mapstructure:"app"`
}

type HTTPConfig struct {
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type AuthConfig struct {
	// JWTSecret es el secreto HS256 del proveedor de auth (Supabase).
	// Vacío => modo dev con headers X-Debug-*.
	JWTSecret string `mapstructure:"jwt_secret"`
	DevMode   bool   `mapstructure:"dev_mode"`
}

type PaymentsConfig struct {
	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	FeeCents            int64  `mapstructure:"fee_cents"`
	Currency            string `mapstructure:"currency"`
	SuccessURL          string `mapstructure:"success_url"`
	CancelURL           string `mapstructure:"cancel_url"`
}

type EmailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgrid_api_key"`
	FromEmail      string `mapstructure:"from_email"`
	FromName       string `mapstructure:"from_name"`
	InboundToken   string `mapstructure:"inbound_token"`
	AdminAddress   string `mapstructure:"admin_address"`
}

type StorageConfig struct {
	GCSBucket     string `mapstructure:"gcs_bucket"`
	PublicBaseURL string `mapstructure:"public_base_url"`

	// Credentials: ruta a un JSON de service account o el JSON inline.
	// Vacío => credenciales por defecto del entorno.
	Credentials string `mapstructure:"credentials"`
}

type SiteConfig struct {
	URL          string `mapstructure:"url"`
	RegistryName string `mapstructure:"registry_name"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("http.read_timeout", 5*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)

	v.SetDefault("db.dsn", "")
	v.SetDefault("redis.url", "")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.dev_mode", false)

	v.SetDefault("payments.stripe_secret_key", "")
	v.SetDefault("payments.stripe_webhook_secret", "")
	v.SetDefault("payments.fee_cents", 2500)
	v.SetDefault("payments.currency", "usd")
	v.SetDefault("payments.success_url", "http://localhost:3000/register/success")
	v.SetDefault("payments.cancel_url", "http://localhost:3000/register/cancel")

	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.from_email", "registry@example.com")
	v.SetDefault("email.from_name", "WCU Registry")
	v.SetDefault("email.inbound_token", "")
	v.SetDefault("email.admin_address", "")

	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.credentials", "")

	v.SetDefault("site.url", "http://localhost:3000")
	v.SetDefault("site.registry_name", "WCU Dog Registry")

	v.SetDefault("ratelimit.per_minute", 20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("app.name", "wcu-registry")
}

// Load lee la configuración. Si CONFIG_FILE apunta a un YAML, se mezcla antes de env.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv("CONFIG_FILE")))
}

// LoadFile es Load con una ruta explícita (vacía = sin archivo).
func LoadFile(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	// db.dsn -> DB_DSN, payments.fee_cents -> PAYMENTS_FEE_CENTS
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

func (c *Config) normalize() {
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if c.Port == "" {
		c.Port = "8080"
	}
	c.Site.URL = strings.TrimRight(strings.TrimSpace(c.Site.URL), "/")
	c.Payments.Currency = strings.ToLower(strings.TrimSpace(c.Payments.Currency))
	if c.Payments.FeeCents <= 0 {
		c.Payments.FeeCents = 2500
	}
	if c.RateLimit.PerMinute <= 0 {
		c.RateLimit.PerMinute = 20
	}
	// Sin secreto JWT no hay forma de verificar tokens: forzamos modo dev.
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		c.Auth.DevMode = true
	}
}

// Addr devuelve ":<port>" para http.Server.
func (c Config) Addr() string {
	return ":" + c.Port
}
