package configs

import (
	"fmt"
	"time"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/env"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Environment string            `koanf:"environment"`
	HTTP        HTTPConfig        `koanf:"http"`
	RateLimiter RateLimiterConfig `koanf:"rateLimiter"`
	Redis       RedisConfig       `koanf:"redis"`
	Mongo       MongoConfig       `koanf:"mongo"`
	RabbitMQ    RabbitMQConfig    `koanf:"rabbitmq"`
	Room        RoomConfig        `koanf:"room"`
	QR          QRConfig          `koanf:"qr"`
	Logger      LoggerConfig      `koanf:"logger"`
	Tracing     TracingConfig     `koanf:"tracing"`
	Cookie      CookieConfig      `koanf:"cookie"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type RateLimiterConfig struct {
	MaxRatePerSecond int           `koanf:"maxRatePerSecond"`
	MaxBurst         int           `koanf:"maxBurst"`
	CacheTTL         time.Duration `koanf:"cacheTTL"`
	SourceHeaderKey  string        `koanf:"sourceHeaderKey"`
	// Backend is "memory" or "redis".
	Backend string `koanf:"backend"`
}

type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	PoolSize     int           `koanf:"pool_size"`
}

type MongoConfig struct {
	URI               string        `koanf:"uri"`
	Database          string        `koanf:"database"`
	ConnectionTimeout time.Duration `koanf:"connection_timeout"`
}

type RabbitMQConfig struct {
	// URI left empty disables room event publishing.
	URI      string `koanf:"uri"`
	Exchange string `koanf:"exchange"`
}

type RoomConfig struct {
	TTL              time.Duration `koanf:"ttl"`
	AdmissionRetries int           `koanf:"admission_retries"`
	ReplayLength     int64         `koanf:"replay_length"`
}

type QRConfig struct {
	// Mode is "ed25519" (asymmetric) or "hmac" (shared secret).
	Mode       string        `koanf:"mode"`
	PrivateKey string        `koanf:"private_key"`
	PublicKey  string        `koanf:"public_key"`
	Secret     string        `koanf:"secret"`
	Window     time.Duration `koanf:"window"`
	BaseURL    string        `koanf:"base_url"`
}

type LoggerConfig struct {
	FilePath string `koanf:"file_path"`
	Encoding string `koanf:"encoding"`
	Level    string `koanf:"level"`
	Logger   string `koanf:"logger"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	ServiceName string `koanf:"service_name"`
	Endpoint    string `koanf:"endpoint"`
}

type CookieConfig struct {
	// Secure forces the Secure attribute outside production.
	Secure bool `koanf:"secure"`
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SecureCookies reports whether cookies must carry the Secure attribute.
func (c *Config) SecureCookies() bool {
	return c.IsProduction() || c.Cookie.Secure
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Room.TTL <= 0 {
		return fmt.Errorf("room.ttl must be positive")
	}
	if c.QR.Window <= 0 {
		return fmt.Errorf("qr.window must be positive")
	}
	switch c.QR.Mode {
	case "ed25519":
		if c.QR.PublicKey == "" {
			return fmt.Errorf("qr.public_key is required in ed25519 mode")
		}
	case "hmac":
		if c.QR.Secret == "" {
			return fmt.Errorf("qr.secret is required in hmac mode")
		}
	default:
		return fmt.Errorf("qr.mode must be ed25519 or hmac, got %q", c.QR.Mode)
	}
	return nil
}

func applyDefaults(k *koanf.Koanf) {
	setDefault(k, "environment", "development")

	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 8080)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"*"})

	setDefault(k, "rateLimiter.maxRatePerSecond", 10)
	setDefault(k, "rateLimiter.maxBurst", 20)
	setDefault(k, "rateLimiter.cacheTTL", 5*time.Minute)
	setDefault(k, "rateLimiter.sourceHeaderKey", "X-Forwarded-For")
	setDefault(k, "rateLimiter.backend", "memory")

	setDefault(k, "redis.addr", "localhost:6379")
	setDefault(k, "redis.db", 0)
	setDefault(k, "redis.dial_timeout", 5*time.Second)
	setDefault(k, "redis.read_timeout", 3*time.Second)
	setDefault(k, "redis.write_timeout", 3*time.Second)
	setDefault(k, "redis.pool_size", 20)

	setDefault(k, "mongo.uri", "mongodb://localhost:27017")
	setDefault(k, "mongo.database", "gym")
	setDefault(k, "mongo.connection_timeout", 20*time.Second)

	setDefault(k, "rabbitmq.exchange", "rooms")

	setDefault(k, "room.ttl", 10*time.Minute)
	setDefault(k, "room.admission_retries", 5)
	setDefault(k, "room.replay_length", 256)

	setDefault(k, "qr.mode", "ed25519")
	setDefault(k, "qr.window", time.Minute)
	setDefault(k, "qr.base_url", "https://gymembrace.app/qr")

	setDefault(k, "logger.file_path", "./logs/")
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.logger", "zap")

	setDefault(k, "tracing.service_name", "gym-rooms")
	setDefault(k, "tracing.endpoint", "http://localhost:4318/v1/traces")
}

func applyEnvOverrides(k *koanf.Koanf) {
	if environment := env.GetString("ENVIRONMENT", ""); environment != "" {
		k.Set("environment", environment)
	}

	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	if maxRate := env.GetInt("RATE_LIMIT_MAX_RATE_PER_SECOND", 0); maxRate > 0 {
		k.Set("rateLimiter.maxRatePerSecond", maxRate)
	}
	if maxBurst := env.GetInt("RATE_LIMIT_MAX_BURST", 0); maxBurst > 0 {
		k.Set("rateLimiter.maxBurst", maxBurst)
	}
	if backend := env.GetString("RATE_LIMIT_BACKEND", ""); backend != "" {
		k.Set("rateLimiter.backend", backend)
	}

	if addr := env.GetString("REDIS_ADDR", ""); addr != "" {
		k.Set("redis.addr", addr)
	}
	if password := env.GetString("REDIS_PASSWORD", ""); password != "" {
		k.Set("redis.password", password)
	}

	if uri := env.GetString("MONGODB_URI", ""); uri != "" {
		k.Set("mongo.uri", uri)
	}
	if database := env.GetString("MONGODB_DATABASE", ""); database != "" {
		k.Set("mongo.database", database)
	}

	if uri := env.GetString("RABBITMQ_URI", ""); uri != "" {
		k.Set("rabbitmq.uri", uri)
	}

	if ttl := env.GetDuration("ROOM_TTL", 0); ttl > 0 {
		k.Set("room.ttl", ttl)
	}

	// Key material normally arrives through the environment (.env), never the YAML file.
	if mode := env.GetString("QR_SIGNING_MODE", ""); mode != "" {
		k.Set("qr.mode", mode)
	}
	if privateKey := env.GetString("QR_SIGNING_PRIVATE_KEY", ""); privateKey != "" {
		k.Set("qr.private_key", privateKey)
	}
	if publicKey := env.GetString("QR_SIGNING_PUBLIC_KEY", ""); publicKey != "" {
		k.Set("qr.public_key", publicKey)
	}
	if secret := env.GetString("QR_SIGNING_SECRET", ""); secret != "" {
		k.Set("qr.secret", secret)
	}
	if window := env.GetDuration("QR_WINDOW", 0); window > 0 {
		k.Set("qr.window", window)
	}

	if level := env.GetString("LOGGER_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if logger := env.GetString("LOGGER_LOGGER", ""); logger != "" {
		k.Set("logger.logger", logger)
	}

	if enabled := env.GetBool("TRACING_ENABLED", false); enabled {
		k.Set("tracing.enabled", true)
	}
	if endpoint := env.GetString("TRACING_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
