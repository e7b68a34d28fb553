package config

import (
	"strings"
	"time"
)

// Config es la configuración raíz del servicio.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Storage  StorageConfig  `yaml:"storage"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Photos   PhotosConfig   `yaml:"photos"`
}

type AppConfig struct {
	Name string `yaml:"name" env:"APP_NAME" env-default:"pet-identity-registry"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig: si DSN está vacío, el router usa storage in-memory.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"30m"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"5m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// RedisConfig: URL vacía = sin cache de huellas.
type RedisConfig struct {
	URL            string        `yaml:"url"             env:"REDIS_URL"`
	PoolSize       int           `yaml:"pool_size"       env:"REDIS_POOL_SIZE"       env-default:"10"`
	DialTimeout    time.Duration `yaml:"dial_timeout"    env:"REDIS_DIAL_TIMEOUT"    env-default:"3s"`
	ReadTimeout    time.Duration `yaml:"read_timeout"    env:"REDIS_READ_TIMEOUT"    env-default:"1s"`
	WriteTimeout   time.Duration `yaml:"write_timeout"   env:"REDIS_WRITE_TIMEOUT"   env-default:"1s"`
	FingerprintTTL time.Duration `yaml:"fingerprint_ttl" env:"REDIS_FINGERPRINT_TTL" env-default:"10m"`
}

type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}

const (
	AuthModeDev    = "dev"
	AuthModeJWT    = "jwt"
	AuthModeRemote = "remote"
)

// AuthConfig:
// - dev: sin verifier, se acepta X-Debug-User-ID
// - jwt: tokens HS256 firmados con JWTSecret
// - remote: verificación contra el servicio de auth hospedado
type AuthConfig struct {
	Mode          string        `yaml:"mode"            env:"AUTH_MODE"            env-default:"dev"`
	JWTSecret     string        `yaml:"jwt_secret"      env:"AUTH_JWT_SECRET"`
	JWTIssuer     string        `yaml:"jwt_issuer"      env:"AUTH_JWT_ISSUER"      env-default:"pet-identity-registry"`
	RemoteBaseURL string        `yaml:"remote_base_url" env:"AUTH_REMOTE_BASE_URL"`
	RemoteAPIKey  string        `yaml:"remote_api_key"  env:"AUTH_REMOTE_API_KEY"`
	RemoteTimeout time.Duration `yaml:"remote_timeout"  env:"AUTH_REMOTE_TIMEOUT"  env-default:"5s"`
}

// StorageConfig: BaseURL vacía = fotos en memoria.
type StorageConfig struct {
	BaseURL string        `yaml:"base_url" env:"STORAGE_BASE_URL"`
	APIKey  string        `yaml:"api_key"  env:"STORAGE_API_KEY"`
	Bucket  string        `yaml:"bucket"   env:"STORAGE_BUCKET"  env-default:"images"`
	Timeout time.Duration `yaml:"timeout"  env:"STORAGE_TIMEOUT" env-default:"10s"`
}

// KafkaConfig: Brokers vacío = notificaciones deshabilitadas.
type KafkaConfig struct {
	Brokers  string `yaml:"brokers"   env:"KAFKA_BROKERS"`
	Topic    string `yaml:"topic"     env:"KAFKA_TOPIC"     env-default:"pet-identity.missing-reports"`
	ClientID string `yaml:"client_id" env:"KAFKA_CLIENT_ID" env-default:"pet-identity-registry"`
}

type PhotosConfig struct {
	MaxBytes int64 `yaml:"max_bytes" env:"PHOTOS_MAX_BYTES" env-default:"5242880"`
}

// BrokerList separa el CSV de brokers.
func (k KafkaConfig) BrokerList() []string {
	out := make([]string, 0)
	for _, b := range strings.Split(k.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
