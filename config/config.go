package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env            string
	ServerPort     int
	RequestTimeout time.Duration
	Database       DatabaseConfig
	Auth           AuthConfig
	Log            LogConfig
	Ledger         LedgerConfig
	Storage        StorageConfig
	MQ             MQConfig
}

type DatabaseConfig struct {
	// URL, when set, takes precedence over the discrete fields.
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type LogConfig struct {
	Level    string
	Encoding string
}

// LedgerConfig points at an XRPL node that accepts sign-and-submit requests.
type LedgerConfig struct {
	RPCURL        string
	WalletAddress string
	WalletSeed    string
	PollInterval  time.Duration
	SubmitTimeout time.Duration
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	Exchange        string
	ExchangeDurable bool
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
	TopicPrefix     string
}

const (
	BackendNone     = "none"
	BackendMinio    = "minio"
	BackendGCS      = "gcs"
	BackendRabbitMQ = "rabbitmq"
	BackendPubSub   = "pubsub"
)

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var errs []error
	num := func(key string, def int) int {
		v, err := getEnvInt(key, def)
		errs = append(errs, err)
		return v
	}
	dur := func(key string, def time.Duration) time.Duration {
		v, err := getEnvDuration(key, def)
		errs = append(errs, err)
		return v
	}
	flag := func(key string, def bool) bool {
		v, err := getEnvBool(key, def)
		errs = append(errs, err)
		return v
	}

	cfg := Config{
		Env:            getEnv("ENV", "production"),
		ServerPort:     num("SERVER_PORT", 8080),
		RequestTimeout: dur("REQUEST_TIMEOUT", 60*time.Second),
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     num("DB_PORT", 5432),
			User:     getEnv("DB_USER", "creatorhub"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "creatorhub"),
			UseSSL:   flag("DB_USE_SSL", false),
		},
		Auth: AuthConfig{
			JWTSecret:  strings.TrimSpace(getEnv("JWT_SECRET", "")),
			TokenTTL:   dur("ACCESS_TOKEN_TTL", 30*time.Minute),
			BcryptCost: num("BCRYPT_COST", 0),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		Ledger: LedgerConfig{
			RPCURL:        getEnv("XRPL_RPC_URL", "https://s.altnet.rippletest.net:51234"),
			WalletAddress: getEnv("XRPL_WALLET_ADDRESS", ""),
			WalletSeed:    getEnv("XRPL_WALLET_SEED", ""),
			PollInterval:  dur("XRPL_POLL_INTERVAL", time.Second),
			SubmitTimeout: dur("XRPL_SUBMIT_TIMEOUT", 90*time.Second),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendNone)),
			Minio: MinioConfig{
				Endpoint:      getEnv("MINIO_ENDPOINT", "localhost:9000"),
				AccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey:     getEnv("MINIO_SECRET_KEY", ""),
				Bucket:        getEnv("MINIO_BUCKET", "creatorhub"),
				UseSSL:        flag("MINIO_USE_SSL", false),
				PublicBaseURL: getEnv("MINIO_PUBLIC_BASE_URL", ""),
			},
			GCS: GCSConfig{
				Bucket:          getEnv("GCS_BUCKET", ""),
				ProjectID:       getEnv("GCS_PROJECT_ID", ""),
				CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
			},
		},
		MQ: MQConfig{
			Backend: strings.ToLower(getEnv("MQ_BACKEND", BackendNone)),
			RabbitMQ: RabbitMQConfig{
				URL:             getEnv("RABBITMQ_URL", ""),
				Exchange:        getEnv("RABBITMQ_EXCHANGE", "creatorhub.events"),
				ExchangeDurable: flag("RABBITMQ_EXCHANGE_DURABLE", true),
			},
			PubSub: PubSubConfig{
				ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
				CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
				TopicPrefix:     getEnv("PUBSUB_TOPIC_PREFIX", "creatorhub-"),
			},
		},
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the API server cannot run without.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"ACCESS_TOKEN_TTL", c.Auth.TokenTTL},
		{"XRPL_SUBMIT_TIMEOUT", c.Ledger.SubmitTimeout},
		{"XRPL_POLL_INTERVAL", c.Ledger.PollInterval},
	} {
		if d.value <= 0 {
			return fmt.Errorf("%s must be positive, got %s", d.key, d.value)
		}
	}
	switch c.Storage.Backend {
	case BackendNone, BackendMinio, BackendGCS:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	switch c.MQ.Backend {
	case BackendNone, BackendRabbitMQ, BackendPubSub:
	default:
		return fmt.Errorf("unknown MQ_BACKEND %q", c.MQ.Backend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, valueStr)
	}
	return value, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(strings.TrimSpace(valueStr))
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q", key, valueStr)
	}
	return value, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
	if err != nil {
		return false, fmt.Errorf("%s: invalid boolean %q", key, valueStr)
	}
	return value, nil
}
