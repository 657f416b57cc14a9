package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

const (
	defaultTokenTTLMinutes = 60
	defaultBcryptCost      = 12
)

// Storage backend names for cover images.
const (
	StorageBackendNone  = "none"
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"
)

// Broker backend names for catalog events.
const (
	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort int
	Database   DatabaseConfig
	Auth       AuthConfig
	Storage    StorageConfig
	MQ         MQConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// AuthConfig holds the process-wide credential material. Salt and secret
// are resolved exactly once at startup and treated as immutable for the
// process lifetime. An unset AUTH_SECRET_KEY is replaced with a random
// ephemeral value, which invalidates every outstanding token on restart.
type AuthConfig struct {
	Salt            string
	SecretKey       string
	Algorithm       string
	TokenTTLMinutes int
}

type StorageConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	ProjectID       string
	Bucket          string
	CredentialsFile string
}

type MQConfig struct {
	Backend  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string
	QueueDurable    bool
	QueueAutoDelete bool
	PrefetchCount   int
}

type PubSubConfig struct {
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "madr"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "madr_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	authConfig := AuthConfig{
		Salt:            resolveSalt(os.Getenv("AUTH_SALT")),
		SecretKey:       resolveSecretKey(os.Getenv("AUTH_SECRET_KEY")),
		Algorithm:       getEnv("AUTH_ALGORITHM", "HS256"),
		TokenTTLMinutes: getEnvInt("AUTH_TOKEN_TTL_MINUTES", defaultTokenTTLMinutes),
	}
	if authConfig.TokenTTLMinutes < 1 {
		authConfig.TokenTTLMinutes = defaultTokenTTLMinutes
	}

	storageConfig := StorageConfig{
		Backend: getEnv("STORAGE_BACKEND", StorageBackendNone),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "madr-covers"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			Bucket:          getEnv("GCS_BUCKET", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	mqConfig := MQConfig{
		Backend: getEnv("MQ_BACKEND", MQBackendNone),
		RabbitMQ: RabbitMQConfig{
			URL:             getEnv("RABBITMQ_URL", ""),
			QueueDurable:    getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			QueueAutoDelete: getEnvBool("RABBITMQ_QUEUE_AUTO_DELETE", false),
			PrefetchCount:   getEnvInt("RABBITMQ_PREFETCH_COUNT", 0),
		},
		PubSub: PubSubConfig{
			ProjectID:       getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile: getEnv("PUBSUB_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		Database:   dbConfig,
		Auth:       authConfig,
		Storage:    storageConfig,
		MQ:         mqConfig,
	}
}

// saltPattern matches a bcrypt salt string: version marker, two-digit cost,
// 22 characters of the bcrypt base64 alphabet.
var saltPattern = regexp.MustCompile(`^\$2[aby]?\$[0-9]{2}\$[./A-Za-z0-9]{22}$`)

// ValidSalt reports whether value is structurally usable as an AUTH_SALT.
func ValidSalt(value string) bool {
	return saltPattern.MatchString(value)
}

func resolveSalt(salt string) string {
	if salt == "" {
		slog.Warn("AUTH_SALT is empty, generating a new one")
		return generateSalt()
	}
	if !ValidSalt(salt) {
		slog.Warn("AUTH_SALT is not a valid bcrypt salt, generating a new one")
		return generateSalt()
	}
	return salt
}

func resolveSecretKey(secret string) string {
	if secret != "" {
		return secret
	}
	slog.Warn("AUTH_SECRET_KEY is empty, generating an ephemeral one; issued tokens will not survive a restart")
	var buf [32]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("cannot generate secret key: %v", err))
	}
	return hex.EncodeToString(buf[:])
}

const bcryptAlphabet = "./ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateSalt() string {
	var buf [22]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("cannot generate salt: %v", err))
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = bcryptAlphabet[int(b)%len(bcryptAlphabet)]
	}
	return fmt.Sprintf("$2b$%02d$%s", defaultBcryptCost, string(out))
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		return valueStr == "true" || valueStr == "1"
	}
	return defaultValue
}
