package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Valores aceptados por DOCUMENT_STORE y BLOB_STORE.
const (
	DocumentStoreMongo    = "mongo"
	DocumentStorePostgres = "postgres"

	BlobStoreS3    = "s3"
	BlobStoreMinio = "minio"
)

// Config centraliza la configuración del servicio.
// Se construye una sola vez al arrancar y no se modifica después.
type Config struct {
	AppPort        string `env:"APP_PORT" envDefault:"3000"`
	AppEnv         string `env:"APP_ENV" envDefault:"production"`
	StaticDir      string `env:"STATIC_DIR" envDefault:"app"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	DocumentStore       string        `env:"DOCUMENT_STORE" envDefault:"mongo"`
	MongoURI            string        `env:"MONGODB_URI"`
	MongoDBName         string        `env:"MONGODB_DB_NAME"`
	MongoConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	DatabaseURL         string        `env:"DATABASE_URL"`

	BlobStore          string `env:"BLOB_STORE" envDefault:"s3"`
	AWSBucketName      string `env:"AWS_BUCKET_NAME"`
	AWSRegion          string `env:"AWS_REGION"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSSessionToken    string `env:"AWS_SESSION_TOKEN"`
	MinioEndpoint      string `env:"MINIO_ENDPOINT"`
	MinioAccessKey     string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey     string `env:"MINIO_SECRET_KEY"`

	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB" envDefault:"0"`
	ProfileCacheTTL time.Duration `env:"PROFILE_CACHE_TTL" envDefault:"5m"`
}

// LoadConfig carga la configuración desde variables de entorno.
// No valida valores obligatorios: los fallos aparecen en el primer uso.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment indica si el proceso corre en modo desarrollo.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
