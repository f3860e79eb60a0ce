package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig maps environment variables onto server configuration. The
// variable names match the ones the Lambda deployment of this service
// used, so existing deployment templates keep working.
type envConfig struct {
	Port string `env:"PORT" env-default:"8080"`

	StorageType     string `env:"STORAGE_TYPE" env-default:"s3"`
	Bucket          string `env:"BUCKET_NAME"`
	Region          string `env:"AWS_REGION" env-default:"us-east-1"`
	S3Endpoint      string `env:"AWS_S3_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`

	PresignTTLSeconds int  `env:"PRESIGN_TTL_SECONDS" env-default:"900"`
	CheckExists       bool `env:"CHECK_EXISTS" env-default:"true"`

	DatabaseType string `env:"DATABASE_TYPE" env-default:"memory"`
	DatabaseURL  string `env:"DATABASE_URL"`
	FilesTable   string `env:"FILES_TABLE_NAME" env-default:"files"`
	HistoryTable string `env:"HISTORY_TABLE_NAME" env-default:"download_history"`

	JWTSecret string `env:"JWT_SECRET"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var e envConfig
		if err := cleanenv.ReadEnv(&e); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}

		c.Port = e.Port
		c.StorageType = e.StorageType
		c.Bucket = e.Bucket
		c.Region = e.Region
		c.S3Endpoint = e.S3Endpoint
		c.AccessKeyID = e.AccessKeyID
		c.SecretAccessKey = e.SecretAccessKey
		c.UsePathStyle = e.UsePathStyle
		c.PresignTTLSeconds = e.PresignTTLSeconds
		c.CheckExists = e.CheckExists
		c.DatabaseType = e.DatabaseType
		c.DatabaseURL = e.DatabaseURL
		c.FilesTable = e.FilesTable
		c.HistoryTable = e.HistoryTable
		c.JWTSecret = e.JWTSecret

		return nil
	}
}
