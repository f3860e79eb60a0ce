package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore"
	"github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/objectkey"
	memoryrepo "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/repo/memory"
	postgresrepo "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/repo/postgres"
	memorystorage "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/storage/memory"
	s3storage "github.com/furquan-nasim/cloud-file-store-sam/pkg/filestore/storage/s3"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top
// of defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:              "8080",
		Region:            "us-east-1",
		PresignTTLSeconds: 900,
		CheckExists:       true,
		StorageType:       "s3",
		DatabaseType:      "memory",
		FilesTable:        postgresrepo.DefaultFilesTable,
		HistoryTable:      postgresrepo.DefaultHistoryTable,
	}
}

// ServerConfig represents server configuration for the file store service
type ServerConfig struct {
	Port string

	// Storage configuration
	StorageType     string // "memory", "s3"
	Bucket          string
	Region          string
	S3Endpoint      string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool

	// Signed URL behavior
	PresignTTLSeconds int
	CheckExists       bool

	// Metadata store configuration
	DatabaseType string // "memory", "postgres"
	DatabaseURL  string
	FilesTable   string
	HistoryTable string

	// Token verification. Empty means tokens are verified upstream and
	// the service trusts the claims it is handed.
	JWTSecret string
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.PresignTTLSeconds <= 0 {
		return errors.New("presign TTL must be positive")
	}
	if c.StorageType != "memory" && c.StorageType != "s3" {
		return errors.New("storage_type must be 'memory' or 's3'")
	}
	if c.StorageType == "s3" && c.Bucket == "" {
		return errors.New("bucket name is required when using s3 storage")
	}
	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}
	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}
	return nil
}

// URLTTL returns the signed URL validity as a duration.
func (c *ServerConfig) URLTTL() time.Duration {
	return time.Duration(c.PresignTTLSeconds) * time.Second
}

// TokenAuth builds the JWT verifier, or nil when no secret is configured.
func (c *ServerConfig) TokenAuth() *jwtauth.JWTAuth {
	if c.JWTSecret == "" {
		return nil
	}
	return jwtauth.New("HS256", []byte(c.JWTSecret), nil)
}

// BuildBlobStore creates the configured storage backend.
func (c *ServerConfig) BuildBlobStore() (filestore.BlobStore, error) {
	switch c.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "s3":
		return s3storage.New(s3storage.Config{
			Region:          c.Region,
			Bucket:          c.Bucket,
			AccessKeyID:     c.AccessKeyID,
			SecretAccessKey: c.SecretAccessKey,
			Endpoint:        c.S3Endpoint,
			UsePathStyle:    c.UsePathStyle,
			PresignDuration: c.PresignTTLSeconds,
		})
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", c.StorageType)
	}
}

// BuildRepository creates the configured metadata repository. The
// returned cleanup releases any held connections and is never nil.
func (c *ServerConfig) BuildRepository(ctx context.Context) (filestore.Repository, func(), error) {
	switch c.DatabaseType {
	case "memory":
		return memoryrepo.New(), func() {}, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		repo := postgresrepo.NewWithPool(pool,
			postgresrepo.WithFilesTable(c.FilesTable),
			postgresrepo.WithHistoryTable(c.HistoryTable),
		)
		return repo, pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

// BuildService wires repository, storage backend and key generation into
// a ready Service.
func (c *ServerConfig) BuildService(ctx context.Context) (filestore.Service, func(), error) {
	repo, cleanup, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := c.BuildBlobStore()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc, err := filestore.New(
		filestore.WithRepository(repo),
		filestore.WithBlobStore(store),
		filestore.WithKeyGenerator(objectkey.NewUploadGenerator()),
		filestore.WithURLTTL(c.URLTTL()),
		filestore.WithExistenceCheck(c.CheckExists),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return svc, cleanup, nil
}
