package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestMustLoad_defaults(t *testing.T) {
	// Arrange
	viper.Reset()
	t.Cleanup(viper.Reset)

	// Act
	cfg := MustLoad()

	// Assert
	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, ":3001", cfg.Server.RunAddress)
	assert.Equal(t, StoreSQLite, cfg.DB.Backend)
	assert.Equal(t, "secureprint.db", cfg.DB.SQLitePath)
	assert.Equal(t, BlobFilesystem, cfg.Blob.Backend)
	assert.Equal(t, "./uploads", cfg.Blob.FSRoot)
	assert.Equal(t, DefaultMasterKey, cfg.Vault.MasterKey)
	assert.Equal(t, time.Hour, cfg.Vault.SweepInterval)
}

func TestMustLoad_environmentOverrides(t *testing.T) {
	// Arrange
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("APP_ENV", EnvDev)
	t.Setenv("RUN_ADDRESS", ":8080")
	t.Setenv("STORE_BACKEND", StorePostgres)
	t.Setenv("DATABASE_URI", "postgres://localhost:5432/secureprint")
	t.Setenv("BLOB_BACKEND", BlobS3)
	t.Setenv("S3_BUCKET", "transfers")
	t.Setenv("SWEEP_INTERVAL", "15m")

	// Act
	cfg := MustLoad()

	// Assert
	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, ":8080", cfg.Server.RunAddress)
	assert.Equal(t, StorePostgres, cfg.DB.Backend)
	assert.Equal(t, "postgres://localhost:5432/secureprint", cfg.DB.DatabaseURI)
	assert.Equal(t, BlobS3, cfg.Blob.Backend)
	assert.Equal(t, "transfers", cfg.Blob.S3Bucket)
	assert.Equal(t, 15*time.Minute, cfg.Vault.SweepInterval)
}
