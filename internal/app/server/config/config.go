package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath = ".env"

	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	// Development-only master key (hex, 32 bytes). Never use in prod.
	DefaultMasterKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreMemory   = "memory"

	BlobFilesystem = "fs"
	BlobS3         = "s3"
	BlobMemory     = "memory"
)

type Config struct {
	Env    string
	Server server
	DB     db
	Blob   blob
	Vault  vault
}

type server struct {
	RunAddress string
}

type db struct {
	Backend     string // postgres | sqlite | memory
	DatabaseURI string
	Migrations  string
	SQLitePath  string
}

type blob struct {
	Backend     string // fs | s3 | memory
	FSRoot      string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

type vault struct {
	MasterKey     string // hex-encoded 32-byte AES key
	SweepInterval time.Duration
}

// MustLoad reads configuration from the environment (with an optional .env
// overlay) and fills in development defaults for anything unset.
func MustLoad() *Config {
	if err := godotenv.Load(envPath); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	cfg := &Config{
		Env: getString("app_env", EnvLocal),
		Server: server{
			RunAddress: getString("run_address", ":3001"),
		},
		DB: db{
			Backend:     getString("store_backend", StoreSQLite),
			DatabaseURI: viper.GetString("database_uri"),
			Migrations:  getString("migrations_path", "migrations"),
			SQLitePath:  getString("sqlite_path", "secureprint.db"),
		},
		Blob: blob{
			Backend:     getString("blob_backend", BlobFilesystem),
			FSRoot:      getString("upload_dir", "./uploads"),
			S3Bucket:    getString("s3_bucket", "secureprint"),
			S3Region:    getString("s3_region", "us-east-1"),
			S3Endpoint:  viper.GetString("s3_endpoint"),
			S3AccessKey: viper.GetString("s3_access_key"),
			S3SecretKey: viper.GetString("s3_secret_key"),
		},
		Vault: vault{
			MasterKey:     getString("vault_master_key", DefaultMasterKey),
			SweepInterval: getDuration("sweep_interval", time.Hour),
		},
	}

	if cfg.Env == EnvProd && cfg.Vault.MasterKey == DefaultMasterKey {
		log.Fatalln("VAULT_MASTER_KEY must be set explicitly in prod")
	}

	return cfg
}

func getString(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := viper.GetDuration(key); v > 0 {
		return v
	}
	return fallback
}
