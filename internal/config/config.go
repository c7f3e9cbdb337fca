package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr          string `envconfig:"ADDR" default:":8080"`
	DBDriver      string `envconfig:"DB_DRIVER" default:"sqlite3"`
	DBSource      string `envconfig:"DB_SOURCE" default:"huddle.db"`
	BlobDir       string `envconfig:"BLOB_DIR" default:"blobs"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
}

// Load reads an optional .env file, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("huddle", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
