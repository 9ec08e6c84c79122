package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const (
	defaultMongoHost = "127.0.0.1:27017"
	generatedPort    = 8000
)

// Generate derives a runtime configuration from base and the environment:
// the DSN points at the articlemeta database on MONGODB_HOST, the admin token
// comes from ADMIN_TOKEN (a fresh random token when unset) and the port is
// fixed to 8000. The remaining settings are taken from base.
func Generate(base Config, getenv func(string) string) Config {
	cfg := base

	host := strings.TrimSpace(getenv("MONGODB_HOST"))
	if host == "" {
		host = defaultMongoHost
	}
	cfg.Database.DSN = fmt.Sprintf("mongodb://%s/articlemeta", host)

	token := getenv("ADMIN_TOKEN")
	if token == "" {
		token = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	cfg.Server.AdminToken = token
	cfg.Server.Port = generatedPort

	return cfg
}

// WriteFile writes cfg to path as YAML, readable back by LoadFile. The file
// holds the admin token and is created owner-readable only.
func WriteFile(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
