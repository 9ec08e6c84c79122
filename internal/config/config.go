package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Broker   BrokerConfig   `yaml:"broker"`
	Loader   LoaderConfig   `yaml:"loader"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds the settings of the process that exposes the broker.
type ServerConfig struct {
	Host       string `yaml:"host"        env:"SERVER_HOST" env-default:"0.0.0.0"`
	Port       int    `yaml:"port"        env:"SERVER_PORT" env-default:"8000"  validate:"min=1,max=65535"`
	AdminToken string `yaml:"admin_token" env:"ADMIN_TOKEN"`
}

// DatabaseConfig holds the store connection settings. The DSN scheme picks
// the backend: postgres://, mongodb:// or memory://.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-default:"mongodb://127.0.0.1:27017/articlemeta" validate:"required"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"  validate:"min=1"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"2"   validate:"min=0"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout"    env:"DATABASE_CONNECT_TIMEOUT"    env-default:"10s" validate:"gt=0"`
}

// BrokerConfig holds listing defaults.
type BrokerConfig struct {
	PageLimit       int    `yaml:"page_limit"       env:"BROKER_PAGE_LIMIT"       env-default:"1000"                validate:"min=1"`
	IdentifiersFrom string `yaml:"identifiers_from" env:"BROKER_IDENTIFIERS_FROM" env-default:"1500-01-01"          validate:"required"`
	HistoryFrom     string `yaml:"history_from"     env:"BROKER_HISTORY_FROM"     env-default:"1500-01-01T00:00:00" validate:"required"`
}

// LoaderConfig holds bulk loader settings.
type LoaderConfig struct {
	Workers int `yaml:"workers" env:"LOADER_WORKERS" env-default:"4" validate:"min=1,max=64"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json" validate:"oneof=json text"`
}
