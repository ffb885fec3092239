package sitecontent

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/surrealdb/sitecontent/pkg/content"
	"github.com/surrealdb/sitecontent/pkg/logger"
)

// Store drivers.
const (
	StoreMemory    = "memory"
	StoreSurrealDB = "surrealdb"
	StorePostgres  = "postgres"
	StoreSQLite    = "sqlite"
)

// EnvPrefix prefixes every environment variable, e.g. SITECONTENT_SURREALDB_URL.
const EnvPrefix = "SITECONTENT"

// Config holds all configuration options of the application.
type Config struct {
	// Store selects the document store driver.
	Store     string          `mapstructure:"store"`
	SurrealDB SurrealDBConfig `mapstructure:"surrealdb"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	SQLite    SQLiteConfig    `mapstructure:"sqlite"`

	// Timeout bounds every store call.
	Timeout time.Duration `mapstructure:"timeout"`
	// ReadOnly starts the application with writes rejected.
	ReadOnly bool `mapstructure:"read_only"`

	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Repair   RepairConfig   `mapstructure:"repair"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Log      LogConfig      `mapstructure:"log"`
}

type SurrealDBConfig struct {
	URL       string `mapstructure:"url"`
	Namespace string `mapstructure:"namespace"`
	Database  string `mapstructure:"database"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	AdminRole string `mapstructure:"admin_role"`
}

type RepairConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SnapshotConfig selects where snapshots go. S3 is used when a bucket is
// set, the local directory otherwise.
type SnapshotConfig struct {
	Dir string   `mapstructure:"dir"`
	S3  S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Store: StoreSurrealDB,
		SurrealDB: SurrealDBConfig{
			URL:       "ws://localhost:8000",
			Namespace: "site",
			Database:  "content",
			Username:  "root",
			Password:  "root",
		},
		SQLite:   SQLiteConfig{Path: "sitecontent.db"},
		Timeout:  content.DefaultTimeout,
		HTTP:     HTTPConfig{Addr: ":8080"},
		Auth:     AuthConfig{AdminRole: "admin"},
		Repair:   RepairConfig{Concurrency: content.DefaultRepairConcurrency},
		Snapshot: SnapshotConfig{Dir: "snapshots"},
		Log:      LogConfig{Level: "info", Format: logger.FormatJSON},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory:
	case StoreSurrealDB:
		if c.SurrealDB.URL == "" {
			errs = append(errs, fmt.Errorf("surrealdb.url is required"))
		}
		if c.SurrealDB.Namespace == "" || c.SurrealDB.Database == "" {
			errs = append(errs, fmt.Errorf("surrealdb.namespace and surrealdb.database are required"))
		}
	case StorePostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, fmt.Errorf("postgres.dsn is required"))
		}
	case StoreSQLite:
		if c.SQLite.Path == "" {
			errs = append(errs, fmt.Errorf("sqlite.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if c.Repair.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("repair.concurrency must be positive"))
	}
	if c.Snapshot.Dir == "" && c.Snapshot.S3.Bucket == "" {
		errs = append(errs, fmt.Errorf("snapshot.dir or snapshot.s3.bucket is required"))
	}
	switch c.Log.Format {
	case logger.FormatJSON, logger.FormatConsole:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// setDefaults registers every key so that environment variables are seen
// by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := NewConfig()
	v.SetDefault("store", d.Store)
	v.SetDefault("surrealdb.url", d.SurrealDB.URL)
	v.SetDefault("surrealdb.namespace", d.SurrealDB.Namespace)
	v.SetDefault("surrealdb.database", d.SurrealDB.Database)
	v.SetDefault("surrealdb.username", d.SurrealDB.Username)
	v.SetDefault("surrealdb.password", d.SurrealDB.Password)
	v.SetDefault("postgres.dsn", d.Postgres.DSN)
	v.SetDefault("sqlite.path", d.SQLite.Path)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("read_only", d.ReadOnly)
	v.SetDefault("http.addr", d.HTTP.Addr)
	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.admin_role", d.Auth.AdminRole)
	v.SetDefault("repair.concurrency", d.Repair.Concurrency)
	v.SetDefault("snapshot.dir", d.Snapshot.Dir)
	v.SetDefault("snapshot.s3.bucket", d.Snapshot.S3.Bucket)
	v.SetDefault("snapshot.s3.prefix", d.Snapshot.S3.Prefix)
	v.SetDefault("snapshot.s3.region", d.Snapshot.S3.Region)
	v.SetDefault("snapshot.s3.endpoint", d.Snapshot.S3.Endpoint)
	v.SetDefault("snapshot.s3.path_style", d.Snapshot.S3.PathStyle)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.path", d.Log.Path)
}

// LoadConfig reads configuration from defaults, the optional config file,
// SITECONTENT_* environment variables and any flags already bound to v,
// in increasing precedence. An empty cfgFile looks for sitecontent.yaml in
// the working directory and is not an error when none exists.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("sitecontent")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := new(Config)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
