// config.go: settings struct and functions to load and access the
// FeatherFrame configuration.
package conf

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yaml
var configFiles embed.FS

// Log rotation types
const (
	RotationDaily  = "daily"
	RotationWeekly = "weekly"
	RotationSize   = "size"
)

// Blob storage backend types
const (
	StorageFilesystem = "filesystem"
	StorageS3         = "s3"
)

// LogConfig defines the configuration for a log file
type LogConfig struct {
	Enabled  bool   // true to enable this log
	Path     string // path to log file
	Rotation string // rotation type, "daily", "weekly" or "size"
	MaxSize  int64  // max size in bytes for the size rotation type
}

// MainSettings contains top level settings for the application
type MainSettings struct {
	Name string    // node name, also used as source attribution
	Log  LogConfig // main log configuration
}

// ServerSettings contains HTTP server settings
type ServerSettings struct {
	Port      string // port for the HTTP server
	Host      string // host interface to bind to
	BodyLimit string // maximum request body size accepted by the server
}

// SecuritySettings contains settings for bearer token validation.
// Token issuance is handled by an external identity service; this
// application only validates tokens and extracts the caller identity.
type SecuritySettings struct {
	JWTSecret string // HMAC secret shared with the identity service
	Issuer    string // expected token issuer, empty disables the check
}

// SQLiteSettings contains settings for the SQLite database
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite
	Path    string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database
type MySQLSettings struct {
	Enabled  bool   // true to enable MySQL
	Username string // username for the MySQL database
	Password string // password for the MySQL database
	Database string // database name
	Host     string // host for the MySQL database
	Port     string // port for the MySQL database
}

// OutputSettings contains sighting database settings
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// FilesystemStorageSettings contains settings for the filesystem blob backend
type FilesystemStorageSettings struct {
	Path string // directory that uploaded images are stored under
}

// S3StorageSettings contains settings for the S3 blob backend
type S3StorageSettings struct {
	Bucket          string // bucket name
	Region          string // AWS region
	Endpoint        string // custom endpoint for S3-compatible stores, empty for AWS
	Prefix          string // key prefix inside the bucket
	AccessKeyID     string // static credentials, empty to use the default chain
	SecretAccessKey string
}

// StorageSettings contains blob storage settings
type StorageSettings struct {
	Type       string // blob backend, "filesystem" or "s3"
	Filesystem FilesystemStorageSettings
	S3         S3StorageSettings
}

// ClassifierSettings contains species classifier settings
type ClassifierSettings struct {
	Timeout time.Duration // maximum duration of a single classification call
}

// IngestSettings contains ingestion pipeline settings
type IngestSettings struct {
	MaxBatchSize int   // maximum number of images per upload request
	MaxFileSize  int64 // maximum size in bytes of a single image
}

// Settings contains all application settings
type Settings struct {
	Debug bool // true to enable debug log output

	Main       MainSettings
	Server     ServerSettings
	Security   SecuritySettings
	Output     OutputSettings
	Storage    StorageSettings
	Classifier ClassifierSettings
	Ingest     IngestSettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into a new Settings struct.
func Load() (*Settings, error) {
	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	settingsInstance = settings

	return settings, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	viper.SetEnvPrefix("featherframe")
	viper.AutomaticEnv()

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return createDefaultConfig(configPaths[0])
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default configuration to the first
// config path and re-reads it.
func createDefaultConfig(configPath string) error {
	configFilePath := filepath.Join(configPath, "config.yaml")

	defaultConfig, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		return fmt.Errorf("error reading embedded default config: %w", err)
	}

	if err := os.MkdirAll(configPath, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}
	if err := os.WriteFile(configFilePath, defaultConfig, 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	return viper.ReadInConfig()
}

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in priority order.
func GetDefaultConfigPaths() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		".",
		filepath.Join(homeDir, ".config", "featherframe"),
		"/etc/featherframe",
	}, nil
}

// Setting returns the current settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				panic(err)
			}
		}
	})

	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}
