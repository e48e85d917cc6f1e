package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultURI                = "mongodb://localhost:27017/"
	DefaultDatabase           = "gff3dev"
	DefaultBucket             = "gff3"
	DefaultMetadataCollection = "gff3_metadata"
	DefaultLogLevel           = "info"
	DefaultConnectTimeout     = Duration(10 * time.Second)
	DefaultOperationTimeout   = Duration(60 * time.Second)

	configFileName = ".gffstore.toml"
	envFileName    = ".env"

	configDirEnvKey          = "GFFSTORE_CONFIG_DIR"
	TrustProjectConfigEnvKey = "GFFSTORE_TRUST_PROJECT_CONFIG"
	envFileEnvKey            = "GFFSTORE_ENV_FILE"

	URIEnvKey                = "MONGO_URI"
	DatabaseEnvKey           = "MONGO_DB_NAME"
	BucketEnvKey             = "MONGO_GRIDFS_BUCKET"
	MetadataCollectionEnvKey = "MONGO_METADATA_COLLECTION"
	ConnectTimeoutEnvKey     = "GFFSTORE_CONNECT_TIMEOUT"
	OperationTimeoutEnvKey   = "GFFSTORE_OPERATION_TIMEOUT"
)

// Duration is a time.Duration that reads "90s"-style strings or bare seconds
// from TOML and the environment.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// Set parses raw into d so Duration can back a command-line flag.
func (d *Duration) Set(raw string) error {
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Type names the flag value type in usage output.
func (d *Duration) Type() string {
	return "duration"
}

// ParseDuration accepts Go duration syntax or a bare number of seconds.
func ParseDuration(raw string) (Duration, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, fmt.Errorf("duration %q must not be negative", raw)
		}
		return Duration(time.Duration(seconds) * time.Second), nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	if parsed < 0 {
		return 0, fmt.Errorf("duration %q must not be negative", raw)
	}
	return Duration(parsed), nil
}

// Config is the resolved runtime configuration, built once at startup.
type Config struct {
	URI                      string   `toml:"uri"`
	Database                 string   `toml:"database"`
	Bucket                   string   `toml:"bucket"`
	MetadataCollection       string   `toml:"metadata_collection"`
	LogLevel                 string   `toml:"log_level"`
	ConnectTimeout           Duration `toml:"connect_timeout"`
	OperationTimeout         Duration `toml:"operation_timeout"`
	CleanupOnMetadataFailure bool     `toml:"cleanup_on_metadata_failure"`

	TrustedProjectConfigPath string `toml:"-"`
	EnvFilePath              string `toml:"-"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		URI:                DefaultURI,
		Database:           DefaultDatabase,
		Bucket:             DefaultBucket,
		MetadataCollection: DefaultMetadataCollection,
		LogLevel:           DefaultLogLevel,
		ConnectTimeout:     DefaultConnectTimeout,
		OperationTimeout:   DefaultOperationTimeout,
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

// loadEnvFile loads key=value pairs into the process environment. Variables
// that are already set keep their values.
func loadEnvFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if err := godotenv.Load(path); err != nil {
		return false, fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(TrustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

func envFilePath() string {
	if path := strings.TrimSpace(os.Getenv(envFileEnvKey)); path != "" {
		return path
	}
	return envFileName
}

var allowedKeys = []string{
	"uri",
	"database",
	"bucket",
	"metadata_collection",
	"log_level",
	"connect_timeout",
	"operation_timeout",
	"cleanup_on_metadata_failure",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "uri":
		return c.URI, nil
	case "database":
		return c.Database, nil
	case "bucket":
		return c.Bucket, nil
	case "metadata_collection":
		return c.MetadataCollection, nil
	case "log_level":
		return c.LogLevel, nil
	case "connect_timeout":
		return c.ConnectTimeout.String(), nil
	case "operation_timeout":
		return c.OperationTimeout.String(), nil
	case "cleanup_on_metadata_failure":
		return strconv.FormatBool(c.CleanupOnMetadataFailure), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"uri", c.URI},
		{"database", c.Database},
		{"bucket", c.Bucket},
		{"metadata_collection", c.MetadataCollection},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s must not be empty", r.name)
		}
	}
	if c.ConnectTimeout < 0 || c.OperationTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// WriteTarget is the config file a `config set` writes to.
type WriteTarget struct {
	Path string
	// Loaded reports whether Load reads Path with the current environment.
	Loaded bool
}

// ResolveWriteTarget picks the global file, or the project file in the
// working directory when project is true.
func ResolveWriteTarget(project bool) (WriteTarget, error) {
	if !project {
		path, err := GlobalPath()
		if err != nil {
			return WriteTarget{}, err
		}
		return WriteTarget{Path: path, Loaded: true}, nil
	}
	path, err := ProjectPath()
	if err != nil {
		return WriteTarget{}, err
	}
	_, overridden := overrideConfigPath()
	return WriteTarget{Path: path, Loaded: overridden || trustProjectConfig()}, nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	if !IsAllowedKey(key) {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return err
	}
	data[key] = parsedValue

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load resolves configuration: defaults, then TOML config files, then the
// .env file, then process environment. Command-line flags are applied on top
// by the caller.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				loaded, err := loadFileIfExists(projectPath, &cfg)
				if err != nil {
					return nil, err
				}
				if loaded {
					cfg.TrustedProjectConfigPath = projectPath
				}
			}
		}
	}

	envPath := envFilePath()
	loaded, err := loadEnvFile(envPath)
	if err != nil {
		return nil, err
	}
	if loaded {
		cfg.EnvFilePath = envPath
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(URIEnvKey)); v != "" {
		c.URI = v
	}
	if v := strings.TrimSpace(os.Getenv(DatabaseEnvKey)); v != "" {
		c.Database = v
	}
	if v := strings.TrimSpace(os.Getenv(BucketEnvKey)); v != "" {
		c.Bucket = v
	}
	if v := strings.TrimSpace(os.Getenv(MetadataCollectionEnvKey)); v != "" {
		c.MetadataCollection = v
	}
	if v := strings.TrimSpace(os.Getenv(ConnectTimeoutEnvKey)); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", ConnectTimeoutEnvKey, err)
		}
		c.ConnectTimeout = d
	}
	if v := strings.TrimSpace(os.Getenv(OperationTimeoutEnvKey)); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", OperationTimeoutEnvKey, err)
		}
		c.OperationTimeout = d
	}
	return nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "connect_timeout", "operation_timeout":
		d, err := ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return d.String(), nil
	case "cleanup_on_metadata_failure":
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s must be true or false", key)
		}
		return parsed, nil
	case "uri", "database", "bucket", "metadata_collection":
		if value == "" {
			return nil, fmt.Errorf("%s must not be empty", key)
		}
		return value, nil
	default:
		return value, nil
	}
}
