package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Terrain Web.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Page     PageConfig     `yaml:"page"`
	API      APIConfig      `yaml:"api"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig contains deployment identification.
type SiteConfig struct {
	ID   string `yaml:"id" validate:"required"`
	Name string `yaml:"name"`
}

// PageConfig controls the rendered embed page.
type PageConfig struct {
	// DataFile is the Panda3D package handed to the plugin as 'data'.
	DataFile string `yaml:"data_file" validate:"required"`

	// InstanceID is the plugin instance handed to the plugin as 'id'.
	InstanceID string `yaml:"instance_id" validate:"required"`

	// ScriptPath is the relative URL of RunPanda3D.js.
	ScriptPath string `yaml:"script_path" validate:"required,excludesall=\"'<>&"`

	// StaticDir holds the bootstrap script, fallback image and .p3d package.
	// Empty disables static file serving.
	StaticDir string `yaml:"static_dir"`

	// ForwardUnvalidatedParams forwards every query parameter into the
	// plugin call. Keys and values are not filtered.
	ForwardUnvalidatedParams bool `yaml:"forward_unvalidated_params"`

	// EscapeMode is "hardened" (escape forwarded text) or "parity"
	// (write it verbatim, as the legacy page did).
	EscapeMode string `yaml:"escape_mode" validate:"omitempty,oneof=hardened parity"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port" validate:"min=1,max=65535"`
	TLS      TLSConfig        `yaml:"tls"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// TLSConfig contains TLS certificate settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file" validate:"required_if=Enabled true"`
	KeyFile  string `yaml:"key_file" validate:"required_if=Enabled true"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read" validate:"min=0"`
	Write int `yaml:"write" validate:"min=0"`
	Idle  int `yaml:"idle" validate:"min=0"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// DatabaseConfig contains SQLite settings for the launch log.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path" validate:"required_if=Enabled true"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout" validate:"min=0"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos" validate:"min=0,max=2"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url" validate:"required_if=Enabled true,omitempty,url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org" validate:"required_if=Enabled true"`
	Bucket        string `yaml:"bucket" validate:"required_if=Enabled true"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
	Output string `yaml:"output" validate:"omitempty,oneof=stdout stderr"`
}

// validate is shared; validator.Validate caches struct metadata.
var validate = validator.New()

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TERRAINWEB_SECTION_KEY
// For example: TERRAINWEB_API_PORT, TERRAINWEB_PAGE_ESCAPE_MODE
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the defaults of the legacy Terrain page.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:   "terrain",
			Name: "Terrain",
		},
		Page: PageConfig{
			DataFile:                 "myapp.p3d",
			InstanceID:               "Terrain",
			ScriptPath:               "RunPanda3D.js",
			StaticDir:                "./web",
			ForwardUnvalidatedParams: true,
			EscapeMode:               "hardened",
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Path:        "./data/terrainweb.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "terrainweb",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TERRAINWEB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Page
	if v := os.Getenv("TERRAINWEB_PAGE_STATIC_DIR"); v != "" {
		cfg.Page.StaticDir = v
	}
	if v := os.Getenv("TERRAINWEB_PAGE_ESCAPE_MODE"); v != "" {
		cfg.Page.EscapeMode = v
	}
	if v := os.Getenv("TERRAINWEB_PAGE_FORWARD_UNVALIDATED_PARAMS"); v != "" {
		if b, ok := parseSwitch(v); ok {
			cfg.Page.ForwardUnvalidatedParams = b
		}
	}

	// API
	if v := os.Getenv("TERRAINWEB_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("TERRAINWEB_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// Database
	if v := os.Getenv("TERRAINWEB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("TERRAINWEB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TERRAINWEB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TERRAINWEB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("TERRAINWEB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// parseSwitch accepts the usual boolean spellings plus on/off.
func parseSwitch(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "yes":
		return true, true
	case "off", "no":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

// Validate checks the configuration for errors.
//
// Struct tag rules are checked first; every failing field is reported
// together in a single error.
func (c *Config) Validate() error {
	var errs []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("configuration errors: %w", err)
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describeFieldError(fe))
		}
	}

	if c.MQTT.Enabled && c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
	}
	if c.MQTT.Enabled && (c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535) {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// describeFieldError turns a validator error into "section.key <problem>".
func describeFieldError(fe validator.FieldError) string {
	field := yamlPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_if":
		return field + " is required when enabled"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s is out of range (%s %s)", field, fe.Tag(), fe.Param())
	case "excludesall":
		return field + " contains forbidden characters"
	case "url":
		return field + " must be a valid URL"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// yamlPath converts a validator namespace ("Config.Page.ScriptPath") to the
// YAML key path ("page.script_path").
func yamlPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

// snakeCase converts a Go field name to the YAML naming used in this file.
// Runs of capitals are kept together: "QoS" -> "qos", "MQTT" -> "mqtt".
func snakeCase(s string) string {
	if name, ok := fieldNameOverrides[s]; ok {
		return name
	}
	var b strings.Builder
	for i, r := range s {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper && i > 0 {
			prev := rune(s[i-1])
			nextLower := i+1 < len(s) && s[i+1] >= 'a' && s[i+1] <= 'z'
			if (prev >= 'a' && prev <= 'z') || nextLower {
				b.WriteByte('_')
			}
		}
		if isUpper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// fieldNameOverrides covers names snakeCase cannot derive.
var fieldNameOverrides = map[string]string{
	"QoS":      "qos",
	"InfluxDB": "influxdb",
	"WALMode":  "wal_mode",
	"URL":      "url",
	"ClientID": "client_id",
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
