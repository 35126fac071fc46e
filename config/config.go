// Package config provides environment-variable configuration loading and
// validation for the elogy core, following the same layered
// env/flag/config-file pattern used throughout the source corpus this
// module was adapted from.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvConfig provides utilities for loading configuration from environment variables
type EnvConfig struct {
	prefix string // Optional prefix for all environment variables
}

// NewEnvConfig creates a new environment configuration loader
func NewEnvConfig(prefix string) *EnvConfig {
	return &EnvConfig{
		prefix: prefix,
	}
}

// GetString retrieves a string value from environment with optional default
func (ec *EnvConfig) GetString(key, defaultValue string) string {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		return value
	}
	return defaultValue
}

// MustGetString retrieves a required string value from environment or panics
func (ec *EnvConfig) MustGetString(key string) string {
	fullKey := ec.buildKey(key)
	value := os.Getenv(fullKey)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s not set", fullKey))
	}
	return value
}

// GetInt retrieves an integer value from environment with optional default
func (ec *EnvConfig) GetInt(key string, defaultValue int) int {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean value from environment with optional default
func (ec *EnvConfig) GetBool(key string, defaultValue bool) bool {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// GetDuration retrieves a duration value from environment with optional default
func (ec *EnvConfig) GetDuration(key string, defaultValue time.Duration) time.Duration {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		duration, err := time.ParseDuration(value)
		if err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetStringSlice retrieves a comma-separated string slice from environment
func (ec *EnvConfig) GetStringSlice(key string, defaultValue []string) []string {
	fullKey := ec.buildKey(key)
	if value := os.Getenv(fullKey); value != "" {
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultValue
}

// buildKey builds the full environment variable key with optional prefix
func (ec *EnvConfig) buildKey(key string) string {
	if ec.prefix != "" {
		return ec.prefix + "_" + key
	}
	return key
}

// ServerConfig contains the HTTP server's own configuration (§6 API Surface).
type ServerConfig struct {
	Port            int
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Debug           bool
}

// LoadServerConfig loads server configuration from environment
func LoadServerConfig(prefix string) ServerConfig {
	env := NewEnvConfig(prefix)
	return ServerConfig{
		Port:            env.GetInt("PORT", 8080),
		Host:            env.GetString("HOST", "0.0.0.0"),
		ReadTimeout:     env.GetDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    env.GetDuration("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		Debug:           env.GetBool("DEBUG", false),
	}
}

// DatabaseConfig configures the database connection. Driver is "sqlite"
// (default, a single file) or "postgres". Name is what store.Open receives:
// the sqlite file path or the postgres DSN.
type DatabaseConfig struct {
	Driver string
	Name   string // sqlite file path or postgres DSN
	URL    string // loaded from the environment; the server does not read it
}

// LoadDatabaseConfig loads database configuration from environment
func LoadDatabaseConfig(prefix string) DatabaseConfig {
	env := NewEnvConfig(prefix)
	return DatabaseConfig{
		Driver: env.GetString("DRIVER", "sqlite"),
		Name:   env.GetString("NAME", "elogy.db"),
		URL:    env.GetString("URL", ""),
	}
}

// UploadConfig configures the attachment blob store: a local filesystem
// root, or an S3-backed backend.
type UploadConfig struct {
	Folder   string
	Backend  string // "local" (default) or "s3"
	S3Bucket string
	S3Region string
}

// LoadUploadConfig loads attachment blob-storage configuration from environment
func LoadUploadConfig(prefix string) UploadConfig {
	env := NewEnvConfig(prefix)
	return UploadConfig{
		Folder:   env.GetString("UPLOAD_FOLDER", "./uploads"),
		Backend:  env.GetString("UPLOAD_BACKEND", "local"),
		S3Bucket: env.GetString("UPLOAD_S3_BUCKET", ""),
		S3Region: env.GetString("UPLOAD_S3_REGION", "us-east-1"),
	}
}

// ActionsConfig bounds the post-commit signal dispatcher's worker pool.
type ActionsConfig struct {
	WorkerCount int
	QueueDepth  int
}

// LoadActionsConfig loads dispatcher configuration from environment
func LoadActionsConfig(prefix string) ActionsConfig {
	env := NewEnvConfig(prefix)
	return ActionsConfig{
		WorkerCount: env.GetInt("ACTIONS_WORKER_COUNT", 4),
		QueueDepth:  env.GetInt("ACTIONS_QUEUE_DEPTH", 256),
	}
}

// CacheConfig configures the optional Redis-backed search result cache;
// never authoritative — an empty URL disables caching.
type CacheConfig struct {
	RedisURL string
	TTL      time.Duration
}

// LoadCacheConfig loads search cache configuration from environment
func LoadCacheConfig(prefix string) CacheConfig {
	env := NewEnvConfig(prefix)
	return CacheConfig{
		RedisURL: env.GetString("SEARCH_CACHE_REDIS_URL", ""),
		TTL:      env.GetDuration("SEARCH_CACHE_TTL", 30*time.Second),
	}
}

// ServiceConfig contains common service identity configuration
type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
	LogFormat   string
	Secret      string // reserved for the API layer's own session handling
}

// LoadServiceConfig loads service configuration from environment
func LoadServiceConfig(prefix string) ServiceConfig {
	env := NewEnvConfig(prefix)
	return ServiceConfig{
		Name:        env.GetString("NAME", "elogy"),
		Version:     env.GetString("VERSION", "0.0.1"),
		Environment: env.GetString("ENVIRONMENT", "development"),
		LogLevel:    env.GetString("LOG_LEVEL", "info"),
		LogFormat:   env.GetString("LOG_FORMAT", "text"),
		Secret:      env.GetString("SECRET", ""),
	}
}

// CORSConfig contains CORS configuration for the API surface
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

// LoadCORSConfig loads CORS configuration from environment
func LoadCORSConfig(prefix string) CORSConfig {
	env := NewEnvConfig(prefix)
	return CORSConfig{
		AllowedOrigins: env.GetStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: env.GetStringSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: env.GetStringSlice("ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		MaxAge:         env.GetDuration("MAX_AGE", 12*time.Hour),
	}
}

// LDAPConfig configures the external user-directory collaborator; the core
// never dials LDAP itself, it only carries this config through to
// whichever directory lookup implementation the caller wires in).
type LDAPConfig struct {
	URL      string
	BindDN   string
	BindPass string
	BaseDN   string
}

// LoadLDAPConfig loads LDAP configuration from environment
func LoadLDAPConfig(prefix string) LDAPConfig {
	env := NewEnvConfig(prefix)
	return LDAPConfig{
		URL:      env.GetString("LDAP_URL", ""),
		BindDN:   env.GetString("LDAP_BIND_DN", ""),
		BindPass: env.GetString("LDAP_BIND_PASSWORD", ""),
		BaseDN:   env.GetString("LDAP_BASE_DN", ""),
	}
}

// Validator provides configuration validation utilities
type Validator struct {
	errors []string
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	return &Validator{
		errors: make([]string, 0),
	}
}

// RequireString validates that a string field is not empty
func (v *Validator) RequireString(field, value string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
	}
}

// RequirePositiveInt validates that an integer field is positive
func (v *Validator) RequirePositiveInt(field string, value int) {
	if value <= 0 {
		v.errors = append(v.errors, fmt.Sprintf("%s must be positive", field))
	}
}

// RequireOneOf validates that a value is one of the allowed options
func (v *Validator) RequireOneOf(field, value string, allowed []string) {
	if value == "" {
		v.errors = append(v.errors, fmt.Sprintf("%s is required", field))
		return
	}
	for _, option := range allowed {
		if value == option {
			return
		}
	}
	v.errors = append(v.errors, fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")))
}

// IsValid returns true if there are no validation errors
func (v *Validator) IsValid() bool {
	return len(v.errors) == 0
}

// ErrorString returns all validation errors as a single string
func (v *Validator) ErrorString() string {
	if len(v.errors) == 0 {
		return ""
	}
	return strings.Join(v.errors, "; ")
}

// Validate runs validation and returns error if invalid
func (v *Validator) Validate() error {
	if !v.IsValid() {
		return fmt.Errorf("configuration validation failed: %s", v.ErrorString())
	}
	return nil
}

// AllConfig aggregates every configuration section the core needs.
type AllConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	Upload   UploadConfig
	Actions  ActionsConfig
	Cache    CacheConfig
	Service  ServiceConfig
	CORS     CORSConfig
	LDAP     LDAPConfig
}

// ConfigLoader provides a fluent interface for loading configuration
type ConfigLoader struct {
	prefix string
}

// NewConfigLoader creates a new configuration loader
func NewConfigLoader(prefix string) *ConfigLoader {
	return &ConfigLoader{prefix: prefix}
}

// LoadAll loads and validates every configuration section
func (cl *ConfigLoader) LoadAll() (*AllConfig, error) {
	cfg := &AllConfig{
		Server:   LoadServerConfig(cl.prefix),
		Database: LoadDatabaseConfig(cl.prefix + "_DATABASE"),
		Upload:   LoadUploadConfig(cl.prefix),
		Actions:  LoadActionsConfig(cl.prefix),
		Cache:    LoadCacheConfig(cl.prefix),
		Service:  LoadServiceConfig(cl.prefix),
		CORS:     LoadCORSConfig(cl.prefix + "_CORS"),
		LDAP:     LoadLDAPConfig(cl.prefix),
	}

	if err := cl.validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cl *ConfigLoader) validate(cfg *AllConfig) error {
	validator := NewValidator()

	validator.RequireOneOf("Service.Environment", cfg.Service.Environment,
		[]string{"development", "staging", "production"})
	validator.RequireOneOf("Service.LogLevel", cfg.Service.LogLevel,
		[]string{"debug", "info", "warn", "error"})
	validator.RequirePositiveInt("Server.Port", cfg.Server.Port)
	validator.RequireOneOf("Database.Driver", cfg.Database.Driver, []string{"sqlite", "postgres"})
	validator.RequireString("Upload.Folder", cfg.Upload.Folder)
	validator.RequireOneOf("Upload.Backend", cfg.Upload.Backend, []string{"local", "s3"})
	validator.RequirePositiveInt("Actions.WorkerCount", cfg.Actions.WorkerCount)

	return validator.Validate()
}
