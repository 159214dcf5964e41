// Package config loads the YAML configuration for request logging and
// builds the collaborators it describes.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gookit/goutil/strutil"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yoshino-s/cloudlogging/convert"
	"github.com/yoshino-s/cloudlogging/httplog"
	"github.com/yoshino-s/cloudlogging/jsontext"
	"github.com/yoshino-s/cloudlogging/logging"
)

var (
	ErrMissingProjectID = errors.New("cloudlogging: project id is required")
	ErrInvalidConfig    = errors.New("cloudlogging: invalid config")
)

// Credentials is the service account the logs are written as. It is
// passed around explicitly and never written to disk or the environment.
type Credentials struct {
	Type         string `yaml:"type"`
	ProjectID    string `yaml:"project_id"`
	PrivateKeyID string `yaml:"private_key_id"`
	PrivateKey   string `yaml:"private_key"`
	ClientEmail  string `yaml:"client_email"`
	ClientID     string `yaml:"client_id"`
	AuthURI      string `yaml:"auth_uri"`
	TokenURI     string `yaml:"token_uri"`
}

// IsZero lets yaml omit empty credentials.
func (c Credentials) IsZero() bool {
	return c == Credentials{}
}

type ConverterConfig struct {
	MaxDepth int    `yaml:"max_depth"`
	TagName  string `yaml:"tag_name"`
	Lenient  *bool  `yaml:"lenient"`
}

type HTTPConfig struct {
	MaxBodyBytes    int64    `yaml:"max_body_bytes"`
	RedactedHeaders []string `yaml:"redacted_headers"`
}

type CollectorConfig struct {
	// URL of a collector entries are also sent to.
	URL string `yaml:"url"`
	// Serve mounts a collector endpoint next to the instrumented handler.
	Serve bool `yaml:"serve"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type Config struct {
	Enabled      bool              `yaml:"enabled"`
	ProjectID    string            `yaml:"project_id"`
	LogID        string            `yaml:"log_id"`
	ResourceType string            `yaml:"resource_type"`
	Labels       map[string]string `yaml:"labels"`
	Credentials  Credentials       `yaml:"credentials,omitempty"`
	Converter    ConverterConfig   `yaml:"converter"`
	HTTP         HTTPConfig        `yaml:"http"`
	Collector    CollectorConfig   `yaml:"collector"`
	Log          LogConfig         `yaml:"log"`
}

// Default returns the configuration used for keys a file leaves out.
func Default() *Config {
	c := &Config{Enabled: true}
	c.applyDefaults()
	return c
}

// Load reads and parses the YAML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cloudlogging: read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	c := &Config{Enabled: true}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if strutil.IsBlank(c.ProjectID) {
		c.ProjectID = c.Credentials.ProjectID
	}
	if strutil.IsBlank(c.LogID) {
		c.LogID = httplog.DefaultLogID
	}
	if strutil.IsBlank(c.ResourceType) {
		c.ResourceType = logging.GlobalResource.Type
	}
	if c.Converter.MaxDepth <= 0 {
		c.Converter.MaxDepth = convert.DefaultMaxDepth
	}
	if c.Converter.Lenient == nil {
		lenient := true
		c.Converter.Lenient = &lenient
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = httplog.DefaultMaxBodyBytes
	}
	if c.HTTP.RedactedHeaders == nil {
		c.HTTP.RedactedHeaders = append([]string{}, httplog.DefaultRedactedHeaders...)
	}
	if strutil.IsBlank(c.Log.Level) {
		c.Log.Level = "info"
	}
}

// Validate reports the first problem that would stop entries being
// written. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if strutil.IsBlank(c.ProjectID) {
		return ErrMissingProjectID
	}
	if c.Credentials.ProjectID != "" && c.Credentials.ProjectID != c.ProjectID {
		return fmt.Errorf("%w: project id %q does not match credentials project %q",
			ErrInvalidConfig, c.ProjectID, c.Credentials.ProjectID)
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// NewLogger builds the process logger at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	return zc.Build()
}

// LogName is the full log name entries are written under.
func (c *Config) LogName() string {
	return logging.LogName(c.ProjectID, c.LogID)
}

func (c *Config) Resource() logging.Resource {
	return logging.Resource{Type: c.ResourceType}
}

// NewConverter builds the object converter described by the config.
func (c *Config) NewConverter(logger *zap.Logger) *convert.Converter {
	text := jsontext.New(
		jsontext.WithLenient(*c.Converter.Lenient),
		jsontext.WithMaxDepth(c.Converter.MaxDepth),
		jsontext.WithLogger(logger),
	)
	return convert.New(
		convert.WithLogger(logger),
		convert.WithMaxDepth(c.Converter.MaxDepth),
		convert.WithTagName(c.Converter.TagName),
		convert.WithTextConverter(text),
	)
}

// MiddlewareOptions returns the httplog options matching the config.
func (c *Config) MiddlewareOptions(logger *zap.Logger) []httplog.Option {
	return []httplog.Option{
		httplog.WithLogger(logger),
		httplog.WithConverter(c.NewConverter(logger)),
		httplog.WithProjectID(c.ProjectID),
		httplog.WithLogID(c.LogID),
		httplog.WithResource(c.Resource()),
		httplog.WithMaxBodyBytes(c.HTTP.MaxBodyBytes),
		httplog.WithRedactedHeaders(c.HTTP.RedactedHeaders...),
	}
}
