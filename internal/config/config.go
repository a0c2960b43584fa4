package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable read by Load
const EnvPrefix = "TTCP"

const (
	// DefaultBufferSize is the size of a single read, and so the largest chunk
	DefaultBufferSize = 1024

	// DefaultQueueDepth is the number of chunks a pipeline buffers per direction
	DefaultQueueDepth = 1024

	// DefaultReportInterval is how often inbound throughput is logged
	DefaultReportInterval = time.Second

	// DefaultDialTimeout bounds how long a client waits to connect
	DefaultDialTimeout = 10 * time.Second
)

// Config holds the runtime tunables shared by every ttcp tool
type Config struct {
	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string `envconfig:"LOG_LEVEL" yaml:"log_level"`

	// LogFormat is either console or json
	LogFormat string `envconfig:"LOG_FORMAT" yaml:"log_format"`

	// Transport selects the netcat carrier (tcp, ws)
	Transport Transport `envconfig:"TRANSPORT" yaml:"transport"`

	// BufferSize is the read size of each pipeline task
	BufferSize int `envconfig:"BUFFER_SIZE" yaml:"buffer_size"`

	// QueueDepth is the capacity, in chunks, of each pipeline queue
	QueueDepth int `envconfig:"QUEUE_DEPTH" yaml:"queue_depth"`

	// ReportInterval is the throughput sampling period
	ReportInterval time.Duration `envconfig:"REPORT_INTERVAL" yaml:"report_interval"`

	// DialTimeout bounds connection establishment in client roles
	DialTimeout time.Duration `envconfig:"DIAL_TIMEOUT" yaml:"dial_timeout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "console",
		Transport:      TransportTCP,
		BufferSize:     DefaultBufferSize,
		QueueDepth:     DefaultQueueDepth,
		ReportInterval: DefaultReportInterval,
		DialTimeout:    DefaultDialTimeout,
	}
}

// Load builds a Config from defaults, then the YAML file at path (if any),
// then TTCP_* environment variables
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	cfg.Transport = ParseTransport(cfg.Transport.String())
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration can drive a relay
func (c *Config) Validate() error {
	var problems []string

	if !c.Transport.IsValid() {
		problems = append(problems, fmt.Sprintf("unknown transport %q", c.Transport))
	}
	if c.BufferSize <= 0 {
		problems = append(problems, "buffer size must be positive")
	}
	if c.QueueDepth <= 0 {
		problems = append(problems, "queue depth must be positive")
	}
	if c.ReportInterval <= 0 {
		problems = append(problems, "report interval must be positive")
	}
	if c.DialTimeout < 0 {
		problems = append(problems, "dial timeout must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, ", "))
	}

	return nil
}
