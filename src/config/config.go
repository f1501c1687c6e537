// Package config provides configuration management for the opslens services.
//
// Values are resolved in order: built-in defaults, an optional YAML file, then
// OPSLENS_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Store      StoreConfig      `yaml:"store"`
	Broker     BrokerConfig     `yaml:"broker"`
	Kubernetes KubernetesConfig `yaml:"kubernetes"`
	Docker     DockerConfig     `yaml:"docker"`
	Jenkins    JenkinsConfig    `yaml:"jenkins"`
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// CollectRate is the sustained POST /logs rate per second.
	CollectRate float64 `yaml:"collect_rate"`
	// CollectBurst is the POST /logs burst size.
	CollectBurst int `yaml:"collect_burst"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// StoreConfig configures the retained history and query defaults.
type StoreConfig struct {
	Capacity        int `yaml:"capacity"`
	AnalyticsWindow int `yaml:"analytics_window"`
	QueryLimit      int `yaml:"query_limit"`
}

// BrokerConfig configures the raw batch topic.
// An empty Brokers list selects the in-memory broker.
type BrokerConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// KubernetesConfig holds defaults for the orchestrator collector.
type KubernetesConfig struct {
	Kubeconfig string `yaml:"kubeconfig"`
	Namespace  string `yaml:"namespace"`
}

// DockerConfig holds defaults for the runtime collector.
type DockerConfig struct {
	Host string `yaml:"host"`
}

// JenkinsConfig holds defaults for the CI collector.
type JenkinsConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	Token    string `yaml:"token"`
}

// CloudWatchConfig holds defaults for the cloud-log collector.
type CloudWatchConfig struct {
	Region string `yaml:"region"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         ":8080",
			CollectRate:  1,
			CollectBurst: 5,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Store: StoreConfig{
			Capacity:        10000,
			AnalyticsWindow: 1000,
			QueryLimit:      1000,
		},
		Broker: BrokerConfig{
			Topic:   "opslens.logs.raw",
			GroupID: "opslens-ingest",
		},
		Kubernetes: KubernetesConfig{
			Namespace: "default",
		},
	}
}

// Load resolves configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from defaults and environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// MustLoad loads configuration and panics on error.
// This is useful for initialization in main() where configuration errors should be fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.CollectRate <= 0 {
		return fmt.Errorf("server.collect_rate must be positive, got %v", c.Server.CollectRate)
	}
	if c.Server.CollectBurst <= 0 {
		return fmt.Errorf("server.collect_burst must be positive, got %d", c.Server.CollectBurst)
	}
	if c.Store.Capacity <= 0 {
		return fmt.Errorf("store.capacity must be positive, got %d", c.Store.Capacity)
	}
	if c.Store.AnalyticsWindow <= 0 {
		return fmt.Errorf("store.analytics_window must be positive, got %d", c.Store.AnalyticsWindow)
	}
	if c.Store.QueryLimit <= 0 {
		return fmt.Errorf("store.query_limit must be positive, got %d", c.Store.QueryLimit)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	if c.Broker.Topic == "" {
		return fmt.Errorf("broker.topic is required")
	}
	return nil
}

// CollectorDefaults returns the configured defaults for a collector, keyed the
// same way as the POST /logs config object. Empty values are omitted.
func (c *Config) CollectorDefaults(source string) map[string]any {
	out := make(map[string]any)
	set := func(key, value string) {
		if value != "" {
			out[key] = value
		}
	}

	switch source {
	case "orchestrator":
		set("kubeConfigPath", c.Kubernetes.Kubeconfig)
		set("namespace", c.Kubernetes.Namespace)
	case "runtime":
		set("host", c.Docker.Host)
	case "ci":
		set("baseUrl", c.Jenkins.BaseURL)
		set("username", c.Jenkins.Username)
		set("apiToken", c.Jenkins.Token)
	case "cloud-log":
		set("region", c.CloudWatch.Region)
	}
	return out
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("OPSLENS_ADDR", &c.Server.Addr)
	str("OPSLENS_LOG_LEVEL", &c.Log.Level)
	str("OPSLENS_LOG_FORMAT", &c.Log.Format)
	str("OPSLENS_TOPIC", &c.Broker.Topic)
	str("OPSLENS_GROUP_ID", &c.Broker.GroupID)
	str("OPSLENS_KUBECONFIG", &c.Kubernetes.Kubeconfig)
	str("OPSLENS_NAMESPACE", &c.Kubernetes.Namespace)
	str("OPSLENS_DOCKER_HOST", &c.Docker.Host)
	str("OPSLENS_JENKINS_URL", &c.Jenkins.BaseURL)
	str("OPSLENS_JENKINS_USER", &c.Jenkins.Username)
	str("OPSLENS_JENKINS_TOKEN", &c.Jenkins.Token)
	str("OPSLENS_AWS_REGION", &c.CloudWatch.Region)

	if v, ok := os.LookupEnv("OPSLENS_BROKERS"); ok {
		c.Broker.Brokers = splitList(v)
	}

	if err := integer("OPSLENS_STORE_CAPACITY", &c.Store.Capacity); err != nil {
		return err
	}
	if err := integer("OPSLENS_ANALYTICS_WINDOW", &c.Store.AnalyticsWindow); err != nil {
		return err
	}
	if err := integer("OPSLENS_QUERY_LIMIT", &c.Store.QueryLimit); err != nil {
		return err
	}
	if err := integer("OPSLENS_COLLECT_BURST", &c.Server.CollectBurst); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("OPSLENS_COLLECT_RATE"); ok {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("OPSLENS_COLLECT_RATE must be a number: %w", err)
		}
		c.Server.CollectRate = rate
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
