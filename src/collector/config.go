package collector

import (
	"fmt"
	"strconv"

	"opslens/src/contracts"
)

// Config is the per-request collector configuration (the "config" object of a
// collect request). Keys follow the request body: baseUrl, username, apiToken,
// region, accessKeyId, secretAccessKey, kubeConfigPath, namespace, host.
type Config map[string]any

// requiredKeys lists the configuration each source cannot run without.
var requiredKeys = map[contracts.Source][]string{
	contracts.SourceCI:       {"baseUrl"},
	contracts.SourceCloudLog: {"region"},
}

// String returns the value of key as a string, or "" when unset.
func (c Config) String(key string) string {
	switch v := c[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// StringOr returns the value of key, or def when unset or empty.
func (c Config) StringOr(key, def string) string {
	if v := c.String(key); v != "" {
		return v
	}
	return def
}

// Int returns the value of key as an int, or def when unset or not numeric.
// JSON numbers decode as float64 and are accepted.
func (c Config) Int(key string, def int) int {
	switch v := c[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// WithDefaults returns a copy of c where unset keys are filled from defaults.
func (c Config) WithDefaults(defaults map[string]any) Config {
	out := make(Config, len(c)+len(defaults))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range c {
		if v == nil || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

// Validate checks that every key required by source is present.
func (c Config) Validate(source contracts.Source) error {
	for _, key := range requiredKeys[source] {
		if c.String(key) == "" {
			return &UserError{
				Message: fmt.Sprintf("%s is required for source %s", key, source),
				Hint:    fmt.Sprintf("Set config.%s in the request body", key),
				Err:     ErrMissingConfig,
			}
		}
	}
	return nil
}
