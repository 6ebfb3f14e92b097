// Package config loads the service settings from defaults, an optional
// config file, the environment and command-line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	consts "github.com/khanhnv2901/seca-recon/internal/shared/constants"
	sharederrors "github.com/khanhnv2901/seca-recon/internal/shared/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Setting keys. Each key is also read from the upper-cased environment
// variable of the same name.
const (
	KeyAPIKey                   = "api_key"
	KeyAllowedHosts             = "allowed_hosts"
	KeyMaxRequestsPerMinute     = "max_requests_per_minute"
	KeySocketTimeout            = "socket_timeout"
	KeyHTTPTimeout              = "http_timeout"
	KeyRequestTimeout           = "request_timeout"
	KeyMinPort                  = "min_port"
	KeyMaxPort                  = "max_port"
	KeyHost                     = "host"
	KeyPort                     = "port"
	KeyDebug                    = "debug"
	KeyTrustProxyHeaders        = "trust_proxy_headers"
	KeyBlockPrivateDestinations = "block_private_destinations"
	KeyMaxConnections           = "max_connections"
	KeyMetricsEnabled           = "metrics_enabled"
)

var allKeys = []string{
	KeyAPIKey, KeyAllowedHosts, KeyMaxRequestsPerMinute, KeySocketTimeout,
	KeyHTTPTimeout, KeyRequestTimeout, KeyMinPort, KeyMaxPort, KeyHost, KeyPort,
	KeyDebug, KeyTrustProxyHeaders, KeyBlockPrivateDestinations,
	KeyMaxConnections, KeyMetricsEnabled,
}

// Config is the resolved service configuration.
type Config struct {
	APIKey               string
	AllowedHosts         []string
	MaxRequestsPerMinute int

	SocketTimeout  time.Duration
	HTTPTimeout    time.Duration
	RequestTimeout time.Duration

	MinPort int
	MaxPort int

	Host string
	Port int

	Debug                    bool
	TrustProxyHeaders        bool
	BlockPrivateDestinations bool
	MaxConnections           int
	MetricsEnabled           bool
}

// SetDefaults registers default values and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIKey, "")
	v.SetDefault(KeyAllowedHosts, "localhost,127.0.0.1")
	v.SetDefault(KeyMaxRequestsPerMinute, consts.DefaultRequestsPerMinute)
	v.SetDefault(KeySocketTimeout, int(consts.DefaultSocketTimeout/time.Second))
	v.SetDefault(KeyHTTPTimeout, int(consts.DefaultHTTPTimeout/time.Second))
	v.SetDefault(KeyRequestTimeout, int(consts.DefaultRequestTimeout/time.Second))
	v.SetDefault(KeyMinPort, consts.MinPort)
	v.SetDefault(KeyMaxPort, consts.MaxPort)
	v.SetDefault(KeyHost, consts.DefaultListenHost)
	v.SetDefault(KeyPort, consts.DefaultListenPort)
	v.SetDefault(KeyDebug, false)
	v.SetDefault(KeyTrustProxyHeaders, false)
	v.SetDefault(KeyBlockPrivateDestinations, true)
	v.SetDefault(KeyMaxConnections, consts.DefaultMaxConnections)
	v.SetDefault(KeyMetricsEnabled, true)

	for _, key := range allKeys {
		_ = v.BindEnv(key, strings.ToUpper(key))
	}
}

// BindFlags binds command-line flags to setting keys. Flag names use dashes
// in place of underscores; flags that are not defined on fs are skipped.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for _, key := range allKeys {
		flag := fs.Lookup(strings.ReplaceAll(key, "_", "-"))
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}
	return nil
}

// Load resolves a Config from v. SetDefaults must have been called on v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIKey:                   strings.TrimSpace(v.GetString(KeyAPIKey)),
		AllowedHosts:             splitList(v.Get(KeyAllowedHosts)),
		MaxRequestsPerMinute:     v.GetInt(KeyMaxRequestsPerMinute),
		SocketTimeout:            seconds(v.GetInt(KeySocketTimeout)),
		HTTPTimeout:              seconds(v.GetInt(KeyHTTPTimeout)),
		RequestTimeout:           seconds(v.GetInt(KeyRequestTimeout)),
		MinPort:                  v.GetInt(KeyMinPort),
		MaxPort:                  v.GetInt(KeyMaxPort),
		Host:                     v.GetString(KeyHost),
		Port:                     v.GetInt(KeyPort),
		Debug:                    v.GetBool(KeyDebug),
		TrustProxyHeaders:        v.GetBool(KeyTrustProxyHeaders),
		BlockPrivateDestinations: v.GetBool(KeyBlockPrivateDestinations),
		MaxConnections:           v.GetInt(KeyMaxConnections),
		MetricsEnabled:           v.GetBool(KeyMetricsEnabled),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with. A missing API key
// is not an error here; the serve command checks it.
func (c *Config) Validate() error {
	switch {
	case c.MaxRequestsPerMinute <= 0:
		return invalid("%s must be positive, got %d", KeyMaxRequestsPerMinute, c.MaxRequestsPerMinute)
	case c.SocketTimeout <= 0:
		return invalid("%s must be positive", KeySocketTimeout)
	case c.HTTPTimeout <= 0:
		return invalid("%s must be positive", KeyHTTPTimeout)
	case c.RequestTimeout <= 0:
		return invalid("%s must be positive", KeyRequestTimeout)
	case c.MinPort < consts.MinPort || c.MaxPort > consts.MaxPort:
		return invalid("port bounds must lie within %d-%d", consts.MinPort, consts.MaxPort)
	case c.MinPort > c.MaxPort:
		return invalid("%s (%d) is greater than %s (%d)", KeyMinPort, c.MinPort, KeyMaxPort, c.MaxPort)
	case c.Port < 0 || c.Port > consts.MaxPort:
		return invalid("%s out of range: %d", KeyPort, c.Port)
	case c.MaxConnections < 0:
		return invalid("%s must not be negative", KeyMaxConnections)
	}
	return nil
}

// ListenAddr is the host:port the server binds.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", sharederrors.ErrInvalidConfig, fmt.Sprintf(format, args...))
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// splitList accepts either a comma-separated string (environment) or a YAML
// list (config file).
func splitList(raw any) []string {
	var parts []string
	switch val := raw.(type) {
	case string:
		parts = strings.Split(val, ",")
	case []string:
		parts = val
	case []any:
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
