// Package config loads and validates process settings from the environment,
// an optional .env file and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"taskapi/internal/auth"
)

const (
	keyDatabaseURL  = "DATABASE_URL"
	keyAuthSecret   = "BETTER_AUTH_SECRET"
	keyJWTAlgorithm = "JWT_ALGORITHM"
	keyCORSOrigins  = "CORS_ORIGINS"
	keyDebug        = "DEBUG"
	keyHost         = "API_HOST"
	keyPort         = "API_PORT"
)

// DefaultCORSOrigin is allowed when CORS_ORIGINS is not set.
const DefaultCORSOrigin = "http://localhost:3000"

// Config holds validated process settings. It is built once in main and
// passed to the components that need it.
type Config struct {
	DatabaseURL  string
	AuthSecret   string
	JWTAlgorithm string
	CORSOrigins  []string
	Debug        bool
	Host         string
	Port         int
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// PostgresDSN returns DatabaseURL with parameters the pgx driver rejects
// removed. sslmode is kept; pgx handles it natively.
func (c *Config) PostgresDSN() string {
	u, err := url.Parse(c.DatabaseURL)
	if err != nil {
		return c.DatabaseURL
	}
	q := u.Query()
	if !q.Has("channel_binding") {
		return c.DatabaseURL
	}
	q.Del("channel_binding")
	u.RawQuery = q.Encode()
	return u.String()
}

// Flags registers the command-line overrides understood by Load.
func Flags(fs *pflag.FlagSet) {
	fs.String("env-file", ".env", "Path to an optional dotenv file")
	fs.String("host", "", "Address to bind (overrides API_HOST)")
	fs.Int("port", 0, "Port to bind (overrides API_PORT)")
}

// Load reads settings from the process environment, then the dotenv file
// named by --env-file when it exists, then flags set on fs (fs may be nil).
// Precedence is flags, environment, dotenv file, defaults.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault(keyJWTAlgorithm, "HS256")
	v.SetDefault(keyDebug, false)
	v.SetDefault(keyHost, "0.0.0.0")
	v.SetDefault(keyPort, 8000)

	for _, key := range []string{keyDatabaseURL, keyAuthSecret, keyJWTAlgorithm, keyCORSOrigins, keyDebug, keyHost, keyPort} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	envFile := ".env"
	if fs != nil {
		if f := fs.Lookup("env-file"); f != nil {
			envFile = f.Value.String()
		}
		if f := fs.Lookup("host"); f != nil && f.Changed {
			v.Set(keyHost, f.Value.String())
		}
		if f := fs.Lookup("port"); f != nil && f.Changed {
			v.Set(keyPort, f.Value.String())
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading %s: %w", envFile, err)
			}
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var errs []error

	cfg := &Config{
		DatabaseURL:  strings.TrimSpace(v.GetString(keyDatabaseURL)),
		AuthSecret:   v.GetString(keyAuthSecret),
		JWTAlgorithm: strings.TrimSpace(v.GetString(keyJWTAlgorithm)),
		Host:         strings.TrimSpace(v.GetString(keyHost)),
	}

	if err := validateDatabaseURL(cfg.DatabaseURL); err != nil {
		errs = append(errs, err)
	}
	if cfg.AuthSecret == "" {
		errs = append(errs, fmt.Errorf("%s is required", keyAuthSecret))
	} else if len(cfg.AuthSecret) < auth.MinSecretLength {
		errs = append(errs, fmt.Errorf("%s must be at least %d characters long", keyAuthSecret, auth.MinSecretLength))
	}
	switch cfg.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("%s must be one of HS256, HS384, HS512, got %q", keyJWTAlgorithm, cfg.JWTAlgorithm))
	}

	debug, err := parseBool(v.GetString(keyDebug))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s must be a boolean: %w", keyDebug, err))
	}
	cfg.Debug = debug

	port, err := strconv.Atoi(strings.TrimSpace(v.GetString(keyPort)))
	if err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Errorf("%s must be a port number between 1 and 65535, got %q", keyPort, v.GetString(keyPort)))
	}
	cfg.Port = port

	origins, err := ParseOrigins(v.GetString(keyCORSOrigins))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", keyCORSOrigins, err))
	}
	cfg.CORSOrigins = origins

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return cfg, nil
}

// parseBool also accepts yes/no and on/off.
func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "yes", "on":
		return true, nil
	case "no", "off", "":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

func validateDatabaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", keyDatabaseURL)
	}
	if !strings.HasPrefix(raw, "postgresql://") && !strings.HasPrefix(raw, "postgres://") {
		return fmt.Errorf("%s must be a PostgreSQL connection string", keyDatabaseURL)
	}
	if _, err := url.Parse(raw); err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", keyDatabaseURL, err)
	}
	return nil
}

// ParseOrigins accepts a JSON array or a comma-separated list. An empty value
// yields DefaultCORSOrigin.
func ParseOrigins(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{DefaultCORSOrigin}, nil
	}

	var origins []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &origins); err != nil {
			origins = nil
		}
	}
	if origins == nil {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	for _, origin := range origins {
		if origin == "*" {
			continue
		}
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return nil, fmt.Errorf("origin %q must start with http:// or https://", origin)
		}
	}
	if len(origins) == 0 {
		return []string{DefaultCORSOrigin}, nil
	}
	return origins, nil
}
