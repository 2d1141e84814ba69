package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"epages-rest-layer/internal/domain"
	"epages-rest-layer/internal/ports"
)

// Setting keys of the Client module.
const (
	KeyHost           = "host"
	KeyShop           = "shop"
	KeyToken          = "token"
	KeyTLS            = "tls"
	KeyTimeout        = "timeout"
	KeyConnectTimeout = "connectTimeout"
	KeyRateLimit      = "rateLimit"
	KeyRateBurst      = "rateBurst"
	KeyUserAgent      = "userAgent"
	KeyLogLevel       = "logLevel"
	KeyLogSink        = "logSink"
)

// Setting keys of the Connector module.
const (
	KeyResultsPerPage = "resultsPerPage"
	KeyCacheWait      = "cacheWait"
	KeyRedisAddr      = "redisAddr"
	KeyRedisPassword  = "redisPassword"
	KeyRedisDB        = "redisDB"
)

// ClientConfig is the typed view of the Client module.
type ClientConfig struct {
	Host           string
	Shop           string
	Token          string // empty for anonymous access
	TLS            bool
	Timeout        time.Duration
	ConnectTimeout time.Duration
	RateLimit      float64 // requests per second, 0 disables the limiter
	RateBurst      int
	UserAgent      string
	LogLevel       string
	LogSink        string
}

// ConnectorConfig is the typed view of the Connector module.
type ConnectorConfig struct {
	ResultsPerPage int
	CacheWait      time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
}

// ClientConfigFrom reads the Client module. It fails with
// ErrConfigurationMissing when the module is absent and with
// ErrConfigurationIncomplete when host or shop are missing or a value has the
// wrong type.
func ClientConfigFrom(store ports.ConfigStore) (ClientConfig, error) {
	const op = "config " + ModuleClient
	values := store.Get(ModuleClient)
	if values == nil {
		return ClientConfig{}, domain.NewError(domain.KindConfigurationMissing, op, nil)
	}

	r := reader{values: values}
	cfg := ClientConfig{
		Host:           r.getString(KeyHost),
		Shop:           r.getString(KeyShop),
		Token:          r.getString(KeyToken),
		TLS:            r.getBool(KeyTLS, true),
		Timeout:        r.getDuration(KeyTimeout, 0),
		ConnectTimeout: r.getDuration(KeyConnectTimeout, 0),
		RateLimit:      r.getFloat(KeyRateLimit, 0),
		RateBurst:      r.getInt(KeyRateBurst, 1),
		UserAgent:      r.getString(KeyUserAgent),
		LogLevel:       r.getString(KeyLogLevel),
		LogSink:        r.getString(KeyLogSink),
	}
	if cfg.Host == "" {
		r.missing(KeyHost)
	}
	if cfg.Shop == "" {
		r.missing(KeyShop)
	}
	if len(r.problems) > 0 {
		return ClientConfig{}, domain.NewError(domain.KindConfigurationIncomplete, op,
			errors.New(strings.Join(r.problems, "; ")))
	}
	return cfg, nil
}

// ConnectorConfigFrom reads the Connector module. Every key is optional.
func ConnectorConfigFrom(store ports.ConfigStore) (ConnectorConfig, error) {
	r := reader{values: store.Get(ModuleConnector)}
	cfg := ConnectorConfig{
		ResultsPerPage: r.getInt(KeyResultsPerPage, 0),
		CacheWait:      r.getDuration(KeyCacheWait, 0),
		RedisAddr:      r.getString(KeyRedisAddr),
		RedisPassword:  r.getString(KeyRedisPassword),
		RedisDB:        r.getInt(KeyRedisDB, 0),
	}
	if len(r.problems) > 0 {
		return ConnectorConfig{}, domain.NewError(domain.KindConfigurationIncomplete, "config "+ModuleConnector,
			errors.New(strings.Join(r.problems, "; ")))
	}
	return cfg, nil
}

// reader converts loosely typed settings. Environment values arrive as
// strings, YAML values as native types.
type reader struct {
	values   map[string]any
	problems []string
}

func (r *reader) missing(key string) {
	r.problems = append(r.problems, key+" is required")
}

func (r *reader) invalid(key string, v any) {
	r.problems = append(r.problems, fmt.Sprintf("%s has invalid value %v", key, v))
}

func (r *reader) getString(key string) string {
	v, ok := r.values[key]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprint(v)
	}
}

func (r *reader) getBool(key string, def bool) bool {
	v, ok := r.values[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if strings.TrimSpace(b) == "" {
			return def
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			r.invalid(key, v)
			return def
		}
		return parsed
	}
	r.invalid(key, v)
	return def
}

func (r *reader) getInt(key string, def int) int {
	v, ok := r.values[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		if n == float64(int(n)) {
			return int(n)
		}
	case string:
		if strings.TrimSpace(n) == "" {
			return def
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return parsed
		}
	}
	r.invalid(key, v)
	return def
}

func (r *reader) getFloat(key string, def float64) float64 {
	v, ok := r.values[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if strings.TrimSpace(n) == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return parsed
		}
	}
	r.invalid(key, v)
	return def
}

// getDuration accepts Go duration strings ("30s") or a number of seconds.
func (r *reader) getDuration(key string, def time.Duration) time.Duration {
	v, ok := r.values[key]
	if !ok || v == nil {
		return def
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	case float64:
		return time.Duration(d * float64(time.Second))
	case string:
		s := strings.TrimSpace(d)
		if s == "" {
			return def
		}
		if parsed, err := time.ParseDuration(s); err == nil {
			return parsed
		}
		if secs, err := strconv.ParseFloat(s, 64); err == nil {
			return time.Duration(secs * float64(time.Second))
		}
	}
	r.invalid(key, v)
	return def
}
