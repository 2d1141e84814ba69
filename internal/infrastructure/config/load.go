package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"epages-rest-layer/internal/ports"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadEnv, keyed by module and setting.
var envVars = map[string]map[string]string{
	ModuleClient: {
		KeyHost:           "EPAGES_HOST",
		KeyShop:           "EPAGES_SHOP",
		KeyToken:          "EPAGES_TOKEN",
		KeyTLS:            "EPAGES_TLS",
		KeyTimeout:        "EPAGES_TIMEOUT",
		KeyConnectTimeout: "EPAGES_CONNECT_TIMEOUT",
		KeyRateLimit:      "EPAGES_RATE_LIMIT",
		KeyRateBurst:      "EPAGES_RATE_BURST",
		KeyUserAgent:      "EPAGES_USER_AGENT",
		KeyLogLevel:       "EPAGES_LOG_LEVEL",
		KeyLogSink:        "EPAGES_LOG_SINK",
	},
	ModuleConnector: {
		KeyResultsPerPage: "EPAGES_RESULTS_PER_PAGE",
		KeyCacheWait:      "EPAGES_CACHE_WAIT",
		KeyRedisAddr:      "EPAGES_REDIS_ADDR",
		KeyRedisPassword:  "EPAGES_REDIS_PASSWORD",
		KeyRedisDB:        "EPAGES_REDIS_DB",
	},
}

// LoadFile extends store with a YAML file of the form
//
//	client:
//	  host: www.meinshop.de
//	  shop: DemoShop
//	connector:
//	  cacheWait: 10m
//
// Top-level keys name modules and are matched case-insensitively.
func LoadFile(store ports.ConfigStore, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var doc map[string]map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	for name, values := range doc {
		module, ok := moduleName(name)
		if !ok {
			return fmt.Errorf("config file %s: unknown module %q", path, name)
		}
		store.Extend(values, module)
	}
	return nil
}

// LoadEnv loads the given dotenv files (".env" when none are named) and
// extends store with every EPAGES_* variable that is set. Missing dotenv
// files are skipped; variables already in the environment win over the files.
func LoadEnv(store ports.ConfigStore, files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	for module, vars := range envVars {
		values := make(map[string]any)
		for key, name := range vars {
			if v, ok := os.LookupEnv(name); ok {
				values[key] = v
			}
		}
		if len(values) > 0 {
			store.Extend(values, module)
		}
	}
	return nil
}

func moduleName(name string) (string, bool) {
	for _, m := range []string{ModuleClient, ModuleConnector} {
		if strings.EqualFold(name, m) {
			return m, true
		}
	}
	return "", false
}
