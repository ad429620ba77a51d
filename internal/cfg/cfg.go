package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"wine-classifier/internal/common"
)

// Settings is the resolved process configuration. It is built once at startup and only
// read afterwards.
type Settings struct {
	ModelPath      string
	ModelVersion   string   // empty: take from model metadata, then the default
	FeatureNames   []string // empty: take from model metadata, then the wine schema
	Port           int
	RequestTimeout time.Duration
	CacheSize      int
	DataPath       string
	LogLevel       string
	LogFormat      string
	LogFile        string
}

type ConfigFile struct {
	Model struct {
		Path      string   `yaml:"path"`
		Version   string   `yaml:"version"`
		Features  []string `yaml:"features"`
		CacheSize int      `yaml:"cacheSize"`
	} `yaml:"model"`

	Server struct {
		Port           int    `yaml:"port"`
		RequestTimeout string `yaml:"requestTimeout"`
	} `yaml:"server"`

	Storage struct {
		DataPath string `yaml:"dataPath"`
	} `yaml:"storage"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		File   string `yaml:"file"`
	} `yaml:"logging"`
}

func Load() (Settings, error) {
	// Try to load from YAML file first
	if configPath := os.Getenv(common.EnvConfigFile); configPath != "" {
		return loadFromYAML(configPath)
	}

	// Fallback to environment variables
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	requestTimeout := common.DefaultRequestTimeout
	if config.Server.RequestTimeout != "" {
		requestTimeout, err = time.ParseDuration(config.Server.RequestTimeout)
		if err != nil {
			return Settings{}, fmt.Errorf("invalid server.requestTimeout %q: %w", config.Server.RequestTimeout, err)
		}
	}

	// Environment variables override the file
	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, orDefault(config.Model.Path, common.DefaultModelPath)),
		ModelVersion:   getEnvOrDefault(common.EnvModelVersion, config.Model.Version),
		FeatureNames:   getNamesFromEnvOrConfig(config.Model.Features),
		Port:           getIntOrDefault(common.EnvPort, orDefaultInt(config.Server.Port, common.DefaultPort)),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, requestTimeout),
		CacheSize:      getIntOrDefault(common.EnvCacheSize, config.Model.CacheSize),
		DataPath:       getEnvOrDefault(common.EnvDataPath, config.Storage.DataPath),
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, orDefault(config.Logging.Level, common.DefaultLogLevel)),
		LogFormat:      getEnvOrDefault(common.EnvLogFormat, config.Logging.Format),
		LogFile:        getEnvOrDefault(common.EnvLogFile, config.Logging.File),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	settings := Settings{
		ModelPath:      getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		ModelVersion:   os.Getenv(common.EnvModelVersion),
		FeatureNames:   splitNames(os.Getenv(common.EnvFeatureNames)),
		Port:           getIntOrDefault(common.EnvPort, common.DefaultPort),
		RequestTimeout: getDurationOrDefault(common.EnvRequestTimeout, common.DefaultRequestTimeout),
		CacheSize:      getIntOrDefault(common.EnvCacheSize, common.DefaultCacheSize),
		DataPath:       os.Getenv(common.EnvDataPath), // optional
		LogLevel:       getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogFormat:      os.Getenv(common.EnvLogFormat),
		LogFile:        os.Getenv(common.EnvLogFile),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

// ListenAddr is the address the RPC server binds, on all interfaces.
func (s Settings) ListenAddr() string {
	return fmt.Sprintf(":%d", s.Port)
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func splitNames(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		names = append(names, strings.TrimSpace(p))
	}
	return names
}

func getNamesFromEnvOrConfig(configNames []string) []string {
	if env := os.Getenv(common.EnvFeatureNames); env != "" {
		return splitNames(env)
	}
	return configNames
}

// validateSettings performs validation of configuration values
func validateSettings(settings *Settings) error {
	if strings.TrimSpace(settings.ModelPath) == "" {
		return fmt.Errorf("model path cannot be empty")
	}

	if settings.Port < common.MinPort || settings.Port > common.MaxPort {
		return fmt.Errorf("port must be between %d and %d, got %d", common.MinPort, common.MaxPort, settings.Port)
	}

	if settings.RequestTimeout < common.MinRequestTimeout || settings.RequestTimeout > common.MaxRequestTimeout {
		return fmt.Errorf("request timeout must be between %v and %v, got %v",
			common.MinRequestTimeout, common.MaxRequestTimeout, settings.RequestTimeout)
	}

	if settings.CacheSize < 0 || settings.CacheSize > common.MaxCacheSize {
		return fmt.Errorf("cache size must be between 0 and %d, got %d", common.MaxCacheSize, settings.CacheSize)
	}

	seen := make(map[string]bool, len(settings.FeatureNames))
	for i, name := range settings.FeatureNames {
		if name == "" {
			return fmt.Errorf("feature name %d is empty", i)
		}
		if seen[name] {
			return fmt.Errorf("feature %q listed twice", name)
		}
		seen[name] = true
	}

	switch strings.ToLower(settings.LogFormat) {
	case "", "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", settings.LogFormat)
	}

	return nil
}
