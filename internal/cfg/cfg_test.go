package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"wine-classifier/internal/common"
)

func TestLoadFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		wantErr  bool
		validate func(t *testing.T, settings Settings)
	}{
		{
			name:    "defaults",
			envVars: map[string]string{},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != common.DefaultModelPath {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
				if settings.Port != 50051 {
					t.Errorf("expected default Port 50051, got %d", settings.Port)
				}
				if settings.RequestTimeout != 3*time.Second {
					t.Errorf("expected default RequestTimeout 3s, got %v", settings.RequestTimeout)
				}
				if settings.ModelVersion != "" {
					t.Errorf("expected empty ModelVersion to defer to metadata, got %s", settings.ModelVersion)
				}
				if settings.FeatureNames != nil {
					t.Errorf("expected no explicit feature names, got %v", settings.FeatureNames)
				}
				if settings.ListenAddr() != ":50051" {
					t.Errorf("expected listen addr :50051, got %s", settings.ListenAddr())
				}
			},
		},
		{
			name: "custom settings",
			envVars: map[string]string{
				"MODEL_PATH":      "/models/wine.json",
				"MODEL_VERSION":   "v2.1.0",
				"PORT":            "9000",
				"FEATURE_NAMES":   "a, b ,c",
				"REQUEST_TIMEOUT": "500ms",
				"CACHE_SIZE":      "128",
				"DATA_PATH":       "/var/lib/predictions",
				"LOG_FORMAT":      "console",
			},
			wantErr: false,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "/models/wine.json" {
					t.Errorf("expected ModelPath /models/wine.json, got %s", settings.ModelPath)
				}
				if settings.ModelVersion != "v2.1.0" {
					t.Errorf("expected ModelVersion v2.1.0, got %s", settings.ModelVersion)
				}
				if settings.Port != 9000 {
					t.Errorf("expected Port 9000, got %d", settings.Port)
				}
				expected := []string{"a", "b", "c"}
				if len(settings.FeatureNames) != len(expected) {
					t.Fatalf("expected %d feature names, got %v", len(expected), settings.FeatureNames)
				}
				for i, n := range expected {
					if settings.FeatureNames[i] != n {
						t.Errorf("expected feature %s at index %d, got %v", n, i, settings.FeatureNames)
					}
				}
				if settings.RequestTimeout != 500*time.Millisecond {
					t.Errorf("expected RequestTimeout 500ms, got %v", settings.RequestTimeout)
				}
				if settings.CacheSize != 128 {
					t.Errorf("expected CacheSize 128, got %d", settings.CacheSize)
				}
				if settings.DataPath != "/var/lib/predictions" {
					t.Errorf("expected DataPath, got %s", settings.DataPath)
				}
			},
		},
		{
			name:    "port out of range",
			envVars: map[string]string{"PORT": "70000"},
			wantErr: true,
		},
		{
			name:    "duplicate feature names",
			envVars: map[string]string{"FEATURE_NAMES": "a,b,a"},
			wantErr: true,
		},
		{
			name:    "empty feature name",
			envVars: map[string]string{"FEATURE_NAMES": "a,,b"},
			wantErr: true,
		},
		{
			name:    "negative cache size",
			envVars: map[string]string{"CACHE_SIZE": "-1"},
			wantErr: true,
		},
		{
			name:    "unknown log format",
			envVars: map[string]string{"LOG_FORMAT": "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			settings, err := loadFromEnv()

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}

			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoadFromYAML(t *testing.T) {
	tests := []struct {
		name         string
		yamlContent  string
		envOverrides map[string]string
		wantErr      bool
		validate     func(t *testing.T, settings Settings)
	}{
		{
			name: "valid YAML config",
			yamlContent: `
model:
  path: "models/wine.json"
  version: "v3.0.0"
  features: ["x", "y"]
  cacheSize: 64

server:
  port: 6000
  requestTimeout: "2s"

storage:
  dataPath: "/data"

logging:
  level: debug
  format: json
`,
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelPath != "models/wine.json" {
					t.Errorf("expected ModelPath models/wine.json, got %s", settings.ModelPath)
				}
				if settings.ModelVersion != "v3.0.0" {
					t.Errorf("expected ModelVersion v3.0.0, got %s", settings.ModelVersion)
				}
				if len(settings.FeatureNames) != 2 || settings.FeatureNames[1] != "y" {
					t.Errorf("expected features [x y], got %v", settings.FeatureNames)
				}
				if settings.Port != 6000 {
					t.Errorf("expected Port 6000, got %d", settings.Port)
				}
				if settings.RequestTimeout != 2*time.Second {
					t.Errorf("expected RequestTimeout 2s, got %v", settings.RequestTimeout)
				}
				if settings.CacheSize != 64 {
					t.Errorf("expected CacheSize 64, got %d", settings.CacheSize)
				}
				if settings.LogLevel != "debug" {
					t.Errorf("expected LogLevel debug, got %s", settings.LogLevel)
				}
			},
		},
		{
			name: "environment overrides file",
			yamlContent: `
model:
  version: "from-file"
server:
  port: 6000
`,
			envOverrides: map[string]string{
				"MODEL_VERSION": "from-env",
				"PORT":          "7000",
				"FEATURE_NAMES": "p,q",
			},
			validate: func(t *testing.T, settings Settings) {
				if settings.ModelVersion != "from-env" {
					t.Errorf("expected env ModelVersion, got %s", settings.ModelVersion)
				}
				if settings.Port != 7000 {
					t.Errorf("expected env Port 7000, got %d", settings.Port)
				}
				if len(settings.FeatureNames) != 2 || settings.FeatureNames[0] != "p" {
					t.Errorf("expected env features [p q], got %v", settings.FeatureNames)
				}
				if settings.ModelPath != common.DefaultModelPath {
					t.Errorf("expected default ModelPath, got %s", settings.ModelPath)
				}
			},
		},
		{
			name:        "invalid YAML",
			yamlContent: "model: [unclosed",
			wantErr:     true,
		},
		{
			name: "invalid timeout",
			yamlContent: `
server:
  requestTimeout: "soon"
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnv(t)

			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yamlContent), 0o644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			for key, value := range tt.envOverrides {
				t.Setenv(key, value)
			}

			settings, err := loadFromYAML(path)

			if tt.wantErr && err == nil {
				t.Error("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.wantErr && tt.validate != nil {
				tt.validate(t, settings)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("uses CONFIG_FILE when set", func(t *testing.T) {
		clearTestEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("server:\n  port: 6500\n"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("CONFIG_FILE", path)

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 6500 {
			t.Errorf("expected Port 6500, got %d", settings.Port)
		}
	})

	t.Run("missing CONFIG_FILE is an error", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

		if _, err := Load(); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("falls back to env", func(t *testing.T) {
		clearTestEnv(t)
		t.Setenv("PORT", "6600")

		settings, err := Load()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if settings.Port != 6600 {
			t.Errorf("expected Port 6600, got %d", settings.Port)
		}
	})
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		common.EnvConfigFile,
		common.EnvModelPath,
		common.EnvModelVersion,
		common.EnvPort,
		common.EnvFeatureNames,
		common.EnvRequestTimeout,
		common.EnvCacheSize,
		common.EnvDataPath,
		common.EnvLogLevel,
		common.EnvLogFormat,
		common.EnvLogFile,
	} {
		t.Setenv(key, "")
	}
}
