package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestSetLogger(t *testing.T) {
	logger := zerolog.New(os.Stdout).Level(zerolog.InfoLevel)
	SetLogger(logger)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config content: %v", err)
	}
	return path
}

func TestApplyDefaults(t *testing.T) {
	t.Run("Config struct defaults", func(t *testing.T) {
		config := &Config{}
		applyDefaults(config)

		if config.Version != CurrentVersion {
			t.Errorf("Expected version %q, got %q", CurrentVersion, config.Version)
		}
		if config.Server.Host != "0.0.0.0" || config.Server.Port != "12600" {
			t.Errorf("Expected 0.0.0.0:12600, got %s:%s", config.Server.Host, config.Server.Port)
		}
		if config.Server.MaxUploadBytes != 20<<20 {
			t.Errorf("Expected a 20 MiB upload limit, got %d", config.Server.MaxUploadBytes)
		}
		if config.Database.Compression != "zstd" {
			t.Errorf("Expected zstd compression, got %q", config.Database.Compression)
		}
		if config.Storage.Backend != "fs" || config.Storage.URLPrefix != "/uploads" {
			t.Errorf("Unexpected storage defaults: %+v", config.Storage)
		}
		if config.Storage.S3.Region != "auto" {
			t.Errorf("Expected region 'auto', got %q", config.Storage.S3.Region)
		}
		if config.Photos.PerPage != 12 {
			t.Errorf("Expected 12 photos per page, got %d", config.Photos.PerPage)
		}
		if config.Photos.CacheTTL != 10*time.Minute {
			t.Errorf("Expected 10m photo cache, got %v", config.Photos.CacheTTL)
		}
		if config.Drafts.Backend != "sqlite" {
			t.Errorf("Expected sqlite drafts, got %q", config.Drafts.Backend)
		}
		if config.Drafts.Redis.TTL != 30*24*time.Hour {
			t.Errorf("Expected 30 day redis ttl, got %v", config.Drafts.Redis.TTL)
		}
		if config.Editor.LocalDelay != time.Second || config.Editor.RemoteDelay != 2*time.Second {
			t.Errorf("Unexpected autosave delays: %v, %v", config.Editor.LocalDelay, config.Editor.RemoteDelay)
		}
		if config.Editor.SelectionDebounce != 100*time.Millisecond {
			t.Errorf("Expected 100ms selection debounce, got %v", config.Editor.SelectionDebounce)
		}
		if config.Logging.Level != "info" || config.Logging.Format != "console" {
			t.Errorf("Unexpected logging defaults: %+v", config.Logging)
		}
		if config.Security.Token != "" {
			t.Error("Expected the token to have no default")
		}
	})

	t.Run("Custom struct with various field types", func(t *testing.T) {
		type TestStruct struct {
			StringField   string        `default:"test-string"`
			BoolField     bool          `default:"true"`
			IntField      int           `default:"42"`
			Float64Field  float64       `default:"3.14"`
			SliceField    []string      `default:"a,b,c"`
			DurationField time.Duration `default:"1m30s"`
			NoDefault     string
		}

		test := &TestStruct{}
		applyDefaults(test)

		if test.StringField != "test-string" {
			t.Errorf("Expected string field 'test-string', got %q", test.StringField)
		}
		if !test.BoolField {
			t.Error("Expected bool field to be true")
		}
		if test.IntField != 42 {
			t.Errorf("Expected int field 42, got %d", test.IntField)
		}
		if test.Float64Field != 3.14 {
			t.Errorf("Expected float64 field 3.14, got %f", test.Float64Field)
		}
		if !reflect.DeepEqual(test.SliceField, []string{"a", "b", "c"}) {
			t.Errorf("Expected slice [a b c], got %v", test.SliceField)
		}
		if test.DurationField != 90*time.Second {
			t.Errorf("Expected duration 1m30s, got %v", test.DurationField)
		}
		if test.NoDefault != "" {
			t.Errorf("Expected no default field to be empty, got %q", test.NoDefault)
		}
	})

	t.Run("Invalid default values", func(t *testing.T) {
		type InvalidStruct struct {
			BadBool     bool          `default:"not-a-bool"`
			BadInt      int           `default:"not-an-int"`
			BadFloat    float64       `default:"not-a-float"`
			BadDuration time.Duration `default:"soon"`
		}

		test := &InvalidStruct{}
		applyDefaults(test)

		if test.BadBool || test.BadInt != 0 || test.BadFloat != 0 || test.BadDuration != 0 {
			t.Errorf("Expected invalid defaults to leave zero values, got %+v", test)
		}
	})

	t.Run("Non-struct input", func(t *testing.T) {
		stringVar := "test"
		applyDefaults(&stringVar)
		applyDefaults(stringVar)
		applyDefaults(42)
		applyDefaults(nil)
	})
}

func TestLoadConfig(t *testing.T) {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))

	t.Run("Load non-existent config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		if err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
			t.Fatalf("Expected no error for non-existent config file, got %v", err)
		}
		if AppConfig == nil || AppConfig.Server.Port != "12600" {
			t.Fatal("Expected AppConfig to be set with defaults")
		}
	})

	t.Run("Load valid config file", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		path := writeConfig(t, `
server:
  port: "8080"
storage:
  backend: s3
  s3:
    bucket: media
    endpoint: https://example.r2.cloudflarestorage.com
drafts:
  backend: redis
  redis:
    ttl: 48h
editor:
  remote_delay: 5s
`)
		if err := LoadConfig(path); err != nil {
			t.Fatalf("Expected no error loading valid config, got %v", err)
		}

		if AppConfig.Server.Port != "8080" {
			t.Errorf("Expected port '8080', got %q", AppConfig.Server.Port)
		}
		if AppConfig.Storage.S3.Bucket != "media" {
			t.Errorf("Expected bucket 'media', got %q", AppConfig.Storage.S3.Bucket)
		}
		if AppConfig.Drafts.Redis.TTL != 48*time.Hour {
			t.Errorf("Expected 48h ttl, got %v", AppConfig.Drafts.Redis.TTL)
		}
		if AppConfig.Editor.RemoteDelay != 5*time.Second {
			t.Errorf("Expected 5s remote delay, got %v", AppConfig.Editor.RemoteDelay)
		}
		if AppConfig.Editor.LocalDelay != time.Second {
			t.Errorf("Expected default local delay to survive, got %v", AppConfig.Editor.LocalDelay)
		}
		if AppConfig.Storage.S3.Region != "auto" {
			t.Errorf("Expected default region to survive, got %q", AppConfig.Storage.S3.Region)
		}
	})

	t.Run("Secrets come from the environment", func(t *testing.T) {
		originalAppConfig := AppConfig
		defer func() { AppConfig = originalAppConfig }()

		t.Setenv("INKWELL_TOKEN", "secret-token")
		t.Setenv("PHOTOS_ACCESS_KEY", "photo-key")
		path := writeConfig(t, "photos:\n  access_key: ignored\n")

		if err := LoadConfig(path); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if AppConfig.Security.Token != "secret-token" {
			t.Errorf("Expected token from env, got %q", AppConfig.Security.Token)
		}
		if AppConfig.Photos.AccessKey != "photo-key" {
			t.Errorf("Expected photo key from env, got %q", AppConfig.Photos.AccessKey)
		}
	})

	tests := []struct {
		name    string
		content string
		errText string
	}{
		{"Invalid YAML", "server:\n  port: [\n", "failed to parse config file"},
		{"Unsupported version", "version: \"2\"\n", "unsupported configuration version"},
		{"S3 without bucket", "storage:\n  backend: s3\n", "bucket is required"},
		{"Unknown storage backend", "storage:\n  backend: ftp\n", "unknown storage backend"},
		{"Unknown drafts backend", "drafts:\n  backend: cookie\n", "unknown drafts backend"},
		{"Non-positive upload limit", "server:\n  max_upload_bytes: 0\n", "max_upload_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalAppConfig := AppConfig
			defer func() { AppConfig = originalAppConfig }()

			err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected error but got none")
			}
			if !strings.Contains(err.Error(), tt.errText) {
				t.Errorf("Expected error to contain %q, got %q", tt.errText, err.Error())
			}
		})
	}
}

func TestPublicApplyDefaults(t *testing.T) {
	type TestStruct struct {
		Field string `default:"test-value"`
	}

	test := &TestStruct{}
	ApplyDefaults(test)

	if test.Field != "test-value" {
		t.Errorf("Expected field 'test-value', got %q", test.Field)
	}
}
