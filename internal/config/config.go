package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// CurrentVersion is the only configuration layout this build understands.
const CurrentVersion = "1"

// Config represents the complete configuration structure
type Config struct {
	Version  string         `yaml:"version" default:"1"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Photos   PhotosConfig   `yaml:"photos"`
	Drafts   DraftsConfig   `yaml:"drafts"`
	Editor   EditorConfig   `yaml:"editor"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
	// Format is console or json.
	Format string `yaml:"format" default:"console"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12600"`
	// BaseURL is where editor clients reach the server.
	BaseURL        string `yaml:"base_url" default:"http://localhost:12600"`
	MaxUploadBytes int    `yaml:"max_upload_bytes" default:"20971520"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path" default:"./inkwell.db"`
	Compression string `yaml:"compression" default:"zstd"`
}

type StorageConfig struct {
	// Backend is fs or s3.
	Backend   string   `yaml:"backend" default:"fs"`
	Root      string   `yaml:"root" default:"./uploads"`
	URLPrefix string   `yaml:"url_prefix" default:"/uploads"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket" default:""`
	Endpoint  string `yaml:"endpoint" default:""`
	Region    string `yaml:"region" default:"auto"`
	PublicURL string `yaml:"public_url" default:""`
	// Credentials are read from S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type PhotosConfig struct {
	APIURL   string        `yaml:"api_url" default:"https://api.unsplash.com"`
	PerPage  int           `yaml:"per_page" default:"12"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"10m"`
	Referral string        `yaml:"referral" default:"inkwell"`
	// AccessKey is read from PHOTOS_ACCESS_KEY.
	AccessKey string `yaml:"-"`
}

type DraftsConfig struct {
	// Backend is memory, sqlite or redis.
	Backend string      `yaml:"backend" default:"sqlite"`
	Redis   RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr" default:"localhost:6379"`
	Namespace string        `yaml:"namespace" default:"inkwell"`
	TTL       time.Duration `yaml:"ttl" default:"720h"`
}

type EditorConfig struct {
	SelectionDebounce time.Duration `yaml:"selection_debounce" default:"100ms"`
	SyncDelay         time.Duration `yaml:"sync_delay" default:"300ms"`
	LocalDelay        time.Duration `yaml:"local_delay" default:"1s"`
	RemoteDelay       time.Duration `yaml:"remote_delay" default:"2s"`
}

type SecurityConfig struct {
	// Token is the anti-forgery token. It is read from INKWELL_TOKEN and generated when unset.
	Token string `yaml:"-"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	data, err := os.ReadFile(path)
	if err != nil {
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
	} else if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(config)
	if err := config.Validate(); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

// applyEnv fills the secrets that never live in the config file.
func applyEnv(c *Config) {
	c.Security.Token = os.Getenv("INKWELL_TOKEN")
	c.Photos.AccessKey = os.Getenv("PHOTOS_ACCESS_KEY")
	c.Storage.S3.AccessKeyID = os.Getenv("S3_ACCESS_KEY_ID")
	c.Storage.S3.SecretAccessKey = os.Getenv("S3_SECRET_ACCESS_KEY")
}

func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported configuration version %q (expected %q)", c.Version, CurrentVersion)
	}
	switch c.Storage.Backend {
	case "fs":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Drafts.Backend {
	case "memory", "sqlite", "redis":
	default:
		return fmt.Errorf("unknown drafts backend %q", c.Drafts.Backend)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be positive")
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

var durationType = reflect.TypeOf(time.Duration(0))

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch {
		case field.Type() == durationType:
			if val, err := time.ParseDuration(defaultValue); err == nil {
				field.SetInt(int64(val))
			}
		case field.Kind() == reflect.String:
			field.SetString(defaultValue)
		case field.Kind() == reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case field.Kind() == reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case field.Kind() == reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case field.Kind() == reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
