package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Addr          string   `yaml:"addr" validate:"required"`
	LogLevel      string   `yaml:"log_level"`
	LogJSON       bool     `yaml:"log_json"`
	SecureCookies bool     `yaml:"secure_cookies"`
	CorsOrigins   []string `yaml:"cors_origins"`

	JwtTTL time.Duration `yaml:"jwt_ttl" validate:"required"`

	DefaultPageSize int `yaml:"default_page_size" validate:"required,min=1"`
	MaxPageSize     int `yaml:"max_page_size" validate:"required,gtefield=DefaultPageSize"`

	MaxAttachments         int      `yaml:"max_attachments" validate:"required,min=1"`
	MaxTotalAttachmentSize int64    `yaml:"max_total_attachment_size" validate:"required"`
	AllowedMimeTypes       []string `yaml:"allowed_mime_types" validate:"required,min=1"`
	ThumbnailSize          int      `yaml:"thumbnail_size" validate:"required"`

	Storage Storage `yaml:"storage"`

	GCInterval        time.Duration `yaml:"gc_interval" validate:"required"`
	GCSafetyThreshold time.Duration `yaml:"gc_safety_threshold" validate:"required"`

	CategoryCacheTTL time.Duration `yaml:"category_cache_ttl"`
}

type Storage struct {
	Backend  string   `yaml:"backend" validate:"required,oneof=fs s3"`
	RootPath string   `yaml:"root_path" validate:"required_if=Backend fs"`
	S3       S3Public `yaml:"s3"`
}

type S3Public struct {
	Endpoint       string `yaml:"endpoint"`
	Region         string `yaml:"region"`
	Bucket         string `yaml:"bucket"`
	Prefix         string `yaml:"prefix"`
	ForcePathStyle bool   `yaml:"force_path_style"`
}

type Private struct {
	Pg     Pg           `yaml:"pg"`
	JwtKey string       `yaml:"jwt_key" validate:"required"`
	S3     S3Credential `yaml:"s3"`
	Redis  Redis        `yaml:"redis"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type S3Credential struct {
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// Redis is optional; an empty Addr disables the category cache.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder and panics on any problem,
// including a missing required field.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	if cfg.Public.Storage.Backend == "s3" && cfg.Public.Storage.S3.Bucket == "" {
		panic("invalid config: storage.s3.bucket is required for the s3 backend")
	}
	if cfg.Public.ThumbnailSize <= 0 {
		panic("invalid config: thumbnail_size must be positive")
	}
	return cfg
}
