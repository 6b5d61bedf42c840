package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit               string        `yaml:"git_commit" envconfig:"BWRM_GIT_COMMIT"`
	GitTag                  string        `yaml:"git_tag" envconfig:"BWRM_GIT_TAG"`
	BuildTime               string        `yaml:"build_time" envconfig:"BWRM_BUILD_TIME"`
	IsProduction            bool          `yaml:"is_production" envconfig:"BWRM_IS_PRODUCTION"`
	LogLevel                zapcore.Level `yaml:"log_level" envconfig:"BWRM_LOG_LEVEL"`
	LogFolder               string        `yaml:"log_folder" envconfig:"BWRM_LOG_FOLDER"`
	LogMaxSize              int           `yaml:"log_max_size" envconfig:"BWRM_LOG_MAX_SIZE"`
	OpsEndpointsEnable      bool          `yaml:"ops_endpoints_enable" envconfig:"BWRM_OPS_ENDPOINTS_ENABLE"`
	ProfilerEndpointsEnable bool          `yaml:"profiler_endpoints_enable" envconfig:"BWRM_PROFILER_ENDPOINTS_ENABLE"`
	Server                  ServerConfig  `yaml:"server"`
	Redis                   RedisConfig   `yaml:"redis"`
	BoltDB                  BoltDBConfig  `yaml:"boltdb"`
	Auth                    AuthConfig    `yaml:"auth"`
	Uploads                 UploadsConfig `yaml:"uploads"`
	Cache                   CacheConfig   `yaml:"cache"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BWRM_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BWRM_SERVER_PORT"`
	CertsFile       string        `yaml:"certs_file" envconfig:"BWRM_SERVER_CERTS_FILE"`
	KeyFile         string        `yaml:"key_file" envconfig:"BWRM_SERVER_KEY_FILE"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BWRM_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BWRM_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BWRM_SERVER_REQUEST_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BWRM_SERVER_SHUTDOWN_TIMEOUT"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BWRM_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BWRM_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BWRM_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BWRM_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BWRM_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BWRM_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BWRM_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BWRM_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BWRM_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BWRM_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BWRM_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BWRM_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BWRM_BOLTDB_BUCKET_NAME"`
}

type AuthConfig struct {
	SessionTTL time.Duration `yaml:"session_ttl" envconfig:"BWRM_AUTH_SESSION_TTL"`
	BcryptCost int           `yaml:"bcrypt_cost" envconfig:"BWRM_AUTH_BCRYPT_COST"`
}

type UploadsConfig struct {
	Folder     string `yaml:"folder" envconfig:"BWRM_UPLOADS_FOLDER"`
	PublicBase string `yaml:"public_base" envconfig:"BWRM_UPLOADS_PUBLIC_BASE"`
	MaxSizeMB  int    `yaml:"max_size_mb" envconfig:"BWRM_UPLOADS_MAX_SIZE_MB"`
}

type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"BWRM_CACHE_TTL"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	err = yd.Decode(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
		return errors.New("make sure to set valid redis address and port in configuration file")
	}

	if config.Auth.SessionTTL == 0 {
		config.Auth.SessionTTL = 7 * 24 * time.Hour
	}

	if config.Auth.BcryptCost == 0 {
		config.Auth.BcryptCost = 10
	}

	if config.Uploads.MaxSizeMB == 0 {
		config.Uploads.MaxSizeMB = 5
	}

	if len(config.Uploads.Folder) == 0 {
		config.Uploads.Folder = "./uploads"
	}

	if config.Cache.TTL == 0 {
		config.Cache.TTL = 30 * time.Second
	}

	if config.LogMaxSize == 0 {
		config.LogMaxSize = 100
	}

	return nil
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data.
func LoadAndInitConfigs(gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile("./config.yml")
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load("./config.env")
	if err != nil {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BWRM`.
	err = LoadConfigEnvs("BWRM", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
