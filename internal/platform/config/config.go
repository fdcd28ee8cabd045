package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DefaultAPIURL   = "http://localhost:8000"
	DefaultTimeout  = 10 * time.Second
	DefaultPageSize = 100
)

type Config struct {
	Env         string        `yaml:"env" validate:"oneof=development production"`
	APIURL      string        `yaml:"api_url" validate:"required,url"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	PageSize    int           `yaml:"page_size" validate:"gte=1"`
	DataDir     string        `yaml:"data_dir" validate:"required"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
	Log         LogConfig     `yaml:"log"`

	DBPath     string `yaml:"-"`
	ConfigFile string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
	File   string `yaml:"file,omitempty"`
}

// Options carries command-line overrides; empty fields leave file and env values in place.
type Options struct {
	ConfigFile string
	DataDir    string
	APIURL     string
}

func Load(opts Options) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ADSDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = v.GetString("data_dir")
	}
	configFile := opts.ConfigFile
	if configFile == "" {
		configFile = filepath.Join(dataDir, "config.yaml")
	}
	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	cfg := Config{
		Env:         v.GetString("env"),
		APIURL:      strings.TrimRight(v.GetString("api_url"), "/"),
		Timeout:     v.GetDuration("timeout"),
		PageSize:    v.GetInt("page_size"),
		DataDir:     v.GetString("data_dir"),
		MetricsAddr: v.GetString("metrics_addr"),
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			File:   v.GetString("log.file"),
		},
		ConfigFile: configFile,
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.APIURL != "" {
		cfg.APIURL = strings.TrimRight(opts.APIURL, "/")
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "adsdash.db")
	if cfg.Log.File == "" {
		cfg.Log.File = filepath.Join(cfg.DataDir, "adsdash.log")
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when no file or environment overrides exist.
func Defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Env:      EnvDevelopment,
		APIURL:   DefaultAPIURL,
		Timeout:  DefaultTimeout,
		PageSize: DefaultPageSize,
		DataDir:  dataDir,
		Log:      LogConfig{Level: "info", Format: "json"},
		DBPath:   filepath.Join(dataDir, "adsdash.db"),
	}
}

// WriteDefault renders the defaults as YAML at path. An existing file is kept unless force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}
	raw, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("env", d.Env)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("timeout", d.Timeout.String())
	v.SetDefault("page_size", d.PageSize)
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.file", "")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".adsdash"
	}
	return filepath.Join(home, ".adsdash")
}
