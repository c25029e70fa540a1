package config

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/mold/v4/modifiers"
	"github.com/go-playground/validator/v10"
	"github.com/iancoleman/strcase"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	envPrefix         = "BOOKMEND_"
	configFileENV     = envPrefix + "CONFIG_FILE"
	defaultConfigFile = "/mnt/ext1/applications/bookmend.yaml"
)

const (
	DialogAuto   = "auto"
	DialogAlways = "always"
	DialogNever  = "never"

	ReportText = "text"
	ReportJSON = "json"
)

type Config struct {
	DatabaseFilePath          string        `koanf:"database_file_path" default:"/mnt/ext1/system/explorer-3/explorer-3.db" mod:"trim" validate:"required"`
	DatabaseConnectRetryCount int           `koanf:"database_connect_retry_count" default:"5" validate:"min=1"`
	DatabaseConnectRetryDelay time.Duration `koanf:"database_connect_retry_delay" default:"2s" validate:"min=0"`
	DatabaseBusyTimeout       time.Duration `koanf:"database_busy_timeout" default:"5s" validate:"min=0"`
	DatabaseMaxRetries        int           `koanf:"database_max_retries" default:"3" validate:"min=0"`
	DatabaseDebug             bool          `koanf:"database_debug"`

	StorageID           int      `koanf:"storage_id" default:"1" validate:"min=0"`
	BookExtension       string   `koanf:"book_extension" default:"epub" mod:"trim,lcase" validate:"required"`
	DRMFolders          []string `koanf:"drm_folders" default:"[\"/mnt/ext1/Digital Editions\"]" mod:"dive,trim"`
	ParseWorkers        int      `koanf:"parse_workers" default:"1" validate:"min=1,max=64"`
	DryRun              bool     `koanf:"dry_run"`
	FillMissingSortKeys bool     `koanf:"fill_missing_sort_keys"`

	DialogPath   string `koanf:"dialog_path" default:"/ebrmain/bin/dialog" mod:"trim"`
	UseDialog    string `koanf:"use_dialog" default:"auto" mod:"trim,lcase" validate:"oneof=auto always never"`
	ReportFormat string `koanf:"report_format" default:"text" mod:"trim,lcase" validate:"oneof=text json"`
}

// New builds the configuration from struct defaults, then the YAML file named by BOOKMEND_CONFIG_FILE (if it
// exists), then BOOKMEND_* environment variables.
func New() (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, errors.WithStack(err)
	}

	k := koanf.New(".")

	configFile := os.Getenv(configFileENV)
	if configFile == "" {
		configFile = defaultConfigFile
	}
	if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "loading config file %s", configFile)
	}

	err := k.Load(env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		if key == configFileENV {
			return "", nil
		}
		key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
		if key == "drm_folders" {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewForTest returns a configuration pointing at an in-memory database.
func NewForTest() *Config {
	cfg := &Config{}
	_ = defaults.Set(cfg)
	cfg.DatabaseFilePath = ":memory:"
	cfg.DatabaseConnectRetryCount = 1
	cfg.DatabaseConnectRetryDelay = 0
	cfg.UseDialog = DialogNever
	return cfg
}

// DialogEnabled reports whether results should be shown through the reader's dialog binary. "auto" means only
// when running on the device itself.
func (c *Config) DialogEnabled() bool {
	switch c.UseDialog {
	case DialogAlways:
		return true
	case DialogNever:
		return false
	default:
		return runtime.GOARCH == "arm"
	}
}

func finalize(cfg *Config) error {
	if err := modifiers.New().Struct(context.Background(), cfg); err != nil {
		return errors.WithStack(err)
	}

	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.WithStack(err)
	}

	fe := verrs[0]
	key := toSnakeCase(fe.StructField())
	if fe.Tag() == "required" {
		return errors.Errorf("missing required config: set %s or %s in the config file", envName(key), key)
	}
	return errors.Errorf("invalid config %s (%s): %v fails %s=%s", key, envName(key), fe.Value(), fe.Tag(), fe.Param())
}

func toSnakeCase(field string) string {
	return strcase.ToSnake(field)
}

func envName(key string) string {
	return envPrefix + strings.ToUpper(key)
}

func splitList(value string) []string {
	var list []string
	for _, v := range strings.Split(value, ":") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func (c *Config) String() string {
	return fmt.Sprintf("database=%s storage=%d ext=%s workers=%d dry_run=%t", c.DatabaseFilePath, c.StorageID,
		c.BookExtension, c.ParseWorkers, c.DryRun)
}
