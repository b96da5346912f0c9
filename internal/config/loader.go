package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rpint/rpint/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "rpint.toml"
	// SystemConfigDir is where the appliance image installs its config.
	SystemConfigDir = "/etc/rpint"
	// UserConfigDir is the per-user config directory under $HOME.
	UserConfigDir = ".config/rpint"
	// EnvPrefix prefixes environment overrides, e.g. RPINT_SETUP_FONT_SIZE.
	EnvPrefix = "RPINT"
)

// Load reads config from the specified path, merges defaults and environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("toml")
	}

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found: "+path,
				"Run 'rpint config init' to create one, or point --config at an existing file")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check that "+path+" is valid TOML")
	}

	cfg, err := parseConfig(v, path)
	if err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. rpint.toml in current directory
// 3. /etc/rpint/rpint.toml
// 4. ~/.config/rpint/rpint.toml
//
// Unlike other tools there is no fallback to built-in defaults: a daemon
// without a config file refuses to start.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	for _, candidate := range SearchPaths() {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", errors.New(errors.ErrConfig,
		"No config file found",
		"Run 'rpint config init' or place rpint.toml in "+SystemConfigDir)
}

// SearchPaths lists the locations Find checks when no explicit path is given.
func SearchPaths() []string {
	paths := []string{}
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ConfigFileName))
	}
	paths = append(paths, filepath.Join(SystemConfigDir, ConfigFileName))
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, UserConfigDir, ConfigFileName))
	}
	return paths
}

// FindAndLoad is Find followed by Load.
func FindAndLoad(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	setDefaults(v, cfg)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the value types in "+path)
	}

	cfg.Setup.FontPath = expandHome(cfg.Setup.FontPath)
	cfg.Setup.PIDFile = expandHome(cfg.Setup.PIDFile)

	return cfg, nil
}

// setDefaults registers every leaf of cfg with viper so environment
// variables can override keys that the file does not mention.
func setDefaults(v *viper.Viper, cfg *Config) {
	walkDefaults(v, "", reflect.ValueOf(cfg).Elem())
}

func walkDefaults(v *viper.Viper, prefix string, rv reflect.Value) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		key := strings.Split(field.Tag.Get("mapstructure"), ",")[0]
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		fv := rv.Field(i)
		if fv.Kind() == reflect.Struct {
			walkDefaults(v, key, fv)
			continue
		}
		v.SetDefault(key, fv.Interface())
	}
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
