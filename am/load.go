package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/mavgen/errors"
)

var (
	viperInstance  *viper.Viper
	explicitConfig string
)

// Load reads the mavgen configuration using Viper
func Load() (*Config, error) {
	return LoadWithViper(initViper())
}

// GetViper returns the Viper instance so cmd/mavgen can bind flags to it
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return LoadWithViper(v)
}

// SetConfigFile makes path the only config file consulted (the --config flag).
func SetConfigFile(path string) {
	explicitConfig = path
	viperInstance = nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	viperInstance = nil
	explicitConfig = ""
}

func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := viper.New()

	v.SetEnvPrefix("MAVGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	mergeConfigFiles(v, ConfigPaths())

	viperInstance = v
	return v
}

// ConfigPaths lists the config files consulted, lowest precedence first.
// Missing files are skipped when merging.
func ConfigPaths() []string {
	if explicitConfig != "" {
		return []string{explicitConfig}
	}

	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".mavgen", ConfigFileName))
	}
	if project := findProjectConfig(); project != "" {
		paths = append(paths, project)
	}
	return paths
}

// findProjectConfig searches for mavgen.toml by walking up the directory tree
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// mergeConfigFiles merges configuration files in precedence order.
// Relative directory settings are resolved against the file that set them.
func mergeConfigFiles(v *viper.Viper, configPaths []string) {
	for _, configPath := range configPaths {
		if _, err := os.Stat(configPath); err != nil {
			continue
		}

		fileViper := viper.New()
		fileViper.SetConfigFile(configPath)
		fileViper.SetConfigType("toml")
		if err := fileViper.ReadInConfig(); err != nil {
			continue
		}

		base := filepath.Dir(configPath)
		for _, key := range fileViper.AllKeys() {
			value := fileViper.Get(key)
			if isPathKey(key) {
				if s, ok := value.(string); ok && s != "" && !filepath.IsAbs(s) && !isRemote(s) {
					value = filepath.Join(base, s)
				}
			}
			v.Set(key, value)
		}
	}
}

func isPathKey(key string) bool {
	switch key {
	case "definitions.dir", "definitions.repo_dir", "definitions.patch_dir", "output.dir":
		return true
	}
	return false
}

func isRemote(s string) bool {
	return strings.Contains(s, "://") || strings.Contains(s, "::")
}
