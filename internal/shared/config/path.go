package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultConfigDir  = ".karmatch"
	defaultConfigName = "config.yaml"
	configPathEnv     = envPrefix + "CONFIG_PATH"
)

// ConfigOrigin says how the config file location was picked.
type ConfigOrigin string

const (
	ConfigOriginExplicit ConfigOrigin = "flag"
	ConfigOriginEnv      ConfigOrigin = ConfigOrigin(configPathEnv)
	ConfigOriginHome     ConfigOrigin = "home"
	ConfigOriginFallback ConfigOrigin = "fallback"
)

// ResolveConfigPath picks the YAML file holding the client's runtime section
// when --config is not given. KARMATCH_CONFIG_PATH wins. Otherwise the file
// lives in ~/.karmatch next to the session and chat history. A machine with
// no home directory reads configs/config.yaml from the working directory.
func ResolveConfigPath(envLookup EnvLookup, homeDir func() (string, error)) (string, ConfigOrigin) {
	if envLookup == nil {
		envLookup = DefaultEnvLookup
	}
	if value, ok := envLookup(configPathEnv); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed, ConfigOriginEnv
		}
	}

	if homeDir == nil {
		homeDir = os.UserHomeDir
	}
	if home, err := homeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(strings.TrimSpace(home), defaultConfigDir, defaultConfigName), ConfigOriginHome
	}
	return filepath.Join("configs", defaultConfigName), ConfigOriginFallback
}
