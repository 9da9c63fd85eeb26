package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/papercomputeco/streamchat/pkg/dotdir"
)

// EnvPrefix prefixes the environment variables that override config keys:
// chat.model is read from STREAMCHAT_CHAT_MODEL.
const EnvPrefix = "STREAMCHAT"

// InitViper returns a viper holding the effective settings, highest
// precedence first:
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. STREAMCHAT_* environment variables
//  3. config.toml in the resolved .streamchat/ directory
//  4. NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()
	setViperDefaults(v)

	path, err := dotdir.NewManager().File(configDir, configFile)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers every config key with its NewDefaultConfig
// value, so defaults.go stays the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)
	for _, k := range configKeys {
		v.SetDefault(k.name, k.value(d))
	}
}
