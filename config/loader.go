package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "RECORDKIT_"

// DefaultFiles are looked up in the working directory when no config file
// is given.
var DefaultFiles = []string{"recordkit.yaml", "recordkit.yml"}

// Load reads the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
//
// Only flags set on the command line are applied. Flag names map to keys
// with dashes replaced by underscores. The returned configuration has its
// defaults applied but is not validated.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, string, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"driver":         DefaultDriver,
		"output":         DefaultOutput,
		"timezone":       DefaultTimeZone,
		"slow_threshold": DefaultSlowThreshold.String(),
	}, "."), nil); err != nil {
		return nil, "", fmt.Errorf("config: load defaults: %w", err)
	}

	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, "", fmt.Errorf("config: read %s: %w", used, err)
		}
	}

	// RECORDKIT_SLOW_THRESHOLD -> slow_threshold
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, "", fmt.Errorf("config: load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, "", fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, "", fmt.Errorf("config: decode: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, used, nil
}

func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range DefaultFiles {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}
