package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"nss-netns/namespace"
	"nss-netns/resolver"
)

const (
	// Name is looked up as /etc/nss_netns.{yaml,json,toml,...}.
	Name = "nss_netns"
	Dir  = "/etc"
)

// Config is everything the plugin and the CLI can be told. The plugin has no
// flags or environment; an absent file means defaults.
type Config struct {
	Hosts struct {
		System   string `mapstructure:"system"`
		NetnsDir string `mapstructure:"netns_dir"`
	} `mapstructure:"hosts"`
	Netns struct {
		RunDirs      []string `mapstructure:"run_dirs"`
		ResolveNames bool     `mapstructure:"resolve_names"`
	} `mapstructure:"netns"`
	Lookup struct {
		Multi bool `mapstructure:"multi"`
	} `mapstructure:"lookup"`
	Cache struct {
		Expiration time.Duration `mapstructure:"expiration"`
	} `mapstructure:"cache"`
	Logging Logging `mapstructure:"logging"`
}

// Logging selects where plugin log output goes. By default it goes nowhere.
type Logging struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	JSON   bool   `mapstructure:"json"`
	Syslog bool   `mapstructure:"syslog"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("hosts.system", resolver.DefaultSystemHosts)
	v.SetDefault("hosts.netns_dir", resolver.DefaultNetnsDir)
	v.SetDefault("netns.run_dirs", []string{namespace.DefaultRunDir})
	v.SetDefault("netns.resolve_names", true)
	v.SetDefault("lookup.multi", true)
	v.SetDefault("cache.expiration", 5*time.Minute)
	v.SetDefault("logging.level", "warning")
}

// Load reads the config file at path. An empty path searches Dir for a file
// called Name with any extension viper understands; not finding one is not
// an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(Dir)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, errors.Wrapf(err, "read config %s", path)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	return cfg, nil
}

// Default is the configuration used when no file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	// defaults always decode
	_ = v.Unmarshal(cfg)
	return cfg
}
