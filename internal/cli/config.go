package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/finanfun/nocache/internal/mimetype"
)

const defaultConfigName = "nocache.yaml"

type Config struct {
	Host         string `yaml:"host"          mapstructure:"host"`
	Port         int    `yaml:"port"          mapstructure:"port"`
	Root         string `yaml:"root"          mapstructure:"root"`
	CORS         bool   `yaml:"cors"          mapstructure:"cors"`
	FallbackType string `yaml:"fallback_type" mapstructure:"fallback_type"`
	Name         string `yaml:"name"          mapstructure:"name"`
	LogJSON      bool   `yaml:"log_json"      mapstructure:"log_json"`
	LogLevel     string `yaml:"log_level"     mapstructure:"log_level"`
}

func defaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         5000,
		Root:         ".",
		FallbackType: mimetype.OctetStream,
		Name:         "FinanFun No-Cache Server",
		LogLevel:     "info",
	}
}

// flag name -> config key
var flagKeys = map[string]string{
	"host":          "host",
	"port":          "port",
	"root":          "root",
	"cors":          "cors",
	"fallback-type": "fallback_type",
	"name":          "name",
	"log-json":      "log_json",
	"log-level":     "log_level",
}

// loadConfig layers defaults, the config file, NOCACHE_* env vars and any
// changed flags, in that order. An explicit path must exist; the implicit
// ./nocache.yaml is optional.
func loadConfig(fsys afero.Fs, path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetFs(fsys)
	v.SetConfigType("yaml")

	d := defaultConfig()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("root", d.Root)
	v.SetDefault("cors", d.CORS)
	v.SetDefault("fallback_type", d.FallbackType)
	v.SetDefault("name", d.Name)
	v.SetDefault("log_json", d.LogJSON)
	v.SetDefault("log_level", d.LogLevel)

	// Env overrides: NOCACHE_PORT, NOCACHE_FALLBACK_TYPE, etc.
	v.SetEnvPrefix("NOCACHE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	file := path
	if file == "" {
		file = defaultConfigName
	}
	ok, err := afero.Exists(fsys, file)
	if err != nil {
		return nil, fmt.Errorf("stat config %s: %w", file, err)
	}
	switch {
	case ok:
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	case path != "":
		return nil, fmt.Errorf("config %s: %w", path, fs.ErrNotExist)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", s, err)
	}
	return lvl, nil
}

func marshalConfig(c *Config) ([]byte, error) {
	return yaml.Marshal(c)
}

func cmdConfig() *cobra.Command {
	c := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the server configuration",
	}
	c.AddCommand(cmdConfigShow(), cmdConfigInit())
	return c
}

func cmdConfigShow() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFs, cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			b, err := marshalConfig(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}

func cmdConfigInit() *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the defaults",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigName
			if len(args) == 1 {
				path = args[0]
			}
			if !force {
				exists, err := afero.Exists(configFs, path)
				if err != nil {
					return err
				}
				if exists {
					return fmt.Errorf("%s already exists, use --force to overwrite", path)
				}
			}
			d := defaultConfig()
			b, err := marshalConfig(&d)
			if err != nil {
				return err
			}
			if err := writeFile(path, b, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote config: %s\n", path)
			return nil
		},
	}
	c.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return c
}

func setupLogging(c *Config) {
	lvl, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: lvl}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogJSON {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(h))
}
