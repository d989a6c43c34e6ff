package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/inodb/vibe-ref/internal/reference"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage vibe-ref configuration",
		Long: `Show, get, or set configuration values. Config is stored in ~/.vibe-ref.yaml
and every key can be overridden with a VIBE_REF_ environment variable
(e.g. VIBE_REF_SERVE_POOL_SIZE).`,
		Example: `  vibe-ref config                          # show all config
  vibe-ref config set cache_size_bases 1048576
  vibe-ref config get serve.addr`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, args[0])
		},
	}
}

func runConfigShow(cmd *cobra.Command) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(viper.AllSettings()); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}

// configKeys lists the settable keys with a validator for their value.
var configKeys = map[string]func(string) (interface{}, error){
	keyCacheSize: nonNegativeInt,
	keyLogLevel: func(v string) (interface{}, error) {
		if _, err := zapcore.ParseLevel(v); err != nil {
			return nil, err
		}
		return v, nil
	},
	keyServeAddr: func(v string) (interface{}, error) { return v, nil },
	keyPoolSize: func(v string) (interface{}, error) {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("want a positive integer, got %q", v)
		}
		return n, nil
	},
	keyWorkers: nonNegativeInt,
}

func nonNegativeInt(v string) (interface{}, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("want a non-negative integer, got %q", v)
	}
	return n, nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	validate, ok := configKeys[key]
	if !ok {
		known := make([]string, 0, len(configKeys))
		for k := range configKeys {
			known = append(known, k)
		}
		sort.Strings(known)
		return &usageError{fmt.Errorf("unknown config key %q (known: %s)", key, strings.Join(known, ", "))}
	}
	typed, err := validate(value)
	if err != nil {
		return &usageError{fmt.Errorf("invalid value for %s: %w", key, err)}
	}
	viper.Set(key, typed)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		cfgFile = filepath.Join(home, ".vibe-ref.yaml")
	}
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("write %s: %w", cfgFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s = %v (%s)\n", key, typed, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	if !viper.IsSet(key) {
		return fmt.Errorf("%w: config key %q is not set", reference.ErrNotFound, key)
	}
	val := viper.Get(key)
	fmt.Fprintln(cmd.OutOrStdout(), val)
	return nil
}
