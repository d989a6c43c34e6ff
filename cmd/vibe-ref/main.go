// Package main provides the vibe-ref command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Configuration keys.
const (
	keyCacheSize = "cache_size_bases"
	keyLogLevel  = "log_level"
	keyServeAddr = "serve.addr"
	keyPoolSize  = "serve.pool_size"
	keyWorkers   = "check.workers"
)

// usageError marks errors caused by bad command-line input.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// usageArgs wraps a cobra argument validator so its failures exit with
// ExitUsage.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// exitError makes a command exit with a specific code after printing err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root, a := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	a.teardown()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var ue *usageError
	if errors.As(err, &ue) {
		fmt.Fprintf(os.Stderr, "Run '%s --help' for usage.\n", root.Name())
		return ExitUsage
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// app carries state shared by subcommands.
type app struct {
	cfgFile    string
	verbose    bool
	profileDir string
	profiler   interface{ Stop() }
	logger     *zap.Logger
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "vibe-ref",
		Short: "Random access to FASTA reference genomes",
		Long: `vibe-ref reads indexed (.fai, optionally BGZF with .gzi) and unindexed FASTA
reference genomes. It fetches regions, lists contigs, exports references to
FASTA or DuckDB, checks VCF reference alleles and serves bases over HTTP.`,
		Example: `  vibe-ref fetch ref.fa chr1:11-20
  vibe-ref contigs ref.fa.gz
  vibe-ref check-ref ref.fa input.vcf -o checked.vcf.gz
  vibe-ref serve ref.fa --addr :8080`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ~/.vibe-ref.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&a.profileDir, "profile-dir", "", "write a CPU profile into this directory")
	pf.Int("cache-size", 65536, "read-ahead cache size in bases (0 disables)")
	viper.BindPFlag(keyCacheSize, pf.Lookup("cache-size"))

	cobra.OnInitialize(func() { initConfig(a.cfgFile) })

	root.AddCommand(
		newFetchCmd(a),
		newContigsCmd(a),
		newExportCmd(a),
		newCheckRefCmd(a),
		newServeCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root, a
}

// initConfig reads ~/.vibe-ref.yaml (or cfgFile) and VIBE_REF_* variables.
func initConfig(cfgFile string) {
	viper.SetDefault(keyCacheSize, 65536)
	viper.SetDefault(keyLogLevel, "info")
	viper.SetDefault(keyServeAddr, ":8080")
	viper.SetDefault(keyPoolSize, 4)
	viper.SetDefault(keyWorkers, 0)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.SetConfigFile(filepath.Join(home, ".vibe-ref.yaml"))
	}
	viper.SetEnvPrefix("VIBE_REF")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine.
	_ = viper.ReadInConfig()
}

func (a *app) setup() error {
	logger, err := newLogger(viper.GetString(keyLogLevel), a.verbose)
	if err != nil {
		return &usageError{err}
	}
	a.logger = logger

	if a.profileDir != "" {
		a.profiler = profile.Start(profile.CPUProfile, profile.ProfilePath(a.profileDir), profile.NoShutdownHook)
	}
	return nil
}

// teardown stops profiling and flushes logs. It is safe to call when
// setup never ran.
func (a *app) teardown() {
	if a.profiler != nil {
		a.profiler.Stop()
		a.profiler = nil
	}
	a.logger.Sync()
}

// newLogger builds a console logger on stderr. verbose forces debug level.
func newLogger(level string, verbose bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", keyLogLevel, level, err)
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = !verbose
	return cfg.Build()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  usageArgs(cobra.NoArgs),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-ref version %s (%s) built %s\n", version, commit, date)
		},
	}
}
