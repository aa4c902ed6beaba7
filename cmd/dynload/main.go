// Command dynload loads a platform-specific dynamic library by naming
// convention and calls one of its exported functions.
//
// With no subcommand it loads <executable dir>/build/<os>/<library>, calls
// add(10, 20) and prints "10 + 20 = 30".
package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qubicDB/dynload/pkg/config"
	"github.com/qubicDB/dynload/pkg/dynlib"
	"github.com/qubicDB/dynload/pkg/example"
	"github.com/qubicDB/dynload/pkg/platform"
	"github.com/qubicDB/dynload/pkg/registry"
	"github.com/qubicDB/dynload/pkg/report"
)

func main() {
	os.Exit(Main())
}

// Main runs the command and returns the process exit status. Every
// failure is printed to stdout and yields 1.
func Main() int {
	rootCmd := newRootCmd()
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetErr(os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stdout, "error: %v\n", err)
		return 1
	}
	return 0
}

// app holds state shared by all subcommands.
type app struct {
	overrides config.CLIOverrides
	libs      *registry.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{libs: registry.New()}

	rootCmd := &cobra.Command{
		Use:   "dynload",
		Short: "Load a dynamic library by convention and call an exported function",
		Long: `dynload locates <dir>/<os>/<file>, where <file> is <name>.dll on Windows,
lib<name>.so on Linux and lib<name>.dylib on Darwin, loads it with the
operating system's dynamic loader and calls an exported C function.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return a.call(cmd, cfg, cfg.Call.Symbol, cfg.Call.Args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := rootCmd.PersistentFlags()
	a.overrides.ConfigPath = f.StringP("config", "f", "", "Path to YAML config file")
	a.overrides.Name = f.String("name", "", "Library name without prefix or extension (default \"example\")")
	a.overrides.Dir = f.String("dir", "", "Base directory holding <os>/<library> (default <executable dir>/build)")
	a.overrides.OS = f.String("os", "", "Target OS family: Windows, Linux or Darwin (default host)")
	a.overrides.Format = f.String("format", "", "Output format: text, yaml, json or msgpack (default \"text\")")
	a.overrides.Quiet = f.BoolP("quiet", "q", false, "Suppress progress messages")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "call SYMBOL [--] [INT32...]",
		Short: "Call an exported int32 function with up to four int32 arguments",
		Long: `Call an exported int32 function with up to four int32 arguments.

Arguments starting with '-' are read as flags; put flags first and end them
with -- to pass negative numbers:

  dynload call negate --dir build -- -5`,
		Args:  cobra.RangeArgs(1, 1+dynlib.MaxInt32Args),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			values, err := parseInt32s(args[1:])
			if err != nil {
				return err
			}
			return a.call(cmd, cfg, args[0], values)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "resolve",
		Short: "Print the conventional path of the library without loading it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return a.resolve(cmd, cfg)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "host",
		Short: "Print the host operating system, architecture and CPU",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			return report.Write(cmd.OutOrStdout(), cfg.Output.Format, platform.HostInfo())
		},
	})

	return rootCmd
}

// loadConfig resolves defaults -> YAML -> explicitly-set flags.
func (a *app) loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	cfg, err := config.LoadConfig(*a.overrides.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyExplicitFlags(flags, cfg, &a.overrides)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyExplicitFlags applies only the CLI flags that were explicitly set
// by the user on the command line, so unset flags do not override values
// from the YAML file.
func applyExplicitFlags(flags *pflag.FlagSet, cfg *config.Config, o *config.CLIOverrides) {
	overrides := config.CLIOverrides{}

	if flags.Changed("name") {
		overrides.Name = o.Name
	}
	if flags.Changed("dir") {
		overrides.Dir = o.Dir
	}
	if flags.Changed("os") {
		overrides.OS = o.OS
	}
	if flags.Changed("format") {
		overrides.Format = o.Format
	}
	if flags.Changed("quiet") {
		overrides.Quiet = o.Quiet
	}

	cfg.ApplyCLIOverrides(&overrides)
}

// progress returns the logger for informational messages: stdout in text
// mode, stderr for structured formats, discarded when quiet.
func progress(cmd *cobra.Command, cfg *config.Config) *log.Logger {
	if cfg.Output.Quiet {
		return log.New(io.Discard, "", 0)
	}
	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output.Format != config.FormatText {
		w = cmd.ErrOrStderr()
	}
	return log.New(w, "", 0)
}

func (a *app) call(cmd *cobra.Command, cfg *config.Config, symbol string, args []int32) error {
	dir, err := cfg.LibraryDir()
	if err != nil {
		return err
	}

	logger := progress(cmd, cfg)
	lib, err := dynlib.Load(cfg.Library.Name,
		dynlib.WithDir(dir),
		dynlib.WithOSName(cfg.Library.OS),
		dynlib.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	entry := a.libs.Track(lib)
	defer func() {
		logger.Printf("Releasing %d library handle(s)", a.libs.Count())
		if err := a.libs.CloseAll(); err != nil {
			logger.Printf("Close error: %v", err)
		}
	}()

	var value int32
	if symbol == example.AddSymbol && len(args) == 2 {
		add, err := example.BindAdd(lib)
		if err != nil {
			return err
		}
		value = add(args[0], args[1])
	} else {
		fn, err := lib.Int32Func(symbol, len(args))
		if err != nil {
			return err
		}
		value = fn(args...)
	}

	return report.Write(cmd.OutOrStdout(), cfg.Output.Format, report.Result{
		ID:       entry.ID,
		Library:  report.FromDescriptor(lib.Descriptor()),
		Symbol:   symbol,
		Args:     args,
		Value:    value,
		LoadedAt: entry.LoadedAt,
	})
}

func (a *app) resolve(cmd *cobra.Command, cfg *config.Config) error {
	family, err := platform.Host()
	if cfg.Library.OS != "" {
		family, err = platform.Parse(cfg.Library.OS)
	}
	if err != nil {
		return err
	}
	dir, err := cfg.LibraryDir()
	if err != nil {
		return err
	}
	desc, err := dynlib.Resolve(cfg.Library.Name, dir, family)
	if err != nil {
		return err
	}
	return report.Write(cmd.OutOrStdout(), cfg.Output.Format, report.FromDescriptor(desc))
}

func parseInt32s(args []string) ([]int32, error) {
	values := make([]int32, len(args))
	for i, s := range args {
		n, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an int32", i+1, s)
		}
		values[i] = int32(n)
	}
	return values, nil
}
