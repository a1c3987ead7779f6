package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"tracecfg/internal/config"
	tlog "tracecfg/internal/tracecfg/log"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tracecfg [trace.json]",
		Short: "Rebuild control-flow graphs from execution traces",
		Long: `tracecfg rebuilds the control-flow graph of a traced program from a linear
instruction trace. Blocks end at branches and at calls that leave the traced
region. Loops discovered later in the trace split earlier blocks so that no
two vertices overlap.

The trace is a JSON array of instruction records, or one record per line.
Use "-" to read it from stdin.`,
		Example: `
# Graphviz CFG of a trace
tracecfg trace.json | dot -Tsvg > cfg.svg

# Recover disassembly from hexdumps, name imports, merge look-alike blocks
tracecfg --arch arm64 --elf libgame.so --elf-base 0x7a3c000000 --dedup trace.json

# Merge one vertex into another and print a listing
tracecfg -f listing --merge 0x1004=0x1008 trace.json
  `,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			} else if term.IsTerminal(os.Stdin.Fd()) {
				return cmd.Help()
			}
			return withProfiling(cmd, func() error {
				return runExport(cmd, path, nil)
			})
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Config file (default .tracecfg.yaml in the working directory or $HOME)")
	flags.StringP("cwd", "c", "", "Current working directory")
	flags.BoolP("debug", "d", false, "Debug")
	flags.StringP("format", "f", config.FormatDOT, "Output format: dot, lattice, calls, listing, json or report")
	flags.StringP("output", "o", "", "Write the export to a file instead of stdout")
	flags.String("arch", "", "Decode hexdumps to fill in missing text (arm64, amd64, 386)")
	flags.Bool("infer-branches", false, "Mark decoded control transfers as branches (use with --arch)")
	flags.Bool("dedup", false, "Merge structurally identical vertices")
	flags.StringSlice("merge", nil, "Merge a vertex into another, as old=new (repeatable)")
	flags.Bool("merge-union", false, "Keep the target's outgoing edges when merging")
	flags.String("elf", "", "ELF image used to name foreign call targets")
	flags.String("elf-base", "", "Load address of the ELF image in the traced process")
	flags.String("theme", "nasa", "DOT color theme: nasa or night")
	flags.String("report-style", "charm", "Report style: charm, vscode or plain")
	flags.Int("max-label-lines", 0, "Truncate DOT labels to this many lines (0 keeps all)")
	flags.Bool("no-color", false, "Disable colors")
	flags.Bool("check", false, "Validate graph invariants before export")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Append logs to this file instead of stderr")

	root.Flags().String("cpuprofile", "", "Write CPU profile to file")
	root.Flags().String("memprofile", "", "Write memory profile to file")

	root.AddCommand(
		newSplitCmd(),
		newReportCmd(),
		newBrowseCmd(),
		newWatchCmd(),
		newSchemaCmd(),
	)
	return root
}

// setup resolves the working directory, the layered configuration and the
// logger for cmd.
func setup(cmd *cobra.Command) (config.Config, *log.Logger, error) {
	if _, err := ResolveCwd(cmd); err != nil {
		return config.Config{}, nil, err
	}
	file, _ := cmd.Flags().GetString("config")
	conf, used, err := config.Load(cmd.Flags(), file)
	if err != nil {
		return config.Config{}, nil, err
	}
	if err := tlog.Setup(conf.Logging()); err != nil {
		return config.Config{}, nil, err
	}
	lg := tlog.Logger()
	if conf.Debug {
		lg.SetLevel(log.DebugLevel)
	}
	if used != "" {
		lg.Debug("Loaded config", "file", used)
	}
	return conf, lg, nil
}

// readTrace reads path, or the command's stdin for "-".
func readTrace(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read trace: %w", err)
	}
	return data, nil
}

// load runs the whole pipeline over the trace at path.
func load(cmd *cobra.Command, path string, splits []uint64) (config.Config, *pipeline, *result, error) {
	conf, lg, err := setup(cmd)
	if err != nil {
		return conf, nil, nil, err
	}
	data, err := readTrace(cmd, path)
	if err != nil {
		return conf, nil, nil, err
	}
	p, err := newPipeline(conf, lg)
	if err != nil {
		return conf, nil, nil, err
	}
	r, err := p.run(path, data, splits)
	if err != nil {
		return conf, nil, nil, err
	}
	return conf, p, r, nil
}

func runExport(cmd *cobra.Command, path string, splits []uint64) error {
	conf, p, r, err := load(cmd, path, splits)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), conf.Output, conf.NoColor, func(w io.Writer, color bool) error {
		return p.export(w, r, color)
	})
}

// withProfiling runs fn under the CPU and heap profiles requested on cmd.
func withProfiling(cmd *cobra.Command, fn func() error) error {
	cpuprofile, _ := cmd.Flags().GetString("cpuprofile")
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	memprofile, _ := cmd.Flags().GetString("memprofile")
	if memprofile != "" {
		defer func() {
			f, err := os.Create(memprofile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
				return
			}
			defer f.Close()
			if err := pprof.WriteHeapProfile(f); err != nil {
				fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
			}
		}()
	}
	return fn()
}

func Execute() {
	rootCmd := newRootCmd()

	// fang renders help and errors for a terminal; plain cobra keeps piped
	// output and --no-color runs free of styling.
	plain := !term.IsTerminal(os.Stdout.Fd())
	for _, arg := range os.Args[1:] {
		if arg == "--no-color" {
			plain = true
			break
		}
	}

	if plain {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := rootCmd.ExecuteContext(ctx); err != nil {
			stop()
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
