package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flintmc/flint/pkg/adapters/memory"
	"github.com/flintmc/flint/pkg/adapters/remote"
	"github.com/flintmc/flint/pkg/config"
	"github.com/flintmc/flint/pkg/debugger"
	"github.com/flintmc/flint/pkg/format"
	"github.com/flintmc/flint/pkg/index"
	"github.com/flintmc/flint/pkg/loader"
	"github.com/flintmc/flint/pkg/runner"
	"github.com/flintmc/flint/pkg/spec"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flint",
	Short: "Declarative acceptance tests for voxel game servers",
	Long:  "flint — run declarative, tick-bound acceptance tests against a voxel-world game server.",
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "flint.yaml", "project configuration file")

	runCmd.Flags().StringSliceVar(&runTags, "tags", nil, "run tests carrying any of these tags (uses the index)")
	runCmd.Flags().StringVar(&runFilter, "filter", "", "boolean expression over {name, tags, description}")
	runCmd.Flags().BoolVar(&runRecursive, "recursive", false, "descend into subdirectories")
	runCmd.Flags().StringVar(&runFormat, "format", "", "report format: summary, json, tap, junit, ci")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "show passing tests in the summary")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "stop the batch after the first failing test")
	runCmd.Flags().StringVar(&runAdapter, "adapter", "", "world adapter: memory or remote")
	runCmd.Flags().StringVar(&runURL, "url", "", "server binding URL for the remote adapter")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies the --config flag; the default path may be absent.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := cmd.Flags().Changed("config") || rootCmd.PersistentFlags().Changed("config")
	return config.Load(configPath, explicit)
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [spec.json]",
	Short: "Validate a test spec JSON file against the schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	ts, errs := spec.ValidateFile(filePath)
	if len(errs) > 0 {
		var errors []*spec.ValidationError
		var warnings []*spec.ValidationError
		for _, e := range errs {
			if e.Severity == "warning" {
				warnings = append(warnings, e)
			} else {
				errors = append(errors, e)
			}
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "  ⚠ [%s] %s\n", w.Phase, w.Message)
			if w.Path != "" {
				fmt.Fprintf(os.Stderr, "    at: %s\n", w.Path)
			}
		}
		if len(errors) > 0 {
			fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errors))
			for i, e := range errors {
				fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
				if e.Path != "" {
					fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
				}
			}
			return fmt.Errorf("validation failed with %d error(s)", len(errors))
		}
	}
	fmt.Printf("✓ %s is valid (%d timeline entries, max tick %d)\n", ts.Name, len(ts.Timeline), ts.MaxTick())
	return nil
}

// --- run ---

var (
	runTags      []string
	runFilter    string
	runRecursive bool
	runFormat    string
	runVerbose   bool
	runFailFast  bool
	runAdapter   string
	runURL       string
)

var runCmd = &cobra.Command{
	Use:   "run [path]",
	Short: "Run test specs and report results",
	Long: `Run test specs and report results.

With a path argument, runs that file or directory. Without one, runs the
configured test root; --tags selects files through the tag index instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runFormat == "" {
		runFormat = cfg.Format
	}
	if runAdapter == "" {
		runAdapter = cfg.Adapter.Kind
	}
	if runURL == "" {
		runURL = cfg.Adapter.URL
	}

	// Select test files: explicit path, tag lookup, or the whole test root.
	var files []string
	switch {
	case len(args) == 1:
		files, err = loader.CollectTestFiles(args[0], runRecursive)
	case len(runTags) > 0:
		var ix *index.Index
		ix, err = index.Open(index.Config{
			TestRoot: cfg.TestRoot, Path: cfg.IndexPath, DefaultTag: cfg.DefaultTag,
		})
		if err != nil {
			return err
		}
		defer ix.Close()
		files, err = ix.Lookup(runTags)
	default:
		files, err = loader.CollectTestFiles(cfg.TestRoot, true)
	}
	if err != nil {
		return err
	}

	specs, err := loader.LoadSpecs(files)
	if err != nil {
		return err
	}
	specs, err = loader.FilterSpecs(specs, runFilter)
	if err != nil {
		return err
	}
	if len(specs) == 0 {
		fmt.Fprintln(os.Stderr, "No tests selected.")
	}

	adapter, closeAdapter, err := buildAdapter(runAdapter, runURL)
	if err != nil {
		return err
	}
	defer closeAdapter()

	run := runner.RunTests
	if runFailFast {
		run = runner.RunTestsFailFast
	}
	summary := run(adapter, specs)
	if err := format.Write(os.Stdout, runFormat, summary, runVerbose); err != nil {
		return err
	}
	if !summary.AllPassed() {
		return fmt.Errorf("%d test(s) failed", summary.Failed)
	}
	return nil
}

// buildAdapter constructs the selected world adapter and its cleanup.
func buildAdapter(kind, url string) (runner.Adapter, func(), error) {
	switch kind {
	case "memory", "":
		return memory.New(), func() {}, nil
	case "remote":
		if url == "" {
			return nil, nil, fmt.Errorf("remote adapter requires --url (or adapter.url in flint.yaml)")
		}
		a, err := remote.Dial(url)
		if err != nil {
			return nil, nil, err
		}
		return a, func() { _ = a.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown adapter %q (memory or remote)", kind)
}

// --- index ---

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild the tag index over the test root",
	Args:  cobra.NoArgs,
	RunE:  runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ix, err := index.Open(index.Config{
		TestRoot: cfg.TestRoot, Path: cfg.IndexPath, DefaultTag: cfg.DefaultTag,
	})
	if err != nil {
		return err
	}
	defer ix.Close()

	if err := ix.Rebuild(); err != nil {
		return err
	}
	tags, err := ix.Tags()
	if err != nil {
		return err
	}
	fmt.Printf("✓ indexed %s: %d tag(s)\n", cfg.TestRoot, len(tags))
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Export the test spec JSON Schema (Draft 2020-12)",
	Args:  cobra.NoArgs,
	RunE:  runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	data, err := spec.GenerateJSONSchema()
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// --- debug ---

var debugCmd = &cobra.Command{
	Use:   "debug [spec.json]",
	Short: "Step through a test timeline interactively",
	Args:  cobra.ExactArgs(1),
	RunE:  runDebug,
}

func runDebug(cmd *cobra.Command, args []string) error {
	ts, errs := spec.ValidateFile(args[0])
	if spec.HasErrors(errs) {
		for _, e := range errs {
			if e.Severity == "error" {
				fmt.Fprintf(os.Stderr, "  [%s] %s\n", e.Phase, e.Message)
			}
		}
		return fmt.Errorf("test spec validation failed")
	}
	return debugger.New(memory.New(), ts).Run()
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flint %s (%s)\n", version, commit)
	},
}
