package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-cfgkit/cfgkit/internal/config"
	"github.com/go-cfgkit/cfgkit/internal/loader"
	"github.com/go-cfgkit/cfgkit/internal/reporter"
	"github.com/go-cfgkit/cfgkit/internal/service"
)

// AnalyzeCommand runs CFG analyses over one or more YAML program
// descriptions, concurrently when given a directory.
type AnalyzeCommand struct {
	configPath string
	format     string
	outputDir  string
	maxWorkers int
	noProgress bool
}

// NewAnalyzeCmd creates the analyze cobra command.
func NewAnalyzeCmd() *cobra.Command {
	c := &AnalyzeCommand{}

	cmd := &cobra.Command{
		Use:   "analyze <path>...",
		Short: "Run CFG analyses on one or more program descriptions",
		Long: `Run the configured analyses (back edges, dominance,
post-dominance, hammock decomposition, safe-region tabulation) against a
YAML program description, or every matching file under a directory.

Examples:
  cfgctl analyze program.cfg.yaml
  cfgctl analyze ./testdata --format yaml
  cfgctl analyze ./testdata --output-dir ./reports`,
		Args: cobra.MinimumNArgs(1),
		RunE: c.run,
	}

	cmd.Flags().StringVarP(&c.configPath, "config", "c", "", "Path to .cfgctl.toml (default: search upward from the target)")
	cmd.Flags().StringVar(&c.format, "format", "", "Output format: json, yaml, text (overrides config)")
	cmd.Flags().StringVar(&c.outputDir, "output-dir", "", "Write one report per input file to this directory instead of stdout")
	cmd.Flags().IntVar(&c.maxWorkers, "max-workers", 0, "Maximum concurrent analyses (0 = use config/GOMAXPROCS)")
	cmd.Flags().BoolVar(&c.noProgress, "no-progress", false, "Disable the progress bar")

	return cmd
}

func (c *AnalyzeCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithTarget(c.configPath, args[0])
	if err != nil {
		return err
	}
	if c.format != "" {
		cfg.Output.Format = c.format
	}
	if c.outputDir != "" {
		cfg.Output.Directory = c.outputDir
	}
	if c.maxWorkers > 0 {
		cfg.Concurrency.MaxWorkers = c.maxWorkers
	}
	if c.noProgress {
		cfg.Concurrency.ShowProgress = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	files, err := discoverFiles(args, cfg.Discovery)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no program descriptions found under: %v", args)
	}

	var bar *progressbar.ProgressBar
	if cfg.Concurrency.ShowProgress && len(files) > 1 && isInteractiveStderr(cmd) {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("analyzing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		)
	}

	workers := cfg.Concurrency.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := pool.New().WithErrors().WithMaxGoroutines(workers)

	results := make([]*reporter.Report, len(files))
	errs := make([]error, len(files))

	for i, f := range files {
		i, f := i, f
		p.Go(func() error {
			report, err := analyzeOne(cmd.Context(), cfg, f)
			if bar != nil {
				_ = bar.Add(1)
			}
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", f, err)
				return nil
			}
			results[i] = report
			return nil
		})
	}
	_ = p.Wait()

	var failures int
	for i, err := range errs {
		if err != nil {
			failures++
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			continue
		}
		if err := writeReport(cmd, cfg, files[i], results[i]); err != nil {
			return err
		}
	}

	if failures > 0 && failures == len(files) {
		return fmt.Errorf("all %d analyses failed", failures)
	}
	return nil
}

func analyzeOne(ctx context.Context, cfg *config.Config, path string) (*reporter.Report, error) {
	cfgraphCFG, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	svc := service.New(cfg)
	return svc.Analyze(ctx, cfgraphCFG, path)
}

func writeReport(cmd *cobra.Command, cfg *config.Config, source string, report *reporter.Report) error {
	if cfg.Output.Directory == "" {
		return reporter.New(cfg, cmd.OutOrStdout()).Write(report)
	}

	if err := os.MkdirAll(cfg.Output.Directory, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ext := cfg.Output.Format
	if ext == "" {
		ext = "json"
	}
	name := fmt.Sprintf("%s.%s", filepath.Base(source), ext)
	out, err := os.Create(filepath.Join(cfg.Output.Directory, name))
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer out.Close()

	return reporter.New(cfg, out).Write(report)
}

// discoverFiles expands args into a flat file list: a file argument is
// used as-is, a directory argument is walked and filtered by
// discovery.IncludePatterns/ExcludePatterns (doublestar glob syntax).
func discoverFiles(args []string, discovery config.DiscoveryConfig) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(arg, path)
			if err != nil {
				rel = path
			}
			if matchesAny(discovery.ExcludePatterns, rel, path) {
				return nil
			}
			if matchesAny(discovery.IncludePatterns, rel, path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func matchesAny(patterns []string, names ...string) bool {
	for _, pattern := range patterns {
		for _, name := range names {
			if matched, _ := doublestar.Match(pattern, name); matched {
				return true
			}
			if matched, _ := doublestar.Match(pattern, filepath.Base(name)); matched {
				return true
			}
		}
	}
	return false
}

// isInteractiveStderr reports whether the command's stderr is an
// interactive terminal, so a progress bar never pollutes a redirected or
// piped stream.
func isInteractiveStderr(cmd *cobra.Command) bool {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
