// jrewrite rewrites Java call sites to newer API forms.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/phobologic/jrewrite/internal/cache"
	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/config"
	"github.com/phobologic/jrewrite/internal/format"
	"github.com/phobologic/jrewrite/internal/model"
	"github.com/phobologic/jrewrite/internal/parse"
	"github.com/phobologic/jrewrite/internal/predicate"
	"github.com/phobologic/jrewrite/internal/project"
	"github.com/phobologic/jrewrite/internal/recipe"
	"github.com/phobologic/jrewrite/internal/report"
	"github.com/phobologic/jrewrite/internal/template"
	"github.com/phobologic/jrewrite/internal/toon"
)

var version = "dev"

// errPending is returned by --check when files would change.
var errPending = errors.New("changes pending")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

// options holds the flags shared by the run, rules, and watch commands.
type options struct {
	write       bool
	diff        bool
	check       bool
	javaVersion string
	configPath  string
	rules       []string
	cachePath   string
	workers     int
	maxFileSize int
	format      string
	color       string
	verbose     bool
	quiet       bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "jrewrite [path]",
		Short: "Rewrite Java call sites to newer API forms",
		Long: `jrewrite finds calls matching each enabled rule's method signature and
replaces them with the rule's template, keeping the rest of every file
byte for byte. Rules only run on files whose Java language level allows
the replacement.

Without --write the run is a dry run.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, opts, args)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("jrewrite {{.Version}}\n")

	f := root.PersistentFlags()
	f.BoolVarP(&opts.write, "write", "w", false, "write changes back to the files")
	f.BoolVarP(&opts.diff, "diff", "d", false, "print a unified diff of every change")
	f.BoolVar(&opts.check, "check", false, "exit non-zero when any file would change")
	f.StringVar(&opts.javaVersion, "java-version", "", "Java version for files no build file covers")
	f.StringVarP(&opts.configPath, "config", "c", "", "config file (default: discovered in path)")
	f.StringSliceVarP(&opts.rules, "rules", "r", nil, "comma-separated rules to enable (default: all)")
	f.StringVar(&opts.cachePath, "cache", config.DefaultCacheFile, `cache file, relative to path ("" disables)`)
	f.IntVarP(&opts.workers, "workers", "j", 0, "files processed in parallel (default: GOMAXPROCS)")
	f.IntVar(&opts.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes")
	f.StringVar(&opts.format, "format", "text", "summary format: text or toon")
	f.StringVar(&opts.color, "color", "auto", "color output: auto, always, or never")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug details")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "log errors only and print no text summary")
	root.MarkFlagsMutuallyExclusive("write", "check")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	runCmd := &cobra.Command{
		Use:   "run [path]",
		Short: "Apply the enabled rules (the default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, opts, args)
		},
	}
	root.AddCommand(runCmd, newRulesCmd(opts), newInitCmd(), newWatchCmd(opts))
	return root
}

func runRewrite(cmd *cobra.Command, opts *options, args []string) error {
	s, err := newSession(cmd, opts, args)
	if err != nil {
		return err
	}
	files, err := s.discover()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no Java files found in %s", s.root)
	}
	sum, err := s.process(cmd.Context(), files)
	if err != nil {
		return err
	}
	if err := s.report(sum); err != nil {
		return err
	}
	return s.finish(sum)
}

// session is everything a run needs, resolved once from flags and config.
type session struct {
	opts    *options
	root    string
	cfg     *config.Config
	logger  *logrus.Logger
	recipes []*recipe.Recipe
	pipe    *pipeline
	color   bool
	stdout  io.Writer
	stderr  io.Writer
}

func newSession(cmd *cobra.Command, opts *options, args []string) (*session, error) {
	switch opts.format {
	case "text", "toon":
	default:
		return nil, fmt.Errorf("unknown format %q (want text or toon)", opts.format)
	}
	color, err := useColor(opts.color, cmd.OutOrStdout())
	if err != nil {
		return nil, err
	}

	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.verbose, opts.quiet)

	cfg, err := config.Load(root, opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, opts, cfg)

	var fallback *semver.Version
	if cfg.JavaVersion != "" {
		fallback, err = project.ParseJavaVersion(cfg.JavaVersion)
		if err != nil {
			return nil, fmt.Errorf("java version: %w", err)
		}
	}

	cp, err := classpath.Load(cfg.ClasspathFiles()...)
	if err != nil {
		return nil, err
	}
	recipes, err := buildRecipes(cfg, template.NewBuilder(parse.NewFragments(cp)))
	if err != nil {
		return nil, err
	}

	var c *cache.Cache
	if opts.cachePath != "" {
		path := opts.cachePath
		if !filepath.IsAbs(path) {
			path = filepath.Join(root, path)
		}
		fp, err := fingerprint(cfg, recipes)
		if err != nil {
			return nil, err
		}
		if c, err = cache.Open(path, fp); err != nil {
			return nil, err
		}
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger.WithFields(logrus.Fields{"root": root, "rules": len(recipes), "workers": workers}).Debug("starting")

	return &session{
		opts:    opts,
		root:    root,
		cfg:     cfg,
		logger:  logger,
		recipes: recipes,
		pipe: &pipeline{
			root:        root,
			classpath:   cp,
			runner:      &recipe.Runner{Recipes: recipes, Formatter: format.Printer{}, Logger: logger},
			detector:    project.NewDetector(root, fallback),
			cache:       c,
			maxFileSize: cfg.MaxFileSize,
			floor:       versionFloor(recipes),
			workers:     workers,
			write:       opts.write,
			logger:      logger,
		},
		color:  color,
		stdout: cmd.OutOrStdout(),
		stderr: cmd.ErrOrStderr(),
	}, nil
}

func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory", root)
	}
	return root, nil
}

// applyFlags lets explicitly set flags override the config file.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("java-version") {
		cfg.JavaVersion = opts.javaVersion
	}
	if flags.Changed("rules") {
		cfg.Rules = opts.rules
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = config.DefaultMaxFileSize
	}
}

// buildRecipes compiles the enabled rules. A malformed template stops the
// run before any file is read.
func buildRecipes(cfg *config.Config, b *template.Builder) ([]*recipe.Recipe, error) {
	descs, err := cfg.Descriptors()
	if err != nil {
		return nil, err
	}
	recipes := make([]*recipe.Recipe, 0, len(descs))
	for _, d := range descs {
		r, err := recipe.New(d, b)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, nil
}

// fingerprint identifies everything besides file content that decides a
// file's outcome.
func fingerprint(cfg *config.Config, recipes []*recipe.Recipe) (string, error) {
	parts := []string{version, "java=" + cfg.JavaVersion}
	for _, path := range cfg.ClasspathFiles() {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading classpath %s: %w", path, err)
		}
		parts = append(parts, cache.Hash(data))
	}
	for _, r := range recipes {
		parts = append(parts, r.Name, r.Pattern.String(), predicate.String(r.Applicability))
		for arity := 0; arity <= 3; arity++ {
			parts = append(parts, r.Descriptor.Template.Text(arity))
		}
		parts = append(parts, r.Imports...)
	}
	return cache.Fingerprint(parts...), nil
}

func (s *session) ruleInfos() []model.RuleInfo {
	infos := make([]model.RuleInfo, len(s.recipes))
	for i, r := range s.recipes {
		infos[i] = model.RuleInfo{
			Name:        r.Name,
			DisplayName: r.DisplayName,
			Description: r.Description,
			Effort:      r.Effort.String(),
			Pattern:     r.Pattern.String(),
			Gate:        predicate.String(r.Applicability),
		}
	}
	return infos
}

func (s *session) process(ctx context.Context, files []string) (*model.Summary, error) {
	results, err := s.pipe.process(ctx, files)
	if err != nil {
		return nil, err
	}
	if s.pipe.cache != nil {
		if err := s.pipe.cache.Save(); err != nil {
			s.logger.WithError(err).Warn("cannot save cache")
		}
	}
	return &model.Summary{Root: filepath.Base(s.root), Rules: s.ruleInfos(), Files: results}, nil
}

// report prints diffs and the summary. With --diff the summary goes to
// stderr so stdout stays a patch.
func (s *session) report(sum *model.Summary) error {
	summaryOut := s.stdout
	if s.opts.diff {
		summaryOut = s.stderr
		for i := range sum.Files {
			f := &sum.Files[i]
			if f.Status != model.Changed {
				continue
			}
			d, err := report.Diff(f.Path, f.Before, f.After)
			if err != nil {
				return fmt.Errorf("diffing %s: %w", f.Path, err)
			}
			if s.color {
				d = report.Colorize(d)
			}
			if _, err := io.WriteString(s.stdout, d); err != nil {
				return err
			}
		}
	}

	if s.opts.format == "toon" {
		_, err := fmt.Fprintln(summaryOut, toon.Encode(sum))
		return err
	}
	if s.opts.quiet {
		return nil
	}
	return report.Summary(summaryOut, sum, s.color)
}

// finish turns pending changes into an error under --check.
func (s *session) finish(sum *model.Summary) error {
	if n := sum.Count(model.Changed); s.opts.check && n > 0 {
		return fmt.Errorf("%w: %d file(s) would change", errPending, n)
	}
	return nil
}

func newLogger(w io.Writer, verbose, quiet bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case verbose:
		logger.SetLevel(logrus.DebugLevel)
	case quiet:
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func useColor(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == "", nil
	}
	return false, fmt.Errorf("unknown color mode %q (want auto, always, or never)", mode)
}
