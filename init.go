package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/jrewrite/internal/config"
	"github.com/phobologic/jrewrite/internal/recipe"
)

// initFileName is the config file init writes.
const initFileName = ".jrewrite.yaml"

func newInitCmd() *cobra.Command {
	var force, dryRun bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter " + initFileName,
		Long: `Write a starter ` + initFileName + ` to dir, which defaults to the current
directory. Every built-in rule is enabled and the remaining settings are
shown with their defaults. An existing config file is only replaced with
--force.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := generateConfig()
			if dryRun {
				_, err := fmt.Fprint(cmd.OutOrStdout(), content)
				return err
			}

			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path := filepath.Join(dir, initFileName)
			if !force {
				if existing := config.Discover(dir); existing != "" {
					return fmt.Errorf("%s already exists (use --force to overwrite)", existing)
				}
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("writing %s: directory does not exist", path)
				}
				return fmt.Errorf("writing %s: %w", path, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the config instead of writing it")
	return cmd
}

// generateConfig returns the starter config file.
func generateConfig() string {
	var b strings.Builder
	b.WriteString(`# jrewrite configuration. Run "jrewrite rules" to see what it enables.

# Java version for files that no pom.xml or build.gradle covers. Rules
# gated on a version never apply to files of unknown version.
# java_version: "21"

# Rules to enable. An empty list enables every built-in and custom rule.
rules:
`)
	for _, d := range recipe.Builtins() {
		fmt.Fprintf(&b, "  - %s # %s\n", d.Name, d.DisplayName)
	}
	b.WriteString(`
# YAML type stub files describing library classes the rules must resolve.
classpath: []

# gitignore-style patterns of files never to rewrite.
exclude:
  - "**/generated/**"

# Files processed in parallel. 0 uses every CPU.
workers: 0

`)
	fmt.Fprintf(&b, "max_file_size: %s\n", strconv.Itoa(config.DefaultMaxFileSize))
	b.WriteString(`
# custom_rules:
#   - name: UseListOf
#     display_name: Prefer List.of(..) over Arrays.asList(..)
#     effort: 2m
#     pattern: java.util.Arrays asList(..)
#     applicability:
#       java_version: 9
#     template_args:
#       prefix: "List.of("
#       slot: "#{}"
#       separator: ", "
#       suffix: ")"
#     imports: [java.util.List]
`)
	return b.String()
}
