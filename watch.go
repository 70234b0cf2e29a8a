package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/phobologic/jrewrite/internal/watch"
)

func newWatchCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Apply the rules again whenever Java files change",
		Long: `Run once over every file in path, then keep watching it and run again
over each batch of changed Java files until interrupted. With --write,
rewritten files trigger one more pass, which leaves them unchanged.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runWatch(ctx, cmd, opts, args)
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command, opts *options, args []string) error {
	s, err := newSession(cmd, opts, args)
	if err != nil {
		return err
	}

	// Watch before the first pass so no edit falls between the two.
	w, err := watch.New(s.root, s.logger)
	if err != nil {
		return fmt.Errorf("watching %s: %w", s.root, err)
	}
	defer w.Close()

	if err := s.pass(ctx, nil); err != nil {
		return err
	}
	return w.Run(ctx, s.pass)
}

// pass runs the rules over the changed files, or over every file when
// changed is nil, and reports the outcome. Changed files that are gone or
// excluded are ignored.
func (s *session) pass(ctx context.Context, changed []string) error {
	files, err := s.discover()
	if err != nil {
		return err
	}
	if changed != nil {
		want := make(map[string]bool, len(changed))
		for _, p := range changed {
			want[p] = true
		}
		kept := files[:0]
		for _, f := range files {
			if want[filepath.ToSlash(f)] {
				kept = append(kept, f)
			}
		}
		files = kept
	}
	if len(files) == 0 {
		return nil
	}
	sum, err := s.process(ctx, files)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	return s.report(sum)
}
