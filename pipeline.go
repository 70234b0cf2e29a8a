package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/phobologic/jrewrite/internal/cache"
	"github.com/phobologic/jrewrite/internal/classpath"
	"github.com/phobologic/jrewrite/internal/discover"
	"github.com/phobologic/jrewrite/internal/model"
	"github.com/phobologic/jrewrite/internal/parse"
	"github.com/phobologic/jrewrite/internal/predicate"
	"github.com/phobologic/jrewrite/internal/project"
	"github.com/phobologic/jrewrite/internal/recipe"
)

// pipeline runs the recipes over a set of files.
type pipeline struct {
	root        string
	classpath   *classpath.Classpath
	runner      *recipe.Runner
	detector    *project.Detector
	cache       *cache.Cache // nil disables caching
	maxFileSize int
	// floor is the lowest Java major version any recipe can apply to, 0
	// when some recipe has no version bound.
	floor   int
	workers int
	write   bool
	logger  logrus.FieldLogger
}

func (s *session) discover() ([]string, error) {
	entries, err := discover.Files(s.root, s.cfg.Exclude)
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	files := make([]string, len(entries))
	for i, e := range entries {
		files[i] = e.Path
	}
	return files, nil
}

// process runs every file, at most p.workers at a time, and returns the
// results in the order of files. Only cancellation stops it early; other
// failures are recorded per file.
func (p *pipeline) process(ctx context.Context, files []string) ([]model.FileResult, error) {
	workers := min(max(p.workers, 1), max(len(files), 1))

	// Parsers are not safe for concurrent use, so each running task borrows
	// one.
	parsers := make(chan *parse.Parser, workers)
	for range workers {
		ps, err := parse.New(p.classpath)
		if err != nil {
			return nil, fmt.Errorf("creating parser: %w", err)
		}
		parsers <- ps
	}

	results := make([]model.FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ps := <-parsers
			defer func() { parsers <- ps }()
			results[i] = p.file(gctx, ps, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// file produces the result for one file. It never fails: problems are
// reported through the result's status.
func (p *pipeline) file(ctx context.Context, ps *parse.Parser, rel string) model.FileResult {
	log := p.logger.WithField("file", rel)
	res := model.FileResult{Path: rel}
	path := filepath.Join(p.root, rel)

	info, err := os.Stat(path)
	if err != nil {
		return p.failed(log, res, err)
	}
	if info.Size() > int64(p.maxFileSize) {
		log.WithField("size", info.Size()).Warn("skipping large file")
		res.Status, res.Reason = model.Skipped, fmt.Sprintf("larger than %d bytes", p.maxFileSize)
		return res
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return p.failed(log, res, err)
	}
	if discover.IsGenerated(rel, src) {
		log.Debug("skipping generated file")
		res.Status, res.Reason = model.Skipped, "generated"
		return res
	}

	v := p.detector.VersionFor(path)
	if v != nil {
		res.Version = v.Original()
	}
	key := cacheKey(src, v)
	if p.cache != nil && p.cache.Fresh(rel, key) {
		res.Status = model.Cached
		return res
	}

	if p.floor > 0 && (v == nil || int(v.Major()) < p.floor) {
		log.Debug("no rule applies at this Java version")
		res.Status = model.Unchanged
		if p.cache != nil {
			p.cache.Record(rel, key)
		}
		return res
	}

	u, err := ps.ParseUnit(ctx, rel, src, v)
	if err != nil {
		if errors.Is(err, parse.ErrSyntax) {
			log.WithError(err).Warn("skipping unparseable file")
			res.Status, res.Reason = model.Skipped, err.Error()
			return res
		}
		return p.failed(log, res, err)
	}

	out, err := p.runner.Run(ctx, u)
	if err != nil {
		return p.failed(log, res, err)
	}
	res.Applied = out.Applied
	res.Before, res.After = out.Before, out.After
	if !out.Changed {
		res.Status = model.Unchanged
		if p.cache != nil {
			p.cache.Record(rel, key)
		}
		return res
	}

	res.Status = model.Changed
	if p.write {
		if err := os.WriteFile(path, out.After, info.Mode().Perm()); err != nil {
			return p.failed(log, res, err)
		}
		log.WithField("changes", res.Changes()).Info("rewrote file")
		if p.cache != nil {
			p.cache.Record(rel, cacheKey(out.After, v))
		}
	} else if p.cache != nil {
		p.cache.Forget(rel)
	}
	return res
}

// versionFloor returns the lowest Java major version any of recipes can
// apply to.
func versionFloor(recipes []*recipe.Recipe) int {
	floor := 0
	for i, r := range recipes {
		m := predicate.MinVersion(r.Applicability)
		if i == 0 || m < floor {
			floor = m
		}
	}
	return floor
}

func (p *pipeline) failed(log logrus.FieldLogger, res model.FileResult, err error) model.FileResult {
	log.WithError(err).Error("cannot process file")
	res.Status, res.Reason = model.Failed, err.Error()
	return res
}

// cacheKey ties cached content to the language level it was checked at,
// since build files are not part of the cache fingerprint.
func cacheKey(src []byte, v *semver.Version) []byte {
	key := make([]byte, 0, len(src)+16)
	key = append(key, src...)
	key = append(key, 0)
	if v != nil {
		key = append(key, v.String()...)
	}
	return key
}
