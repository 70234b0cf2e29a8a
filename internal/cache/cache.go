// Package cache remembers which files a rule set left unchanged, so later
// runs can skip parsing them.
package cache

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"
	"gopkg.in/yaml.v3"
)

// Hash returns the content hash recorded for a file.
func Hash(content []byte) string {
	sum := xxh3.Hash128(content).Bytes()
	return hex.EncodeToString(sum[:])
}

// Fingerprint identifies a rule configuration. Entries recorded under one
// fingerprint are discarded under another.
func Fingerprint(parts ...string) string {
	h := xxh3.New()
	for _, p := range parts {
		_, _ = h.WriteString(p)
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type file struct {
	Fingerprint string            `yaml:"fingerprint"`
	Files       map[string]string `yaml:"files"`
}

// Cache maps file paths to the hash of content known to need no rewrite.
// It is safe for concurrent use.
type Cache struct {
	path        string
	fingerprint string

	mu    sync.Mutex
	files map[string]string
	dirty bool
}

// Open loads the cache at path. A missing file, or one written under a
// different fingerprint, yields an empty cache.
func Open(path, fingerprint string) (*Cache, error) {
	c := &Cache{path: path, fingerprint: fingerprint, files: make(map[string]string)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		// A corrupt cache only costs a full run.
		c.dirty = true
		return c, nil
	}
	if f.Fingerprint != fingerprint {
		c.dirty = true
		return c, nil
	}
	for k, v := range f.Files {
		c.files[k] = v
	}
	return c, nil
}

// Fresh reports whether content is known to need no rewrite at path.
func (c *Cache) Fresh(path string, content []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	h, ok := c.files[path]
	return ok && h == Hash(content)
}

// Record notes that content at path needs no rewrite.
func (c *Cache) Record(path string, content []byte) {
	h := Hash(content)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.files[path] != h {
		c.files[path] = h
		c.dirty = true
	}
}

// Forget drops path, for files that changed or were rewritten.
func (c *Cache) Forget(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.files[path]; ok {
		delete(c.files, path)
		c.dirty = true
	}
}

// Len returns the number of recorded files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

// Save writes the cache if it changed. The file is replaced atomically.
func (c *Cache) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return nil
	}

	data, err := yaml.Marshal(file{Fingerprint: c.fingerprint, Files: c.files})
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	c.dirty = false
	return nil
}

// Paths returns the recorded paths, sorted.
func (c *Cache) Paths() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.files))
	for p := range c.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
