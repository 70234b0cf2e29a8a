// Package project detects the Java language level a source file is
// compiled at, from the Maven or Gradle build that owns it.
package project

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
)

// Build files, in the order they are consulted within one directory.
var buildFiles = []string{"pom.xml", "build.gradle.kts", "build.gradle"}

var gradlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`JavaLanguageVersion\.of\(\s*"?(\d+)"?\s*\)`),
	regexp.MustCompile(`jvmToolchain\(\s*(\d+)\s*\)`),
	regexp.MustCompile(`release\.set\(\s*(\d+)\s*\)`),
	regexp.MustCompile(`sourceCompatibility\s*=\s*['"]?((?:JavaVersion\.)?VERSION_[\d_]+|[\d.]+)['"]?`),
}

// ParseJavaVersion parses a Java version as written in build files:
// "17", "1.8", "21.0.2", "VERSION_11" or "JavaVersion.VERSION_1_8". Legacy
// 1.x versions map to x.
func ParseJavaVersion(s string) (*semver.Version, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "JavaVersion.")
	if rest, ok := strings.CutPrefix(v, "VERSION_"); ok {
		v = strings.ReplaceAll(rest, "_", ".")
	}
	if rest, ok := strings.CutPrefix(v, "1."); ok {
		v = rest
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return nil, fmt.Errorf("invalid java version %q: %w", s, err)
	}
	return ver, nil
}

// Detector finds the language level for source files under Root. Results
// are cached per directory. It is safe for concurrent use.
type Detector struct {
	Root string
	// Fallback is used when no build file declares a version. It may be
	// nil.
	Fallback *semver.Version

	mu    sync.Mutex
	cache map[string]*semver.Version
}

// NewDetector returns a Detector for the tree rooted at root.
func NewDetector(root string, fallback *semver.Version) *Detector {
	return &Detector{Root: root, Fallback: fallback, cache: make(map[string]*semver.Version)}
}

// VersionFor returns the language level of the source file at path, or
// the fallback.
func (d *Detector) VersionFor(path string) *semver.Version {
	if v := d.lookup(filepath.Dir(path)); v != nil {
		return v
	}
	return d.Fallback
}

func (d *Detector) lookup(dir string) *semver.Version {
	dir = filepath.Clean(dir)

	d.mu.Lock()
	v, ok := d.cache[dir]
	d.mu.Unlock()
	if ok {
		return v
	}

	v = detectDir(dir)
	if v == nil && d.within(dir) {
		if parent := filepath.Dir(dir); parent != dir {
			v = d.lookup(parent)
		}
	}

	d.mu.Lock()
	d.cache[dir] = v
	d.mu.Unlock()
	return v
}

// within reports whether dir lies strictly below Root.
func (d *Detector) within(dir string) bool {
	if d.Root == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(d.Root), dir)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func detectDir(dir string) *semver.Version {
	for _, name := range buildFiles {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		var raw string
		if name == "pom.xml" {
			raw = fromPOM(data)
		} else {
			raw = fromGradle(string(data))
		}
		if raw == "" {
			continue
		}
		if v, err := ParseJavaVersion(raw); err == nil {
			return v
		}
	}
	return nil
}

// pom is the part of a Maven POM that sets the language level.
type pom struct {
	Properties properties `xml:"properties"`
	Build      struct {
		Plugins          []plugin `xml:"plugins>plugin"`
		PluginManagement struct {
			Plugins []plugin `xml:"plugins>plugin"`
		} `xml:"pluginManagement"`
	} `xml:"build"`
}

type plugin struct {
	ArtifactID    string `xml:"artifactId"`
	Configuration struct {
		Release string `xml:"release"`
		Source  string `xml:"source"`
	} `xml:"configuration"`
}

// properties collects the free-form children of <properties>.
type properties map[string]string

func (p *properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(properties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &tok); err != nil {
				return err
			}
			(*p)[tok.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			return nil
		}
	}
}

func fromPOM(data []byte) string {
	var doc pom
	if err := xml.Unmarshal(data, &doc); err != nil {
		return ""
	}
	var release, source string
	for _, pl := range slices.Concat(doc.Build.Plugins, doc.Build.PluginManagement.Plugins) {
		if pl.ArtifactID != "maven-compiler-plugin" {
			continue
		}
		if release == "" {
			release = strings.TrimSpace(pl.Configuration.Release)
		}
		if source == "" {
			source = strings.TrimSpace(pl.Configuration.Source)
		}
	}
	for _, v := range []string{
		doc.Properties["maven.compiler.release"],
		release,
		doc.Properties["maven.compiler.source"],
		doc.Properties["java.version"],
		source,
	} {
		if v = doc.Properties.resolve(v); v != "" {
			return v
		}
	}
	return ""
}

// resolve expands ${name} references to other properties. It returns ""
// for references that cannot be resolved.
func (p properties) resolve(v string) string {
	for range len(p) + 1 {
		name, ok := strings.CutPrefix(v, "${")
		if !ok {
			return v
		}
		name, ok = strings.CutSuffix(name, "}")
		if !ok {
			return ""
		}
		v = p[name]
	}
	return ""
}

func fromGradle(s string) string {
	s = stripComments(s)
	for _, re := range gradlePatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1]
		}
	}
	return ""
}

// stripComments blanks out // and /* */ comments in Groovy or Kotlin
// build scripts, leaving string literals alone.
func stripComments(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		switch c := s[i]; {
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(s) && s[j] != c && s[j] != '\n' {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			j = min(j+1, len(s))
			b.WriteString(s[i:j])
			i = j
		case strings.HasPrefix(s[i:], "//"):
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				return b.String()
			}
			i += end
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return b.String()
			}
			i += 2 + end + 2
			b.WriteByte(' ')
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}
