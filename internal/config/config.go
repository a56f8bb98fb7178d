// Package config loads .doccheck.toml and the annotation files it names.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"doccheck/internal/diag"
	"doccheck/internal/links"
	"doccheck/internal/rules"
	"doccheck/internal/source"
)

// FileName is the name looked up by Find.
const FileName = ".doccheck.toml"

var (
	// ErrNoConfig is returned by Discover when no configuration file exists.
	ErrNoConfig = errors.New("no " + FileName + " found")
	// ErrInvalidValue wraps every validation failure.
	ErrInvalidValue = errors.New("invalid configuration value")
)

// Config is the effective configuration of a run.
type Config struct {
	Path string `toml:"-"` // empty for the defaults
	Root string `toml:"-"` // directory of Path; relative paths resolve against it

	Check       CheckConfig       `toml:"check"`
	Languages   map[string]string `toml:"languages"`
	Annotations AnnotationsConfig `toml:"annotations"`
}

// CheckConfig is the [check] section.
type CheckConfig struct {
	AutolinkThreshold int      `toml:"autolink_threshold"`
	MaxRelated        int      `toml:"max_related"`
	SeverityThreshold string   `toml:"severity_threshold"`
	Jobs              int      `toml:"jobs"`
	Exclude           []string `toml:"exclude"` // doublestar patterns relative to Root
}

// AnnotationsConfig is the [annotations] section.
type AnnotationsConfig struct {
	ConstructsNew      []string `toml:"constructs_new"`
	ConstructsExisting []string `toml:"constructs_existing"`
	File               string   `toml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Check: CheckConfig{
			AutolinkThreshold: links.DefaultOptions().AutolinkThreshold,
			MaxRelated:        rules.DefaultOptions().MaxRelated,
			SeverityThreshold: diag.SevError.String(),
		},
	}
}

// Find walks up from startDir to locate .doccheck.toml.
func Find(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	if info, statErr := os.Stat(dir); statErr == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Discover finds and loads the configuration for startDir. It returns
// ErrNoConfig when there is none; callers then use Default.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoConfig
	}
	return Load(path)
}

// Load parses path. Keys that are absent keep their default; unknown keys
// are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if meta.IsDefined("check", "severity_threshold") && strings.TrimSpace(cfg.Check.SeverityThreshold) == "" {
		return nil, fmt.Errorf("%s: [check].severity_threshold: %w: empty", path, ErrInvalidValue)
	}
	if meta.IsDefined("annotations", "file") && strings.TrimSpace(cfg.Annotations.File) == "" {
		return nil, fmt.Errorf("%s: [annotations].file: %w: empty", path, ErrInvalidValue)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every value that has a restricted range.
func (c *Config) Validate() error {
	if c.Check.AutolinkThreshold < 1 {
		return fmt.Errorf("[check].autolink_threshold: %w: must be at least 1", ErrInvalidValue)
	}
	if c.Check.MaxRelated < 0 {
		return fmt.Errorf("[check].max_related: %w: must not be negative", ErrInvalidValue)
	}
	if c.Check.Jobs < 0 {
		return fmt.Errorf("[check].jobs: %w: must not be negative", ErrInvalidValue)
	}
	if _, err := c.Threshold(); err != nil {
		return fmt.Errorf("[check].severity_threshold: %w: %w", ErrInvalidValue, err)
	}
	for _, pattern := range c.Check.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("[check].exclude: %w: bad pattern %q", ErrInvalidValue, pattern)
		}
	}
	if _, err := c.LanguageMap(); err != nil {
		return fmt.Errorf("[languages]: %w: %w", ErrInvalidValue, err)
	}
	return nil
}

// Threshold is the lowest severity that fails a run.
func (c *Config) Threshold() (diag.Severity, error) {
	if c.Check.SeverityThreshold == "" {
		return diag.SevError, nil
	}
	return diag.ParseSeverity(c.Check.SeverityThreshold)
}

// RuleOptions returns the options of the section rules.
func (c *Config) RuleOptions() rules.Options {
	return rules.Options{MaxRelated: c.Check.MaxRelated}
}

// LinkOptions returns the options of the link analyzer.
func (c *Config) LinkOptions() links.Options {
	return links.Options{AutolinkThreshold: c.Check.AutolinkThreshold}
}

// LanguageMap returns the default extension table overridden by [languages].
func (c *Config) LanguageMap() (source.LanguageMap, error) {
	m := source.DefaultLanguageMap()
	for ext, name := range c.Languages {
		lang, err := source.ParseLanguage(name)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", ext, err)
		}
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m[ext] = lang
	}
	return m, nil
}

// Resolve makes a path from the configuration absolute.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || c.Root == "" {
		return path
	}
	return filepath.Join(c.Root, path)
}

// Digest identifies every setting that changes check results. It is part
// of the cache key of a unit. ann is the merged annotation set the run uses,
// so annotation files named on the command line count as well.
func (c *Config) Digest(ann *Annotations) string {
	h := sha256.New()
	fmt.Fprintf(h, "autolink=%d\nrelated=%d\n", c.Check.AutolinkThreshold, c.Check.MaxRelated)

	exts := make([]string, 0, len(c.Languages))
	for ext := range c.Languages {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	for _, ext := range exts {
		fmt.Fprintf(h, "lang %s=%s\n", ext, c.Languages[ext])
	}

	if ann != nil {
		names := make([]string, 0, len(ann.known))
		for name := range ann.known {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if ann.known[name] {
				fmt.Fprintf(h, "new %s\n", name)
			} else {
				fmt.Fprintf(h, "existing %s\n", name)
			}
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
