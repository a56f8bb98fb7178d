package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"doccheck/internal/config"
	"doccheck/internal/diag"
	"doccheck/internal/driver"
	"doccheck/internal/observ"
)

// runSettings is the merged result of .doccheck.toml and the command line.
type runSettings struct {
	config    *config.Config
	threshold diag.Severity
	driver    driver.Options
	timings   bool
	quiet     bool
}

// addRunFlags registers the flags shared by commands that check units.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration file (default: nearest "+config.FileName+")")
	cmd.Flags().String("annotations", "", "YAML file listing methods that construct new instances")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("cache", false, "reuse results of unchanged units from the user cache directory")
	cmd.Flags().Duration("timeout", 0, "stop the run after this duration (0=none)")
}

// loadSettings resolves the configuration for paths. Flags win over the file.
func loadSettings(cmd *cobra.Command, paths []string) (*runSettings, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := resolveConfig(configPath, paths)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("jobs") {
		if cfg.Check.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
			return nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("severity-threshold"); f != nil && f.Changed {
		cfg.Check.SeverityThreshold = f.Value.String()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	threshold, err := cfg.Threshold()
	if err != nil {
		return nil, err
	}

	annotationsPath, err := cmd.Flags().GetString("annotations")
	if err != nil {
		return nil, fmt.Errorf("failed to get annotations flag: %w", err)
	}
	annotations, err := cfg.LoadAnnotations(annotationsPath)
	if err != nil {
		return nil, err
	}
	langs, err := cfg.LanguageMap()
	if err != nil {
		return nil, err
	}

	root := cmd.Root().PersistentFlags()
	maxDiagnostics, err := root.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	timings, err := root.GetBool("timings")
	if err != nil {
		return nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	quiet, err := root.GetBool("quiet")
	if err != nil {
		return nil, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = ""
	}
	opts := driver.Options{
		Jobs:           cfg.Check.Jobs,
		MaxDiagnostics: maxDiagnostics,
		BaseDir:        baseDir,
		Languages:      langs,
		Exclude:        cfg.Check.Exclude,
		ExcludeRoot:    cfg.Root,
		Rules:          cfg.RuleOptions(),
		Links:          cfg.LinkOptions(),
		ConfigDigest:   cfg.Digest(annotations),
		Counters:       &observ.Counters{},
	}
	if annotations.Len() > 0 {
		opts.Annotations = annotations
	}
	if timings {
		opts.Timer = observ.NewTimer()
	}

	useCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache flag: %w", err)
	}
	if useCache {
		cache, err := driver.OpenDiskCache("doccheck")
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		opts.Cache = cache
	}

	return &runSettings{
		config:    cfg,
		threshold: threshold,
		driver:    opts,
		timings:   timings,
		quiet:     quiet,
	}, nil
}

// resolveConfig loads an explicit file or discovers one starting at the
// first path. Without a file the defaults apply.
func resolveConfig(explicit string, paths []string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	start := "."
	if len(paths) > 0 {
		start = paths[0]
	}
	cfg, err := config.Discover(start)
	if errors.Is(err, config.ErrNoConfig) {
		return config.Default(), nil
	}
	return cfg, err
}

func pathsOrCwd(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
