package driver

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"doccheck/internal/source"
)

// excluder drops walked entries whose slash-separated path relative to root
// matches one of the patterns.
type excluder struct {
	root     string
	patterns []string
}

func (x excluder) excluded(path string) bool {
	if len(x.patterns) == 0 {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(x.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range x.patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// collectUnits expands paths into the sorted list of source units. Files
// inside directories are kept when langs knows their extension; hidden and
// excluded entries are skipped. Paths named explicitly are always kept, and
// paths that cannot be stat'ed are kept so that loading reports them.
func collectUnits(ctx context.Context, paths []string, langs source.LanguageMap, skip excluder) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})
	addFile := func(path string) {
		path = filepath.Clean(path)
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		files = append(files, path)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(p)
		if err != nil {
			addFile(p)
			continue
		}
		if !info.IsDir() {
			addFile(p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrPermission) {
					addFile(path)
					return nil
				}
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if path == p {
				return nil
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") || skip.excluded(path) {
					return filepath.SkipDir
				}
				return nil
			}
			if langs.Classify(path) != source.LangUnknown && !skip.excluded(path) {
				addFile(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(files)
	return files, nil
}
