package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// Current schema version - increment when DiskPayload format changes
const diskCacheSchemaVersion uint16 = 1

// Digest is a SHA-256 cache key.
type Digest [32]byte

// DiskCache stores the violations of a unit on disk, keyed by the unit
// content and the configuration that produced them. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// DiskPayload is the cached result of checking one unit. Spans are stored as
// offsets; the file is implied by the key.
type DiskPayload struct {
	Schema     uint16
	Entities   int
	Violations []cachedDiagnostic
}

type cachedSpan struct {
	Start, End uint32
}

type cachedNote struct {
	Span cachedSpan
	Msg  string
}

type cachedEdit struct {
	Span    cachedSpan
	NewText string
	OldText string
}

type cachedFix struct {
	ID            string
	Title         string
	Applicability uint8
	Preferred     bool
	Edits         []cachedEdit
}

type cachedDiagnostic struct {
	Severity uint8
	Code     uint16
	Message  string
	Primary  cachedSpan
	Notes    []cachedNote
	Fixes    []cachedFix
}

// OpenDiskCache opens the cache under $XDG_CACHE_HOME/<app> (or ~/.cache/<app>).
func OpenDiskCache(app string) (*DiskCache, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		base = filepath.Join(home, ".cache")
	}
	return NewDiskCache(filepath.Join(base, app))
}

// NewDiskCache opens a cache rooted at dir, creating it if needed.
func NewDiskCache(dir string) (*DiskCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

func (c *DiskCache) pathFor(key Digest) string {
	hexKey := hex.EncodeToString(key[:])
	return filepath.Join(c.dir, "units", hexKey[:2], hexKey+".mp")
}

// Put serializes and writes a payload to the disk cache.
func (c *DiskCache) Put(key Digest, payload *DiskPayload) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err = os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name()) //nolint:errcheck
		}
	}()

	if err = msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close() //nolint:errcheck
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	// атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. It reports false when the key is absent or the entry
// was written by another schema version.
func (c *DiskCache) Get(key Digest, out *DiskPayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

// unitKey combines the unit content, its language and the configuration.
func unitKey(f *source.File, configDigest string) Digest {
	h := sha256.New()
	fmt.Fprintf(h, "doccheck/%d\x00%s\x00%s\x00", diskCacheSchemaVersion, configDigest, f.Lang)
	h.Write(f.Hash[:])
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

func toCachedSpan(s source.Span) cachedSpan { return cachedSpan{Start: s.Start, End: s.End} }

func (s cachedSpan) in(file source.FileID) source.Span {
	return source.Span{File: file, Start: s.Start, End: s.End}
}

func toDiskPayload(entities int, items []diag.Diagnostic) *DiskPayload {
	payload := &DiskPayload{
		Schema:     diskCacheSchemaVersion,
		Entities:   entities,
		Violations: make([]cachedDiagnostic, len(items)),
	}
	for i, d := range items {
		cd := cachedDiagnostic{
			Severity: uint8(d.Severity),
			Code:     uint16(d.Code),
			Message:  d.Message,
			Primary:  toCachedSpan(d.Primary),
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Span: toCachedSpan(n.Span), Msg: n.Msg})
		}
		for _, f := range d.Fixes {
			cf := cachedFix{ID: f.ID, Title: f.Title, Applicability: uint8(f.Applicability), Preferred: f.IsPreferred}
			for _, e := range f.Edits {
				cf.Edits = append(cf.Edits, cachedEdit{Span: toCachedSpan(e.Span), NewText: e.NewText, OldText: e.OldText})
			}
			cd.Fixes = append(cd.Fixes, cf)
		}
		payload.Violations[i] = cd
	}
	return payload
}

// fromDiskPayload restores the violations of a cached unit into bag.
func fromDiskPayload(payload *DiskPayload, file source.FileID, bag *diag.Bag) {
	for _, cd := range payload.Violations {
		d := diag.Diagnostic{
			Severity: diag.Severity(cd.Severity),
			Code:     diag.Code(cd.Code),
			Message:  cd.Message,
			Primary:  cd.Primary.in(file),
		}
		for _, n := range cd.Notes {
			d.Notes = append(d.Notes, diag.Note{Span: n.Span.in(file), Msg: n.Msg})
		}
		for _, cf := range cd.Fixes {
			f := diag.Fix{ID: cf.ID, Title: cf.Title, Applicability: diag.FixApplicability(cf.Applicability), IsPreferred: cf.Preferred}
			for _, e := range cf.Edits {
				f.Edits = append(f.Edits, diag.TextEdit{Span: e.Span.in(file), NewText: e.NewText, OldText: e.OldText})
			}
			d.Fixes = append(d.Fixes, f)
		}
		bag.Add(d)
	}
}
