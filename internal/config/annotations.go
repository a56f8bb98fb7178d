package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Annotations records which methods construct a new instance. It implements
// rules.Annotations; names are full entity names such as "Array#dup".
type Annotations struct {
	known map[string]bool
}

// annotationFile is the YAML layout:
//
//	constructs_new:
//	  - Array#dup
//	constructs_existing:
//	  - Array#itself
type annotationFile struct {
	ConstructsNew      []string `yaml:"constructs_new"`
	ConstructsExisting []string `yaml:"constructs_existing"`
}

// NewAnnotations builds annotations from two name lists. A name listed in
// both is an error.
func NewAnnotations(constructsNew, constructsExisting []string) (*Annotations, error) {
	a := &Annotations{known: make(map[string]bool, len(constructsNew)+len(constructsExisting))}
	if err := a.add(constructsNew, true); err != nil {
		return nil, err
	}
	if err := a.add(constructsExisting, false); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Annotations) add(names []string, value bool) error {
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if prev, ok := a.known[name]; ok && prev != value {
			return fmt.Errorf("%s is annotated both as constructing a new instance and as not", name)
		}
		a.known[name] = value
	}
	return nil
}

// LoadAnnotations reads a YAML annotation file.
func LoadAnnotations(path string) (*Annotations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read annotations: %w", err)
	}
	var file annotationFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: failed to parse annotations: %w", path, err)
	}
	a, err := NewAnnotations(file.ConstructsNew, file.ConstructsExisting)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Merge adds the entries of other; entries of a win on conflict.
func (a *Annotations) Merge(other *Annotations) {
	if other == nil {
		return
	}
	for name, v := range other.known {
		if _, ok := a.known[name]; !ok {
			a.known[name] = v
		}
	}
}

// Len returns the number of annotated methods.
func (a *Annotations) Len() int {
	if a == nil {
		return 0
	}
	return len(a.known)
}

func (a *Annotations) ConstructsNew(name string) (value, known bool) {
	if a == nil {
		return false, false
	}
	value, known = a.known[name]
	return value, known
}

// LoadAnnotations returns the annotations of the [annotations] section,
// merged with the file it names and with extraFile (usually a CLI flag).
// Inline entries take precedence over files.
func (c *Config) LoadAnnotations(extraFile string) (*Annotations, error) {
	a, err := NewAnnotations(c.Annotations.ConstructsNew, c.Annotations.ConstructsExisting)
	if err != nil {
		return nil, fmt.Errorf("[annotations]: %w", err)
	}
	for _, path := range []string{c.Resolve(c.Annotations.File), extraFile} {
		if path == "" {
			continue
		}
		fromFile, err := LoadAnnotations(path)
		if err != nil {
			return nil, err
		}
		a.Merge(fromFile)
	}
	return a, nil
}
