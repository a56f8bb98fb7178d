package links

import (
	"strings"

	"doccheck/internal/extract"
)

// index resolves references written in comments to entities of the unit.
type index struct {
	byFull map[string]*extract.Entity
	byName map[string][]*extract.Entity // methods only
	leaf   map[string]*extract.Entity   // last component of class and module names
}

func newIndex(entities []*extract.Entity) *index {
	ix := &index{
		byFull: make(map[string]*extract.Entity),
		byName: make(map[string][]*extract.Entity),
		leaf:   make(map[string]*extract.Entity),
	}
	for _, e := range entities {
		ix.byFull[e.FullName()] = e
		if e.Kind == extract.KindMethod {
			ix.byName[e.Name] = append(ix.byName[e.Name], e)
			continue
		}
		if i := strings.LastIndex(e.Name, "::"); i >= 0 {
			ix.leaf[e.Name[i+2:]] = e
		} else {
			ix.leaf[e.Name] = e
		}
	}
	return ix
}

// scope is the class or module a comment is written in.
func scope(from *extract.Entity) string {
	if from == nil {
		return ""
	}
	if from.Kind == extract.KindMethod {
		return from.Owner
	}
	return from.Name
}

// resolve accepts "Array", "Array#size", "Array.new", "Array::new", "#size",
// "::new", ".new" and a bare method name.
func (ix *index) resolve(ref string, from *extract.Entity) *extract.Entity {
	ref = strings.TrimRight(ref, ".,;:")
	if e, ok := ix.byFull[ref]; ok {
		return e
	}
	switch {
	case strings.HasPrefix(ref, "#"):
		return ix.method(ref[1:], false, scope(from))
	case strings.HasPrefix(ref, "::"):
		return ix.method(ref[2:], true, scope(from))
	case strings.HasPrefix(ref, "."):
		return ix.method(ref[1:], true, scope(from))
	}
	if i := strings.LastIndex(ref, "::"); i > 0 && isLower(ref[i+2:]) {
		if e, ok := ix.byFull[ref[:i]+"."+ref[i+2:]]; ok {
			return e
		}
		return nil
	}
	if strings.ContainsAny(ref, "#.") {
		return nil
	}
	if isLower(ref) {
		return ix.method(ref, false, scope(from))
	}
	if e, ok := ix.leaf[ref]; ok {
		return e
	}
	return nil
}

// method finds a method by name, preferring the given owner.
func (ix *index) method(name string, singleton bool, owner string) *extract.Entity {
	var fallback *extract.Entity
	for _, e := range ix.byName[name] {
		if e.Singleton != singleton {
			continue
		}
		if e.Owner == owner {
			return e
		}
		if fallback == nil {
			fallback = e
		}
	}
	return fallback
}

func isLower(s string) bool {
	return s != "" && (s[0] == '_' || (s[0] >= 'a' && s[0] <= 'z'))
}
