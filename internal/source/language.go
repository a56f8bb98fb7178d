package source

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Language tags a source unit with the documentation layer it belongs to.
type Language uint8

const (
	LangUnknown Language = iota
	// LangC is the systems layer: fenced /* */ comments, call-seq required.
	LangC
	// LangRuby is the scripting layer: '#' line comments, call-seq optional.
	LangRuby
)

func (l Language) String() string {
	switch l {
	case LangC:
		return "c"
	case LangRuby:
		return "ruby"
	default:
		return "unknown"
	}
}

// ParseLanguage converts a config/CLI spelling into a Language.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c":
		return LangC, nil
	case "ruby", "rb":
		return LangRuby, nil
	default:
		return LangUnknown, fmt.Errorf("unknown language %q (expected c|ruby)", s)
	}
}

// LanguageMap is the extension-based file classifier. Keys are extensions
// including the leading dot.
type LanguageMap map[string]Language

// DefaultLanguageMap returns the built-in extension table.
func DefaultLanguageMap() LanguageMap {
	return LanguageMap{
		".c":  LangC,
		".h":  LangC,
		".rb": LangRuby,
	}
}

// Classify returns the language for path, or LangUnknown.
func (m LanguageMap) Classify(path string) Language {
	if m == nil {
		return LangUnknown
	}
	return m[strings.ToLower(filepath.Ext(path))]
}
