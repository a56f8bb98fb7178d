package extract

import (
	"bytes"
	"regexp"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

var (
	reRubyClass    = regexp.MustCompile(`^class\s+((?:::)?[A-Z][\w:]*)`)
	reRubyModule   = regexp.MustCompile(`^module\s+((?:::)?[A-Z][\w:]*)`)
	reRubySClass   = regexp.MustCompile(`^class\s*<<\s*self\b`)
	reRubyDef      = regexp.MustCompile(`^def\s+(?:(self|[A-Z]\w*)\.)?(\[\]=?|[A-Za-z_]\w*[?!=]?|[-+*/%<>=!~^&|]+@?)`)
	reRubyEnd      = regexp.MustCompile(`^end\b`)
	reRubyOneLiner = regexp.MustCompile(`;\s*end\s*(?:#.*)?$`)
	reRubyHeredoc  = regexp.MustCompile(`<<[~-]?(['"]?)([A-Z_][A-Z0-9_]*)['"]?`)
	reRubyMagic    = regexp.MustCompile(`^#\s*(?:-\*-.*-\*-|(?:frozen_string_literal|encoding|coding|warn_indent|shareable_constant_value)\s*:)`)
	reRubyNoDoc    = regexp.MustCompile(`#\s*:nodoc:`)
)

type rubyScope struct {
	name      string
	indent    int
	singleton bool // class << self
}

type rubyScanner struct {
	file    *source.File
	scopes  []rubyScope
	pending []Line
	start   int // offset of the first pending comment line
	end     int
	hidden  bool // between #-- and #++
	out     []*Entity
}

// scanRuby extracts entities from a Ruby unit. Nesting is tracked by
// matching each "end" with the class or module opened at the same
// indentation.
func scanRuby(file *source.File, r diag.Reporter) []*Entity {
	s := &rubyScanner{file: file}
	content := file.Content

	heredoc := ""
	beginAt := -1
	lineNo := 0
	for pos := 0; pos < len(content); lineNo++ {
		lineEnd := len(content)
		if nl := bytes.IndexByte(content[pos:], '\n'); nl >= 0 {
			lineEnd = pos + nl
		}
		line := string(content[pos:lineEnd])
		offset := pos
		pos = lineEnd + 1

		switch {
		case beginAt >= 0:
			if strings.HasPrefix(line, "=end") {
				beginAt = -1
			}
			continue
		case heredoc != "":
			if strings.TrimSpace(line) == heredoc {
				heredoc = ""
			}
			continue
		case strings.HasPrefix(line, "=begin"):
			beginAt = offset
			s.reset()
			continue
		}

		trimmed := strings.TrimLeft(line, " \t")
		indent := len(line) - len(trimmed)
		trimmed = strings.TrimRight(trimmed, " \t")

		if trimmed == "" {
			s.reset()
			continue
		}
		if trimmed[0] == '#' {
			if (lineNo == 0 && strings.HasPrefix(trimmed, "#!")) || reRubyMagic.MatchString(trimmed) {
				continue
			}
			s.comment(trimmed, offset+indent)
			continue
		}
		s.code(trimmed, offset+indent, indent)
		if m := reRubyHeredoc.FindStringSubmatch(trimmed); m != nil && !strings.HasPrefix(trimmed, "class") {
			heredoc = m[2]
		}
	}
	if beginAt >= 0 {
		reportMalformed(r, file, beginAt, len("=begin"), "=begin block")
	}
	return s.out
}

func (s *rubyScanner) reset() {
	s.pending = nil
	s.hidden = false
}

func (s *rubyScanner) comment(text string, offset int) {
	body := strings.TrimPrefix(text, "#")
	switch strings.TrimSpace(body) {
	case "--":
		s.hidden = true
		return
	case "++":
		s.hidden = false
		return
	}
	if s.hidden {
		return
	}
	at := offset + 1
	if strings.HasPrefix(body, " ") {
		body = body[1:]
		at++
	}
	if len(s.pending) == 0 {
		s.start = offset
	}
	s.end = offset + len(text)
	s.pending = append(s.pending, Line{Text: body, Offset: u32(at)})
}

func (s *rubyScanner) code(text string, offset, indent int) {
	defer s.reset()

	if reRubyEnd.MatchString(text) {
		if n := len(s.scopes); n > 0 && s.scopes[n-1].indent == indent {
			s.scopes = s.scopes[:n-1]
		}
		return
	}

	oneLiner := reRubyOneLiner.MatchString(text)
	decl := span(s.file, offset, offset+len(text))

	if reRubySClass.MatchString(text) {
		if !oneLiner {
			s.scopes = append(s.scopes, rubyScope{name: s.owner(), indent: indent, singleton: true})
		}
		return
	}

	kind := Kind(0)
	var m []string
	if m = reRubyClass.FindStringSubmatch(text); m != nil {
		kind = KindClass
	} else if m = reRubyModule.FindStringSubmatch(text); m != nil {
		kind = KindModule
	}
	if kind != 0 {
		owner := s.owner()
		name := strings.TrimPrefix(m[1], "::")
		if owner != "" && !strings.HasPrefix(m[1], "::") {
			name = owner + "::" + name
		}
		if i := strings.LastIndex(name, "::"); i >= 0 {
			owner = name[:i]
		} else {
			owner = ""
		}
		s.emit(&Entity{Kind: kind, Name: name, Owner: owner, Decl: decl}, text)
		if !oneLiner {
			s.scopes = append(s.scopes, rubyScope{name: name, indent: indent})
		}
		return
	}

	if m = reRubyDef.FindStringSubmatch(text); m != nil {
		owner := s.owner()
		singleton := m[1] != ""
		if m[1] != "" && m[1] != "self" {
			owner = m[1]
		}
		if n := len(s.scopes); n > 0 && s.scopes[n-1].singleton {
			singleton = true
		}
		s.emit(&Entity{Kind: KindMethod, Name: m[2], Owner: owner, Singleton: singleton, Decl: decl}, text)
	}
}

func (s *rubyScanner) owner() string {
	if n := len(s.scopes); n > 0 {
		return s.scopes[n-1].name
	}
	return ""
}

func (s *rubyScanner) emit(e *Entity, declText string) {
	e.Lang = s.file.Lang
	if lines := trimBlankEdges(s.pending); len(lines) > 0 {
		e.Comment = &CommentBlock{Span: span(s.file, s.start, s.end), Lines: lines}
	}
	applyNoDoc(e)
	if reRubyNoDoc.MatchString(declText) {
		e.NoDoc = true
		e.Comment = emptyBlock(e.Decl)
	}
	s.out = append(s.out, e)
}
