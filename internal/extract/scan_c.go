package extract

import (
	"bytes"
	"regexp"
	"sort"
	"strings"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

var (
	reDefineMethod = regexp.MustCompile(`rb_define_(method|singleton_method|module_function|private_method|protected_method)\s*\(\s*(\w+)\s*,\s*"([^"]+)"\s*,\s*(?:RUBY_METHOD_FUNC\s*\(\s*)?(\w+)`)
	reDefineGlobal = regexp.MustCompile(`rb_define_global_function\s*\(\s*"([^"]+)"\s*,\s*(?:RUBY_METHOD_FUNC\s*\(\s*)?(\w+)`)
	reDefineClass  = regexp.MustCompile(`(\w+)\s*=\s*rb_define_(class|module)(?:_under)?\s*\(\s*(?:(\w+)\s*,\s*)?"([^"]+)"`)
	reFuncDef      = regexp.MustCompile(`(?m)^[ \t]*(?:static[ \t]+)?(?:inline[ \t]+)?VALUE[ \t]*\n?[ \t]*(\w+)[ \t]*\(`)
	reDirective    = regexp.MustCompile(`^Document-(method|class|module):\s*(\S+)`)
	reInitFunc     = regexp.MustCompile(`(?m)^[ \t]*void[ \t]*\n?[ \t]*Init_(\w+)[ \t]*\(`)
)

type cComment struct {
	start, end int // end is exclusive and includes the closing "*/"
}

type cBinding struct {
	name      string
	ownerVar  string
	singleton bool
}

type cClass struct {
	name     string
	kind     Kind
	outerVar string
}

type cDirective struct {
	kind   Kind
	target string
	block  *CommentBlock
	used   bool
}

// scanC extracts entities from a C unit. See the package comment for the
// conventions it follows.
func scanC(file *source.File, r diag.Reporter) []*Entity {
	content := file.Content
	comments, masked, unterminated := scanCComments(content)
	if unterminated >= 0 {
		reportMalformed(r, file, unterminated, 2, "block comment")
	}
	code := string(masked)

	// Bindings from names to C functions.
	bindings := make(map[string][]cBinding)
	for _, m := range reDefineMethod.FindAllStringSubmatch(code, -1) {
		kind, ownerVar, name, fn := m[1], m[2], m[3], m[4]
		bindings[fn] = append(bindings[fn], cBinding{
			name:      name,
			ownerVar:  ownerVar,
			singleton: kind == "singleton_method" || kind == "module_function",
		})
	}
	for _, m := range reDefineGlobal.FindAllStringSubmatch(code, -1) {
		bindings[m[2]] = append(bindings[m[2]], cBinding{name: m[1], ownerVar: "rb_mKernel", singleton: true})
	}

	classes := make(map[string]cClass)
	classMatches := reDefineClass.FindAllStringSubmatchIndex(code, -1)
	for _, m := range classMatches {
		kind := KindClass
		if code[m[4]:m[5]] == "module" {
			kind = KindModule
		}
		outer := ""
		if m[6] >= 0 {
			outer = code[m[6]:m[7]]
		}
		classes[code[m[2]:m[3]]] = cClass{name: code[m[8]:m[9]], kind: kind, outerVar: outer}
	}

	// Comments carrying a Document-* directive are anchored by name, not by position.
	var directives []*cDirective
	anchored := make(map[int]bool)
	blocks := make(map[int]*CommentBlock, len(comments))
	for i, c := range comments {
		block := &CommentBlock{Span: span(file, c.start, c.end), Lines: cCommentLines(content, c.start, c.end)}
		if len(block.Lines) > 0 {
			if m := reDirective.FindStringSubmatch(strings.TrimSpace(block.Lines[0].Text)); m != nil {
				kind := KindMethod
				switch m[1] {
				case "class":
					kind = KindClass
				case "module":
					kind = KindModule
				}
				block.Lines = trimBlankEdges(block.Lines[1:])
				directives = append(directives, &cDirective{kind: kind, target: m[2], block: block})
				anchored[i] = true
				continue
			}
		}
		blocks[i] = block
	}

	adjacent := func(pos int) *CommentBlock {
		idx := sort.Search(len(comments), func(i int) bool { return comments[i].end > pos }) - 1
		if idx < 0 || anchored[idx] {
			return nil
		}
		if len(bytes.TrimSpace(content[comments[idx].end:pos])) != 0 {
			return nil
		}
		return blocks[idx]
	}

	// A class comment may also precede the Init_<Name> function.
	initComments := make(map[string]*CommentBlock)
	for _, m := range reInitFunc.FindAllStringSubmatchIndex(code, -1) {
		if block := adjacent(m[0]); block != nil {
			initComments[strings.ToLower(code[m[2]:m[3]])] = block
		}
	}

	var out []*Entity

	for _, m := range classMatches {
		if unterminated >= 0 && m[0] >= unterminated {
			continue
		}
		varName := code[m[2]:m[3]]
		cls := classes[varName]
		e := &Entity{
			Kind:  cls.kind,
			Name:  qualifiedName(classes, varName),
			Owner: ownerName(classes, cls.outerVar),
			Lang:  file.Lang,
			Decl:  span(file, m[0], m[1]),
		}
		e.Comment = adjacent(m[0])
		if e.Comment == nil {
			e.Comment = initComments[strings.ToLower(cls.name)]
		}
		out = append(out, e)
	}

	for _, m := range reFuncDef.FindAllStringSubmatchIndex(code, -1) {
		fn := code[m[2]:m[3]]
		binds := bindings[fn]
		if len(binds) == 0 || !isDefinition(code, m[1]) {
			continue
		}
		if unterminated >= 0 && m[0] >= unterminated {
			continue
		}
		e := &Entity{
			Kind:      KindMethod,
			Name:      binds[0].name,
			Owner:     ownerName(classes, binds[0].ownerVar),
			Singleton: binds[0].singleton,
			Lang:      file.Lang,
			Decl:      span(file, m[2], m[3]),
		}
		for _, b := range binds[1:] {
			e.Aliases = append(e.Aliases, b.name)
		}
		e.Comment = adjacent(m[0])
		out = append(out, e)
	}

	for _, d := range directives {
		if target := findDirectiveTarget(out, d); target != nil {
			target.Comment = d.block
			d.used = true
		}
	}
	for _, d := range directives {
		if d.used {
			continue
		}
		// Documented by directive only (attributes, methods bound elsewhere).
		e := &Entity{Kind: d.kind, Lang: file.Lang, Decl: d.block.Span, Comment: d.block}
		if d.kind == KindMethod {
			e.Owner, e.Name, e.Singleton = splitMethodRef(d.target)
		} else {
			e.Name = d.target
			if i := strings.LastIndex(d.target, "::"); i >= 0 {
				e.Owner = d.target[:i]
			}
		}
		out = append(out, e)
	}

	for _, e := range out {
		applyNoDoc(e)
	}
	return out
}

// scanCComments finds block comments, skipping string and character
// literals and line comments. masked is a copy of content with comment
// bytes blanked (newlines kept). unterminated is the offset of an
// unterminated "/*" or -1.
func scanCComments(content []byte) (comments []cComment, masked []byte, unterminated int) {
	masked = append([]byte(nil), content...)
	blank := func(from, to int) {
		for i := from; i < to; i++ {
			if masked[i] != '\n' {
				masked[i] = ' '
			}
		}
	}
	unterminated = -1
	n := len(content)
	i := 0
	for i < n {
		c := content[i]
		switch {
		case c == '/' && i+1 < n && content[i+1] == '*':
			closeAt := bytes.Index(content[i+2:], []byte("*/"))
			if closeAt < 0 {
				unterminated = i
				blank(i, n)
				return comments, masked, unterminated
			}
			end := i + 2 + closeAt + 2
			comments = append(comments, cComment{start: i, end: end})
			blank(i, end)
			i = end
		case c == '/' && i+1 < n && content[i+1] == '/':
			end := i
			for end < n && content[end] != '\n' {
				end++
			}
			blank(i, end)
			i = end
		case c == '"' || c == '\'':
			i = skipCLiteral(content, i)
		default:
			i++
		}
	}
	return comments, masked, unterminated
}

// skipCLiteral returns the offset after the literal starting at i. Literals
// end at the matching quote or at the end of the line.
func skipCLiteral(content []byte, i int) int {
	quote := content[i]
	i++
	for i < len(content) {
		switch content[i] {
		case '\\':
			i += 2
			continue
		case '\n':
			return i
		case quote:
			return i + 1
		}
		i++
	}
	return i
}

// cCommentLines strips "/*", "*/" and leading " * " markers.
func cCommentLines(content []byte, start, end int) []Line {
	innerStart, innerEnd := start+2, end-2
	var lines []Line
	pos := innerStart
	first := true
	for pos <= innerEnd {
		lineEnd := innerEnd
		if nl := bytes.IndexByte(content[pos:innerEnd], '\n'); nl >= 0 {
			lineEnd = pos + nl
		}
		s, e := pos, lineEnd
		if first {
			for s < e && content[s] == '*' {
				s++
			}
		} else {
			for s < e && (content[s] == ' ' || content[s] == '\t') {
				s++
			}
			if s < e && content[s] == '*' {
				s++
			}
		}
		if s < e && content[s] == ' ' {
			s++
		}
		for e > s && (content[e-1] == ' ' || content[e-1] == '\t') {
			e--
		}
		lines = append(lines, Line{Text: string(content[s:e]), Offset: u32(s)})
		first = false
		if lineEnd == innerEnd {
			break
		}
		pos = lineEnd + 1
	}
	return trimBlankEdges(lines)
}

// isDefinition reports whether the parameter list opened just before pos is
// followed by a function body rather than ';'.
func isDefinition(code string, pos int) bool {
	depth := 1
	i := pos
	for i < len(code) && depth > 0 {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ';', '{':
			return false
		}
		i++
	}
	rest := strings.TrimLeft(code[i:], " \t\r\n")
	return strings.HasPrefix(rest, "{")
}

func qualifiedName(classes map[string]cClass, varName string) string {
	cls, ok := classes[varName]
	if !ok {
		return nameFromVar(varName)
	}
	if outer := ownerName(classes, cls.outerVar); outer != "" {
		return outer + "::" + cls.name
	}
	return cls.name
}

func ownerName(classes map[string]cClass, varName string) string {
	if varName == "" || varName == "rb_cObject" {
		return ""
	}
	return qualifiedName(classes, varName)
}

// nameFromVar guesses the name of a class defined in another unit from the
// conventional variable spelling: rb_cArray -> Array, rb_mKernel -> Kernel.
func nameFromVar(varName string) string {
	for _, prefix := range []string{"rb_c", "rb_m", "rb_e"} {
		if rest, ok := strings.CutPrefix(varName, prefix); ok && rest != "" {
			return rest
		}
	}
	return varName
}

func findDirectiveTarget(entities []*Entity, d *cDirective) *Entity {
	owner, name, singleton := splitMethodRef(d.target)
	for _, e := range entities {
		if e.Kind != d.kind {
			continue
		}
		if d.kind != KindMethod {
			if e.Name == d.target {
				return e
			}
			continue
		}
		if owner != "" && (owner != e.Owner || singleton != e.Singleton) {
			continue
		}
		if e.Name == name {
			return e
		}
		for _, alias := range e.Aliases {
			if alias == name {
				return e
			}
		}
	}
	return nil
}

// splitMethodRef splits "Array#count", "File.join", "File::join" or "count".
func splitMethodRef(ref string) (owner, name string, singleton bool) {
	if i := strings.LastIndex(ref, "#"); i >= 0 {
		return ref[:i], ref[i+1:], false
	}
	if i := strings.LastIndex(ref, "::"); i >= 0 && i+2 < len(ref) && isLowerStart(ref[i+2:]) {
		return ref[:i], ref[i+2:], true
	}
	if i := strings.LastIndex(ref, "."); i > 0 {
		return ref[:i], ref[i+1:], true
	}
	return "", ref, false
}

func isLowerStart(s string) bool {
	return s != "" && (s[0] == '_' || (s[0] >= 'a' && s[0] <= 'z'))
}

// applyNoDoc turns a ":nodoc:" comment into an empty block.
func applyNoDoc(e *Entity) {
	if e.Comment == nil {
		e.Comment = emptyBlock(e.Decl)
		return
	}
	for _, l := range e.Comment.Lines {
		if l.Blank() {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(l.Text), ":nodoc:") {
			e.NoDoc = true
			e.Comment = emptyBlock(e.Decl)
		}
		return
	}
}
