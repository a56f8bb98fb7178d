package extract

import (
	"fmt"
	"iter"
	"sort"

	"fortio.org/safecast"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

// Entities returns the documented entities of file in declaration order.
// The sequence is lazy and restartable: every iteration rescans the unit
// and yields the same entities. Malformed comments are reported to r on
// each iteration, so consumers normally iterate once via Collect.
func Entities(file *source.File, r diag.Reporter) iter.Seq[*Entity] {
	return func(yield func(*Entity) bool) {
		if file == nil {
			return
		}
		if r == nil {
			r = diag.NopReporter{}
		}
		var entities []*Entity
		switch file.Lang {
		case source.LangC:
			entities = scanC(file, r)
		case source.LangRuby:
			entities = scanRuby(file, r)
		default:
			return
		}
		sort.SliceStable(entities, func(i, j int) bool {
			return entities[i].Decl.Start < entities[j].Decl.Start
		})
		for _, e := range entities {
			if !yield(e) {
				return
			}
		}
	}
}

// Collect materializes the entity sequence.
func Collect(file *source.File, r diag.Reporter) []*Entity {
	var out []*Entity
	for e := range Entities(file, r) {
		out = append(out, e)
	}
	return out
}

func u32(i int) uint32 {
	v, err := safecast.Conv[uint32](i)
	if err != nil {
		panic(fmt.Errorf("offset overflow: %w", err))
	}
	return v
}

func span(file *source.File, start, end int) source.Span {
	return source.Span{File: file.ID, Start: u32(start), End: u32(end)}
}

// trimBlankEdges drops leading and trailing blank lines.
func trimBlankEdges(lines []Line) []Line {
	for len(lines) > 0 && lines[0].Blank() {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1].Blank() {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func reportMalformed(r diag.Reporter, file *source.File, start, width int, what string) {
	diag.ReportError(r, diag.MalformedComment, span(file, start, start+width),
		fmt.Sprintf("unterminated %s; the rest of the file is not checked", what)).Emit()
}
