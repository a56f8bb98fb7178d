package fuzztests

import (
	"errors"
	"testing"

	"doccheck/internal/callseq"
)

// FuzzCallSeqCanonical checks that the canonical form of a parsed entry
// parses again to the same canonical form.
func FuzzCallSeqCanonical(f *testing.F) {
	for _, s := range callseqSeeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, line string) {
		if len(line) > 4096 {
			line = line[:4096]
		}
		e, err := callseq.ParseLine(line)
		if err != nil {
			var syntaxErr *callseq.SyntaxError
			if errors.As(err, &syntaxErr) && (syntaxErr.Span.Start > syntaxErr.Span.End || int(syntaxErr.Span.End) > len(line)) {
				t.Fatalf("syntax error span %+v outside %q", syntaxErr.Span, line)
			}
			return
		}
		canonical := e.String()
		again, err := callseq.ParseLine(canonical)
		if err != nil {
			t.Fatalf("canonical form %q of %q does not parse: %v", canonical, line, err)
		}
		if got := again.String(); got != canonical {
			t.Fatalf("canonical form is not stable: %q -> %q -> %q", line, canonical, got)
		}
	})
}
