package diagfmt

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"doccheck/internal/diag"
	"doccheck/internal/source"
)

const sarifSchema = "https://json.schemastore.org/sarif-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool        sarifTool         `json:"tool"`
	Invocations []sarifInvocation `json:"invocations,omitempty"`
	ColumnKind  string            `json:"columnKind"`
	Results     []sarifResult     `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version,omitempty"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	ShortDescription     sarifMessage    `json:"shortDescription"`
	DefaultConfiguration sarifRuleConfig `json:"defaultConfiguration"`
}

type sarifRuleConfig struct {
	Level string `json:"level"`
}

type sarifInvocation struct {
	Arguments           []string `json:"arguments,omitempty"`
	ExecutionSuccessful bool     `json:"executionSuccessful"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID           string          `json:"ruleId"`
	RuleIndex        int             `json:"ruleIndex"`
	Level            string          `json:"level"`
	Message          sarifMessage    `json:"message"`
	Locations        []sarifLocation `json:"locations"`
	RelatedLocations []sarifLocation `json:"relatedLocations,omitempty"`
	Fixes            []sarifFix      `json:"fixes,omitempty"`
}

type sarifLocation struct {
	ID               int                   `json:"id,omitempty"`
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
	Message          *sarifMessage         `json:"message,omitempty"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine   uint32 `json:"startLine"`
	StartColumn uint32 `json:"startColumn"`
	EndLine     uint32 `json:"endLine"`
	EndColumn   uint32 `json:"endColumn"`
}

type sarifFix struct {
	Description     sarifMessage          `json:"description"`
	ArtifactChanges []sarifArtifactChange `json:"artifactChanges"`
}

type sarifArtifactChange struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Replacements     []sarifReplacement    `json:"replacements"`
}

type sarifReplacement struct {
	DeletedRegion   sarifRegion  `json:"deletedRegion"`
	InsertedContent sarifMessage `json:"insertedContent"`
}

func sarifLevel(s diag.Severity) string {
	if s == diag.SevError {
		return "error"
	}
	return "warning"
}

// Sarif writes the report as a SARIF 2.1.0 log with a single run.
func Sarif(w io.Writer, bag *diag.Bag, fs *source.FileSet, meta SarifRunMeta) error {
	codes := diag.AllCodes()
	ruleIndex := make(map[diag.Code]int, len(codes))
	rules := make([]sarifRule, 0, len(codes))
	for i, c := range codes {
		ruleIndex[c] = i
		rules = append(rules, sarifRule{
			ID:                   c.String(),
			Name:                 c.ID(),
			ShortDescription:     sarifMessage{Text: c.Title()},
			DefaultConfiguration: sarifRuleConfig{Level: sarifLevel(c.DefaultSeverity())},
		})
	}

	results := make([]sarifResult, 0, bag.Len())
	for _, d := range bag.Items() {
		loc, ok := sarifLocate(fs, d.Primary, meta.PathMode)
		if !ok {
			continue
		}
		idx, known := ruleIndex[d.Code]
		if !known {
			idx = -1
		}
		res := sarifResult{
			RuleID:    d.Code.String(),
			RuleIndex: idx,
			Level:     sarifLevel(d.Severity),
			Message:   sarifMessage{Text: d.Message},
			Locations: []sarifLocation{loc},
		}
		for i, n := range d.Notes {
			related, ok := sarifLocate(fs, n.Span, meta.PathMode)
			if !ok {
				continue
			}
			related.ID = i + 1
			related.Message = &sarifMessage{Text: n.Msg}
			res.RelatedLocations = append(res.RelatedLocations, related)
		}
		for _, f := range d.Fixes {
			if sf, ok := sarifFixFor(fs, f, meta.PathMode); ok {
				res.Fixes = append(res.Fixes, sf)
			}
		}
		results = append(results, res)
	}

	name := meta.ToolName
	if name == "" {
		name = "doccheck"
	}
	log := sarifLog{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           name,
				Version:        meta.ToolVersion,
				InformationURI: meta.InformationURI,
				Rules:          rules,
			}},
			Invocations: []sarifInvocation{{Arguments: meta.InvocationArgs, ExecutionSuccessful: true}},
			ColumnKind:  "unicodeCodePoints",
			Results:     results,
		}},
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(log)
}

func sarifLocate(fs *source.FileSet, span source.Span, mode PathMode) (sarifLocation, bool) {
	f := fs.Get(span.File)
	if f == nil {
		return sarifLocation{}, false
	}
	return sarifLocation{PhysicalLocation: sarifPhysicalLocation{
		ArtifactLocation: sarifArtifactLocation{URI: formatPath(f, fs, mode)},
		Region:           sarifRegionFor(fs, f, span),
	}}, true
}

// sarifRegionFor converts byte columns into code point columns.
func sarifRegionFor(fs *source.FileSet, f *source.File, span source.Span) sarifRegion {
	start, end := fs.Resolve(span)
	return sarifRegion{
		StartLine:   start.Line,
		StartColumn: runeColumn(f, start),
		EndLine:     end.Line,
		EndColumn:   runeColumn(f, end),
	}
}

func runeColumn(f *source.File, pos source.LineCol) uint32 {
	line := f.GetLine(pos.Line)
	n := min(int(pos.Col)-1, len(line))
	if n <= 0 {
		return pos.Col
	}
	return uint32(utf8.RuneCountInString(line[:n])) + pos.Col - uint32(n) // #nosec G115 -- n <= len(line)
}

func sarifFixFor(fs *source.FileSet, f diag.Fix, mode PathMode) (sarifFix, bool) {
	byFile := make(map[source.FileID]int)
	var changes []sarifArtifactChange
	for _, e := range f.Edits {
		file := fs.Get(e.Span.File)
		if file == nil {
			return sarifFix{}, false
		}
		i, ok := byFile[e.Span.File]
		if !ok {
			i = len(changes)
			byFile[e.Span.File] = i
			changes = append(changes, sarifArtifactChange{
				ArtifactLocation: sarifArtifactLocation{URI: formatPath(file, fs, mode)},
			})
		}
		changes[i].Replacements = append(changes[i].Replacements, sarifReplacement{
			DeletedRegion:   sarifRegionFor(fs, file, e.Span),
			InsertedContent: sarifMessage{Text: e.NewText},
		})
	}
	if len(changes) == 0 {
		return sarifFix{}, false
	}
	return sarifFix{Description: sarifMessage{Text: f.Title}, ArtifactChanges: changes}, true
}
