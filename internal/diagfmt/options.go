package diagfmt

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeAuto chooses relative or absolute path automatically.
	PathModeAuto PathMode = iota
	// PathModeAbsolute always uses absolute paths.
	PathModeAbsolute
	PathModeRelative
	PathModeBasename
)

// PrettyOpts configures the text report.
type PrettyOpts struct {
	Color       bool
	Context     int8 // extra source lines printed above the violation
	PathMode    PathMode
	GroupByFile bool // print a "== path ==" header before each unit
	ShowNotes   bool
	ShowFixes   bool
	ShowPreview bool
}

// JSONOpts configures the JSON report.
type JSONOpts struct {
	PathMode        PathMode
	Max             int // truncates the output, not the Bag
	IncludeNotes    bool
	IncludeFixes    bool
	IncludePreviews bool
}

// SarifRunMeta provides metadata for SARIF output.
type SarifRunMeta struct {
	ToolName       string
	ToolVersion    string
	InformationURI string
	InvocationArgs []string
	PathMode       PathMode
}

func (m PathMode) formatMode() string {
	switch m {
	case PathModeAbsolute:
		return "absolute"
	case PathModeRelative:
		return "relative"
	case PathModeBasename:
		return "basename"
	default:
		return "auto"
	}
}
