package diag

import (
	"fmt"
	"strings"
)

// Severity defines the importance of a violation.
type Severity uint8

const (
	// SevAdvisory is a suggestion; it never fails a run at the default threshold.
	SevAdvisory Severity = iota
	// SevError is a rule violation.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevAdvisory:
		return "advisory"
	case SevError:
		return "error"
	}
	return "unknown"
}

// ParseSeverity converts a flag/config value into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "advisory", "warning":
		return SevAdvisory, nil
	case "error":
		return SevError, nil
	}
	return SevError, fmt.Errorf("unknown severity %q (expected error|advisory)", s)
}
