package source

type (
	// FileID uniquely identifies a source unit within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a source unit.
	FileFlags uint8
)

const (
	// FileVirtual indicates the unit was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	// FileLoadFailed marks a placeholder for a unit that could not be read.
	FileLoadFailed
)

// File is a loaded source unit: path, normalized content and language tag.
// It is never mutated after it has been added to a FileSet.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
	Lang    Language
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
