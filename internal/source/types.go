package source

type (
	// FileID uniquely identifies a file within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a loaded file.
	FileFlags uint8
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File captures the normalized content of a single fixture file.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	// LineIdx holds the offsets of every '\n'.
	LineIdx []uint32
	Flags   FileFlags
}

// Pos is a 1-based position inside a file of a FileSet. A zero Line means
// the position is unknown.
type Pos struct {
	File FileID
	Line uint32
	Col  uint32
}

// IsValid reports whether p points at a line.
func (p Pos) IsValid() bool { return p.Line > 0 }
