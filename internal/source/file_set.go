package source

import (
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet keeps every fixture file read during a run so that positions can
// be rendered as path:line:col with the source line attached.
type FileSet struct {
	files   []File
	index   map[string]FileID // path -> latest id
	baseDir string            // базовая директория для относительных путей
}

// NewFileSet creates an empty FileSet. Paths are displayed relative to
// baseDir; an empty baseDir means the working directory.
func NewFileSet(baseDir string) *FileSet {
	return &FileSet{
		files:   make([]File, 0, 4),
		index:   make(map[string]FileID),
		baseDir: baseDir,
	}
}

// BaseDir returns the directory paths are displayed relative to.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores already normalized content and returns a new FileID. Adding a
// path twice keeps both versions; lookups by path see the latest one.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalized := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: buildLineIndex(content),
		Flags:   flags,
	})
	fileSet.index[normalized] = id
	return id
}

// Load reads a file from disk, strips a BOM, normalizes CRLF and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)

	flags := FileFlags(0)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds in-memory content (stdin, tests) with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	content, _ = normalizeCRLF(content)
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the file for id, nil if the id is unknown.
func (fileSet *FileSet) Get(id FileID) *File {
	if int(id) >= len(fileSet.files) {
		return nil
	}
	return &fileSet.files[id]
}

// Lookup returns the latest version of path.
func (fileSet *FileSet) Lookup(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// Describe renders p as path:line:col, or just the path when the line is
// unknown.
func (fileSet *FileSet) Describe(p Pos) string {
	f := fileSet.Get(p.File)
	if f == nil {
		return "<unknown>"
	}
	path := f.DisplayPath(fileSet.BaseDir())
	if !p.IsValid() {
		return path
	}
	return fmt.Sprintf("%s:%d:%d", path, p.Line, p.Col)
}

// Line returns the text of the 1-based line n without its newline, or ""
// when the file has no such line.
func (f *File) Line(n uint32) string {
	if n == 0 {
		return ""
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	var start uint32
	if n > 1 {
		if int(n-2) >= len(f.LineIdx) {
			return ""
		}
		start = f.LineIdx[n-2] + 1
	}
	end := lenContent
	if int(n-1) < len(f.LineIdx) {
		end = f.LineIdx[n-1]
	}
	if start >= lenContent {
		return ""
	}
	return string(f.Content[start:end])
}

// LastLine is the number of the last line holding content. The empty line
// after a trailing newline does not count; an empty file has none.
func (f *File) LastLine() uint32 {
	if len(f.Content) == 0 {
		return 0
	}
	n := len(f.LineIdx) + 1
	if f.Content[len(f.Content)-1] == '\n' {
		n--
	}
	line, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("line count overflow: %w", err))
	}
	return line
}

// DisplayPath returns the path relative to baseDir when the file lies below
// it, the cleaned path otherwise. Virtual files keep their name.
func (f *File) DisplayPath(baseDir string) string {
	if f.Flags&FileVirtual != 0 || baseDir == "" {
		return f.Path
	}
	return relativePath(f.Path, baseDir)
}
