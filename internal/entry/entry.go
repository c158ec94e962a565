// Package entry models a single filesystem node observed during traversal.
//
// An Entry is created by the walker when a directory listing yields it and is
// immutable afterwards, except for its metadata cache, which is resolved
// lazily on first access and never recomputed.
package entry

import (
	"io/fs"
	"path/filepath"
	"sync"
	"time"
)

// Kind classifies a filesystem node.
type Kind int

const (
	// KindFile is a regular file.
	KindFile Kind = iota
	// KindDir is a directory.
	KindDir
	// KindSymlink is a symbolic link (never followed by default).
	KindSymlink
	// KindOther covers sockets, devices, pipes and anything else.
	KindOther
)

// String returns the kind name used by `type is` tests and `{type}` templates.
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// KindOf maps a file mode's type bits to a Kind.
func KindOf(mode fs.FileMode) Kind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

// StatFunc resolves metadata for a path. The walker injects its filesystem's
// lstat here so tests can count and fail resolutions.
type StatFunc func(path string) (fs.FileInfo, error)

// Metadata holds the lazily resolved attributes of an Entry.
type Metadata struct {
	// Size is the byte length; meaningful for regular files only.
	Size int64

	// ModTime is the last modification time.
	ModTime time.Time

	// Mode holds the permission and type bits.
	Mode fs.FileMode
}

// Entry is one filesystem node and its metadata snapshot.
// Path, Name, Depth and Kind are fixed at creation. Metadata is resolved at
// most once, on first call to Metadata(), and the outcome (value or error) is
// cached for the Entry's lifetime.
type Entry struct {
	// Path is the traversal-rooted path of the node.
	Path string

	// Name is the base name component of Path.
	Name string

	// Depth is the distance in path segments from the traversal root.
	// A root's direct children have depth 1.
	Depth int

	// Kind is the node's type as reported by the directory listing.
	Kind Kind

	stat StatFunc

	once    sync.Once
	meta    Metadata
	metaErr error
}

// New creates an Entry. stat may be nil for entries whose metadata is never
// needed; calling Metadata on such an Entry reports it as unavailable.
func New(path string, depth int, kind Kind, stat StatFunc) *Entry {
	return &Entry{
		Path:  path,
		Name:  filepath.Base(path),
		Depth: depth,
		Kind:  kind,
		stat:  stat,
	}
}

// Metadata resolves and returns the Entry's metadata. The underlying stat
// happens exactly once per Entry regardless of how many tests ask for it;
// a failed resolution is cached the same way and returned on every call.
// Safe for concurrent use.
func (e *Entry) Metadata() (Metadata, error) {
	e.once.Do(func() {
		if e.stat == nil {
			e.metaErr = fs.ErrInvalid
			return
		}
		info, err := e.stat(e.Path)
		if err != nil {
			e.metaErr = err
			return
		}
		e.meta = Metadata{
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Mode:    info.Mode(),
		}
	})
	return e.meta, e.metaErr
}
