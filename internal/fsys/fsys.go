// Package fsys abstracts the directory-reading syscalls the walker depends
// on, so traversal logic can be exercised against an in-memory filesystem in
// tests. The OS implementation is a thin wrapper over the os package.
package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
)

// FS is the filesystem surface the walker and entry metadata need.
type FS interface {
	// ReadDir lists the immediate children of a directory. It is called at
	// most once per expanded directory.
	ReadDir(path string) ([]fs.DirEntry, error)

	// Lstat returns metadata for the node itself, without following symlinks.
	Lstat(path string) (fs.FileInfo, error)

	// Stat returns metadata following symlinks; used to decide whether a
	// symlink target is a directory when following is enabled.
	Stat(path string) (fs.FileInfo, error)

	// Canonical resolves a path to its symlink-free form. The walker uses it
	// to key the visited set that guards against symlink cycles.
	Canonical(path string) (string, error)
}

// OS implements FS over the real filesystem.
type OS struct{}

// NewOS returns the real-filesystem implementation.
func NewOS() OS { return OS{} }

func (OS) ReadDir(path string) ([]fs.DirEntry, error) { return os.ReadDir(path) }

func (OS) Lstat(path string) (fs.FileInfo, error) { return os.Lstat(path) }

func (OS) Stat(path string) (fs.FileInfo, error) { return os.Stat(path) }

func (OS) Canonical(path string) (string, error) { return filepath.EvalSymlinks(path) }
