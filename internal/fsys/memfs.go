package fsys

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemFS is an in-memory FS for tests. Paths are slash-separated and rooted
// at the first component added (no leading slash required). Directories can
// be marked unreadable to simulate permission failures, and every Lstat is
// counted so tests can verify resolve-once and short-circuit behavior.
// Symlinks in intermediate path components resolve the way the OS resolves
// them.
type MemFS struct {
	mu    sync.Mutex
	nodes map[string]*memNode
	stats map[string]int
}

type memNode struct {
	name       string
	mode       fs.FileMode
	size       int64
	modTime    time.Time
	target     string // symlink target
	unreadable bool
	statErr    error
	children   []string
}

// NewMemFS returns an empty in-memory filesystem.
func NewMemFS() *MemFS {
	return &MemFS{
		nodes: make(map[string]*memNode),
		stats: make(map[string]int),
	}
}

// AddDir registers a directory.
func (m *MemFS) AddDir(p string) {
	m.add(p, &memNode{mode: fs.ModeDir | 0o755})
}

// AddFile registers a regular file with the given size.
func (m *MemFS) AddFile(p string, size int64) {
	m.add(p, &memNode{mode: 0o644, size: size, modTime: time.Unix(1700000000, 0)})
}

// AddSymlink registers a symlink pointing at target.
func (m *MemFS) AddSymlink(p, target string) {
	m.add(p, &memNode{mode: fs.ModeSymlink | 0o777, target: target})
}

// SetUnreadable marks a directory so ReadDir on it fails with fs.ErrPermission.
func (m *MemFS) SetUnreadable(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[clean(p)]; ok {
		n.unreadable = true
	}
}

// SetStatError makes Lstat on the path fail with err.
func (m *MemFS) SetStatError(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.nodes[clean(p)]; ok {
		n.statErr = err
	}
}

// StatCount reports how many times the path has been Lstat'ed.
func (m *MemFS) StatCount(p string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats[clean(p)]
}

func (m *MemFS) add(p string, n *memNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p = clean(p)
	n.name = path.Base(p)
	m.nodes[p] = n
	if parent := path.Dir(p); parent != p {
		if pn, ok := m.nodes[parent]; ok {
			pn.children = append(pn.children, p)
		}
	}
}

func clean(p string) string { return path.Clean(p) }

// resolve walks p component by component, chasing symlinks in intermediate
// components (and in the final component when followLast is set), with a
// hop budget so cyclic links terminate. Caller must hold mu.
func (m *MemFS) resolve(p string, followLast bool) (string, error) {
	parts := strings.Split(clean(p), "/")
	cur := ""
	for i, part := range parts {
		if cur == "" {
			cur = part
		} else {
			cur = cur + "/" + part
		}
		last := i == len(parts)-1
		for hops := 0; ; hops++ {
			if hops > 40 {
				return "", &fs.PathError{Op: "resolve", Path: p, Err: fs.ErrInvalid}
			}
			n, ok := m.nodes[cur]
			if !ok {
				return "", &fs.PathError{Op: "resolve", Path: p, Err: fs.ErrNotExist}
			}
			if n.mode&fs.ModeSymlink == 0 {
				break
			}
			if last && !followLast {
				break
			}
			cur = clean(n.target)
		}
	}
	return cur, nil
}

func (m *MemFS) ReadDir(p string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(p, true)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrNotExist}
	}
	n := m.nodes[resolved]
	if n.unreadable {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrPermission}
	}
	if !n.mode.IsDir() {
		return nil, &fs.PathError{Op: "readdir", Path: p, Err: fs.ErrInvalid}
	}
	children := append([]string(nil), n.children...)
	sort.Strings(children)
	entries := make([]fs.DirEntry, 0, len(children))
	for _, c := range children {
		entries = append(entries, memDirEntry{info: memInfo{node: m.nodes[c]}})
	}
	return entries, nil
}

func (m *MemFS) Lstat(p string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[clean(p)]++
	resolved, err := m.resolve(p, false)
	if err != nil {
		return nil, &fs.PathError{Op: "lstat", Path: p, Err: fs.ErrNotExist}
	}
	n := m.nodes[resolved]
	if n.statErr != nil {
		return nil, &fs.PathError{Op: "lstat", Path: p, Err: n.statErr}
	}
	return memInfo{node: n}, nil
}

func (m *MemFS) Stat(p string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	resolved, err := m.resolve(p, true)
	if err != nil {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	n := m.nodes[resolved]
	if n.statErr != nil {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: n.statErr}
	}
	return memInfo{node: n}, nil
}

func (m *MemFS) Canonical(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolve(p, true)
}

type memInfo struct {
	node *memNode
}

func (i memInfo) Name() string       { return i.node.name }
func (i memInfo) Size() int64        { return i.node.size }
func (i memInfo) Mode() fs.FileMode  { return i.node.mode }
func (i memInfo) ModTime() time.Time { return i.node.modTime }
func (i memInfo) IsDir() bool        { return i.node.mode.IsDir() }
func (i memInfo) Sys() any           { return nil }

type memDirEntry struct {
	info memInfo
}

func (d memDirEntry) Name() string               { return d.info.Name() }
func (d memDirEntry) IsDir() bool                { return d.info.IsDir() }
func (d memDirEntry) Type() fs.FileMode          { return d.info.Mode().Type() }
func (d memDirEntry) Info() (fs.FileInfo, error) { return d.info, nil }
