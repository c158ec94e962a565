// Package walker produces the lazy breadth-first sequence of filesystem
// entries that feeds the filter and output stages.
//
// Traversal is driven by an explicit FIFO frontier of pending directories
// rather than call-stack recursion: a directory discovered at depth d is
// expanded only after every directory queued ahead of it, so every entry at
// depth d is yielded before any entry at depth d+1 is even discovered.
package walker

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harrison/bfind/internal/entry"
	"github.com/harrison/bfind/internal/fsys"
)

// Options configures a Scheduler.
type Options struct {
	// ShowHidden includes entries whose names start with a dot.
	ShowHidden bool

	// FollowSymlinks expands symlinks that resolve to directories, guarded
	// by a visited set of canonical paths. Off by default: a symlink is
	// reported once with Kind=Symlink and never expanded, which terminates
	// on cyclic links without any bookkeeping.
	FollowSymlinks bool

	// MaxDepth limits traversal depth; entries deeper than MaxDepth are
	// never discovered. Zero means unlimited.
	MaxDepth int

	// Ignores lists exact base names to skip entirely (neither yielded nor
	// expanded).
	Ignores []string

	// QueueMemLimit caps the in-memory frontier before it spills to disk.
	// Zero selects the default.
	QueueMemLimit int

	// Warn receives every non-fatal traversal error. Nil discards them.
	Warn func(error)
}

// Scheduler walks the directory graph breadth-first and streams entries to
// an output channel. A Scheduler runs once; construct a fresh one to
// re-traverse.
type Scheduler struct {
	fs      fsys.FS
	opts    Options
	roots   []string
	ignores map[string]struct{}
	visited map[string]struct{}
	started bool
}

// New validates the roots and builds a Scheduler. Every root must exist and
// be a directory (after resolving a symlinked root); otherwise a RootError
// is returned and nothing is traversed.
func New(filesystem fsys.FS, roots []string, opts Options) (*Scheduler, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		info, err := filesystem.Stat(root)
		if err != nil {
			return nil, &RootError{Path: root, Err: err}
		}
		if !info.IsDir() {
			return nil, &RootError{Path: root, Err: fmt.Errorf("not a directory")}
		}
	}
	ignores := make(map[string]struct{}, len(opts.Ignores))
	for _, name := range opts.Ignores {
		ignores[name] = struct{}{}
	}
	s := &Scheduler{
		fs:      filesystem,
		opts:    opts,
		roots:   roots,
		ignores: ignores,
	}
	if opts.FollowSymlinks {
		s.visited = make(map[string]struct{})
	}
	return s, nil
}

// Run drains the frontier, sending every discovered entry to out in strict
// breadth-first order. It closes out on return. Unreadable directories are
// reported through the warn callback and skipped; the only error returns
// are context cancellation and frontier spill failures.
func (s *Scheduler) Run(ctx context.Context, out chan<- *entry.Entry) error {
	defer close(out)
	if s.started {
		return fmt.Errorf("scheduler is not restartable")
	}
	s.started = true

	queue := NewPathQueue(s.opts.QueueMemLimit)
	defer queue.Close()

	for _, root := range s.roots {
		s.markVisited(root)
		if err := queue.Push(pendingDir{path: root, depth: 0}); err != nil {
			return err
		}
	}

	for queue.Len() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		dir, err := queue.Pop()
		if err != nil {
			return err
		}
		children, err := s.fs.ReadDir(dir.path)
		if err != nil {
			s.warn(&AccessError{Path: dir.path, Err: err})
			continue
		}
		for _, child := range children {
			name := child.Name()
			if !s.opts.ShowHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if _, skip := s.ignores[name]; skip {
				continue
			}
			childPath := filepath.Join(dir.path, name)
			childDepth := dir.depth + 1
			e := entry.New(childPath, childDepth, entry.KindOf(child.Type()), s.fs.Lstat)

			select {
			case out <- e:
			case <-ctx.Done():
				return ctx.Err()
			}

			if s.opts.MaxDepth > 0 && childDepth >= s.opts.MaxDepth {
				continue
			}
			if expand := s.shouldExpand(e); expand {
				if err := queue.Push(pendingDir{path: childPath, depth: childDepth}); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// shouldExpand decides whether an already-yielded entry joins the frontier.
func (s *Scheduler) shouldExpand(e *entry.Entry) bool {
	switch e.Kind {
	case entry.KindDir:
		if s.opts.FollowSymlinks && !s.markVisited(e.Path) {
			return false
		}
		return true
	case entry.KindSymlink:
		if !s.opts.FollowSymlinks {
			return false
		}
		info, err := s.fs.Stat(e.Path)
		if err != nil {
			s.warn(&AccessError{Path: e.Path, Err: err})
			return false
		}
		if !info.IsDir() {
			return false
		}
		return s.markVisited(e.Path)
	default:
		return false
	}
}

// markVisited records the canonical form of path in the visited set.
// It reports false if the path was already visited or cannot be resolved.
// No-op (always true) when symlink following is disabled.
func (s *Scheduler) markVisited(path string) bool {
	if s.visited == nil {
		return true
	}
	canonical, err := s.fs.Canonical(path)
	if err != nil {
		s.warn(&AccessError{Path: path, Err: err})
		return false
	}
	if _, seen := s.visited[canonical]; seen {
		return false
	}
	s.visited[canonical] = struct{}{}
	return true
}

func (s *Scheduler) warn(err error) {
	if s.opts.Warn != nil {
		s.opts.Warn(err)
	}
}
