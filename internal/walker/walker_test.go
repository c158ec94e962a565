package walker

import (
	"context"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/bfind/internal/entry"
	"github.com/harrison/bfind/internal/fsys"
)

// collect runs a scheduler to completion and returns the yielded entries.
func collect(t *testing.T, s *Scheduler) []*entry.Entry {
	t.Helper()
	out := make(chan *entry.Entry, 16)
	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background(), out) }()

	var got []*entry.Entry
	for e := range out {
		got = append(got, e)
	}
	require.NoError(t, <-done)
	return got
}

func paths(entries []*entry.Entry) []string {
	var ps []string
	for _, e := range entries {
		ps = append(ps, e.Path)
	}
	return ps
}

func sampleTree() *fsys.MemFS {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddFile("r/a.txt", 10)
	m.AddFile("r/b.log", 2000)
	m.AddDir("r/d")
	m.AddFile("r/d/c.txt", 5)
	return m
}

// TestBFSOrder verifies the defining breadth-first property: depths in the
// yielded sequence never decrease, and every depth-d entry is yielded
// before any depth-d+1 entry.
func TestBFSOrder(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddDir("r/x")
	m.AddDir("r/y")
	m.AddFile("r/x/1", 1)
	m.AddFile("r/y/2", 1)
	m.AddDir("r/x/deep")
	m.AddFile("r/x/deep/3", 1)

	s, err := New(m, []string{"r"}, Options{ShowHidden: true})
	require.NoError(t, err)
	got := collect(t, s)

	prevDepth := 0
	for _, e := range got {
		assert.GreaterOrEqual(t, e.Depth, prevDepth, "depth decreased at %s", e.Path)
		if e.Depth > prevDepth {
			prevDepth = e.Depth
		}
	}
	assert.Equal(t, []string{"r/x", "r/y", "r/x/1", "r/x/deep", "r/y/2", "r/x/deep/3"}, paths(got))
}

func TestDepthInvariant(t *testing.T) {
	s, err := New(sampleTree(), []string{"r"}, Options{ShowHidden: true})
	require.NoError(t, err)
	for _, e := range collect(t, s) {
		// Children of the root are depth 1, grandchildren depth 2.
		switch e.Path {
		case "r/a.txt", "r/b.log", "r/d":
			assert.Equal(t, 1, e.Depth, e.Path)
		case "r/d/c.txt":
			assert.Equal(t, 2, e.Depth, e.Path)
		default:
			t.Errorf("unexpected entry %s", e.Path)
		}
	}
}

func TestHiddenSkippedByDefault(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddFile("r/.secret", 1)
	m.AddDir("r/.git")
	m.AddFile("r/.git/config", 1)
	m.AddFile("r/seen", 1)

	s, err := New(m, []string{"r"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/seen"}, paths(collect(t, s)))

	s, err = New(m, []string{"r"}, Options{ShowHidden: true})
	require.NoError(t, err)
	assert.Len(t, collect(t, s), 4)
}

func TestIgnoreList(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddDir("r/node_modules")
	m.AddFile("r/node_modules/pkg.js", 1)
	m.AddFile("r/main.go", 1)

	s, err := New(m, []string{"r"}, Options{ShowHidden: true, Ignores: []string{"node_modules"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/main.go"}, paths(collect(t, s)))
}

func TestMaxDepth(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddDir("r/a")
	m.AddDir("r/a/b")
	m.AddFile("r/a/b/c", 1)

	s, err := New(m, []string{"r"}, Options{ShowHidden: true, MaxDepth: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/a", "r/a/b"}, paths(collect(t, s)))
}

// TestSymlinkNotFollowed verifies the default policy: a directory containing
// a symlink to itself terminates and reports the symlink exactly once, with
// Kind=Symlink.
func TestSymlinkNotFollowed(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddSymlink("r/self", "r")
	m.AddFile("r/a", 1)

	s, err := New(m, []string{"r"}, Options{ShowHidden: true})
	require.NoError(t, err)
	got := collect(t, s)

	require.Len(t, got, 2)
	assert.Equal(t, "r/a", got[0].Path)
	assert.Equal(t, "r/self", got[1].Path)
	assert.Equal(t, entry.KindSymlink, got[1].Kind)
}

// TestFollowSymlinksGuardsCycles verifies that with following enabled a
// cyclic link is expanded at most zero times thanks to the canonical-path
// visited set, while links to unvisited directories are expanded once.
func TestFollowSymlinksGuardsCycles(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddDir("r/sub")
	m.AddFile("r/sub/f", 1)
	m.AddSymlink("r/loop", "r")
	m.AddDir("elsewhere")
	m.AddFile("elsewhere/g", 1)
	m.AddSymlink("r/out", "elsewhere")

	s, err := New(m, []string{"r"}, Options{ShowHidden: true, FollowSymlinks: true})
	require.NoError(t, err)
	got := paths(collect(t, s))

	// The loop link is yielded but never expanded; the outbound link is
	// expanded exactly once, with children reported under the link path.
	assert.Equal(t, []string{"r/loop", "r/out", "r/sub", "r/out/g", "r/sub/f"}, got)
}

// TestUnreadableDirIsolated verifies that one unreadable subdirectory among
// readable siblings produces exactly one AccessError and does not suppress
// any sibling entries.
func TestUnreadableDirIsolated(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddDir("r/ok1")
	m.AddFile("r/ok1/a", 1)
	m.AddDir("r/bad")
	m.AddFile("r/bad/hidden-from-us", 1)
	m.AddDir("r/ok2")
	m.AddFile("r/ok2/b", 1)
	m.SetUnreadable("r/bad")

	var warnings []error
	s, err := New(m, []string{"r"}, Options{
		ShowHidden: true,
		Warn:       func(err error) { warnings = append(warnings, err) },
	})
	require.NoError(t, err)
	got := paths(collect(t, s))

	assert.Equal(t, []string{"r/bad", "r/ok1", "r/ok2", "r/ok1/a", "r/ok2/b"}, got)
	require.Len(t, warnings, 1)
	var aerr *AccessError
	require.ErrorAs(t, warnings[0], &aerr)
	assert.Equal(t, "r/bad", aerr.Path)
	assert.True(t, errors.Is(aerr, fs.ErrPermission))
}

func TestRootErrors(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	m.AddFile("r/file", 1)

	_, err := New(m, []string{"missing"}, Options{})
	var rerr *RootError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "missing", rerr.Path)

	_, err = New(m, []string{"r/file"}, Options{})
	require.ErrorAs(t, err, &rerr)
}

func TestMultipleRoots(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r1")
	m.AddFile("r1/a", 1)
	m.AddDir("r2")
	m.AddFile("r2/b", 1)

	s, err := New(m, []string{"r1", "r2"}, Options{ShowHidden: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"r1/a", "r2/b"}, paths(collect(t, s)))
}

func TestNotRestartable(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")

	s, err := New(m, []string{"r"}, Options{})
	require.NoError(t, err)
	collect(t, s)

	out := make(chan *entry.Entry)
	go func() {
		for range out {
		}
	}()
	assert.Error(t, s.Run(context.Background(), out))
}

func TestRunCancellation(t *testing.T) {
	m := fsys.NewMemFS()
	m.AddDir("r")
	for i := 0; i < 10; i++ {
		m.AddFile("r/f"+string(rune('0'+i)), 1)
	}

	s, err := New(m, []string{"r"}, Options{ShowHidden: true})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := make(chan *entry.Entry) // unbuffered, nobody reading
	assert.ErrorIs(t, s.Run(ctx, out), context.Canceled)
}
