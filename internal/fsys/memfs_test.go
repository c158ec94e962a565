package fsys

import (
	"errors"
	"io/fs"
	"testing"
)

func TestReadDirStableOrder(t *testing.T) {
	m := NewMemFS()
	m.AddDir("r")
	m.AddFile("r/b", 1)
	m.AddFile("r/a", 1)
	m.AddDir("r/c")

	entries, err := m.ReadDir("r")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	want := []string{"a", "b", "c"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}

func TestUnreadableDir(t *testing.T) {
	m := NewMemFS()
	m.AddDir("r")
	m.SetUnreadable("r")

	_, err := m.ReadDir("r")
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("ReadDir() error = %v, want permission", err)
	}
}

func TestLstatCountsAndDoesNotFollow(t *testing.T) {
	m := NewMemFS()
	m.AddDir("r")
	m.AddDir("r/target")
	m.AddSymlink("r/link", "r/target")

	info, err := m.Lstat("r/link")
	if err != nil {
		t.Fatalf("Lstat() error = %v", err)
	}
	if info.Mode()&fs.ModeSymlink == 0 {
		t.Error("Lstat() should not follow the final symlink")
	}
	if got := m.StatCount("r/link"); got != 1 {
		t.Errorf("StatCount = %d, want 1", got)
	}

	sinfo, err := m.Stat("r/link")
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if !sinfo.IsDir() {
		t.Error("Stat() should follow the final symlink")
	}
}

func TestCanonicalResolvesChains(t *testing.T) {
	m := NewMemFS()
	m.AddDir("real")
	m.AddSymlink("one", "two")
	m.AddSymlink("two", "real")

	got, err := m.Canonical("one")
	if err != nil {
		t.Fatalf("Canonical() error = %v", err)
	}
	if got != "real" {
		t.Errorf("Canonical() = %q, want %q", got, "real")
	}
}

func TestCanonicalCycleTerminates(t *testing.T) {
	m := NewMemFS()
	m.AddSymlink("a", "b")
	m.AddSymlink("b", "a")

	if _, err := m.Canonical("a"); err == nil {
		t.Error("Canonical() on a symlink cycle should error, not loop")
	}
}

func TestReadDirThroughSymlink(t *testing.T) {
	m := NewMemFS()
	m.AddDir("real")
	m.AddFile("real/f", 1)
	m.AddDir("r")
	m.AddSymlink("r/link", "real")

	entries, err := m.ReadDir("r/link")
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "f" {
		t.Errorf("ReadDir() through symlink = %v", entries)
	}
}
