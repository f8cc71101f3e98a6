package store

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"pendant/hal"
)

// memFS is an in-memory hal.Filesystem with flat path keys.
type memFS struct {
	dirs  map[string]bool
	files map[string][]byte
}

func newMemFS() *memFS {
	return &memFS{dirs: map[string]bool{}, files: map[string][]byte{}}
}

func (m *memFS) Mkdir(path string) error {
	if m.dirs[path] {
		return hal.ErrExists
	}
	m.dirs[path] = true
	return nil
}

func (m *memFS) Remove(path string) error {
	if m.dirs[path] {
		for name := range m.files {
			if strings.HasPrefix(name, path+"/") {
				return errors.New("directory not empty")
			}
		}
		delete(m.dirs, path)
		return nil
	}
	if _, ok := m.files[path]; !ok {
		return hal.ErrNotFound
	}
	delete(m.files, path)
	return nil
}

func (m *memFS) Stat(path string) (hal.FileInfo, error) {
	if m.dirs[path] {
		return hal.FileInfo{Dir: true}, nil
	}
	data, ok := m.files[path]
	if !ok {
		return hal.FileInfo{}, hal.ErrNotFound
	}
	return hal.FileInfo{Size: uint32(len(data))}, nil
}

func (m *memFS) ReadAt(path string, p []byte, off uint32) (int, error) {
	data, ok := m.files[path]
	if !ok {
		return 0, hal.ErrNotFound
	}
	if int(off) >= len(data) {
		return 0, nil
	}
	return copy(p, data[off:]), nil
}

func (m *memFS) OpenWriter(path string, mode hal.WriteMode) (hal.FileWriter, error) {
	if mode == hal.WriteTruncate {
		m.files[path] = nil
	} else if _, ok := m.files[path]; !ok {
		m.files[path] = nil
	}
	return &memWriter{fs: m, path: path}, nil
}

func (m *memFS) ListDir(path string, fn func(name string, info hal.FileInfo) bool) error {
	if !m.dirs[path] {
		return hal.ErrNotFound
	}
	var names []string
	for name := range m.files {
		if strings.HasPrefix(name, path+"/") {
			names = append(names, strings.TrimPrefix(name, path+"/"))
		}
	}
	sort.Strings(names)
	for _, name := range names {
		if !fn(name, hal.FileInfo{Size: uint32(len(m.files[path+"/"+name]))}) {
			break
		}
	}
	return nil
}

type memWriter struct {
	fs   *memFS
	path string
}

func (w *memWriter) Write(p []byte) (int, error) {
	w.fs.files[w.path] = append(w.fs.files[w.path], p...)
	return len(p), nil
}

func (w *memWriter) Close() error { return nil }

func mustMount(t *testing.T) (*Store, *memFS) {
	t.Helper()
	fs := newMemFS()
	s, err := Mount(fs, nil)
	if err != nil {
		t.Fatalf("Mount() = %v, want nil", err)
	}
	return s, fs
}

func TestFileName(t *testing.T) {
	cases := []struct {
		n    uint8
		want string
	}{
		{1, "audio/a01.txt"},
		{42, "audio/a42.txt"},
		{99, "audio/a99.txt"},
	}
	for _, tc := range cases {
		got, err := FileName(tc.n)
		if err != nil {
			t.Fatalf("FileName(%d) = %v, want nil", tc.n, err)
		}
		if got != tc.want {
			t.Fatalf("FileName(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
	for _, n := range []uint8{0, 100, 255} {
		if _, err := FileName(n); !errors.Is(err, ErrInvalidFile) {
			t.Fatalf("FileName(%d) = %v, want ErrInvalidFile", n, err)
		}
	}
}

func TestMountFreshCreatesBaseFile(t *testing.T) {
	s, fs := mustMount(t)

	if _, ok := fs.files["audio/a01.txt"]; !ok {
		t.Fatalf("Mount() did not create the base file")
	}
	if s.FileCount() != 1 {
		t.Fatalf("FileCount() = %d on fresh mount, want 1", s.FileCount())
	}
	if s.ReadFile() != 1 || s.WriteFile() != 1 {
		t.Fatalf("cursors = %d,%d on fresh mount, want 1,1", s.ReadFile(), s.WriteFile())
	}
}

func TestMountCountsExistingFiles(t *testing.T) {
	fs := newMemFS()
	fs.dirs["audio"] = true
	fs.files["audio/a01.txt"] = []byte("one")
	fs.files["audio/a02.txt"] = []byte("two")
	fs.files["audio/a03.txt"] = nil

	s, err := Mount(fs, nil)
	if err != nil {
		t.Fatalf("Mount() = %v, want nil", err)
	}
	if s.FileCount() != 3 {
		t.Fatalf("FileCount() = %d, want 3", s.FileCount())
	}
}

func TestCursorMoveRequiresFile(t *testing.T) {
	s, _ := mustMount(t)

	if err := s.MoveRead(5); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("MoveRead(5) = %v, want ErrInvalidFile", err)
	}
	if err := s.MoveWrite(5); !errors.Is(err, ErrInvalidFile) {
		t.Fatalf("MoveWrite(5) = %v, want ErrInvalidFile", err)
	}
	if s.ReadFile() != 1 || s.WriteFile() != 1 {
		t.Fatalf("cursors moved on failed move: %d,%d", s.ReadFile(), s.WriteFile())
	}

	if err := s.Initialize(2); err != nil {
		t.Fatalf("Initialize(2) = %v, want nil", err)
	}
	if err := s.MoveWrite(2); err != nil {
		t.Fatalf("MoveWrite(2) = %v, want nil", err)
	}
	if s.WriteFile() != 2 {
		t.Fatalf("WriteFile() = %d after MoveWrite(2), want 2", s.WriteFile())
	}
}

func TestAppendAndReadAt(t *testing.T) {
	s, _ := mustMount(t)

	if err := s.Append([]byte("hello ")); err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}
	if err := s.Append([]byte("world")); err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}
	if got := s.Size(1); got != 11 {
		t.Fatalf("Size(1) = %d, want 11", got)
	}

	buf := make([]byte, 5)
	n, err := s.ReadAt(buf, 6)
	if err != nil {
		t.Fatalf("ReadAt() = %v, want nil", err)
	}
	if n != 5 || string(buf) != "world" {
		t.Fatalf("ReadAt(6) = %d %q, want 5 \"world\"", n, buf)
	}
}

func TestClearTruncates(t *testing.T) {
	s, _ := mustMount(t)

	if err := s.Append([]byte("data")); err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}
	if err := s.Clear(1); err != nil {
		t.Fatalf("Clear(1) = %v, want nil", err)
	}
	if got := s.Size(1); got != 0 {
		t.Fatalf("Size(1) = %d after Clear, want 0", got)
	}
}

func TestSizeMissingFile(t *testing.T) {
	s, _ := mustMount(t)
	if got := s.Size(7); got != 0 {
		t.Fatalf("Size(7) = %d for missing file, want 0", got)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	s, _ := mustMount(t)

	if got := s.Offset(); got != 0 {
		t.Fatalf("Offset() = %d before any save, want 0", got)
	}
	if err := s.SaveOffset(0xDEAD); err != nil {
		t.Fatalf("SaveOffset() = %v, want nil", err)
	}
	if got := s.Offset(); got != 0xDEAD {
		t.Fatalf("Offset() = %d, want %d", got, 0xDEAD)
	}
	// Replaces, not appends.
	if err := s.SaveOffset(7); err != nil {
		t.Fatalf("SaveOffset() = %v, want nil", err)
	}
	if got := s.Offset(); got != 7 {
		t.Fatalf("Offset() = %d after second save, want 7", got)
	}
}

func TestClearDirectoryBaseOnly(t *testing.T) {
	s, fs := mustMount(t)
	fs.files["audio/a01.txt"] = []byte("keep")

	if err := s.ClearDirectory(); err != nil {
		t.Fatalf("ClearDirectory() with base file only = %v, want nil", err)
	}
	if string(fs.files["audio/a01.txt"]) != "keep" {
		t.Fatalf("ClearDirectory() touched the base file")
	}
}

func TestClearDirectoryRemovesAll(t *testing.T) {
	s, fs := mustMount(t)
	for n := uint8(2); n <= 5; n++ {
		if err := s.Initialize(n); err != nil {
			t.Fatalf("Initialize(%d) = %v, want nil", n, err)
		}
	}
	if err := s.MoveWrite(5); err != nil {
		t.Fatalf("MoveWrite(5) = %v, want nil", err)
	}
	if err := s.Append([]byte("tail")); err != nil {
		t.Fatalf("Append() = %v, want nil", err)
	}
	if err := s.SaveOffset(99); err != nil {
		t.Fatalf("SaveOffset() = %v, want nil", err)
	}

	if err := s.ClearDirectory(); err != nil {
		t.Fatalf("ClearDirectory() = %v, want nil", err)
	}

	if len(fs.files) != 1 {
		t.Fatalf("%d files left after ClearDirectory(), want only the base file: %v", len(fs.files), fs.files)
	}
	if _, ok := fs.files["audio/a01.txt"]; !ok {
		t.Fatalf("base file missing after ClearDirectory()")
	}
	if s.FileCount() != 1 || s.ReadFile() != 1 || s.WriteFile() != 1 {
		t.Fatalf("state = count %d cursors %d,%d after ClearDirectory(), want all 1",
			s.FileCount(), s.ReadFile(), s.WriteFile())
	}
}

func TestInitializeExtendsCount(t *testing.T) {
	s, _ := mustMount(t)

	if err := s.Initialize(4); err != nil {
		t.Fatalf("Initialize(4) = %v, want nil", err)
	}
	if s.FileCount() != 4 {
		t.Fatalf("FileCount() = %d after Initialize(4), want 4", s.FileCount())
	}
}
