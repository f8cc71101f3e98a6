//go:build !tinygo

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// hostFS exposes a directory on the host filesystem through the
// Filesystem interface, standing in for the SD card.
type hostFS struct {
	root string

	once sync.Once
	err  error
}

func newHostFS(root string) *hostFS {
	return &hostFS{root: root}
}

func (fs *hostFS) ensure() error {
	fs.once.Do(func() {
		fs.err = os.MkdirAll(fs.root, 0o755)
	})
	return fs.err
}

func (fs *hostFS) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("hostfs: path %q escapes root", path)
	}
	return filepath.Join(fs.root, clean), nil
}

func (fs *hostFS) Mkdir(path string) error {
	if err := fs.ensure(); err != nil {
		return err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return mapHostErr("mkdir", path, os.Mkdir(full, 0o755))
}

func (fs *hostFS) Remove(path string) error {
	if err := fs.ensure(); err != nil {
		return err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	return mapHostErr("remove", path, os.Remove(full))
}

func (fs *hostFS) Stat(path string) (FileInfo, error) {
	if err := fs.ensure(); err != nil {
		return FileInfo{}, err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return FileInfo{}, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		return FileInfo{}, mapHostErr("stat", path, err)
	}
	return FileInfo{Dir: fi.IsDir(), Size: uint32(fi.Size())}, nil
}

func (fs *hostFS) ReadAt(path string, p []byte, off uint32) (int, error) {
	if err := fs.ensure(); err != nil {
		return 0, err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return 0, err
	}
	f, err := os.Open(full)
	if err != nil {
		return 0, mapHostErr("open", path, err)
	}
	defer f.Close()

	n, err := f.ReadAt(p, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return n, mapHostErr("read", path, err)
	}
	return n, nil
}

func (fs *hostFS) OpenWriter(path string, mode WriteMode) (FileWriter, error) {
	if err := fs.ensure(); err != nil {
		return nil, err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return nil, err
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case WriteTruncate:
		flags |= os.O_TRUNC
	case WriteAppend:
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("hostfs open writer %q: invalid mode %d", path, mode)
	}

	f, err := os.OpenFile(full, flags, 0o644)
	if err != nil {
		return nil, mapHostErr("open writer", path, err)
	}
	return f, nil
}

func (fs *hostFS) ListDir(path string, fn func(name string, info FileInfo) bool) error {
	if err := fs.ensure(); err != nil {
		return err
	}
	full, err := fs.resolve(path)
	if err != nil {
		return err
	}
	entries, err := os.ReadDir(full)
	if err != nil {
		return mapHostErr("readdir", path, err)
	}
	for _, e := range entries {
		var size uint32
		if fi, err := e.Info(); err == nil && !e.IsDir() {
			size = uint32(fi.Size())
		}
		if !fn(e.Name(), FileInfo{Dir: e.IsDir(), Size: size}) {
			return nil
		}
	}
	return nil
}

func mapHostErr(op, path string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("hostfs %s %q: %w", op, path, ErrNotFound)
	case errors.Is(err, os.ErrExist):
		return fmt.Errorf("hostfs %s %q: %w", op, path, ErrExists)
	default:
		return fmt.Errorf("hostfs %s %q: %v", op, path, err)
	}
}
