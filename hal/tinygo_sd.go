//go:build tinygo && baremetal

package hal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"machine"

	"tinygo.org/x/drivers/sdcard"
	"tinygo.org/x/tinyfs"
	"tinygo.org/x/tinyfs/fatfs"
)

// initSD mounts the SD card module on SPI0. A missing or unreadable
// card yields a nil filesystem; the capture store reports ErrNotReady
// on use instead of the whole firmware failing to boot.
func initSD() Filesystem {
	sd := sdcard.New(machine.SPI0, machine.SPI0_SCK_PIN, machine.SPI0_SDO_PIN, machine.SPI0_SDI_PIN, pinSDChipSelect)
	if err := sd.Configure(); err != nil {
		return nil
	}

	fat := fatfs.New(&sd).Configure(&fatfs.Config{SectorSize: fatfs.SectorSize})
	if err := fat.Mount(); err != nil {
		// Do not auto-format removable media.
		return nil
	}

	return &sdFatFS{sd: &sd, fat: fat}
}

type sdFatFS struct {
	sd  *sdcard.Device
	fat *fatfs.FATFS
}

func (fs *sdFatFS) Mkdir(path string) error {
	if fs == nil || fs.fat == nil {
		return fmt.Errorf("sd: %w", ErrNotReady)
	}
	return mapFatErr("mkdir", fs.fat.Mkdir(path, 0o777))
}

func (fs *sdFatFS) Remove(path string) error {
	if fs == nil || fs.fat == nil {
		return fmt.Errorf("sd: %w", ErrNotReady)
	}
	return mapFatErr("remove", fs.fat.Remove(path))
}

func (fs *sdFatFS) Stat(path string) (FileInfo, error) {
	if fs == nil || fs.fat == nil {
		return FileInfo{}, fmt.Errorf("sd: %w", ErrNotReady)
	}
	fi, err := fs.fat.Stat(path)
	if err != nil {
		return FileInfo{}, mapFatErr("stat", err)
	}
	return FileInfo{Dir: fi.IsDir(), Size: uint32(fi.Size())}, nil
}

func (fs *sdFatFS) ReadAt(path string, p []byte, off uint32) (int, error) {
	if fs == nil || fs.fat == nil {
		return 0, fmt.Errorf("sd: %w", ErrNotReady)
	}
	f, err := fs.fat.OpenFile(path, os.O_RDONLY)
	if err != nil {
		return 0, mapFatErr("open", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(int64(off), io.SeekStart); err != nil {
		return 0, mapFatErr("seek", err)
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, err := f.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		return n, mapFatErr("read", err)
	}
	return n, nil
}

func (fs *sdFatFS) OpenWriter(path string, mode WriteMode) (FileWriter, error) {
	if fs == nil || fs.fat == nil {
		return nil, fmt.Errorf("sd: %w", ErrNotReady)
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case WriteTruncate:
		flags |= os.O_TRUNC
	case WriteAppend:
		flags |= os.O_APPEND
	default:
		return nil, fmt.Errorf("sd open writer %q: invalid mode %d", path, mode)
	}

	f, err := fs.fat.OpenFile(path, flags)
	if err != nil {
		return nil, mapFatErr("open writer", err)
	}
	return &sdWriter{f: f}, nil
}

func (fs *sdFatFS) ListDir(path string, fn func(name string, info FileInfo) bool) error {
	if fs == nil || fs.fat == nil {
		return fmt.Errorf("sd: %w", ErrNotReady)
	}
	f, err := fs.fat.OpenFile(path, os.O_RDONLY)
	if err != nil {
		return mapFatErr("open dir", err)
	}
	defer func() { _ = f.Close() }()

	entries, err := f.Readdir(0)
	if err != nil {
		return mapFatErr("readdir", err)
	}
	for _, e := range entries {
		name := e.Name()
		if name == "." || name == ".." {
			continue
		}
		var size uint32
		if !e.IsDir() {
			size = uint32(e.Size())
		}
		if !fn(name, FileInfo{Dir: e.IsDir(), Size: size}) {
			return nil
		}
	}
	return nil
}

type sdWriter struct {
	f tinyfs.File
}

func (w *sdWriter) Write(p []byte) (int, error) {
	if w == nil || w.f == nil {
		return 0, errors.New("sd: write on closed writer")
	}
	return w.f.Write(p)
}

func (w *sdWriter) Close() error {
	if w == nil || w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func mapFatErr(op string, err error) error {
	if err == nil {
		return nil
	}

	var fr fatfs.FileResult
	if errors.As(err, &fr) {
		switch fr {
		case fatfs.FileResultNoFile, fatfs.FileResultNoPath:
			return fmt.Errorf("sd %s: %w", op, ErrNotFound)
		case fatfs.FileResultExist:
			return fmt.Errorf("sd %s: %w", op, ErrExists)
		default:
			return fmt.Errorf("sd %s: %v", op, err)
		}
	}

	return fmt.Errorf("sd %s: %v", op, err)
}
