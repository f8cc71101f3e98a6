// Package store manages a directory of numbered audio capture files
// on a mounted filesystem. Files are named a01.txt through a99.txt;
// two independent cursors track which file number the next read and
// the next write go to. A separate 4-byte record persists a resume
// offset across resets.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"pendant/hal"
)

const (
	// Dir is the directory holding the numbered files.
	Dir = "audio"

	// MaxFiles is the highest valid file number.
	MaxFiles = 99

	offsetFile = "info.txt"
)

// ErrInvalidFile reports a file number out of range or a cursor move
// to a file that does not exist.
var ErrInvalidFile = errors.New("store: invalid file")

// FileName maps a file number to its path inside Dir.
func FileName(n uint8) (string, error) {
	if n < 1 || n > MaxFiles {
		return "", fmt.Errorf("%w: %d", ErrInvalidFile, n)
	}
	return fmt.Sprintf("%s/a%02d.txt", Dir, n), nil
}

// Store tracks the numbered files and the two cursors. It assumes
// single-threaded access; callers on a multi-threaded host serialize
// externally.
type Store struct {
	fs  hal.Filesystem
	log hal.Logger

	fileCount uint8
	readFile  uint8
	writeFile uint8
}

// Mount opens the store on fs, creating the directory and the base
// file on first use. Both cursors start at file 1.
func Mount(fs hal.Filesystem, log hal.Logger) (*Store, error) {
	if fs == nil {
		return nil, fmt.Errorf("store: %w", hal.ErrNotReady)
	}
	s := &Store{fs: fs, log: log, readFile: 1, writeFile: 1}

	if err := fs.Mkdir(Dir); err != nil && !errors.Is(err, hal.ErrExists) {
		return nil, fmt.Errorf("store: mkdir %s: %w", Dir, err)
	}

	count := uint8(0)
	for n := uint8(1); n <= MaxFiles; n++ {
		name, _ := FileName(n)
		if _, err := fs.Stat(name); err != nil {
			break
		}
		count = n
	}
	if count == 0 {
		if err := s.Initialize(1); err != nil {
			return nil, err
		}
		count = 1
	}
	s.fileCount = count
	s.logf("mounted, %d file(s)", count)
	return s, nil
}

// FileCount returns the highest contiguous file number present.
func (s *Store) FileCount() uint8 { return s.fileCount }

// ReadFile returns the read cursor's file number.
func (s *Store) ReadFile() uint8 { return s.readFile }

// WriteFile returns the write cursor's file number.
func (s *Store) WriteFile() uint8 { return s.writeFile }

// Initialize creates file n, leaving existing contents alone.
func (s *Store) Initialize(n uint8) error {
	name, err := FileName(n)
	if err != nil {
		return err
	}
	w, err := s.fs.OpenWriter(name, hal.WriteAppend)
	if err != nil {
		return fmt.Errorf("store: create %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", name, err)
	}
	if n > s.fileCount {
		s.fileCount = n
	}
	return nil
}

// Clear truncates file n to zero length, creating it if absent.
func (s *Store) Clear(n uint8) error {
	name, err := FileName(n)
	if err != nil {
		return err
	}
	w, err := s.fs.OpenWriter(name, hal.WriteTruncate)
	if err != nil {
		return fmt.Errorf("store: truncate %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", name, err)
	}
	if n > s.fileCount {
		s.fileCount = n
	}
	return nil
}

// Delete removes file n.
func (s *Store) Delete(n uint8) error {
	name, err := FileName(n)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(name); err != nil {
		return fmt.Errorf("store: remove %s: %w", name, err)
	}
	return nil
}

// MoveRead points the read cursor at file n. The file must exist.
func (s *Store) MoveRead(n uint8) error {
	if err := s.statFile(n); err != nil {
		return err
	}
	s.readFile = n
	return nil
}

// MoveWrite points the write cursor at file n. The file must exist.
func (s *Store) MoveWrite(n uint8) error {
	if err := s.statFile(n); err != nil {
		return err
	}
	s.writeFile = n
	return nil
}

func (s *Store) statFile(n uint8) error {
	name, err := FileName(n)
	if err != nil {
		return err
	}
	if _, err := s.fs.Stat(name); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidFile, name)
	}
	return nil
}

// Append writes data to the end of the write cursor's file.
func (s *Store) Append(data []byte) error {
	name, err := FileName(s.writeFile)
	if err != nil {
		return err
	}
	w, err := s.fs.OpenWriter(name, hal.WriteAppend)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("store: write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", name, err)
	}
	return nil
}

// ReadAt fills p from the read cursor's file starting at off,
// returning the number of bytes read.
func (s *Store) ReadAt(p []byte, off uint32) (int, error) {
	name, err := FileName(s.readFile)
	if err != nil {
		return 0, err
	}
	n, err := s.fs.ReadAt(name, p, off)
	if err != nil {
		return n, fmt.Errorf("store: read %s: %w", name, err)
	}
	return n, nil
}

// Size returns the byte size of file n, 0 if it cannot be stated.
func (s *Store) Size(n uint8) uint32 {
	name, err := FileName(n)
	if err != nil {
		return 0
	}
	info, err := s.fs.Stat(name)
	if err != nil {
		return 0
	}
	return info.Size
}

// SaveOffset persists the resume offset as a 4-byte little-endian
// record, replacing any previous value.
func (s *Store) SaveOffset(off uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], off)
	path := Dir + "/" + offsetFile
	w, err := s.fs.OpenWriter(path, hal.WriteTruncate)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := w.Write(b[:]); err != nil {
		w.Close()
		return fmt.Errorf("store: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", path, err)
	}
	return nil
}

// Offset reads back the persisted resume offset, 0 if the record is
// missing or short.
func (s *Store) Offset() uint32 {
	var b [4]byte
	path := Dir + "/" + offsetFile
	n, err := s.fs.ReadAt(path, b[:], 0)
	if err != nil || n < len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

// ClearDirectory resets the store to a single empty base file. With
// only file 1 present it does nothing. Otherwise it deletes every file
// from the highest number down, recreates the directory and file 1,
// and rewinds both cursors.
func (s *Store) ClearDirectory() error {
	if s.fileCount <= 1 {
		s.logf("clear: only base file present, nothing to do")
		return nil
	}
	s.logf("clearing %d files", s.fileCount)
	for n := s.fileCount; n >= 2; n-- {
		if err := s.Delete(n); err != nil {
			return err
		}
	}
	// Empty the directory before removing it: the base file and the
	// offset record may still be inside.
	if name, err := FileName(1); err == nil {
		if err := s.fs.Remove(name); err != nil && !errors.Is(err, hal.ErrNotFound) {
			return fmt.Errorf("store: remove %s: %w", name, err)
		}
	}
	if err := s.fs.Remove(Dir + "/" + offsetFile); err != nil && !errors.Is(err, hal.ErrNotFound) {
		return fmt.Errorf("store: remove offset record: %w", err)
	}
	if err := s.fs.Remove(Dir); err != nil && !errors.Is(err, hal.ErrNotFound) {
		return fmt.Errorf("store: remove %s: %w", Dir, err)
	}
	if err := s.fs.Mkdir(Dir); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", Dir, err)
	}
	s.fileCount = 0
	if err := s.Initialize(1); err != nil {
		return err
	}
	s.fileCount = 1
	s.readFile = 1
	s.writeFile = 1
	return nil
}

func (s *Store) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString("store: " + fmt.Sprintf(format, args...))
}
