// Package lod provides reading functionality for legacy LOD asset archives.
package lod

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

const lodMagic = "LOD\x00"

// Archive format errors.
var (
	ErrInvalidMagic       = errors.New("invalid LOD magic")
	ErrUnsupportedVersion = errors.New("unsupported LOD version")
	ErrMalformedHeader    = errors.New("malformed LOD header")
	ErrEntryNotFound      = errors.New("entry not found")
)

// Supported container version.
const lodVersion = 6

const (
	headerSize    = 12
	dirEntrySize  = 24
	entryNameSize = 16
)

// Entry describes one named blob in the archive directory.
type Entry struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Archive represents an opened LOD archive.
type Archive struct {
	file    *os.File
	size    int64
	version uint32
	entries map[string]Entry
}

// Open opens a LOD archive for reading. The archive keeps the underlying
// file open until Close is called.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	archive := &Archive{
		file:    file,
		size:    info.Size(),
		entries: make(map[string]Entry),
	}

	if err := archive.readDirectory(); err != nil {
		file.Close()
		return nil, err
	}

	return archive, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// Version returns the container version declared in the header.
func (a *Archive) Version() uint32 {
	return a.version
}

func (a *Archive) readDirectory() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	var header struct {
		Magic      [4]byte
		Version    uint32
		EntryCount uint32
	}
	if err := binary.Read(a.file, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrMalformedHeader, err)
	}

	if string(header.Magic[:]) != lodMagic {
		return ErrInvalidMagic
	}
	if header.Version != lodVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}

	dirSize := int64(header.EntryCount) * dirEntrySize
	if headerSize+dirSize > a.size {
		return fmt.Errorf("%w: directory of %d entries exceeds file size %d",
			ErrMalformedHeader, header.EntryCount, a.size)
	}

	dir := make([]byte, dirSize)
	if _, err := io.ReadFull(a.file, dir); err != nil {
		return fmt.Errorf("%w: reading directory: %v", ErrMalformedHeader, err)
	}

	for i := uint32(0); i < header.EntryCount; i++ {
		rec := dir[i*dirEntrySize : (i+1)*dirEntrySize]

		entry := Entry{
			Name:   entryName(rec[:entryNameSize]),
			Offset: binary.LittleEndian.Uint32(rec[entryNameSize:]),
			Size:   binary.LittleEndian.Uint32(rec[entryNameSize+4:]),
		}

		end := int64(entry.Offset) + int64(entry.Size)
		if int64(entry.Offset) < headerSize+dirSize || end > a.size {
			return fmt.Errorf("%w: entry %q spans [%d, %d) outside file",
				ErrMalformedHeader, entry.Name, entry.Offset, end)
		}

		key := normalizeName(entry.Name)
		if _, exists := a.entries[key]; exists {
			return fmt.Errorf("%w: duplicate entry name %q", ErrMalformedHeader, entry.Name)
		}
		a.entries[key] = entry
	}

	return nil
}

// List returns all entry names in the archive, sorted.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		result = append(result, entry.Name)
	}
	sort.Strings(result)
	return result
}

// Contains checks if an entry exists. Names are matched case-insensitively.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[normalizeName(name)]
	return ok
}

// Entry returns directory metadata for a named entry.
func (a *Archive) Entry(name string) (Entry, bool) {
	entry, ok := a.entries[normalizeName(name)]
	return entry, ok
}

// ReadRaw returns the raw byte span of an entry, sub-header included.
// No decompression happens here.
func (a *Archive) ReadRaw(name string) ([]byte, error) {
	entry, ok := a.entries[normalizeName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	raw := make([]byte, entry.Size)
	if _, err := a.file.ReadAt(raw, int64(entry.Offset)); err != nil {
		return nil, fmt.Errorf("reading entry %q: %w", name, err)
	}
	return raw, nil
}

// Read extracts and decodes an entry's payload.
func (a *Archive) Read(name string) ([]byte, error) {
	raw, err := a.ReadRaw(name)
	if err != nil {
		return nil, err
	}

	data, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding entry %q: %w", name, err)
	}
	return data, nil
}

// entryName extracts a null-padded fixed-width directory name.
func entryName(raw []byte) string {
	if idx := strings.IndexByte(string(raw), 0); idx >= 0 {
		return string(raw[:idx])
	}
	return string(raw)
}

func normalizeName(name string) string {
	return strings.ToLower(name)
}
