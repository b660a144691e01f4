package lod

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTestArchive builds a LOD archive on disk from name -> payload pairs.
// Payloads are entry-encoded with the given method.
func writeTestArchive(t *testing.T, path string, method Method, files map[string][]byte) {
	t.Helper()

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	// Deterministic directory order.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}

	var payloads [][]byte
	for _, name := range names {
		encoded, err := Encode(files[name], method)
		if err != nil {
			t.Fatalf("encoding %s: %v", name, err)
		}
		payloads = append(payloads, encoded)
	}

	buf := new(bytes.Buffer)
	buf.WriteString(lodMagic)
	binary.Write(buf, binary.LittleEndian, uint32(lodVersion))
	binary.Write(buf, binary.LittleEndian, uint32(len(names)))

	offset := uint32(headerSize + dirEntrySize*len(names))
	for i, name := range names {
		nameBytes := make([]byte, entryNameSize)
		copy(nameBytes, name)
		buf.Write(nameBytes)
		binary.Write(buf, binary.LittleEndian, offset)
		binary.Write(buf, binary.LittleEndian, uint32(len(payloads[i])))
		offset += uint32(len(payloads[i]))
	}
	for _, p := range payloads {
		buf.Write(p)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("writing test archive: %v", err)
	}
}

func TestOpen_RoundTrip(t *testing.T) {
	files := map[string][]byte{
		"oute3.odm": bytes.Repeat([]byte{1, 2, 3, 0, 0}, 100),
		"dtile.bin": []byte("tile table payload"),
		"grass.bmp": {0xde, 0xad, 0xbe, 0xef},
	}

	path := filepath.Join(t.TempDir(), "games.lod")
	writeTestArchive(t, path, MethodZlib, files)

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer archive.Close()

	if got := len(archive.List()); got != len(files) {
		t.Fatalf("expected %d entries, got %d", len(files), got)
	}

	for name, want := range files {
		data, err := archive.Read(name)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		if !bytes.Equal(data, want) {
			t.Errorf("%s: payload mismatch after round-trip", name)
		}
	}
}

func TestOpen_AllMethodsRoundTrip(t *testing.T) {
	payload := append(bytes.Repeat([]byte{0}, 300), []byte("trailing data")...)

	for _, method := range []Method{MethodStored, MethodRLE, MethodZlib} {
		t.Run(method.String(), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.lod")
			writeTestArchive(t, path, method, map[string][]byte{"blob.bin": payload})

			archive, err := Open(path)
			if err != nil {
				t.Fatalf("failed to open archive: %v", err)
			}
			defer archive.Close()

			data, err := archive.Read("blob.bin")
			if err != nil {
				t.Fatalf("reading blob: %v", err)
			}
			if !bytes.Equal(data, payload) {
				t.Error("payload mismatch after round-trip")
			}
		})
	}
}

func TestOpen_CaseInsensitiveLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lod")
	writeTestArchive(t, path, MethodStored, map[string][]byte{"OUTE3.ODM": []byte("x")})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer archive.Close()

	if !archive.Contains("oute3.odm") {
		t.Error("lowercase lookup should match uppercase directory name")
	}
	if !archive.Contains("Oute3.Odm") {
		t.Error("mixed-case lookup should match")
	}
	if archive.Contains("missing.odm") {
		t.Error("Contains returned true for absent entry")
	}
}

func TestOpen_NotFound(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.lod"))
	if err == nil {
		t.Fatal("expected error for missing archive")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}

func TestOpen_InvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lod")
	if err := os.WriteFile(path, []byte("XXXX\x06\x00\x00\x00\x00\x00\x00\x00"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestOpen_UnsupportedVersion(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString(lodMagic)
	binary.Write(buf, binary.LittleEndian, uint32(9))
	binary.Write(buf, binary.LittleEndian, uint32(0))

	path := filepath.Join(t.TempDir(), "bad.lod")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestOpen_DirectoryPastEOF(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString(lodMagic)
	binary.Write(buf, binary.LittleEndian, uint32(lodVersion))
	binary.Write(buf, binary.LittleEndian, uint32(1000)) // declares far more entries than present

	path := filepath.Join(t.TempDir(), "bad.lod")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestOpen_EntrySpanOutsideFile(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString(lodMagic)
	binary.Write(buf, binary.LittleEndian, uint32(lodVersion))
	binary.Write(buf, binary.LittleEndian, uint32(1))

	nameBytes := make([]byte, entryNameSize)
	copy(nameBytes, "bogus.bin")
	buf.Write(nameBytes)
	binary.Write(buf, binary.LittleEndian, uint32(headerSize+dirEntrySize))
	binary.Write(buf, binary.LittleEndian, uint32(4096)) // size past EOF

	path := filepath.Join(t.TempDir(), "bad.lod")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader, got %v", err)
	}
}

func TestOpen_DuplicateNames(t *testing.T) {
	buf := new(bytes.Buffer)
	buf.WriteString(lodMagic)
	binary.Write(buf, binary.LittleEndian, uint32(lodVersion))
	binary.Write(buf, binary.LittleEndian, uint32(2))

	dataOffset := uint32(headerSize + 2*dirEntrySize)
	for i := 0; i < 2; i++ {
		nameBytes := make([]byte, entryNameSize)
		copy(nameBytes, "Dup.Bin")
		if i == 1 {
			copy(nameBytes, "DUP.BIN") // same name after normalization
		}
		buf.Write(nameBytes)
		binary.Write(buf, binary.LittleEndian, dataOffset)
		binary.Write(buf, binary.LittleEndian, uint32(0))
	}

	path := filepath.Join(t.TempDir(), "bad.lod")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Open(path)
	if !errors.Is(err, ErrMalformedHeader) {
		t.Errorf("expected ErrMalformedHeader for duplicate names, got %v", err)
	}
}

func TestReadRaw_NoDecode(t *testing.T) {
	payload := []byte("raw bytes stay raw")
	path := filepath.Join(t.TempDir(), "test.lod")
	writeTestArchive(t, path, MethodZlib, map[string][]byte{"blob.bin": payload})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer archive.Close()

	raw, err := archive.ReadRaw("blob.bin")
	if err != nil {
		t.Fatalf("reading raw: %v", err)
	}

	// Raw span still carries the sub-header; decoding it yields the payload.
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("decoding raw span: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("decoded raw span does not match original payload")
	}

	if _, err := archive.ReadRaw("absent.bin"); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestEntry_Metadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.lod")
	writeTestArchive(t, path, MethodStored, map[string][]byte{"a.bin": []byte("abcd")})

	archive, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer archive.Close()

	entry, ok := archive.Entry("a.bin")
	if !ok {
		t.Fatal("Entry returned false for existing entry")
	}
	if entry.Size != uint32(subHeaderSize+4) {
		t.Errorf("expected entry size %d, got %d", subHeaderSize+4, entry.Size)
	}
	if entry.Offset < headerSize+dirEntrySize {
		t.Errorf("entry offset %d overlaps header/directory", entry.Offset)
	}
}
