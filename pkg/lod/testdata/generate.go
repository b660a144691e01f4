//go:build ignore

// This program generates a small test LOD file for manual inspection with
// lodtool. Run with: go run generate.go
package main

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"os"
)

const lodMagic = "LOD\x00"

func main() {
	// Test entries to include. Methods: 0 stored, 1 RLE, 2 zlib.
	entries := []struct {
		name    string
		method  uint16
		content []byte
	}{
		{"readme.txt", 0, []byte("Hello, LOD!")},
		{"oute3.odm", 2, fakeTerrain()},
		{"grass.bmp", 2, bytes.Repeat([]byte{1}, 4+768+64)},
		{"runlen.bin", 1, append(bytes.Repeat([]byte{0}, 300), 0xAB, 0xCD)},
	}

	var payloads [][]byte
	for _, e := range entries {
		payloads = append(payloads, encodeEntry(e.content, e.method))
	}

	f, err := os.Create("test.lod")
	if err != nil {
		panic(err)
	}
	defer f.Close()

	// Header: magic(4) + version(4) + entry count(4)
	f.WriteString(lodMagic)
	binary.Write(f, binary.LittleEndian, uint32(6))
	binary.Write(f, binary.LittleEndian, uint32(len(entries)))

	// Directory: name(16) + offset(4) + size(4) per entry
	offset := uint32(12 + 24*len(entries))
	for i, e := range entries {
		name := make([]byte, 16)
		copy(name, e.name)
		f.Write(name)
		binary.Write(f, binary.LittleEndian, offset)
		binary.Write(f, binary.LittleEndian, uint32(len(payloads[i])))
		offset += uint32(len(payloads[i]))
	}

	for _, p := range payloads {
		f.Write(p)
	}

	println("Generated test.lod with", len(entries), "entries")
}

// encodeEntry prepends the 10-byte sub-header and applies the method.
func encodeEntry(content []byte, method uint16) []byte {
	var body []byte
	switch method {
	case 0:
		body = content
	case 1:
		body = rleEncode(content)
	case 2:
		var compressed bytes.Buffer
		w := zlib.NewWriter(&compressed)
		w.Write(content)
		w.Close()
		body = compressed.Bytes()
	default:
		panic("unknown method")
	}

	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, uint32(len(content)))
	binary.Write(buf, binary.LittleEndian, uint32(len(body)))
	binary.Write(buf, binary.LittleEndian, method)
	buf.Write(body)
	return buf.Bytes()
}

// rleEncode emits the zero-run scheme: nonzero bytes pass through as
// literals, a 0x00 marker plus count byte stands for a run of zeros.
func rleEncode(data []byte) []byte {
	var out []byte
	for i := 0; i < len(data); {
		if data[i] != 0 {
			out = append(out, data[i])
			i++
			continue
		}
		run := 0
		for i+run < len(data) && data[i+run] == 0 && run < 255 {
			run++
		}
		out = append(out, 0, byte(run))
		i += run
	}
	return out
}

// fakeTerrain builds a full 128x128 terrain blob with a gentle slope.
func fakeTerrain() []byte {
	const dim = 128
	buf := new(bytes.Buffer)
	buf.WriteString("ODM2")
	binary.Write(buf, binary.LittleEndian, uint32(2))
	binary.Write(buf, binary.LittleEndian, uint32(dim))
	binary.Write(buf, binary.LittleEndian, uint32(dim))

	for y := 0; y < dim; y++ {
		for x := 0; x < dim; x++ {
			buf.WriteByte(byte((x + y) / 16))
		}
	}
	cells := (dim - 1) * (dim - 1)
	buf.Write(make([]byte, cells)) // tile 0 everywhere
	buf.Write(make([]byte, cells)) // no attribute flags
	return buf.Bytes()
}
