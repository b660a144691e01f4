package lod

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Entry encoding errors.
var (
	ErrTruncatedEntry    = errors.New("truncated entry")
	ErrSizeMismatch      = errors.New("entry size mismatch")
	ErrUnsupportedMethod = errors.New("unsupported compression method")
	ErrCorruptStream     = errors.New("corrupt compressed stream")
)

// Method identifies the compression scheme of an entry body.
type Method uint16

// Compression methods.
const (
	MethodStored Method = 0 // body is the payload verbatim
	MethodRLE    Method = 1 // zero-run RLE
	MethodZlib   Method = 2 // zlib deflate stream
)

// String returns a human-readable method name.
func (m Method) String() string {
	switch m {
	case MethodStored:
		return "stored"
	case MethodRLE:
		return "rle"
	case MethodZlib:
		return "zlib"
	default:
		return fmt.Sprintf("unknown(%d)", uint16(m))
	}
}

// subHeaderSize is the fixed size of the per-entry sub-header:
// uncompressed size (4), compressed size (4), method (2).
const subHeaderSize = 10

// Decode validates an entry's sub-header and returns the decoded payload.
// Any short read, length mismatch or unknown method is a hard error; the
// payload is never truncated or padded.
func Decode(raw []byte) ([]byte, error) {
	if len(raw) < subHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for sub-header", ErrTruncatedEntry, len(raw), subHeaderSize)
	}

	uncompressedSize := binary.LittleEndian.Uint32(raw[0:])
	compressedSize := binary.LittleEndian.Uint32(raw[4:])
	method := Method(binary.LittleEndian.Uint16(raw[8:]))

	body := raw[subHeaderSize:]
	if uint64(len(body)) < uint64(compressedSize) {
		return nil, fmt.Errorf("%w: body has %d bytes, sub-header declares %d",
			ErrTruncatedEntry, len(body), compressedSize)
	}
	body = body[:compressedSize]

	switch method {
	case MethodStored:
		if compressedSize != uncompressedSize {
			return nil, fmt.Errorf("%w: stored entry declares compressed %d, uncompressed %d",
				ErrSizeMismatch, compressedSize, uncompressedSize)
		}
		out := make([]byte, uncompressedSize)
		copy(out, body)
		return out, nil

	case MethodRLE:
		out, err := decodeRLE(body, int(uncompressedSize))
		if err != nil {
			return nil, err
		}
		return out, nil

	case MethodZlib:
		reader, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
		}
		defer reader.Close()

		out := make([]byte, uncompressedSize)
		if _, err := io.ReadFull(reader, out); err != nil {
			return nil, fmt.Errorf("%w: stream shorter than declared %d bytes",
				ErrSizeMismatch, uncompressedSize)
		}
		// One extra byte would mean the stream is longer than declared.
		var extra [1]byte
		if n, _ := reader.Read(extra[:]); n != 0 {
			return nil, fmt.Errorf("%w: stream longer than declared %d bytes",
				ErrSizeMismatch, uncompressedSize)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, uint16(method))
	}
}

// decodeRLE expands the legacy zero-run scheme:
// 0x00 0xNN emits NN zeros, 0x00 0x00 a single zero, anything else a literal.
func decodeRLE(body []byte, targetSize int) ([]byte, error) {
	out := make([]byte, 0, targetSize)

	for i := 0; i < len(body); {
		b := body[i]
		i++

		if b != 0 {
			out = append(out, b)
			continue
		}

		if i >= len(body) {
			return nil, fmt.Errorf("%w: dangling zero marker", ErrCorruptStream)
		}
		count := int(body[i])
		i++
		if count == 0 {
			count = 1
		}
		for j := 0; j < count; j++ {
			out = append(out, 0)
		}
	}

	if len(out) != targetSize {
		return nil, fmt.Errorf("%w: rle expanded to %d bytes, declared %d",
			ErrSizeMismatch, len(out), targetSize)
	}
	return out, nil
}

// Encode produces an entry payload (sub-header + body) using the given
// method. The reader never calls this; it exists for tests and the
// testdata generator.
func Encode(data []byte, method Method) ([]byte, error) {
	var body []byte

	switch method {
	case MethodStored:
		body = data

	case MethodRLE:
		body = encodeRLE(data)

	case MethodZlib:
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		body = buf.Bytes()

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedMethod, uint16(method))
	}

	out := make([]byte, subHeaderSize+len(body))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(body)))
	binary.LittleEndian.PutUint16(out[8:], uint16(method))
	copy(out[subHeaderSize:], body)
	return out, nil
}

func encodeRLE(data []byte) []byte {
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
