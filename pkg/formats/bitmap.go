package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/draw"

	"golang.org/x/image/bmp"
)

// Bitmap format errors.
var (
	ErrTruncatedBitmap  = errors.New("truncated bitmap data")
	ErrInvalidImageSize = errors.New("invalid bitmap dimensions")
)

// paletteSize is 256 RGB triplets.
const paletteSize = 256 * 3

// DecodeBitmap decodes a tile bitmap payload to RGBA.
//
// Two pixel formats occur in the archives: the native palette-indexed
// format (width u16, height u16, 768-byte RGB palette, width*height
// indices), and plain BMP files left behind by repacking tools, which are
// recognized by their "BM" prefix.
func DecodeBitmap(data []byte) (*image.RGBA, error) {
	if len(data) >= 2 && data[0] == 'B' && data[1] == 'M' {
		return decodeBMP(data)
	}
	return decodeIndexed(data)
}

func decodeIndexed(data []byte) (*image.RGBA, error) {
	const headerSize = 4

	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", ErrTruncatedBitmap, len(data), headerSize)
	}

	width := int(binary.LittleEndian.Uint16(data[0:]))
	height := int(binary.LittleEndian.Uint16(data[2:]))
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, width, height)
	}

	paletteOffset := headerSize
	pixelOffset := paletteOffset + paletteSize
	pixelCount := width * height

	if pixelOffset > len(data) {
		return nil, fmt.Errorf("%w: palette at offset %d", ErrTruncatedBitmap, paletteOffset)
	}
	if pixelOffset+pixelCount > len(data) {
		return nil, fmt.Errorf("%w: %d pixel indices at offset %d", ErrTruncatedBitmap, pixelCount, pixelOffset)
	}

	palette := data[paletteOffset:pixelOffset]
	indices := data[pixelOffset : pixelOffset+pixelCount]

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i, idx := range indices {
		p := int(idx) * 3
		o := i * 4
		img.Pix[o] = palette[p]
		img.Pix[o+1] = palette[p+1]
		img.Pix[o+2] = palette[p+2]
		img.Pix[o+3] = 255
	}

	return img, nil
}

func decodeBMP(data []byte) (*image.RGBA, error) {
	decoded, err := bmp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedBitmap, err)
	}

	bounds := decoded.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImageSize, bounds.Dx(), bounds.Dy())
	}

	if rgba, ok := decoded.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), decoded, bounds.Min, draw.Src)
	return rgba, nil
}

// EncodeIndexedBitmap builds a palette-indexed bitmap payload. Used by the
// testdata generators and tests.
func EncodeIndexedBitmap(width, height int, palette [paletteSize]byte, indices []byte) ([]byte, error) {
	if len(indices) != width*height {
		return nil, fmt.Errorf("%w: %d indices for %dx%d", ErrInvalidImageSize, len(indices), width, height)
	}

	out := make([]byte, 4+paletteSize+len(indices))
	binary.LittleEndian.PutUint16(out[0:], uint16(width))
	binary.LittleEndian.PutUint16(out[2:], uint16(height))
	copy(out[4:], palette[:])
	copy(out[4+paletteSize:], indices)
	return out, nil
}
