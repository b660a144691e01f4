// Package formats provides parsers for the legacy game's binary asset formats.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ODM format errors.
var (
	ErrInvalidODMMagic       = errors.New("invalid ODM magic: expected 'ODM2'")
	ErrUnsupportedODMVersion = errors.New("unsupported ODM version")
	ErrTruncatedGrid         = errors.New("truncated terrain grid")
	ErrDimensionMismatch     = errors.New("terrain dimension mismatch")
)

// Terrain grid dimensions are fixed by the format; the file header merely
// restates them.
const (
	ODMGridWidth  = 128
	ODMGridHeight = 128
)

// World-space scale contract of the format.
const (
	// HeightScale converts a raw height sample to world-space elevation.
	HeightScale = 32.0
	// CellSize is the world-space edge length of one terrain cell.
	CellSize = 512.0
)

// NoTileSentinel marks a cell with no terrain. Such cells are skipped by
// mesh synthesis and are exempt from tile resolution.
const NoTileSentinel uint8 = 0xFF

const odmVersion = 2

// CellAttribute holds per-cell terrain flags.
type CellAttribute uint8

// Attribute bits.
const (
	AttrImpassable CellAttribute = 1 << 0
	AttrWater      CellAttribute = 1 << 1
	AttrRoad       CellAttribute = 1 << 2
)

// IsImpassable returns true if the cell blocks movement.
func (a CellAttribute) IsImpassable() bool { return a&AttrImpassable != 0 }

// IsWater returns true if the cell is covered by water.
func (a CellAttribute) IsWater() bool { return a&AttrWater != 0 }

// IsRoad returns true if the cell carries a road overlay.
func (a CellAttribute) IsRoad() bool { return a&AttrRoad != 0 }

// String returns a human-readable attribute summary.
func (a CellAttribute) String() string {
	if a == 0 {
		return "Plain"
	}
	s := ""
	if a.IsImpassable() {
		s += "+Impassable"
	}
	if a.IsWater() {
		s += "+Water"
	}
	if a.IsRoad() {
		s += "+Road"
	}
	if rest := a &^ (AttrImpassable | AttrWater | AttrRoad); rest != 0 {
		s += fmt.Sprintf("+Unknown(0x%02x)", uint8(rest))
	}
	return s[1:]
}

// ODM represents a parsed outdoor terrain map.
type ODM struct {
	Version uint32
	Width   int // grid vertices per row
	Height  int // grid vertices per column

	// Heights holds Width*Height raw per-vertex elevation samples.
	Heights []uint8
	// TileIDs holds (Width-1)*(Height-1) per-cell tile identifiers.
	TileIDs []uint8
	// Attributes holds (Width-1)*(Height-1) per-cell flags.
	Attributes []CellAttribute
}

// CellsX returns the number of cells per row.
func (o *ODM) CellsX() int { return o.Width - 1 }

// CellsY returns the number of cells per column.
func (o *ODM) CellsY() int { return o.Height - 1 }

// HeightAt returns the raw height sample at grid vertex (x, y).
// Out-of-range coordinates return 0.
func (o *ODM) HeightAt(x, y int) uint8 {
	if x < 0 || y < 0 || x >= o.Width || y >= o.Height {
		return 0
	}
	return o.Heights[y*o.Width+x]
}

// TileAt returns the tile id of cell (cx, cy).
// Out-of-range coordinates return the no-terrain sentinel.
func (o *ODM) TileAt(cx, cy int) uint8 {
	if cx < 0 || cy < 0 || cx >= o.CellsX() || cy >= o.CellsY() {
		return NoTileSentinel
	}
	return o.TileIDs[cy*o.CellsX()+cx]
}

// AttributeAt returns the attribute flags of cell (cx, cy).
func (o *ODM) AttributeAt(cx, cy int) CellAttribute {
	if cx < 0 || cy < 0 || cx >= o.CellsX() || cy >= o.CellsY() {
		return 0
	}
	return o.Attributes[cy*o.CellsX()+cx]
}

// WorldHeight returns the bilinearly interpolated world-space elevation at
// world coordinates (wx, wz).
func (o *ODM) WorldHeight(wx, wz float32) float32 {
	fx := wx / CellSize
	fz := wz / CellSize

	x := int(fx)
	z := int(fz)
	if x < 0 {
		x = 0
	}
	if z < 0 {
		z = 0
	}
	if x > o.Width-2 {
		x = o.Width - 2
	}
	if z > o.Height-2 {
		z = o.Height - 2
	}

	tx := fx - float32(x)
	tz := fz - float32(z)
	if tx < 0 {
		tx = 0
	} else if tx > 1 {
		tx = 1
	}
	if tz < 0 {
		tz = 0
	} else if tz > 1 {
		tz = 1
	}

	h00 := float32(o.HeightAt(x, z))
	h10 := float32(o.HeightAt(x+1, z))
	h01 := float32(o.HeightAt(x, z+1))
	h11 := float32(o.HeightAt(x+1, z+1))

	top := h00 + (h10-h00)*tx
	bottom := h01 + (h11-h01)*tx
	return (top + (bottom-top)*tz) * HeightScale
}

// AltitudeRange returns the minimum and maximum raw height samples.
func (o *ODM) AltitudeRange() (min, max uint8) {
	if len(o.Heights) == 0 {
		return 0, 0
	}
	min, max = o.Heights[0], o.Heights[0]
	for _, h := range o.Heights {
		if h < min {
			min = h
		}
		if h > max {
			max = h
		}
	}
	return min, max
}

// CountByAttribute returns the count of cells for each attribute value.
func (o *ODM) CountByAttribute() map[CellAttribute]int {
	counts := make(map[CellAttribute]int)
	for _, a := range o.Attributes {
		counts[a]++
	}
	return counts
}

// DistinctTiles returns the set of non-sentinel tile ids used by the grid.
func (o *ODM) DistinctTiles() []uint8 {
	seen := [256]bool{}
	for _, id := range o.TileIDs {
		seen[id] = true
	}
	var tiles []uint8
	for id := 0; id < 256; id++ {
		if seen[id] && uint8(id) != NoTileSentinel {
			tiles = append(tiles, uint8(id))
		}
	}
	return tiles
}

// ParseODM parses an ODM terrain payload from raw (entry-decoded) bytes.
// The walk is fixed-order, fixed-offset: header, height samples, tile ids,
// attributes. Any region falling outside the payload is ErrTruncatedGrid.
func ParseODM(data []byte) (*ODM, error) {
	const headerSize = 16

	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: %d bytes, need %d for header", ErrTruncatedGrid, len(data), headerSize)
	}

	if string(data[0:4]) != "ODM2" {
		return nil, ErrInvalidODMMagic
	}

	version := binary.LittleEndian.Uint32(data[4:])
	if version != odmVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedODMVersion, version)
	}

	width := binary.LittleEndian.Uint32(data[8:])
	height := binary.LittleEndian.Uint32(data[12:])
	if width != ODMGridWidth || height != ODMGridHeight {
		return nil, fmt.Errorf("%w: header declares %dx%d, format requires %dx%d",
			ErrDimensionMismatch, width, height, ODMGridWidth, ODMGridHeight)
	}

	odm := &ODM{
		Version: version,
		Width:   int(width),
		Height:  int(height),
	}

	heightCount := odm.Width * odm.Height
	cellCount := odm.CellsX() * odm.CellsY()

	offset := headerSize
	if offset+heightCount > len(data) {
		return nil, fmt.Errorf("%w: height samples at offset %d", ErrTruncatedGrid, offset)
	}
	odm.Heights = make([]uint8, heightCount)
	copy(odm.Heights, data[offset:offset+heightCount])
	offset += heightCount

	if offset+cellCount > len(data) {
		return nil, fmt.Errorf("%w: tile ids at offset %d", ErrTruncatedGrid, offset)
	}
	odm.TileIDs = make([]uint8, cellCount)
	copy(odm.TileIDs, data[offset:offset+cellCount])
	offset += cellCount

	if offset+cellCount > len(data) {
		return nil, fmt.Errorf("%w: attributes at offset %d", ErrTruncatedGrid, offset)
	}
	odm.Attributes = make([]CellAttribute, cellCount)
	for i := 0; i < cellCount; i++ {
		odm.Attributes[i] = CellAttribute(data[offset+i])
	}

	return odm, nil
}
