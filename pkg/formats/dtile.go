package formats

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// Tile table format errors.
var (
	ErrTruncatedTable = errors.New("truncated tile table")
	ErrEmptyTable     = errors.New("empty tile table")
	ErrDuplicateTile  = errors.New("duplicate tile id")
	ErrInvalidTile    = errors.New("invalid tile record")
)

// TileCategory classifies a tile's role on the terrain.
type TileCategory uint16

// Tile categories.
const (
	TileBase    TileCategory = 0 // base terrain texture
	TileOverlay TileCategory = 1 // decorative overlay
	TileWater   TileCategory = 2
	TileRoad    TileCategory = 3
)

// String returns a human-readable category name.
func (c TileCategory) String() string {
	switch c {
	case TileBase:
		return "Base"
	case TileOverlay:
		return "Overlay"
	case TileWater:
		return "Water"
	case TileRoad:
		return "Road"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(c))
	}
}

// tileRecordSize is the fixed width of one table record:
// bitmap name (16), tile id (2), category (2).
const tileRecordSize = 20

// TileRecord maps one tile id to its source bitmap.
type TileRecord struct {
	BitmapName string
	ID         uint16
	Category   TileCategory
}

// TileTable holds the tile-definition table in file order.
type TileTable struct {
	Records []TileRecord
	byID    map[uint16]int
}

// Len returns the number of table records.
func (t *TileTable) Len() int {
	return len(t.Records)
}

// Lookup returns the record for a tile id.
func (t *TileTable) Lookup(id uint16) (*TileRecord, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, false
	}
	return &t.Records[idx], true
}

// Contains checks if a tile id is defined.
func (t *TileTable) Contains(id uint16) bool {
	_, ok := t.byID[id]
	return ok
}

// CountByCategory returns the count of records for each category.
func (t *TileTable) CountByCategory() map[TileCategory]int {
	counts := make(map[TileCategory]int)
	for _, rec := range t.Records {
		counts[rec.Category]++
	}
	return counts
}

// ParseTileTable parses a tile-definition payload of fixed-width records.
// Record order is preserved; it determines atlas slot assignment.
func ParseTileTable(data []byte) (*TileTable, error) {
	if len(data) == 0 {
		return nil, ErrEmptyTable
	}
	if len(data)%tileRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of record size %d",
			ErrTruncatedTable, len(data), tileRecordSize)
	}

	count := len(data) / tileRecordSize
	table := &TileTable{
		Records: make([]TileRecord, 0, count),
		byID:    make(map[uint16]int, count),
	}

	for i := 0; i < count; i++ {
		rec := data[i*tileRecordSize : (i+1)*tileRecordSize]

		name := rec[:16]
		if idx := bytes.IndexByte(name, 0); idx >= 0 {
			name = name[:idx]
		}
		if len(name) == 0 {
			return nil, fmt.Errorf("%w: record %d has empty bitmap name", ErrInvalidTile, i)
		}

		record := TileRecord{
			BitmapName: string(name),
			ID:         binary.LittleEndian.Uint16(rec[16:]),
			Category:   TileCategory(binary.LittleEndian.Uint16(rec[18:])),
		}
		if record.Category > TileRoad {
			return nil, fmt.Errorf("%w: record %d has category %d", ErrInvalidTile, i, record.Category)
		}
		if _, exists := table.byID[record.ID]; exists {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateTile, record.ID)
		}

		table.byID[record.ID] = len(table.Records)
		table.Records = append(table.Records, record)
	}

	return table, nil
}
