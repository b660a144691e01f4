package terrain

import (
	"errors"
	"fmt"

	"github.com/Faultbox/openlod/internal/atlas"
	"github.com/Faultbox/openlod/pkg/formats"
)

// Resolution errors.
var (
	ErrUnresolvedTile = errors.New("unresolved tile id")
)

// ResolutionContext binds the tile id space shared by the tile table and
// the atlas. The terrain grid, the table and the atlas are decoded from
// three independent blobs; this context makes their implicit coupling
// explicit and is the single authority for id lookups during synthesis.
type ResolutionContext struct {
	table      *formats.TileTable
	placements map[uint16]atlas.Placement
}

// NewResolutionContext builds a context from a tile table and the atlas
// packed from it. Every table tile must have an atlas placement.
func NewResolutionContext(table *formats.TileTable, a *atlas.Atlas) (*ResolutionContext, error) {
	for _, rec := range table.Records {
		if _, ok := a.Placement(rec.ID); !ok {
			return nil, fmt.Errorf("%w: tile %d (%s) has no atlas placement",
				ErrUnresolvedTile, rec.ID, rec.BitmapName)
		}
	}
	return &ResolutionContext{
		table:      table,
		placements: a.Placements,
	}, nil
}

// Resolve returns the atlas placement for a grid tile id.
// The no-terrain sentinel never resolves.
func (c *ResolutionContext) Resolve(id uint8) (atlas.Placement, bool) {
	if id == formats.NoTileSentinel {
		return atlas.Placement{}, false
	}
	p, ok := c.placements[uint16(id)]
	return p, ok
}

// ValidateGrid checks that every non-sentinel cell tile id in the grid
// resolves against the context. Run before synthesis so a bad id fails the
// load, not the render.
func (c *ResolutionContext) ValidateGrid(odm *formats.ODM) error {
	for cy := 0; cy < odm.CellsY(); cy++ {
		for cx := 0; cx < odm.CellsX(); cx++ {
			id := odm.TileAt(cx, cy)
			if id == formats.NoTileSentinel {
				continue
			}
			if _, ok := c.Resolve(id); !ok {
				return fmt.Errorf("%w: cell (%d, %d) references tile %d", ErrUnresolvedTile, cx, cy, id)
			}
		}
	}
	return nil
}
