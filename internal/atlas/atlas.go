// Package atlas composites per-tile bitmaps into one packed texture atlas.
package atlas

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/openlod/pkg/formats"
	"github.com/Faultbox/openlod/pkg/lod"
)

// Atlas build errors.
var (
	ErrMissingBitmap     = errors.New("missing bitmap reference")
	ErrDimensionMismatch = errors.New("bitmap dimension mismatch")
	ErrEmptyAtlas        = errors.New("no tiles to pack")
)

// decodeWorkers bounds the parallel bitmap decode fan-out.
const decodeWorkers = 8

// Placement locates one tile inside the atlas in normalized UV space.
// Origin and extent carry a half-texel inset on every side so bilinear
// sampling at tile boundaries cannot bleed into neighboring slots.
type Placement struct {
	OriginU float32
	OriginV float32
	ExtentU float32
	ExtentV float32
}

// Atlas holds the packed RGBA image and per-tile placements.
//
// Downstream contract: the atlas texture must be sampled with clamp-to-edge
// addressing; repeat modes break the slot bookkeeping at the outer border.
type Atlas struct {
	Image      *image.RGBA
	TileWidth  int
	TileHeight int
	GridDim    int // slots per atlas side
	Placements map[uint16]Placement
}

// Placement returns the atlas placement for a tile id.
func (a *Atlas) Placement(id uint16) (Placement, bool) {
	p, ok := a.Placements[id]
	return p, ok
}

// Build composites every bitmap referenced by the tile table into a single
// packed atlas. Tiles take slots in table order, row-major, so output is
// deterministic. Bitmap decoding fans out across workers; everything else
// is sequential.
func Build(ctx context.Context, table *formats.TileTable, bitmaps *lod.Archive) (*Atlas, error) {
	if table.Len() == 0 {
		return nil, ErrEmptyAtlas
	}

	images := make([]*image.RGBA, table.Len())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(decodeWorkers)

	// Archive reads use ReadAt and are safe concurrently; each worker writes
	// only its own slice slot.
	for i := range table.Records {
		rec := table.Records[i]
		idx := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			raw, err := bitmaps.Read(rec.BitmapName)
			if err != nil {
				if errors.Is(err, lod.ErrEntryNotFound) {
					return fmt.Errorf("%w: tile %d references %q", ErrMissingBitmap, rec.ID, rec.BitmapName)
				}
				return fmt.Errorf("tile %d bitmap %q: %w", rec.ID, rec.BitmapName, err)
			}

			img, err := formats.DecodeBitmap(raw)
			if err != nil {
				return fmt.Errorf("tile %d bitmap %q: %w", rec.ID, rec.BitmapName, err)
			}
			images[idx] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// All tile bitmaps must share one size; the format guarantees it and the
	// uniform slot grid depends on it.
	tileW := images[0].Bounds().Dx()
	tileH := images[0].Bounds().Dy()
	for i := 1; i < len(images); i++ {
		w, h := images[i].Bounds().Dx(), images[i].Bounds().Dy()
		if w != tileW || h != tileH {
			return nil, fmt.Errorf("%w: tile %d is %dx%d, tile %d is %dx%d",
				ErrDimensionMismatch,
				table.Records[0].ID, tileW, tileH,
				table.Records[i].ID, w, h)
		}
	}

	gridDim := nextPow2(int(math.Ceil(math.Sqrt(float64(table.Len())))))
	atlasW := gridDim * tileW
	atlasH := gridDim * tileH

	out := &Atlas{
		Image:      image.NewRGBA(image.Rect(0, 0, atlasW, atlasH)),
		TileWidth:  tileW,
		TileHeight: tileH,
		GridDim:    gridDim,
		Placements: make(map[uint16]Placement, table.Len()),
	}

	for i, rec := range table.Records {
		col := i % gridDim
		row := i / gridDim
		x0 := col * tileW
		y0 := row * tileH

		dst := image.Rect(x0, y0, x0+tileW, y0+tileH)
		draw.Copy(out.Image, dst.Min, images[i], images[i].Bounds(), draw.Src, nil)

		out.Placements[rec.ID] = Placement{
			OriginU: (float32(x0) + 0.5) / float32(atlasW),
			OriginV: (float32(y0) + 0.5) / float32(atlasH),
			ExtentU: (float32(tileW) - 1.0) / float32(atlasW),
			ExtentV: (float32(tileH) - 1.0) / float32(atlasH),
		}
	}

	return out, nil
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
