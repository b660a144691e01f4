// Package loader runs the full asset decoding and mesh synthesis pipeline.
package loader

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/openlod/internal/atlas"
	"github.com/Faultbox/openlod/internal/logger"
	"github.com/Faultbox/openlod/internal/terrain"
	"github.com/Faultbox/openlod/pkg/formats"
	"github.com/Faultbox/openlod/pkg/lod"
)

// tileTableEntry is the fixed name of the tile-definition blob.
const tileTableEntry = "dtile.bin"

// Sources names the three archives the pipeline reads.
type Sources struct {
	TerrainArchive   string // holds <map>.odm entries
	TileTableArchive string // holds dtile.bin
	BitmapArchive    string // holds per-tile bitmaps
}

// MapAssets is the complete output of one load: everything the renderer
// needs, nothing partial. The atlas image must be sampled clamp-to-edge.
type MapAssets struct {
	Name    string
	Terrain *formats.ODM
	Atlas   *atlas.Atlas
	Solid   *terrain.Mesh
	Wire    *terrain.Mesh
}

// Load decodes a named map from the configured archives and synthesizes
// its meshes. The whole pipeline is all-or-nothing: any stage failure
// aborts the load and is returned wrapped with the stage and entry that
// failed. Archive handles are released before Load returns, on every path.
func Load(ctx context.Context, src Sources, mapName string) (*MapAssets, error) {
	start := time.Now()

	terrainArchive, err := lod.Open(src.TerrainArchive)
	if err != nil {
		return nil, fmt.Errorf("terrain archive %s: %w", src.TerrainArchive, err)
	}
	defer terrainArchive.Close()

	tableArchive, err := lod.Open(src.TileTableArchive)
	if err != nil {
		return nil, fmt.Errorf("tile table archive %s: %w", src.TileTableArchive, err)
	}
	defer tableArchive.Close()

	bitmapArchive, err := lod.Open(src.BitmapArchive)
	if err != nil {
		return nil, fmt.Errorf("bitmap archive %s: %w", src.BitmapArchive, err)
	}
	defer bitmapArchive.Close()

	terrainEntry := mapName + ".odm"
	terrainData, err := terrainArchive.Read(terrainEntry)
	if err != nil {
		return nil, fmt.Errorf("terrain archive entry %q: %w", terrainEntry, err)
	}
	odm, err := formats.ParseODM(terrainData)
	if err != nil {
		return nil, fmt.Errorf("terrain archive entry %q: %w", terrainEntry, err)
	}

	min, max := odm.AltitudeRange()
	logger.Debug("terrain decoded",
		zap.String("map", mapName),
		zap.Int("width", odm.Width),
		zap.Int("height", odm.Height),
		zap.Uint8("min_altitude", min),
		zap.Uint8("max_altitude", max),
		zap.Int("distinct_tiles", len(odm.DistinctTiles())))

	tableData, err := tableArchive.Read(tileTableEntry)
	if err != nil {
		return nil, fmt.Errorf("tile table entry %q: %w", tileTableEntry, err)
	}
	table, err := formats.ParseTileTable(tableData)
	if err != nil {
		return nil, fmt.Errorf("tile table entry %q: %w", tileTableEntry, err)
	}

	packed, err := atlas.Build(ctx, table, bitmapArchive)
	if err != nil {
		return nil, fmt.Errorf("atlas build: %w", err)
	}
	logger.Debug("atlas packed",
		zap.Int("tiles", table.Len()),
		zap.Int("grid_dim", packed.GridDim),
		zap.Int("width", packed.Image.Bounds().Dx()),
		zap.Int("height", packed.Image.Bounds().Dy()))

	resolution, err := terrain.NewResolutionContext(table, packed)
	if err != nil {
		return nil, fmt.Errorf("tile resolution: %w", err)
	}
	if err := resolution.ValidateGrid(odm); err != nil {
		return nil, fmt.Errorf("terrain archive entry %q: %w", terrainEntry, err)
	}

	solid, err := terrain.Synthesize(odm, resolution, terrain.TriangleList)
	if err != nil {
		return nil, fmt.Errorf("mesh synthesis: %w", err)
	}
	wire, err := terrain.Synthesize(odm, resolution, terrain.LineList)
	if err != nil {
		return nil, fmt.Errorf("wireframe synthesis: %w", err)
	}

	logger.Info("map loaded",
		zap.String("map", mapName),
		zap.Int("quads", solid.QuadCount()),
		zap.Int("vertices", len(solid.Vertices)),
		zap.Duration("elapsed", time.Since(start)))

	return &MapAssets{
		Name:    mapName,
		Terrain: odm,
		Atlas:   packed,
		Solid:   solid,
		Wire:    wire,
	}, nil
}
