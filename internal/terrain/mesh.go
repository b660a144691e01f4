package terrain

import (
	"fmt"
	"math"

	"github.com/Faultbox/openlod/pkg/formats"
)

// Synthesize builds a mesh from a decoded terrain grid and a resolution
// context. Cells carrying the no-terrain sentinel are skipped entirely: no
// vertices, no indices, never degenerate triangles.
//
// Vertices are emitted per cell (four per emitted cell, not shared) so each
// cell carries its own tile UVs. Normals are smooth: the flat normal of
// every emitted cell is accumulated at its four grid vertices, normalized,
// and assigned back to the cell corners. Iteration is row-major, so
// identical inputs produce byte-identical buffers.
func Synthesize(odm *formats.ODM, ctx *ResolutionContext, topo Topology) (*Mesh, error) {
	cellsX := odm.CellsX()
	cellsY := odm.CellsY()

	// World-space corner position of grid vertex (x, y).
	position := func(x, y int) [3]float32 {
		return [3]float32{
			float32(x) * formats.CellSize,
			float32(odm.HeightAt(x, y)) * formats.HeightScale,
			float32(y) * formats.CellSize,
		}
	}

	normals := gridNormals(odm, position)

	mesh := &Mesh{
		Topology: topo,
		Bounds: Bounds{
			Min: [3]float32{1e10, 1e10, 1e10},
			Max: [3]float32{-1e10, -1e10, -1e10},
		},
	}

	for cy := 0; cy < cellsY; cy++ {
		for cx := 0; cx < cellsX; cx++ {
			id := odm.TileAt(cx, cy)
			if id == formats.NoTileSentinel {
				continue
			}

			placement, ok := ctx.Resolve(id)
			if !ok {
				return nil, fmt.Errorf("%w: cell (%d, %d) references tile %d", ErrUnresolvedTile, cx, cy, id)
			}

			// Corner order: (x,y), (x+1,y), (x,y+1), (x+1,y+1).
			corners := [4][2]int{{cx, cy}, {cx + 1, cy}, {cx, cy + 1}, {cx + 1, cy + 1}}
			uvs := [4][2]float32{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

			base := uint32(len(mesh.Vertices))
			for i, c := range corners {
				pos := position(c[0], c[1])
				updateBounds(&mesh.Bounds, pos)

				mesh.Vertices = append(mesh.Vertices, Vertex{
					Position: pos,
					Normal:   normals[c[1]*odm.Width+c[0]],
					TexCoord: [2]float32{
						placement.OriginU + placement.ExtentU*uvs[i][0],
						placement.OriginV + placement.ExtentV*uvs[i][1],
					},
				})
			}

			switch topo {
			case TriangleList:
				// CCW viewed from +Y.
				mesh.Indices = append(mesh.Indices,
					base, base+2, base+1,
					base+1, base+2, base+3,
				)
			case LineList:
				// Four boundary edges, no diagonal.
				mesh.Indices = append(mesh.Indices,
					base, base+1,
					base+1, base+3,
					base+3, base+2,
					base+2, base,
				)
			}
		}
	}

	if len(mesh.Vertices) == 0 {
		mesh.Bounds = Bounds{}
	}

	return mesh, nil
}

// gridNormals computes one smooth normal per grid vertex by averaging the
// flat normals of all adjacent emitted cells. Vertices touching no emitted
// cell keep an up normal.
func gridNormals(odm *formats.ODM, position func(x, y int) [3]float32) [][3]float32 {
	sums := make([][3]float32, odm.Width*odm.Height)

	for cy := 0; cy < odm.CellsY(); cy++ {
		for cx := 0; cx < odm.CellsX(); cx++ {
			if odm.TileAt(cx, cy) == formats.NoTileSentinel {
				continue
			}

			p00 := position(cx, cy)
			p10 := position(cx+1, cy)
			p01 := position(cx, cy+1)

			edgeX := sub(p10, p00)
			edgeZ := sub(p01, p00)
			flat := normalize(cross(edgeZ, edgeX)) // +Y for flat cells

			for _, c := range [4][2]int{{cx, cy}, {cx + 1, cy}, {cx, cy + 1}, {cx + 1, cy + 1}} {
				idx := c[1]*odm.Width + c[0]
				sums[idx][0] += flat[0]
				sums[idx][1] += flat[1]
				sums[idx][2] += flat[2]
			}
		}
	}

	for i := range sums {
		sums[i] = normalize(sums[i])
	}
	return sums
}

func updateBounds(b *Bounds, p [3]float32) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func normalize(v [3]float32) [3]float32 {
	length := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if length < 1e-6 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{v[0] / length, v[1] / length, v[2] / length}
}
