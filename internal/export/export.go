// Package export writes pipeline artifacts to disk for renderer-less use.
package export

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/Faultbox/openlod/internal/terrain"
)

// WriteAtlasPNG writes the packed atlas image as a PNG file.
func WriteAtlasPNG(path string, img *image.RGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}

// WriteMeshOBJ writes a synthesized mesh as a Wavefront OBJ file.
// Triangle-list meshes become faces, line-list meshes become line elements.
func WriteMeshOBJ(path string, mesh *terrain.Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "v %g %g %g\n", v.Position[0], v.Position[1], v.Position[2])
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "vt %g %g\n", v.TexCoord[0], 1-v.TexCoord[1])
	}
	for _, v := range mesh.Vertices {
		fmt.Fprintf(w, "vn %g %g %g\n", v.Normal[0], v.Normal[1], v.Normal[2])
	}

	switch mesh.Topology {
	case terrain.TriangleList:
		for i := 0; i+2 < len(mesh.Indices); i += 3 {
			// OBJ indices are 1-based.
			a := mesh.Indices[i] + 1
			b := mesh.Indices[i+1] + 1
			c := mesh.Indices[i+2] + 1
			fmt.Fprintf(w, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", a, a, a, b, b, b, c, c, c)
		}
	case terrain.LineList:
		for i := 0; i+1 < len(mesh.Indices); i += 2 {
			fmt.Fprintf(w, "l %d %d\n", mesh.Indices[i]+1, mesh.Indices[i+1]+1)
		}
	default:
		return fmt.Errorf("unsupported topology %v", mesh.Topology)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
