// Package terrain synthesizes renderable meshes from decoded terrain grids.
package terrain

// Topology selects the primitive layout of a synthesized mesh.
type Topology int

// Supported topologies.
const (
	// TriangleList emits two triangles per terrain cell.
	TriangleList Topology = iota
	// LineList emits the four boundary edges per terrain cell.
	LineList
)

// String returns a human-readable topology name.
func (t Topology) String() string {
	switch t {
	case TriangleList:
		return "triangle-list"
	case LineList:
		return "line-list"
	default:
		return "unknown"
	}
}

// Vertex is one terrain mesh vertex. Plain value type, no engine coupling.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	TexCoord [2]float32
}

// Bounds holds the axis-aligned bounding box of the mesh.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Mesh holds synthesized vertex/index buffers ready for renderer upload.
// Indices form triangles for TriangleList and line segments for LineList.
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
	Topology Topology
	Bounds   Bounds
}

// QuadCount returns the number of terrain cells represented in the mesh.
func (m *Mesh) QuadCount() int {
	return len(m.Vertices) / 4
}
