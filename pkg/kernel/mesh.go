package kernel

import v3 "github.com/deadsy/sdfx/vec/v3"

// Mesh is a triangle mesh handed to the viewer.
// All arrays are flat: vertices has 3 floats per vertex (x,y,z),
// normals has 3 floats per vertex, indices has 3 uint32s per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...] triangles
	PartName string    `json:"partName"` // graph node the mesh was built from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Append copies the triangles of o into m, offsetting its indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, idx := range o.Indices {
		m.Indices = append(m.Indices, base+idx)
	}
}

// AddGrid triangulates a rows x cols grid of points, two triangles per
// quad. Vertex normals are the normalized sum of the adjacent face normals.
func (m *Mesh) AddGrid(grid [][]v3.Vec) {
	rows := len(grid)
	if rows < 2 || len(grid[0]) < 2 {
		return
	}
	cols := len(grid[0])
	base := uint32(m.VertexCount())
	normals := make([]v3.Vec, rows*cols)
	at := func(i, j int) uint32 { return uint32(i*cols + j) }

	var tris []uint32
	for i := 0; i+1 < rows; i++ {
		for j := 0; j+1 < cols; j++ {
			quad := [2][3]uint32{
				{at(i, j), at(i+1, j), at(i+1, j+1)},
				{at(i, j), at(i+1, j+1), at(i, j+1)},
			}
			for _, tri := range quad {
				p0 := grid[tri[0]/uint32(cols)][tri[0]%uint32(cols)]
				p1 := grid[tri[1]/uint32(cols)][tri[1]%uint32(cols)]
				p2 := grid[tri[2]/uint32(cols)][tri[2]%uint32(cols)]
				n := p1.Sub(p0).Cross(p2.Sub(p0))
				if n.Length2() == 0 {
					continue
				}
				for _, idx := range tri {
					normals[idx] = normals[idx].Add(n)
				}
				tris = append(tris, tri[0], tri[1], tri[2])
			}
		}
	}

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			p := grid[i][j]
			n := normals[at(i, j)]
			if n.Length2() > 0 {
				n = n.Normalize()
			}
			m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
			m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
	}
	for _, idx := range tris {
		m.Indices = append(m.Indices, base+idx)
	}
}
