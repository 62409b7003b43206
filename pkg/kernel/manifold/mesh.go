package manifold

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/spar/pkg/kernel"
)

// meshFromProperties builds a kernel.Mesh from MeshGL data: numProp floats
// per vertex, position first and, when numProp >= 6, the normal next.
// Without normals each vertex gets the normalized sum of its face normals.
func meshFromProperties(props []float32, numProp int, tris []uint32) (*kernel.Mesh, error) {
	if numProp < 3 {
		return nil, fmt.Errorf("manifold: %d vertex properties, need at least 3", numProp)
	}
	if len(props)%numProp != 0 {
		return nil, fmt.Errorf("manifold: %d properties do not divide into %d per vertex", len(props), numProp)
	}
	n := len(props) / numProp
	for _, idx := range tris {
		if int(idx) >= n {
			return nil, fmt.Errorf("manifold: triangle index %d out of range for %d vertices", idx, n)
		}
	}

	m := &kernel.Mesh{
		Vertices: make([]float32, 0, 3*n),
		Normals:  make([]float32, 0, 3*n),
		Indices:  tris,
	}
	for i := 0; i < n; i++ {
		m.Vertices = append(m.Vertices, props[i*numProp:i*numProp+3]...)
	}
	if numProp >= 6 {
		for i := 0; i < n; i++ {
			m.Normals = append(m.Normals, props[i*numProp+3:i*numProp+6]...)
		}
		return m, nil
	}
	m.Normals = vertexNormals(m.Vertices, tris)
	return m, nil
}

func vertexNormals(vertices []float32, tris []uint32) []float32 {
	at := func(i uint32) v3.Vec {
		return v3.Vec{X: float64(vertices[3*i]), Y: float64(vertices[3*i+1]), Z: float64(vertices[3*i+2])}
	}
	sums := make([]v3.Vec, len(vertices)/3)
	for t := 0; t+2 < len(tris); t += 3 {
		a, b, c := tris[t], tris[t+1], tris[t+2]
		face := at(b).Sub(at(a)).Cross(at(c).Sub(at(a)))
		for _, i := range [3]uint32{a, b, c} {
			sums[i] = sums[i].Add(face)
		}
	}
	out := make([]float32, 0, len(vertices))
	for _, s := range sums {
		if s.Length2() > 0 {
			s = s.Normalize()
		}
		out = append(out, float32(s.X), float32(s.Y), float32(s.Z))
	}
	return out
}
