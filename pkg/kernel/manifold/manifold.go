//go:build manifold

// Package manifold implements kernel.Modeler on the Manifold C library
// (https://github.com/elalish/manifold). Section slabs come out as exact
// polygon meshes rather than marching-cubes approximations.
//
// manifoldc must be installed under /usr/local. Build with -tags=manifold
// and select it with modeler = "manifold" in the configuration.
package manifold

/*
#cgo CFLAGS: -I/usr/local/include
#cgo LDFLAGS: -L/usr/local/lib -lmanifoldc

#include <stdlib.h>
#include <manifold/manifoldc.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"runtime"
	"unsafe"

	v2 "github.com/deadsy/sdfx/vec/v2"

	"github.com/chazu/spar/pkg/kernel"
)

var _ kernel.Modeler = (*Modeler)(nil)
var _ kernel.Solid = (*solid)(nil)

// solid owns a C manifold; a finalizer frees it.
type solid struct {
	ptr *C.ManifoldManifold
}

func wrap(ptr *C.ManifoldManifold) *solid {
	s := &solid{ptr: ptr}
	runtime.SetFinalizer(s, func(s *solid) {
		C.manifold_delete_manifold(s.ptr)
	})
	return s
}

func (s *solid) BoundingBox() (min, max [3]float64) {
	box := C.manifold_bounding_box(C.manifold_alloc_box(), s.ptr)
	defer C.manifold_delete_box(box)
	min = [3]float64{float64(C.manifold_box_min_x(box)), float64(C.manifold_box_min_y(box)), float64(C.manifold_box_min_z(box))}
	max = [3]float64{float64(C.manifold_box_max_x(box)), float64(C.manifold_box_max_y(box)), float64(C.manifold_box_max_z(box))}
	return min, max
}

// Modeler builds section solids with Manifold.
type Modeler struct{}

// New returns a Manifold modeler.
func New() (kernel.Modeler, error) {
	return &Modeler{}, nil
}

func unwrap(s kernel.Solid) *solid {
	ms, ok := s.(*solid)
	if !ok {
		panic(fmt.Sprintf("manifold: foreign solid %T", s))
	}
	return ms
}

// crossSection copies a closed outline into a single-contour Manifold
// polygon set. A repeated closing vertex is dropped.
func crossSection(outline []v2.Vec) (*C.ManifoldPolygons, error) {
	if n := len(outline); n > 1 && outline[0] == outline[n-1] {
		outline = outline[:n-1]
	}
	if len(outline) < 3 {
		return nil, fmt.Errorf("manifold: outline needs 3 vertices, got %d", len(outline))
	}
	pts := make([]C.ManifoldVec2, len(outline))
	for i, p := range outline {
		pts[i] = C.ManifoldVec2{x: C.double(p.X), y: C.double(p.Y)}
	}
	contour := C.manifold_simple_polygon(C.manifold_alloc_simple_polygon(), &pts[0], C.size_t(len(pts)))
	defer C.manifold_delete_simple_polygon(contour)
	return C.manifold_polygons(C.manifold_alloc_polygons(), &contour, 1), nil
}

// Extrude sweeps outline over z in [-height/2, height/2].
func (m *Modeler) Extrude(outline []v2.Vec, height float64) (kernel.Solid, error) {
	if height <= 0 {
		return nil, fmt.Errorf("manifold: extrude height %g must be positive", height)
	}
	ps, err := crossSection(outline)
	if err != nil {
		return nil, err
	}
	defer C.manifold_delete_polygons(ps)
	// no intermediate slices, no twist, unit top scale
	ptr := C.manifold_extrude(C.manifold_alloc_manifold(), ps, C.double(height), 0, 0, 1, 1)
	return m.Translate(wrap(ptr), 0, 0, -height/2), nil
}

// Loft is not available: the C API only scales one outline along z.
func (m *Modeler) Loft(bottom, top []v2.Vec, height float64) (kernel.Solid, error) {
	return nil, errors.New("manifold: loft between different outlines is not supported")
}

func (m *Modeler) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(C.manifold_union(C.manifold_alloc_manifold(), unwrap(a).ptr, unwrap(b).ptr))
}

func (m *Modeler) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(C.manifold_translate(C.manifold_alloc_manifold(), unwrap(s).ptr,
		C.double(x), C.double(y), C.double(z)))
}

// Rotate applies Euler angles in degrees about x, then y, then z.
func (m *Modeler) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	return wrap(C.manifold_rotate(C.manifold_alloc_manifold(), unwrap(s).ptr,
		C.double(x), C.double(y), C.double(z)))
}

// ToMesh copies the MeshGL buffers of s.
func (m *Modeler) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	gl := C.manifold_get_meshgl(C.manifold_alloc_meshgl(), unwrap(s).ptr)
	defer C.manifold_delete_meshgl(gl)

	nVert := int(C.manifold_meshgl_num_vert(gl))
	nTri := int(C.manifold_meshgl_num_tri(gl))
	nProp := int(C.manifold_meshgl_num_prop(gl))
	if nVert == 0 || nTri == 0 {
		return &kernel.Mesh{}, nil
	}

	props := make([]float32, nVert*nProp)
	C.manifold_meshgl_vert_properties((*C.float)(unsafe.Pointer(&props[0])), gl)
	tris := make([]uint32, 3*nTri)
	C.manifold_meshgl_tri_verts((*C.uint32_t)(unsafe.Pointer(&tris[0])), gl)

	return meshFromProperties(props, nProp, tris)
}
