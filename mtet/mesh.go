// Package mtet implements the mutable tetrahedral background mesh the
// refinement engine operates on: stable handles for vertices, tets and
// directed edges, longest-edge bisection splitting, and local
// connectivity traversal.
//
// Identities are monotonically appended and never reused. A tet
// retired by a split stays addressable by its old TetId only insofar
// as HasTet reports it gone; the face-adjacency index tolerates the
// same kind of staleness the refinement engine's priority queue does
// (see the queue type in package "refine"), rather than patching neighbor
// links on every split.
package mtet

import (
	"fmt"
	"sort"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/spatial/r3"
)

// VertexId is a stable handle to a mesh vertex. Ids are dense and
// monotonically increasing starting at 0.
type VertexId uint32

// TetId is a stable handle to a tet. A retired TetId (replaced by a
// split) remains a distinct value forever; HasTet reports it absent.
type TetId uint32

// InvalidTet is returned by mirror/neighbor queries that have no
// neighbor (a boundary face).
const InvalidTet = TetId(^uint32(0))

// EdgeId identifies one of the six directed edges of a tet by the tet
// that currently owns it plus a local index 0..5. Two EdgeIds name the
// same geometric edge iff they traverse the same unordered vertex
// pair; use GetEdgeVertices to compare.
type EdgeId struct {
	Tet   TetId
	Local uint8
}

// localEdgeVerts is the fixed local edge numbering of spec.md:
// 0:(v0,v1) 1:(v1,v2) 2:(v2,v0) 3:(v0,v3) 4:(v1,v3) 5:(v2,v3)
var localEdgeVerts = [6][2]int{
	{0, 1}, {1, 2}, {2, 0}, {0, 3}, {1, 3}, {2, 3},
}

// localFaceVerts lists, for each of a tet's 4 local faces, the local
// vertex indices of that face. Face i is the face opposite local
// vertex i.
var localFaceVerts = [4][3]int{
	{1, 2, 3}, {0, 2, 3}, {0, 1, 3}, {0, 1, 2},
}

type faceKey [3]VertexId

func makeFaceKey(a, b, c VertexId) faceKey {
	k := faceKey{a, b, c}
	sort.Slice(k[:], func(i, j int) bool { return k[i] < k[j] })
	return k
}

// Mesh is the mutable tetrahedral background mesh.
type Mesh struct {
	verts []r3.Vec
	tets  [][4]VertexId

	// retired marks a TetId as no longer live (replaced by a split).
	retired *bitset.BitSet

	// faceIndex maps a face (by sorted vertex triple) to every tet
	// that was ever registered as owning it. Entries for retired tets
	// are left in place and filtered against `retired` on read.
	faceIndex map[faceKey][]TetId

	// liveCount mirrors len(tets) minus retired count, maintained
	// incrementally so GetNumTets stays O(1) under the refinement
	// loop's per-iteration budget check.
	liveCount int
}

// NewMesh returns an empty mesh.
func NewMesh() *Mesh {
	return &Mesh{
		retired:   bitset.New(0),
		faceIndex: make(map[faceKey][]TetId),
	}
}

// AddVertex appends a new vertex and returns its id.
func (m *Mesh) AddVertex(x, y, z float64) VertexId {
	m.verts = append(m.verts, r3.Vec{X: x, Y: y, Z: z})
	return VertexId(len(m.verts) - 1)
}

// AddTet appends a new tet. The orientation convention requires the
// signed volume of (v1-v0, v2-v0, v3-v0) to be positive; violating
// that is a PreconditionError.
func (m *Mesh) AddTet(v0, v1, v2, v3 VertexId) (TetId, error) {
	if !signedVolumePositive(m.coordsOf(v0), m.coordsOf(v1), m.coordsOf(v2), m.coordsOf(v3)) {
		return 0, fmt.Errorf("mtet: AddTet: %w: non-positive signed volume", ErrPrecondition)
	}
	return m.addTetUnchecked([4]VertexId{v0, v1, v2, v3}), nil
}

func (m *Mesh) addTetUnchecked(vs [4]VertexId) TetId {
	tid := TetId(len(m.tets))
	m.tets = append(m.tets, vs)
	m.registerFaces(tid, vs)
	m.liveCount++
	return tid
}

func (m *Mesh) registerFaces(tid TetId, vs [4]VertexId) {
	for _, fv := range localFaceVerts {
		k := makeFaceKey(vs[fv[0]], vs[fv[1]], vs[fv[2]])
		m.faceIndex[k] = append(m.faceIndex[k], tid)
	}
}

func (m *Mesh) coordsOf(v VertexId) r3.Vec { return m.verts[v] }

func signedVolumePositive(v0, v1, v2, v3 r3.Vec) bool {
	a := r3.Sub(v1, v0)
	b := r3.Sub(v2, v0)
	c := r3.Sub(v3, v0)
	return r3.Dot(r3.Cross(a, b), c) > 0
}

// InitializeConnectivity computes per-face mirror links for the tets
// added so far. Because faces are indexed incrementally as tets are
// added, this is a no-op maintained for interface parity with the
// distilled spec's `initialize_connectivity`; it exists as an explicit
// call so that callers loading an initial grid in bulk have a clear
// point after which GetMirror/TetsAroundEdge are valid.
func (m *Mesh) InitializeConnectivity() {}

// HasVertex reports whether vertex_id was ever created.
func (m *Mesh) HasVertex(vid VertexId) bool {
	return int(vid) < len(m.verts)
}

// HasTet reports whether tet_id is live (created and not retired by a
// split).
func (m *Mesh) HasTet(tid TetId) bool {
	if int(tid) >= len(m.tets) {
		return false
	}
	return !m.retired.Test(uint(tid))
}

// HasEdge reports whether edge_id's owning tet is still live. This is
// the only admissible staleness an EdgeId can carry.
func (m *Mesh) HasEdge(eid EdgeId) bool {
	return m.HasTet(eid.Tet)
}

// GetVertex returns the coordinate of a vertex.
func (m *Mesh) GetVertex(vid VertexId) r3.Vec {
	return m.verts[vid]
}

// GetTet returns the ordered 4-tuple of vertex ids of a tet.
func (m *Mesh) GetTet(tid TetId) [4]VertexId {
	return m.tets[tid]
}

// GetNumVertices returns the number of vertices ever created.
func (m *Mesh) GetNumVertices() int { return len(m.verts) }

// GetNumTets returns the number of live tets.
func (m *Mesh) GetNumTets() int { return m.liveCount }

// GetEdge returns the EdgeId for the given local index of a tet.
func (m *Mesh) GetEdge(tid TetId, localIndex uint8) EdgeId {
	return EdgeId{Tet: tid, Local: localIndex}
}

// GetEdgeVertices returns the unordered endpoint pair of an edge, in
// the tet's local order.
func (m *Mesh) GetEdgeVertices(eid EdgeId) (VertexId, VertexId) {
	vs := m.tets[eid.Tet]
	lv := localEdgeVerts[eid.Local]
	return vs[lv[0]], vs[lv[1]]
}

// EdgeEndpoints is one edge of a tet: its id and its two endpoints.
type EdgeEndpoints struct {
	Edge EdgeId
	V0   VertexId
	V1   VertexId
}

// EdgesInTet returns the six directed edges of a tet in fixed local
// order, each with its endpoint pair.
func (m *Mesh) EdgesInTet(tid TetId) [6]EdgeEndpoints {
	vs := m.tets[tid]
	var out [6]EdgeEndpoints
	for i, lv := range localEdgeVerts {
		out[i] = EdgeEndpoints{Edge: EdgeId{Tet: tid, Local: uint8(i)}, V0: vs[lv[0]], V1: vs[lv[1]]}
	}
	return out
}

// GetMirror returns the mirror tet of tid across its local face
// localFace (0..3), or InvalidTet if that face is on the boundary.
func (m *Mesh) GetMirror(tid TetId, localFace uint8) TetId {
	vs := m.tets[tid]
	fv := localFaceVerts[localFace]
	k := makeFaceKey(vs[fv[0]], vs[fv[1]], vs[fv[2]])
	for _, cand := range m.faceIndex[k] {
		if cand != tid && m.HasTet(cand) {
			return cand
		}
	}
	return InvalidTet
}

// TetsAroundEdge returns every live tet incident to the geometric edge
// named by eid (i.e. sharing its unordered vertex pair), found by
// pivoting through the two faces of each tet that contain the edge.
func (m *Mesh) TetsAroundEdge(eid EdgeId) []TetId {
	p, q := m.GetEdgeVertices(eid)
	if !m.HasTet(eid.Tet) {
		return nil
	}

	result := []TetId{eid.Tet}
	seen := map[TetId]bool{eid.Tet: true}

	// From each tet found so far, pivot across the two faces that
	// contain both p and q to find the next tets in the fan. This
	// terminates because the mesh is finite and faces are shared by
	// at most two live tets.
	frontier := []TetId{eid.Tet}
	for len(frontier) > 0 {
		var next []TetId
		for _, tid := range frontier {
			vs := m.tets[tid]
			for localFace := uint8(0); localFace < 4; localFace++ {
				fv := localFaceVerts[localFace]
				if !faceContainsBoth(vs, fv, p, q) {
					continue
				}
				mirror := m.GetMirror(tid, localFace)
				if mirror == InvalidTet || seen[mirror] {
					continue
				}
				seen[mirror] = true
				result = append(result, mirror)
				next = append(next, mirror)
			}
		}
		frontier = next
	}
	return result
}

func faceContainsBoth(vs [4]VertexId, fv [3]int, p, q VertexId) bool {
	hasP, hasQ := false, false
	for _, i := range fv {
		if vs[i] == p {
			hasP = true
		}
		if vs[i] == q {
			hasQ = true
		}
	}
	return hasP && hasQ
}

// SplitEdge inserts the midpoint of the geometric edge named by eid
// and replaces every tet incident to it with two tets sharing the new
// vertex, preserving orientation. It returns the new vertex and the
// two sub-edges connecting the midpoint to the original endpoints
// (e0 touches the original first endpoint, e1 touches the original
// second endpoint).
//
// SplitEdge fails with ErrPrecondition if eid is stale.
func (m *Mesh) SplitEdge(eid EdgeId) (VertexId, EdgeId, EdgeId, error) {
	if !m.HasEdge(eid) {
		return 0, EdgeId{}, EdgeId{}, fmt.Errorf("mtet: SplitEdge: %w: stale edge", ErrPrecondition)
	}
	p, q := m.GetEdgeVertices(eid)
	pc, qc := m.verts[p], m.verts[q]
	mid := r3.Scale(0.5, r3.Add(pc, qc))
	mv := m.AddVertex(mid.X, mid.Y, mid.Z)

	ring := m.TetsAroundEdge(eid)

	var e0, e1 EdgeId
	for _, tid := range ring {
		vs := m.tets[tid]
		iP, iQ := -1, -1
		for i, v := range vs {
			if v == p {
				iP = i
			}
			if v == q {
				iQ = i
			}
		}
		m.retired.Set(uint(tid))
		m.liveCount--

		tetA := vs // m replaces p: {m, q, ...}
		tetA[iP] = mv
		tetB := vs // m replaces q: {p, m, ...}
		tetB[iQ] = mv

		tidA := m.addTetUnchecked(tetA)
		tidB := m.addTetUnchecked(tetB)

		if tid == eid.Tet {
			localPM, _ := localEdgeIndex(tetB, p, mv)
			e0 = EdgeId{Tet: tidB, Local: localPM}
			localMQ, _ := localEdgeIndex(tetA, mv, q)
			e1 = EdgeId{Tet: tidA, Local: localMQ}
		}
	}
	return mv, e0, e1, nil
}

func localEdgeIndex(vs [4]VertexId, a, b VertexId) (uint8, bool) {
	for i, lv := range localEdgeVerts {
		va, vb := vs[lv[0]], vs[lv[1]]
		if (va == a && vb == b) || (va == b && vb == a) {
			return uint8(i), true
		}
	}
	return 0, false
}

// SeqForeachTet calls f for every live tet, in stable ascending TetId
// order, for reproducible statistics accumulation.
func (m *Mesh) SeqForeachTet(f func(TetId, [4]VertexId)) {
	for i := range m.tets {
		tid := TetId(i)
		if m.retired.Test(uint(i)) {
			continue
		}
		f(tid, m.tets[tid])
	}
}

// SeqForeachVertex calls f for every vertex, in ascending VertexId
// order.
func (m *Mesh) SeqForeachVertex(f func(VertexId, r3.Vec)) {
	for i, v := range m.verts {
		f(VertexId(i), v)
	}
}
