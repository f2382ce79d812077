// Package render writes a tetrahedral mesh to the Gmsh-flavored ASCII
// `.msh` format the CLI surface names: a text header, a node section,
// an element section, each built with fmt.Sprintf over a buffered
// writer. The section-by-section writing style is adapted from the
// original CalculiX `inp` writer this module's teacher used for
// finite-element output; the format itself is different (Gmsh, not
// CalculiX), since this module writes a background analysis mesh
// rather than a solver input deck.
package render

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/deadsy/adgrid/mtet"
)

// WriteTetMesh writes every live tet in m to path as a Gmsh-flavored
// ASCII mesh, or only the tets named by subset when subset is
// non-nil.
func WriteTetMesh(path string, m *mtet.Mesh, subset []mtet.TetId) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("render: WriteTetMesh: %w", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	if _, err := w.WriteString(fmt.Sprintf(
		"$MeshFormat\n2.2 0 8\n$EndMeshFormat\n$Comments\nGenerated %s\n$EndComments\n",
		time.Now().UTC().Format("2006-Jan-02 MST"))); err != nil {
		return fmt.Errorf("render: WriteTetMesh: %w", err)
	}

	if err := writeNodes(w, m); err != nil {
		return err
	}
	if err := writeElements(w, m, subset); err != nil {
		return err
	}
	return w.Flush()
}

func writeNodes(w *bufio.Writer, m *mtet.Mesh) error {
	nv := m.GetNumVertices()
	if _, err := w.WriteString(fmt.Sprintf("$Nodes\n%d\n", nv)); err != nil {
		return fmt.Errorf("render: writeNodes: %w", err)
	}
	for i := 0; i < nv; i++ {
		p := m.GetVertex(mtet.VertexId(i))
		// Node ids are 1-based, matching Gmsh's convention (and the
		// teacher's own CalculiX writer, which is also 1-based).
		if _, err := w.WriteString(fmt.Sprintf("%d %f %f %f\n", i+1, p.X, p.Y, p.Z)); err != nil {
			return fmt.Errorf("render: writeNodes: %w", err)
		}
	}
	_, err := w.WriteString("$EndNodes\n")
	return err
}

func writeElements(w *bufio.Writer, m *mtet.Mesh, subset []mtet.TetId) error {
	var ids []mtet.TetId
	if subset != nil {
		ids = subset
	} else {
		m.SeqForeachTet(func(tid mtet.TetId, _ [4]mtet.VertexId) { ids = append(ids, tid) })
	}
	if _, err := w.WriteString(fmt.Sprintf("$Elements\n%d\n", len(ids))); err != nil {
		return fmt.Errorf("render: writeElements: %w", err)
	}
	for i, tid := range ids {
		vs := m.GetTet(tid)
		// element-type 4 is Gmsh's 4-node tetrahedron; tag count 2
		// with both tags 0 is a minimal, unused physical/geometric tag
		// pair.
		if _, err := w.WriteString(fmt.Sprintf("%d 4 2 0 0 %d %d %d %d\n",
			i+1, vs[0]+1, vs[1]+1, vs[2]+1, vs[3]+1)); err != nil {
			return fmt.Errorf("render: writeElements: %w", err)
		}
	}
	_, err := w.WriteString("$EndElements\n")
	return err
}
