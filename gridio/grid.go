// Package gridio loads the initial background grid and writes the
// refinement engine's mesh/function outputs: the JSON grid format of
// spec.md §6, the `.msh` mesh writer (render.WriteTetMesh), and the
// discretize-later `grid.json` / `function_value.json` pair.
package gridio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/deadsy/adgrid/ifunc"
	"github.com/deadsy/adgrid/mtet"
	"github.com/deadsy/adgrid/render"
	"github.com/goccy/go-json"
)

// gridJSON is the on-disk JSON grid format of spec.md §6:
// vertex coordinates and tet vertex-index quadruples.
type gridJSON struct {
	Vertices [][3]float64 `json:"vertices"`
	Tets     [][4]uint32  `json:"tets"`
}

// LoadGrid reads the initial background grid from path. A ".json"
// suffix selects the JSON vertex/tet-index form; any other suffix
// selects the legacy whitespace-delimited `.msh`-style form (a vertex
// count, that many "x y z" lines, a tet count, then that many
// "a b c d" index lines).
func LoadGrid(path string) (*mtet.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("gridio: LoadGrid: %w", err)
	}
	if strings.HasSuffix(path, ".json") {
		return loadGridJSON(data)
	}
	return loadGridLegacy(data)
}

func loadGridJSON(data []byte) (*mtet.Mesh, error) {
	var g gridJSON
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("gridio: loadGridJSON: %w", err)
	}
	return buildMesh(g.Vertices, g.Tets)
}

func loadGridLegacy(data []byte) (*mtet.Mesh, error) {
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	readInt := func() (int, error) {
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" {
				continue
			}
			return strconv.Atoi(line)
		}
		return 0, fmt.Errorf("gridio: loadGridLegacy: unexpected end of input")
	}
	nv, err := readInt()
	if err != nil {
		return nil, err
	}
	verts := make([][3]float64, nv)
	for i := 0; i < nv; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("gridio: loadGridLegacy: truncated vertex list")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 3 {
			return nil, fmt.Errorf("gridio: loadGridLegacy: %w: malformed vertex line %q", ErrFormat, sc.Text())
		}
		for k := 0; k < 3; k++ {
			verts[i][k], err = strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("gridio: loadGridLegacy: %w", err)
			}
		}
	}
	nt, err := readInt()
	if err != nil {
		return nil, err
	}
	tets := make([][4]uint32, nt)
	for i := 0; i < nt; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("gridio: loadGridLegacy: truncated tet list")
		}
		fields := strings.Fields(sc.Text())
		if len(fields) != 4 {
			return nil, fmt.Errorf("gridio: loadGridLegacy: %w: malformed tet line %q", ErrFormat, sc.Text())
		}
		for k := 0; k < 4; k++ {
			v, err := strconv.ParseUint(fields[k], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("gridio: loadGridLegacy: %w", err)
			}
			tets[i][k] = uint32(v)
		}
	}
	return buildMesh(verts, tets)
}

func buildMesh(verts [][3]float64, tets [][4]uint32) (*mtet.Mesh, error) {
	m := mtet.NewMesh()
	ids := make([]mtet.VertexId, len(verts))
	for i, v := range verts {
		ids[i] = m.AddVertex(v[0], v[1], v[2])
	}
	for i, t := range tets {
		for _, idx := range t {
			if int(idx) >= len(ids) {
				return nil, fmt.Errorf("gridio: buildMesh: %w: tet %d references out-of-range vertex %d", ErrFormat, i, idx)
			}
		}
		if _, err := m.AddTet(ids[t[0]], ids[t[1]], ids[t[2]], ids[t[3]]); err != nil {
			return nil, fmt.Errorf("gridio: buildMesh: tet %d: %w", i, err)
		}
	}
	m.InitializeConnectivity()
	return m, nil
}

// SaveGridJSON writes the mesh to path in the JSON vertex/tet-index
// form, for the `-d/--discretize` output `grid.json`.
func SaveGridJSON(path string, m *mtet.Mesh) error {
	g := gridJSON{}
	return writeGridJSON(path, m, &g)
}

func writeGridJSON(path string, m *mtet.Mesh, g *gridJSON) error {
	nv := m.GetNumVertices()
	g.Vertices = make([][3]float64, nv)
	for i := 0; i < nv; i++ {
		p := m.GetVertex(mtet.VertexId(i))
		g.Vertices[i] = [3]float64{p.X, p.Y, p.Z}
	}
	m.SeqForeachTet(func(_ mtet.TetId, vs [4]mtet.VertexId) {
		g.Tets = append(g.Tets, [4]uint32{uint32(vs[0]), uint32(vs[1]), uint32(vs[2]), uint32(vs[3])})
	})
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("gridio: writeGridJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("gridio: writeGridJSON: %w", err)
	}
	return nil
}

// functionValueJSON is the `function_value.json` discretize-later
// output: per-vertex value/gradient rows for every configured
// function, keyed by the vertex order of the paired `grid.json`.
type functionValueJSON struct {
	FuncNum int         `json:"func_num"`
	Values  [][]float64 `json:"values"` // len(Values) == vertex count, each row is FuncNum*4 floats: val,gx,gy,gz repeated
}

// SaveFunctionValueJSON writes the per-vertex function/gradient cache
// to path in vertex-id order, for the `-d/--discretize` output
// `function_value.json`.
func SaveFunctionValueJSON(path string, m *mtet.Mesh, cache map[mtet.VertexId][]ifunc.Value, funcNum int) error {
	nv := m.GetNumVertices()
	out := functionValueJSON{FuncNum: funcNum, Values: make([][]float64, nv)}
	for i := 0; i < nv; i++ {
		vid := mtet.VertexId(i)
		row := make([]float64, 0, funcNum*4)
		for _, v := range cache[vid] {
			row = append(row, v.Val, v.Grad.X, v.Grad.Y, v.Grad.Z)
		}
		out.Values[i] = row
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("gridio: SaveFunctionValueJSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("gridio: SaveFunctionValueJSON: %w", err)
	}
	return nil
}

// WriteMsh writes a Gmsh-flavored ASCII mesh file of the mesh's live
// tets, or of only tetIds when non-nil (the `active_tets.msh` output).
// The writer itself is render.WriteTetMesh.
func WriteMsh(path string, m *mtet.Mesh, tetIds []mtet.TetId) error {
	if err := render.WriteTetMesh(path, m, tetIds); err != nil {
		return fmt.Errorf("gridio: WriteMsh: %w", err)
	}
	return nil
}
