package gridio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/deadsy/adgrid/ifunc"
	"github.com/deadsy/adgrid/mtet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tinyMesh(t *testing.T) *mtet.Mesh {
	t.Helper()
	m := mtet.NewMesh()
	v0 := m.AddVertex(0, 0, 0)
	v1 := m.AddVertex(1, 0, 0)
	v2 := m.AddVertex(0, 1, 0)
	v3 := m.AddVertex(0, 0, 1)
	_, err := m.AddTet(v0, v1, v2, v3)
	require.NoError(t, err)
	return m
}

func TestSaveAndLoadGridJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.json")

	m := tinyMesh(t)
	require.NoError(t, SaveGridJSON(path, m))

	loaded, err := LoadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, m.GetNumVertices(), loaded.GetNumVertices())
	assert.Equal(t, m.GetNumTets(), loaded.GetNumTets())
}

func TestLoadGridLegacyWhitespaceFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.mesh")
	content := "4\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n1\n0 1 2 3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := LoadGrid(path)
	require.NoError(t, err)
	assert.Equal(t, 4, m.GetNumVertices())
	assert.Equal(t, 1, m.GetNumTets())
}

func TestLoadGridRejectsOutOfRangeTetIndex(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grid.mesh")
	content := "4\n0 0 0\n1 0 0\n0 1 0\n0 0 1\n1\n0 1 2 9\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	_, err := LoadGrid(path)
	require.Error(t, err)
}

func TestWriteMshProducesNonEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tet_grid.msh")
	m := tinyMesh(t)
	require.NoError(t, WriteMsh(path, m, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "$Nodes")
	assert.Contains(t, string(data), "$Elements")
}

func TestSaveFunctionValueJSONMatchesVertexCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "function_value.json")
	m := tinyMesh(t)
	cache := map[mtet.VertexId][]ifunc.Value{
		0: {{Val: 1}}, 1: {{Val: 2}}, 2: {{Val: 3}}, 3: {{Val: 4}},
	}
	require.NoError(t, SaveFunctionValueJSON(path, m, cache, 1))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "func_num")
}
