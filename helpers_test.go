package cube2shp

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

func testTempdir(t *testing.T) string {
	dir, err := os.MkdirTemp("", "")
	require.NoError(t, err)
	t.Cleanup(func() {
		if t.Failed() {
			fmt.Println("Preserving tempdir after failed test", dir)
		} else {
			_ = os.RemoveAll(dir)
		}
	})
	return dir
}

var sampleNodes = NodeTable{
	101: {X: 100, Y: 200, FareZone: 3},
	102: {X: 200, Y: 200, FareZone: 3},
	103: {X: 300, Y: 210, FareZone: 3},
	104: {X: 400, Y: 220, FareZone: 4},
	105: {X: 500, Y: 230, FareZone: 4},
	201: {X: 1000, Y: 1000, FareZone: 7},
	202: {X: 1100, Y: 1000, FareZone: 7},
	203: {X: 1200, Y: 1050, FareZone: 8},
	301: {X: 2000, Y: 2000, FareZone: 9},
	302: {X: 2100, Y: 2000, FareZone: 9},
}

// writeNodeShapefile writes nodes the way the Cube network export does.
func writeNodeShapefile(t *testing.T, path string, nodes NodeTable) {
	t.Helper()

	w, err := shp.Create(path, shp.POINT)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.NumberField("N", 10),
		shp.FloatField("X", 19, 6),
		shp.FloatField("Y", 19, 6),
		shp.NumberField("FAREZONE", 6),
	}))

	var ns []int
	for n := range nodes {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	for _, n := range ns {
		info := nodes[n]
		row := int(w.Write(&shp.Point{X: info.X, Y: info.Y}))
		require.NoError(t, w.WriteAttribute(row, 0, n))
		require.NoError(t, w.WriteAttribute(row, 1, info.X))
		require.NoError(t, w.WriteAttribute(row, 2, info.Y))
		require.NoError(t, w.WriteAttribute(row, 3, info.FareZone))
	}
	require.NoError(t, closeShapefile(w, path))
}

// setupSampleNetwork creates an output dir holding the roadway node
// shapefile and a copy of the sample transit network.
func setupSampleNetwork(t *testing.T) (outDir, lineFile string) {
	t.Helper()

	outDir = testTempdir(t)
	writeNodeShapefile(t, filepath.Join(outDir, NodeShapefile), sampleNodes)

	trnDir := filepath.Join(outDir, "trn")
	require.NoError(t, os.Mkdir(trnDir, 0o755))
	for _, name := range []string{"transitLines.lin", "vehtype.pts", "fares.far"} {
		data, err := os.ReadFile(filepath.Join("sample_data", "trn", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(trnDir, name), data, 0o644))
	}
	return outDir, filepath.Join(trnDir, "transitLines.lin")
}

type shpRow struct {
	shape shp.Shape
	attrs map[string]string
}

func readShapefile(t *testing.T, path string) []shpRow {
	t.Helper()

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	fields := r.Fields()
	var rows []shpRow
	for r.Next() {
		i, shape := r.Shape()
		attrs := make(map[string]string)
		for j, f := range fields {
			attrs[f.String()] = strings.Trim(r.ReadAttribute(i, j), " \x00")
		}
		rows = append(rows, shpRow{shape: shape, attrs: attrs})
	}
	require.NoError(t, r.Err())
	return rows
}

func assertTextEqual(t *testing.T, name, expected, actual string) {
	t.Helper()

	edits := myers.ComputeEdits(span.URIFromPath(name), expected, actual)
	if len(edits) > 0 {
		t.Fail()
		t.Log("\n", fmt.Sprint(gotextdiff.ToUnified("expected/"+name, "actual/"+name, expected, edits)))
	}
}
