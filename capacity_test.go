package cube2shp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func capacityLine(name string, attrs ...Attr) *Line {
	return &Line{
		Name:  name,
		Attrs: append(Attrs{{Key: "NAME", Value: name, Quoted: true}}, attrs...),
		Nodes: []LineNode{{Num: 1}, {Num: 2}},
	}
}

func vehicleType(t *testing.T, line *Line) string {
	t.Helper()
	v, ok := line.Attrs.Get("VEHICLETYPE")
	require.True(t, ok, "line %s has no VEHICLETYPE", line.Name)
	return v
}

func TestPatchCapacity(t *testing.T) {
	matchedLine := capacityLine("51A", Attr{Key: "VEHICLETYPE", Value: "3"})
	unmatchedWithout := capacityLine("ZZ99")
	unmatchedWith := capacityLine("MUN1I", Attr{Key: "VEHICLETYPE", Value: "2"})
	blankInWorkbook := capacityLine("72R", Attr{Key: "VEHICLETYPE", Value: "4"})
	lowerCase := capacityLine("51a")

	rows := []CapacityRow{
		{LineName: "1", VehicleType: "5"},
		{LineName: "72R", VehicleType: ""},
		{LineName: "51A", VehicleType: "7"},
		{LineName: "51A", VehicleType: "9"},
	}

	matched := PatchCapacity([]*Line{matchedLine, unmatchedWithout, unmatchedWith, blankInWorkbook, lowerCase}, rows)

	assert.Equal(t, 2, matched)
	assert.Equal(t, "7", vehicleType(t, matchedLine))
	assert.Equal(t, "1", vehicleType(t, unmatchedWithout))
	assert.Equal(t, "2", vehicleType(t, unmatchedWith))
	assert.Equal(t, "1", vehicleType(t, blankInWorkbook))
	assert.Equal(t, "1", vehicleType(t, lowerCase))
}

func TestPatchCapacityNaN(t *testing.T) {
	line := capacityLine("A", Attr{Key: "VEHICLETYPE", Value: "nan"})
	PatchCapacity([]*Line{line}, nil)
	assert.Equal(t, "1", vehicleType(t, line))
}

func TestNormalizeVehicleType(t *testing.T) {
	cases := map[string]string{
		"7":    "7",
		"7.0":  "7",
		" 12 ": "12",
		"":     "",
		"NaN":  "",
		"2.5":  "2.5",
		"bus":  "bus",
	}
	for input, expected := range cases {
		assert.Equal(t, expected, normalizeVehicleType(input), input)
	}
}

func writeCapacityWorkbook(t *testing.T, path string, sheet string, rows [][]any) {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	for i, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		values := row
		require.NoError(t, f.SetSheetRow(sheet, axis, &values))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestReadCapacityWorkbook(t *testing.T) {
	path := filepath.Join(testTempdir(t), "capacity.xlsx")
	writeCapacityWorkbook(t, path, DefaultCapacitySheet, [][]any{
		{"Operator", "Line_name", "Vehicle Type"},
		{"AC Transit", "51A", 7},
		{"Muni", "MUN1I", nil},
		{"Muni", "MUN5"},
	})

	rows, err := ReadCapacityWorkbook(path, DefaultCapacitySheet)
	require.NoError(t, err)
	assert.Equal(t, []CapacityRow{
		{LineName: "51A", VehicleType: "7"},
		{LineName: "MUN1I", VehicleType: ""},
		{LineName: "MUN5", VehicleType: ""},
	}, rows)
}

func TestReadCapacityWorkbookMissingColumn(t *testing.T) {
	for name, header := range map[string][]any{
		"line name":    {"Route", "Vehicle Type"},
		"vehicle type": {"Line_name", "Capacity"},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(testTempdir(t), "capacity.xlsx")
			writeCapacityWorkbook(t, path, DefaultCapacitySheet, [][]any{
				header,
				{"51A", 7},
			})

			rows, err := ReadCapacityWorkbook(path, DefaultCapacitySheet)
			require.NoError(t, err)
			assert.Empty(t, rows)
		})
	}
}

func TestModifyCapacityWithoutVehicleTypeColumn(t *testing.T) {
	outDir := testTempdir(t)
	workbook := filepath.Join(outDir, "capacity.xlsx")
	writeCapacityWorkbook(t, workbook, DefaultCapacitySheet, [][]any{
		{"Line_name", "Capacity"},
		{"MUN1I", 90},
		{"51A", 60},
	})

	summary, err := ModifyCapacity(CapacityOpts{
		LineFile: "./sample_data/trn/transitLines.lin",
		Workbook: workbook,
		OutDir:   outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Matched)

	lines, err := ReadLineFile(summary.OutputPath)
	require.NoError(t, err)
	require.Len(t, lines, 3)
	assert.Equal(t, "2", vehicleType(t, lines[0]))
	assert.Equal(t, "3", vehicleType(t, lines[1]))
	assert.Equal(t, "1", vehicleType(t, lines[2]))
}

func TestReadCapacityWorkbookMissingSheet(t *testing.T) {
	path := filepath.Join(testTempdir(t), "capacity.xlsx")
	writeCapacityWorkbook(t, path, "other", [][]any{{"Line_name"}})

	_, err := ReadCapacityWorkbook(path, DefaultCapacitySheet)
	assert.Error(t, err)
}

func TestModifyCapacity(t *testing.T) {
	outDir := testTempdir(t)
	workbook := filepath.Join(outDir, "capacity.xlsx")
	writeCapacityWorkbook(t, workbook, DefaultCapacitySheet, [][]any{
		{"Line_name", "Vehicle Type"},
		{"99X", 4},
		{"51A", 7},
	})

	summary, err := ModifyCapacity(CapacityOpts{
		LineFile: "./sample_data/trn/transitLines.lin",
		Workbook: workbook,
		OutDir:   outDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Lines)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, filepath.Join(outDir, "transitLines.lin"), summary.OutputPath)

	expected, err := os.ReadFile("./sample_data/transitLines_patched.lin")
	require.NoError(t, err)
	actual, err := os.ReadFile(summary.OutputPath)
	require.NoError(t, err)
	assertTextEqual(t, "transitLines.lin", string(expected), string(actual))
}

func TestDefaultCapacityOpts(t *testing.T) {
	opts := DefaultCapacityOpts("jdoe")
	assert.Contains(t, opts.LineFile, "jdoe")
	assert.Equal(t, "transitLines.lin", filepath.Base(opts.LineFile))
	assert.Equal(t, DefaultCapacitySheet, opts.Sheet)
	assert.Equal(t, ".", opts.OutDir)
}
