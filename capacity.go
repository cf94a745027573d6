package cube2shp

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"
)

const (
	capacityLineNameColumn    = "Line_name"
	capacityVehicleTypeColumn = "Vehicle Type"

	// standardBus is the vehicle type of lines the workbook leaves blank.
	standardBus = "1"

	DefaultCapacitySheet = "transit_input_summary"
	capacityOutputName   = "transitLines"
)

type CapacityRow struct {
	LineName    string
	VehicleType string // empty when the cell is blank
}

// ReadCapacityWorkbook reads the line name and vehicle type columns of sheet.
// A sheet missing either column yields no rows, so no line is changed.
func ReadCapacityWorkbook(path, sheet string) ([]CapacityRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		log.Warn().Str("path", path).Str("sheet", sheet).Msg("Capacity sheet is empty")
		return nil, nil
	}

	nameIdx, vtypeIdx := -1, -1
	for i, col := range rows[0] {
		switch strings.TrimSpace(col) {
		case capacityLineNameColumn:
			nameIdx = i
		case capacityVehicleTypeColumn:
			vtypeIdx = i
		}
	}
	if nameIdx < 0 {
		log.Warn().Str("path", path).Str("sheet", sheet).Msg("Capacity sheet has no " + capacityLineNameColumn + " column")
		return nil, nil
	}
	if vtypeIdx < 0 {
		log.Warn().Str("path", path).Str("sheet", sheet).Msg("Capacity sheet has no " + capacityVehicleTypeColumn + " column")
		return nil, nil
	}

	var out []CapacityRow
	for _, row := range rows[1:] {
		out = append(out, CapacityRow{
			LineName:    cell(row, nameIdx),
			VehicleType: normalizeVehicleType(cell(row, vtypeIdx)),
		})
	}
	log.Info().Msg(fmt.Sprintf("Read %d rows from %s", len(out), path))
	return out, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// normalizeVehicleType turns "7" and "7.0" into "7" and blank or NaN into "".
func normalizeVehicleType(s string) string {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return s
	}
	if math.IsNaN(f) {
		return ""
	}
	if f == math.Trunc(f) {
		return strconv.Itoa(int(f))
	}
	return s
}

func vehicleTypeUnset(v string) bool {
	v = strings.TrimSpace(v)
	return v == "" || strings.EqualFold(v, "nan")
}

// PatchCapacity sets VEHICLETYPE of every line from the first row whose line
// name equals the line name exactly. Lines left without a vehicle type get a
// standard bus. It returns the number of matched lines.
func PatchCapacity(lines []*Line, rows []CapacityRow) int {
	matched := 0
	for _, line := range lines {
		for i, row := range rows {
			if row.LineName != line.Name {
				continue
			}
			line.Attrs.Set("VEHICLETYPE", row.VehicleType, false)
			log.Debug().Int("row", i).Str("line", line.Name).Str("vehicle_type", row.VehicleType).Msg("Matched")
			matched++
			break
		}

		if v, ok := line.Attrs.Get("VEHICLETYPE"); !ok || vehicleTypeUnset(v) {
			line.Attrs.Set("VEHICLETYPE", standardBus, false)
		}
	}
	return matched
}

type CapacityOpts struct {
	LineFile string
	Workbook string
	Sheet    string
	OutDir   string
}

// DefaultCapacityOpts returns the TM2 development inputs for username.
func DefaultCapacityOpts(username string) CapacityOpts {
	inputs := filepath.Join(`C:\Users`, username, `Box\Modeling and Surveys\Development\Travel Model Two Development\Model Inputs`)
	return CapacityOpts{
		LineFile: filepath.Join(inputs, "2015", "trn", "transit_lines", capacityOutputName+".lin"),
		Workbook: `M:\Development\Travel Model Two\Supply\Transit\Network_QA\Line and vehicle type_be.xlsx`,
		Sheet:    DefaultCapacitySheet,
		OutDir:   ".",
	}
}

type CapacitySummary struct {
	Lines      int
	Matched    int
	OutputPath string
}

// ModifyCapacity patches the vehicle types of a line file from a workbook
// and writes transitLines.lin to opts.OutDir.
func ModifyCapacity(opts CapacityOpts) (*CapacitySummary, error) {
	if opts.LineFile == "" {
		panic("Missing LineFile")
	}
	if opts.Workbook == "" {
		panic("Missing Workbook")
	}
	if opts.Sheet == "" {
		opts.Sheet = DefaultCapacitySheet
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}

	lines, err := ReadLineFile(opts.LineFile)
	if err != nil {
		return nil, err
	}
	log.Info().Msg(fmt.Sprintf("Read %d lines from %s", len(lines), opts.LineFile))

	rows, err := ReadCapacityWorkbook(opts.Workbook, opts.Sheet)
	if err != nil {
		return nil, err
	}

	matched := PatchCapacity(lines, rows)
	log.Info().Msg(fmt.Sprintf("Matched %d of %d lines", matched, len(lines)))

	outputPath := filepath.Join(opts.OutDir, capacityOutputName+".lin")
	outputF, err := os.Create(outputPath)
	if err != nil {
		return nil, err
	}
	if err := WriteLines(outputF, lines); err != nil {
		_ = outputF.Close()
		return nil, err
	}
	if err := outputF.Close(); err != nil {
		return nil, err
	}

	log.Info().Msg(fmt.Sprintf("Wrote %s", outputPath))
	return &CapacitySummary{Lines: len(lines), Matched: matched, OutputPath: outputPath}, nil
}
