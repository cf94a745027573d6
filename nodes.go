package cube2shp

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/jonas-p/go-shp"
	"github.com/rs/zerolog/log"
)

type NodeInfo struct {
	X, Y     float64
	FareZone int
}

// NodeTable maps roadway node numbers to their coordinate and fare zone.
type NodeTable map[int]NodeInfo

// ReadNodeTable loads N, X, Y and FAREZONE from the node shapefile written by
// the network export. When the X/Y fields are missing the point geometry is used.
func ReadNodeTable(path string) (NodeTable, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = r.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range r.Fields() {
		fieldIdx[strings.ToUpper(f.String())] = i
	}
	nIdx, ok := fieldIdx["N"]
	if !ok {
		return nil, fmt.Errorf("%s has no N field", path)
	}
	xIdx, hasX := fieldIdx["X"]
	yIdx, hasY := fieldIdx["Y"]
	fzIdx, hasFareZone := fieldIdx["FAREZONE"]
	if !hasFareZone {
		log.Warn().Str("path", path).Msg("Node shapefile has no FAREZONE field")
	}

	table := make(NodeTable)
	for r.Next() {
		row, shape := r.Shape()

		n, err := parseDBFNumber(r.ReadAttribute(row, nIdx))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid N: %w", path, row, err)
		}

		var info NodeInfo
		if hasX && hasY {
			info.X, _ = strconv.ParseFloat(trimDBF(r.ReadAttribute(row, xIdx)), 64)
			info.Y, _ = strconv.ParseFloat(trimDBF(r.ReadAttribute(row, yIdx)), 64)
		} else if p, ok := shape.(*shp.Point); ok {
			info.X, info.Y = p.X, p.Y
		}
		if hasFareZone {
			fz, _ := parseDBFNumber(r.ReadAttribute(row, fzIdx))
			info.FareZone = fz
		}
		table[n] = info
	}
	if err := r.Err(); err != nil {
		return nil, err
	}

	log.Info().Msg(fmt.Sprintf("Read %d nodes from %s", len(table), path))
	return table, nil
}

// trimDBF strips the space and null padding of a DBF value.
func trimDBF(s string) string {
	return strings.Trim(s, " \x00")
}

func parseDBFNumber(s string) (int, error) {
	f, err := strconv.ParseFloat(trimDBF(s), 64)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

type stationRow struct {
	Node    int    `csv:"TM2 Node"`
	Station string `csv:"Station"`
}

// ReadStations reads node to station name overrides from a CSV with
// "TM2 Node" and "Station" columns. Other columns are ignored.
func ReadStations(path string) (map[int]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var rows []stationRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	stations := make(map[int]string, len(rows))
	for _, row := range rows {
		stations[row.Node] = row.Station
	}
	log.Info().Msg(fmt.Sprintf("Read %d lines from %s", len(rows), path))
	return stations, nil
}
