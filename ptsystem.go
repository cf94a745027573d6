package cube2shp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

type VehicleType struct {
	Number   int
	Name     string
	SeatCap  int
	CrushCap int
}

type FareSystem struct {
	Number     int
	Structure  string
	IBoardFare float64
}

// PTSystem holds the vehicle types and fare systems of a transit network.
// In TM2 fare systems are numbered after the mode they apply to.
type PTSystem struct {
	VehicleTypes map[int]VehicleType
	FareSystems  map[int]FareSystem
}

func newPTSystem() *PTSystem {
	return &PTSystem{
		VehicleTypes: make(map[int]VehicleType),
		FareSystems:  make(map[int]FareSystem),
	}
}

// ReadPTSystem collects VEHICLETYPE records from *.pts files and FARESYSTEM
// records from *.far files in dir.
func ReadPTSystem(dir string) (*PTSystem, error) {
	pt := newPTSystem()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".pts" && ext != ".far") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := pt.readFile(path); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	log.Debug().
		Int("vehicle_types", len(pt.VehicleTypes)).
		Int("fare_systems", len(pt.FareSystems)).
		Str("dir", dir).
		Msg("Read PT system")
	return pt, nil
}

func (pt *PTSystem) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	records, err := parseRecords(f)
	if err != nil {
		return err
	}
	for _, rec := range records {
		attrs := Attrs(rec.Items)
		switch rec.Keyword {
		case "VEHICLETYPE":
			vt := VehicleType{
				Number:   attrs.Int("NUMBER"),
				Name:     attrs.String("NAME"),
				SeatCap:  attrs.Int("SEATCAP"),
				CrushCap: attrs.Int("CRUSHCAP"),
			}
			pt.VehicleTypes[vt.Number] = vt
		case "FARESYSTEM":
			fs := FareSystem{
				Number:     attrs.Int("NUMBER"),
				Structure:  attrs.String("STRUCTURE"),
				IBoardFare: attrs.Float("IBOARDFARE"),
			}
			pt.FareSystems[fs.Number] = fs
		}
	}
	return nil
}

type TransitNetwork struct {
	Lines    []*Line
	PTSystem *PTSystem
}

// LoadTransitNetwork reads a line file and the PT system files next to it.
func LoadTransitNetwork(lineFile string) (*TransitNetwork, error) {
	lines, err := ReadLineFile(lineFile)
	if err != nil {
		return nil, err
	}
	pt, err := ReadPTSystem(filepath.Dir(lineFile))
	if err != nil {
		return nil, err
	}
	log.Info().Msg(fmt.Sprintf("Read %d lines from %s", len(lines), lineFile))
	return &TransitNetwork{Lines: lines, PTSystem: pt}, nil
}
