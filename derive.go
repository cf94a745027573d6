package cube2shp

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// noNNTime is written to NNTIME when the boundary node has no time.
const noNNTime = -999

type StopRecord struct {
	Line     string
	Point    orb.Point
	Station  string
	N        int
	Seq      int
	IsStop   bool
	FareZone int
}

type LinkRecord struct {
	Line     string
	Path     orb.LineString
	A, B     int
	AStation string
	BStation string
	Seq      int
	NNTime   float64
}

type LineRecord struct {
	Name             string
	Path             orb.LineString
	Headways         [5]float64 // EA, AM, MD, PM, EV
	Mode             int
	ModeType         string
	OperatorText     string
	VehicleType      int
	VehicleTypeName  string
	SeatCap          int
	CrushCap         int
	Operator         int
	FareStructure    string
	InitialBoardFare float64
}

type LineFeatures struct {
	Stops []StopRecord
	Links []LinkRecord
	Line  LineRecord
}

type Lookups struct {
	Nodes    NodeTable
	Stations map[int]string
	PTSystem *PTSystem
}

type DeriveOpts struct {
	// JoinLinkNNTime only ends a link at nodes with a positive NNTIME, so one
	// link may span several nodes.
	JoinLinkNNTime bool
}

// DeriveLine walks the nodes of line once and builds its stop, link and line
// features. Consecutive links share their boundary vertex.
func DeriveLine(line *Line, lookups Lookups, opts DeriveOpts) LineFeatures {
	var features LineFeatures
	var linePath, linkPath orb.LineString

	linkStartN, linkStartStation := -1, ""
	lastN, lastStation, lastSeq := -1, "", 0
	nntime := float64(noNNTime)

	for i, node := range line.Nodes {
		seq := i + 1
		n := node.N()
		station := lookups.Stations[n]
		info := lookups.Nodes[n]
		point := orb.Point{info.X, info.Y}

		nntime = noNNTime
		if v, ok := node.NNTime(); ok {
			nntime = v
		}

		features.Stops = append(features.Stops, StopRecord{
			Line:     line.Name,
			Point:    point,
			Station:  station,
			N:        n,
			Seq:      seq,
			IsStop:   node.IsStop(),
			FareZone: info.FareZone,
		})

		linePath = append(linePath, point)
		if len(linkPath) == 0 {
			linkStartN, linkStartStation = n, station
		}
		linkPath = append(linkPath, point)

		if len(linkPath) > 1 && (!opts.JoinLinkNNTime || nntime > 0) {
			features.Links = append(features.Links, LinkRecord{
				Line:     line.Name,
				Path:     linkPath,
				A:        linkStartN,
				B:        n,
				AStation: linkStartStation,
				BStation: station,
				Seq:      seq,
				NNTime:   nntime,
			})
			linkPath = orb.LineString{point}
			linkStartN, linkStartStation = n, station
		}

		lastN, lastStation, lastSeq = n, station, seq
	}

	if len(linkPath) > 1 {
		features.Links = append(features.Links, LinkRecord{
			Line:     line.Name,
			Path:     linkPath,
			A:        linkStartN,
			B:        lastN,
			AStation: linkStartStation,
			BStation: lastStation,
			Seq:      lastSeq,
			NNTime:   nntime,
		})
	}

	features.Line = deriveLineRecord(line, linePath, lookups.PTSystem)
	return features
}

func deriveLineRecord(line *Line, path orb.LineString, pt *PTSystem) LineRecord {
	attrs := line.Attrs
	rec := LineRecord{
		Name:         line.Name,
		Path:         path,
		Mode:         attrs.Int("MODE"),
		ModeType:     attrs.String("USERA2"),
		OperatorText: line.OperatorText(),
		VehicleType:  attrs.Int("VEHICLETYPE"),
		Operator:     attrs.Int("OPERATOR"),
	}
	for i := range rec.Headways {
		rec.Headways[i] = attrs.Float(fmt.Sprintf("HEADWAY[%d]", i+1))
	}
	if pt == nil {
		return rec
	}

	if vt, ok := pt.VehicleTypes[rec.VehicleType]; ok {
		rec.VehicleTypeName = vt.Name
		rec.SeatCap = vt.SeatCap
		rec.CrushCap = vt.CrushCap
	}
	if fs, ok := pt.FareSystems[rec.Mode]; ok {
		rec.FareStructure = fs.Structure
		if strings.EqualFold(fs.Structure, "FLAT") {
			rec.InitialBoardFare = fs.IBoardFare
		}
	}
	return rec
}
