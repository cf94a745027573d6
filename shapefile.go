package cube2shp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
)

// FeatureSink receives the derived features of each line, tagged with the
// operator group they belong to.
type FeatureSink interface {
	WriteFeatures(group string, features LineFeatures) error
	Close() error
}

type shapefile struct {
	w    *shp.Writer
	path string
}

type groupWriters struct {
	lines *shapefile
	links *shapefile
	stops *shapefile
}

// ShapefileSink writes transit lines, links and stops shapefiles, one set per
// group. All sets are created up front so every group has files, even empty ones.
type ShapefileSink struct {
	writers map[string]*groupWriters
	order   []string
}

func NewShapefileSink(dir string, groups []string, projection string) (*ShapefileSink, error) {
	s := &ShapefileSink{writers: make(map[string]*groupWriters)}
	for _, group := range groups {
		if _, ok := s.writers[group]; ok {
			continue
		}
		gw := &groupWriters{}
		s.writers[group] = gw
		s.order = append(s.order, group)

		var err error
		gw.lines, err = createShapefile(filepath.Join(dir, fmt.Sprintf(trnLinesShapefile, group)), shp.POLYLINE, trnLineFields, projection)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		gw.links, err = createShapefile(filepath.Join(dir, fmt.Sprintf(trnLinksShapefile, group)), shp.POLYLINE, trnLinkFields, projection)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		gw.stops, err = createShapefile(filepath.Join(dir, fmt.Sprintf(trnStopsShapefile, group)), shp.POINT, trnStopFields, projection)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func createShapefile(path string, shapeType shp.ShapeType, fields []shp.Field, projection string) (*shapefile, error) {
	w, err := shp.Create(path, shapeType)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}
	if err := w.SetFields(fields); err != nil {
		_ = closeShapefile(w, path)
		return nil, fmt.Errorf("set fields of %s: %w", path, err)
	}
	if err := writeProjection(path, projection); err != nil {
		_ = closeShapefile(w, path)
		return nil, err
	}
	return &shapefile{w: w, path: path}, nil
}

// closeShapefile closes w and moves its attribute table to <base>.dbf.
// go-shp v0.1.1 writes the table to <base>dbf, without the dot, while its
// reader and GIS tools expect <base>.dbf.
func closeShapefile(w *shp.Writer, path string) error {
	w.Close()

	base := strings.TrimSuffix(path, filepath.Ext(path))
	err := os.Rename(base+"dbf", base+".dbf")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("move attribute table of %s: %w", path, err)
	}
	return nil
}

// writeProjection writes the .prj sidecar of a shapefile.
func writeProjection(shpPath string, projection string) error {
	if projection == "" {
		return nil
	}
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	return os.WriteFile(prjPath, []byte(projection), 0o644)
}

func (s *ShapefileSink) WriteFeatures(group string, features LineFeatures) error {
	gw, ok := s.writers[group]
	if !ok {
		return fmt.Errorf("no shapefiles for operator group %q", group)
	}

	for _, stop := range features.Stops {
		point := &shp.Point{X: stop.Point.X(), Y: stop.Point.Y()}
		if err := writeRow(gw.stops.w, trnStopFields, point, stop.values()); err != nil {
			return fmt.Errorf("stop %d of %s: %w", stop.Seq, stop.Line, err)
		}
	}
	for _, link := range features.Links {
		if err := writeRow(gw.links.w, trnLinkFields, polyline(link.Path), link.values()); err != nil {
			return fmt.Errorf("link %d of %s: %w", link.Seq, link.Line, err)
		}
	}
	if err := writeRow(gw.lines.w, trnLineFields, polyline(features.Line.Path), features.Line.values()); err != nil {
		return fmt.Errorf("line %s: %w", features.Line.Name, err)
	}
	return nil
}

// writeRow writes shape and its attributes. Strings are cut to the field width.
func writeRow(w *shp.Writer, fields []shp.Field, shape shp.Shape, values []any) error {
	row := int(w.Write(shape))
	for i, v := range values {
		if s, ok := v.(string); ok {
			v = truncateUTF8(s, int(fields[i].Size))
		}
		if err := w.WriteAttribute(row, i, v); err != nil {
			return err
		}
	}
	return nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func polyline(path orb.LineString) *shp.PolyLine {
	points := make([]shp.Point, len(path))
	for i, p := range path {
		points[i] = shp.Point{X: p.X(), Y: p.Y()}
	}
	return shp.NewPolyLine([][]shp.Point{points})
}

func (s *ShapefileSink) Close() error {
	var firstErr error
	for _, group := range s.order {
		gw := s.writers[group]
		for _, f := range []*shapefile{gw.lines, gw.links, gw.stops} {
			if f == nil {
				continue
			}
			if err := closeShapefile(f.w, f.path); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	s.writers = nil
	s.order = nil
	return firstErr
}

type multiSink []FeatureSink

func (m multiSink) WriteFeatures(group string, features LineFeatures) error {
	for _, s := range m {
		if err := s.WriteFeatures(group, features); err != nil {
			return err
		}
	}
	return nil
}

func (m multiSink) Close() error {
	var firstErr error
	for _, s := range m {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
