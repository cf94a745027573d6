package cube2shp

import (
	"fmt"

	"github.com/tidwall/geojson"
	"github.com/tidwall/geojson/geometry"
)

// ClipArea keeps lines that touch a GeoJSON feature. The feature must use the
// same coordinate system as the roadway nodes, which are projected, so
// coordinates are not checked against lon/lat ranges.
type ClipArea struct {
	feature geojson.Object
}

func ParseClipArea(clipFeature string) (*ClipArea, error) {
	feature, err := geojson.Parse(clipFeature, nil)
	if err != nil {
		return nil, fmt.Errorf("parse clip feature: %w", err)
	}
	return &ClipArea{feature: feature}, nil
}

func (c *ClipArea) NumPoints() int {
	return c.feature.NumPoints()
}

// Keep reports whether any node of line lies inside the clip feature. Nodes
// missing from the table are ignored.
func (c *ClipArea) Keep(line *Line, nodes NodeTable) bool {
	for _, node := range line.Nodes {
		info, ok := nodes[node.N()]
		if !ok {
			continue
		}
		point := geojson.NewPoint(geometry.Point{X: info.X, Y: info.Y})
		if c.feature.Contains(point) {
			return true
		}
	}
	return false
}
