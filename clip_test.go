package cube2shp

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClipArea(t *testing.T) {
	feature, err := os.ReadFile("./sample_data/downtown.json")
	require.NoError(t, err)
	clip, err := ParseClipArea(string(feature))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, clip.NumPoints(), 4)

	assert.True(t, clip.Keep(testLine("MUN1I", node(101), node(105)), sampleNodes))
	assert.True(t, clip.Keep(testLine("partly", node(201), node(-102)), sampleNodes))
	assert.False(t, clip.Keep(testLine("51A", node(201), node(203)), sampleNodes))
	assert.False(t, clip.Keep(testLine("unknown", node(999)), sampleNodes))
}

func TestClipAreaFeature(t *testing.T) {
	clip, err := ParseClipArea(`{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[1900,1900],[2200,1900],[2200,2100],[1900,2100],[1900,1900]]]},"properties":{}}`)
	require.NoError(t, err)
	assert.True(t, clip.Keep(testLine("ZZ99", node(301), node(302)), sampleNodes))
	assert.False(t, clip.Keep(testLine("MUN1I", node(101)), sampleNodes))
}

func TestClipAreaStatePlaneCoordinates(t *testing.T) {
	clip, err := ParseClipArea(`{"type":"Polygon","coordinates":[[[6000000,2000000],[6500000,2000000],[6500000,2200000],[6000000,2200000],[6000000,2000000]]]}`)
	require.NoError(t, err)

	nodes := NodeTable{
		1: {X: 6300000, Y: 2100000},
		2: {X: 6900000, Y: 2100000},
	}
	assert.True(t, clip.Keep(testLine("A", node(2), node(1)), nodes))
	assert.False(t, clip.Keep(testLine("B", node(2)), nodes))
}

func TestParseClipAreaInvalid(t *testing.T) {
	_, err := ParseClipArea(`{"type":"Polygon"}`)
	assert.Error(t, err)
	_, err = ParseClipArea(`{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10]]]}`)
	assert.Error(t, err)
	_, err = ParseClipArea("not json")
	assert.Error(t, err)
}
