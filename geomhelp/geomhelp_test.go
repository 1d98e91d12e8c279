package geomhelp

import (
	"testing"

	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
)

func TestWktMustEncode(t *testing.T) {
	polygon := geom.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	full := WktMustEncode(polygon, 0)
	assert.Contains(t, full, "POLYGON")
	assert.Contains(t, full, "10 10")

	short := WktMustEncode(polygon, 12)
	assert.Len(t, short, 12)
	assert.Equal(t, "...", short[len(short)-3:])
}
