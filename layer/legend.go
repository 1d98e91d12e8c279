package layer

// Legend calculates the fill color of a point. The color string is handed to the Canvas as is,
// e.g. "rgb(255,0,0)", "rgb(100%,0%,0%)" or "hsl(0,100%,50%)".
type Legend interface {
	ColorStr(p Point, valueField string) string
}

// LegendFunc adapts a function to a Legend.
type LegendFunc func(p Point, valueField string) string

func (f LegendFunc) ColorStr(p Point, valueField string) string {
	return f(p, valueField)
}

// ReferenceLegend colors every point pure red.
type ReferenceLegend struct{}

func (ReferenceLegend) ColorStr(Point, string) string {
	return "hsl(0,100%,50%)"
}
