package chart

import (
	"bytes"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/YuminosukeSato/bcpredict/dataset"
	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

var namedColors = map[string]color.NRGBA{
	"mediumpurple": {R: 147, G: 112, B: 219, A: 255},
	"hotpink":      {R: 255, G: 105, B: 180, A: 255},
	"lightblue":    {R: 173, G: 216, B: 230, A: 255},
}

var gridColor = color.Gray{Y: 200}

const (
	ringCount  = 5
	ringPoints = 72
	fillAlpha  = 96
	labelPad   = 1.12
)

// angle returns the direction of spoke i. Spokes run clockwise starting at
// twelve o'clock.
func angle(i int) float64 {
	return math.Pi/2 - 2*math.Pi*float64(i)/dataset.NumCategories
}

func polar(r float64, i int) plotter.XY {
	a := angle(i)
	return plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)}
}

// RenderSVG draws chart as an SVG document of the given size.
func RenderSVG(chart RadarChart, width, height vg.Length) ([]byte, error) {
	p, err := radarPlot(chart)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(width, height, "svg")
	if err != nil {
		return nil, errors.Wrap(err, "create svg canvas")
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, "write svg")
	}
	return buf.Bytes(), nil
}

// tracePoints places t on the spokes relative to the inner edge of radial.
// Values below the range sit at the centre instead of crossing to the
// opposite spoke.
func tracePoints(t Trace, radial [2]float64) plotter.XYs {
	pts := make(plotter.XYs, dataset.NumCategories)
	for i, r := range t.R {
		pts[i] = polar(math.Max(r, radial[0])-radial[0], i)
	}
	return pts
}

func radarPlot(chart RadarChart) (*plot.Plot, error) {
	outer := chart.RadialRange[1]
	if outer <= chart.RadialRange[0] {
		return nil, errors.NewValueError("chart.RenderSVG", "empty radial range")
	}
	for _, t := range chart.Traces {
		for _, r := range t.R {
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return nil, errors.NewValueError("chart.RenderSVG", "trace "+t.Name+" has a non-finite value")
			}
			outer = math.Max(outer, r)
		}
	}

	p := plot.New()
	p.HideAxes()
	lim := outer * 1.3
	p.X.Min, p.X.Max = -lim, lim
	p.Y.Min, p.Y.Max = -lim, lim
	p.Legend.Top = true

	if err := addGrid(p, chart.RadialRange, chart.Traces[0].Theta); err != nil {
		return nil, err
	}

	for _, t := range chart.Traces {
		c, ok := namedColors[t.Color]
		if !ok {
			return nil, errors.NewValueError("chart.RenderSVG", "unknown colour "+t.Color)
		}
		poly, err := plotter.NewPolygon(tracePoints(t, chart.RadialRange))
		if err != nil {
			return nil, errors.Wrapf(err, "trace %s", t.Name)
		}
		fill := c
		fill.A = fillAlpha
		poly.Color = fill
		poly.LineStyle.Color = c
		poly.LineStyle.Width = vg.Points(1.5)
		p.Add(poly)
		p.Legend.Add(t.Name, poly)
	}
	return p, nil
}

func addGrid(p *plot.Plot, radial [2]float64, theta [dataset.NumCategories]string) error {
	span := radial[1] - radial[0]
	style := draw.LineStyle{Color: gridColor, Width: vg.Points(0.5)}

	for k := 1; k <= ringCount; k++ {
		r := span * float64(k) / ringCount
		ring := make(plotter.XYs, ringPoints+1)
		for i := range ring {
			a := 2 * math.Pi * float64(i) / ringPoints
			ring[i] = plotter.XY{X: r * math.Cos(a), Y: r * math.Sin(a)}
		}
		l, err := plotter.NewLine(ring)
		if err != nil {
			return errors.Wrap(err, "radar ring")
		}
		l.LineStyle = style
		p.Add(l)
	}

	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, dataset.NumCategories),
		Labels: make([]string, dataset.NumCategories),
	}
	for i := 0; i < dataset.NumCategories; i++ {
		spoke, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, polar(span, i)})
		if err != nil {
			return errors.Wrap(err, "radar spoke")
		}
		spoke.LineStyle = style
		p.Add(spoke)

		labels.XYs[i] = polar(span*labelPad, i)
		labels.Labels[i] = theta[i]
	}

	l, err := plotter.NewLabels(labels)
	if err != nil {
		return errors.Wrap(err, "radar labels")
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign = draw.XCenter
		l.TextStyle[i].YAlign = draw.YCenter
	}
	p.Add(l)
	return nil
}
