// Package plot renders the current review window as PNG charts: stacked
// sensor traces in sensors mode, the fix path in GPS mode.
package plot

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/watchtrace/watchtrace/pkg/dataset"
	"github.com/watchtrace/watchtrace/pkg/gpsindex"
	"github.com/watchtrace/watchtrace/pkg/logx"
)

// Renderer draws window charts at a fixed pixel size.
type Renderer struct {
	logger *logx.Logger
	width  int
	height int
}

// NewRenderer creates a renderer with the given canvas size. Non-positive
// dimensions fall back to 800x300.
func NewRenderer(logger *logx.Logger, width, height int) *Renderer {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 300
	}
	return &Renderer{logger: logger, width: width, height: height}
}

// SensorChart renders one chart with a line per requested float field, over
// the rows of the current sensor window. Fields with no values in the window
// are skipped; a window with no plottable values is an error. The y axis
// never collapses below [-1, 1] so near-constant traces stay readable.
func (r *Renderer) SensorChart(store *dataset.Store, fields []string, w io.Writer) error {
	var series []chart.Series
	yMin, yMax := -1.0, 1.0

	for i, field := range fields {
		xs, ys := store.WindowFloats(field)
		if len(xs) == 0 {
			continue
		}
		for _, y := range ys {
			if y < yMin {
				yMin = y
			}
			if y > yMax {
				yMax = y
			}
		}
		series = append(series, chart.ContinuousSeries{
			Name:    field,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: chart.GetAlternateColor(i),
			},
		})
	}
	if len(series) == 0 {
		return fmt.Errorf("no plottable values in the current window")
	}

	graph := chart.Chart{
		Width:  r.width,
		Height: r.height,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render sensor chart: %w", err)
	}
	r.logger.Debug("Sensor chart rendered", "fields", len(series))
	return nil
}

// GPSPath renders the fixes of the current GPS window as a path, invalid runs
// drawn in a separate color. An empty window is an error.
func (r *Renderer) GPSPath(idx *gpsindex.Index, w io.Writer) error {
	c := idx.Cursor()
	if !c.Active() {
		return fmt.Errorf("no GPS data loaded")
	}
	end := c.End()
	if end > idx.Size() {
		end = idx.Size()
	}

	var pathX, pathY []float64
	var validX, validY []float64
	var invalidX, invalidY []float64
	for i := c.Start(); i < end; i++ {
		run := idx.Run(i)
		pathX = append(pathX, run.Longitude)
		pathY = append(pathY, run.Latitude)
		if run.IsValid {
			validX = append(validX, run.Longitude)
			validY = append(validY, run.Latitude)
		} else {
			invalidX = append(invalidX, run.Longitude)
			invalidY = append(invalidY, run.Latitude)
		}
	}
	if len(pathX) == 0 {
		return fmt.Errorf("no GPS fixes in the current window")
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "path",
			XValues: pathX,
			YValues: pathY,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("9e9e9e"),
			},
		},
	}
	if len(validX) > 0 {
		series = append(series, scatter("valid", validX, validY, drawing.ColorFromHex("2e7d32")))
	}
	if len(invalidX) > 0 {
		series = append(series, scatter("invalid", invalidX, invalidY, drawing.ColorFromHex("c62828")))
	}

	graph := chart.Chart{
		Width:  r.width,
		Height: r.height,
		XAxis:  chart.XAxis{Name: "longitude"},
		YAxis:  chart.YAxis{Name: "latitude"},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render GPS path: %w", err)
	}
	r.logger.Debug("GPS path rendered", "fixes", len(pathX))
	return nil
}

func scatter(name string, xs, ys []float64, color drawing.Color) chart.Series {
	return chart.ContinuousSeries{
		Name:    name,
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidth:    4,
			DotColor:    color,
		},
	}
}
