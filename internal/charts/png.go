package charts

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/temperature-dashboard/internal/common"
)

// ErrNotEnoughPoints is returned when a PNG is requested for fewer than two observations.
var ErrNotEnoughPoints = errors.New("at least two observations are needed to draw a line")

// RenderPNG draws the current series as a static PNG.
func (c *LineChart) RenderPNG(w io.Writer, width, height int) error {
	labels, values := c.Series()

	var (
		xValues []time.Time
		yValues []float64
	)
	for i, label := range labels {
		day, err := common.ParseDay(label)
		if err != nil {
			continue
		}
		xValues = append(xValues, day)
		yValues = append(yValues, values[i])
	}
	if len(xValues) < 2 {
		return ErrNotEnoughPoints
	}

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 10, Left: 30, Right: 10, Bottom: 20},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("01-02"),
		},
		YAxis: chart.YAxis{
			Name: "°C",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name: seriesName,
				Style: chart.Style{
					StrokeColor: drawing.ColorFromHex(lineColor[1:]),
					StrokeWidth: 1,
				},
				XValues: xValues,
				YValues: yValues,
			},
		},
	}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
