// Package chart renders the per-asset dashboard chart as a PNG: daily
// closes with the moving average, its bands and the trade markers.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/linqiu/folio/internal/models"
)

const dateLayout = "2006-01-02"

// lineSeries collects the days on which fn yields a value into one
// time series; gap days stay out so lines only connect real bars.
func lineSeries(points []models.ChartPoint, fn func(models.ChartPoint) *float64) ([]time.Time, []float64) {
	var xs []time.Time
	var ys []float64
	for _, p := range points {
		v := fn(p)
		if v == nil {
			continue
		}
		ts, err := time.Parse(dateLayout, p.Date)
		if err != nil {
			continue
		}
		xs = append(xs, ts)
		ys = append(ys, *v)
	}
	return xs, ys
}

// Render draws the chart for one asset and returns raw PNG bytes. It needs
// at least two close values to draw anything.
func Render(asset string, points []models.ChartPoint) ([]byte, error) {
	closeX, closeY := lineSeries(points, func(p models.ChartPoint) *float64 { return p.Close })
	if len(closeY) < 2 {
		return nil, fmt.Errorf("chart: need at least 2 close values, got %d", len(closeY))
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Close",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
				StrokeWidth: 2.5,
			},
			XValues: closeX,
			YValues: closeY,
		},
	}

	if maX, maY := lineSeries(points, func(p models.ChartPoint) *float64 { return p.MA }); len(maY) > 0 {
		series = append(series, chart.TimeSeries{
			Name: "MA60",
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
				StrokeWidth: 1.5,
			},
			XValues: maX,
			YValues: maY,
		})
	}

	bandStyle := chart.Style{
		StrokeColor:     drawing.ColorFromHex("9ca3af"), // gray-400
		StrokeWidth:     1.0,
		StrokeDashArray: []float64{5.0, 3.0},
	}
	if upX, upY := lineSeries(points, func(p models.ChartPoint) *float64 { return p.UpperBand }); len(upY) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "+15%",
			Style:   bandStyle,
			XValues: upX,
			YValues: upY,
		})
	}
	if loX, loY := lineSeries(points, func(p models.ChartPoint) *float64 { return p.LowerBand }); len(loY) > 0 {
		series = append(series, chart.TimeSeries{
			Name:    "-15%",
			Style:   bandStyle,
			XValues: loX,
			YValues: loY,
		})
	}

	markers := []struct {
		name string
		hex  string
		fn   func(models.ChartPoint) *float64
	}{
		{"Buy", "16a34a", func(p models.ChartPoint) *float64 { return p.BuyPrice }},
		{"Sell", "dc2626", func(p models.ChartPoint) *float64 { return p.SellPrice }},
		{"Closed Buy", "14b8a6", func(p models.ChartPoint) *float64 { return p.ClosedBuy }},
		{"Closed Sell", "a855f7", func(p models.ChartPoint) *float64 { return p.ClosedSell }},
	}
	for _, m := range markers {
		xs, ys := lineSeries(points, m.fn)
		if len(ys) == 0 {
			continue
		}
		series = append(series, chart.TimeSeries{
			Name: m.name,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    5,
				DotColor:    drawing.ColorFromHex(m.hex),
			},
			XValues: xs,
			YValues: ys,
		})
	}

	graph := chart.Chart{
		Title:  asset,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("01-02")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.3f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}
