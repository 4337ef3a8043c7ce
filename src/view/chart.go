package view

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"pestsim/src/sim"
)

//RenderHistory renders the cumulative per-step population counts as a PNG
//line chart with one series per infection state
func RenderHistory(history []sim.Counts, w io.Writer) error {
	if len(history) < 2 {
		return fmt.Errorf("not enough data to render the history chart: %v steps", len(history))
	}

	steps := make([]float64, len(history))
	susceptible := make([]float64, len(history))
	infected := make([]float64, len(history))
	removed := make([]float64, len(history))
	for i, c := range history {
		steps[i] = float64(i + 1)
		susceptible[i] = float64(c.Susceptible)
		infected[i] = float64(c.Infected)
		removed[i] = float64(c.Removed)
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:  "Step",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%d", int(v.(float64)))
			},
		},
		YAxis: chart.YAxis{
			Name:  "Agents",
			Style: chart.Style{FontSize: 10.0},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Susceptible",
				XValues: steps,
				YValues: susceptible,
				Style:   chart.Style{StrokeColor: chart.ColorGreen, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "Infected",
				XValues: steps,
				YValues: infected,
				Style:   chart.Style{StrokeColor: chart.ColorRed, StrokeWidth: 2.0},
			},
			chart.ContinuousSeries{
				Name:    "Removed",
				XValues: steps,
				YValues: removed,
				Style:   chart.Style{StrokeColor: drawing.Color{R: 128, G: 128, B: 128, A: 255}, StrokeWidth: 2.0},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

//RenderHistoryFile renders the history chart into the named PNG file
func RenderHistoryFile(history []sim.Counts, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := RenderHistory(history, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
