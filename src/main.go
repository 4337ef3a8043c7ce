package main

import (
	"fmt"
	"os"

	"github.com/integrii/flaggy"

	"pestsim/src/sim"
	"pestsim/src/view"
)

type EnvOptions struct {
	interactive bool
	chartPath   string
	videoPath   string
}

func main() {
	eo, oo := initOptions()

	var stateCh chan sim.Status

	if !eo.interactive {
		stateCh = make(chan sim.Status, 10) //the buffered channel to getting the outbreak status
	}

	o, err := sim.NewOutbreak(oo, stateCh)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if eo.interactive {
		v := view.NewViewTerminal()
		o.RegisterViewer(v)
		v.Start()
		o.Close()
		return
	}

	out := view.NewConsoleOut()
	o.RegisterViewer(out)

	var rec *view.Recorder
	if eo.videoPath != "" {
		rec, err = view.NewRecorder(eo.videoPath, oo.Width, oo.Height)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		o.RegisterViewer(rec)
	}

	out.Start()
	o.Run()
	for {
		st := <-stateCh
		if st.RunningMode == sim.RunningStateFinished {
			break
		}
	}

	if rec != nil {
		if err := rec.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "recording failed: %v\n", err)
		} else {
			fmt.Printf("Video written to %v\n", eo.videoPath)
		}
	}
	if eo.chartPath != "" {
		if err := view.RenderHistoryFile(o.History(), eo.chartPath); err != nil {
			fmt.Fprintf(os.Stderr, "chart rendering failed: %v\n", err)
		} else {
			fmt.Printf("History chart written to %v\n", eo.chartPath)
		}
	}

	o.Close()
	close(stateCh)
}

func initOptions() (eo *EnvOptions, oo *sim.Options) {

	oo = &sim.DefaultOutbreakOptions
	eo = &EnvOptions{}
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.Int(&oo.Width, "x", "width", "Width of a simulation field")
	flaggy.Int(&oo.Height, "y", "height", "Height of a simulation field")
	flaggy.Float64(&oo.Density, "d", "density", "Target fraction of occupied cells, in [0,1]")
	flaggy.Duration(&oo.Interval, "i", "interval", "Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms")
	flaggy.Int(&oo.MaxSteps, "s", "maxSteps", "Limit the simulation to maxSteps")
	flaggy.Int64(&oo.Seed, "", "seed", "Random seed for a reproducible run, 0 picks one from the clock")
	flaggy.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")
	flaggy.String(&eo.chartPath, "c", "chart", "Write the per-step population chart to a PNG file")
	flaggy.String(&eo.videoPath, "o", "video", "Record the run to an MJPEG AVI file")

	flaggy.Parse()

	return
}
