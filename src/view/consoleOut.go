package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/logrusorgru/aurora"

	"pestsim/src/sim"
)

//ConsoleOut is the batch mode reporter
//prints the run configuration on register, progress while running and the
//final population summary when the outbreak finishes
type ConsoleOut struct {
	s         sim.Simulation
	startTime time.Time
}

func NewConsoleOut() *ConsoleOut {
	return &ConsoleOut{}
}

func (c *ConsoleOut) Refresh() {
	st := c.s.Status()
	if st.RunningMode == sim.RunningStateFinished {
		totalTime := time.Since(c.startTime).Round(time.Millisecond)
		resultData := map[string]interface{}{
			"Last step":   st.StepNum,
			"Total time":  totalTime,
			"Susceptible": aurora.Green(st.Counts.Susceptible),
			"Infected":    aurora.Red(st.Counts.Infected),
			"Removed":     st.Counts.Removed,
			"Population":  st.Counts.Total(),
		}
		fmt.Println("\nFinished:")
		c.printHashData(resultData)
	} else if st.RunningMode == sim.RunningStateRun {
		if st.StepNum%10 == 0 {
			fmt.Printf("  Steps done: %v\n", st.StepNum)
		}
	}
}

func (c *ConsoleOut) Register(o *sim.Outbreak) {
	c.s = o
	opts := c.s.Options()
	fmt.Println("Running configuration:")
	fmt.Printf("  Dimension: %v x %v\n", opts.Width, opts.Height)
	fmt.Printf("  Density: %v\n", opts.Density)
	fmt.Printf("  Interval: %v\n", opts.Interval)
	fmt.Printf("  Max steps: %v\n", opts.MaxSteps)
	c.printHashData(opts.Advanced)
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	fmt.Println("\nInfestation simulation started...")
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		fmt.Printf("  %s: %v\n", propName, d[propName])
	}
}
