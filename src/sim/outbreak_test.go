package sim

import (
	"errors"
	"reflect"
	"testing"
)

func testOptions(w, h int, density float64, seed int64) *Options {
	o := DefaultOutbreakOptions
	o.Width = w
	o.Height = h
	o.Density = density
	o.Seed = seed
	o.Interval = 0
	return &o
}

func mustOutbreak(t *testing.T, o *Options) *Outbreak {
	t.Helper()
	u, err := NewOutbreak(o, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(u.Close)
	return u
}

//stepToCompletion drives the outbreak synchronously until the termination
//predicate fires, collecting a population snapshot after every step
func stepToCompletion(t *testing.T, u *Outbreak) (snapshots [][]Agent) {
	t.Helper()
	for i := 0; i < u.options.MaxSteps+1; i++ {
		u.step()
		snapshots = append(snapshots, u.Agents())
		if u.Status().RunningMode == RunningStateFinished {
			return
		}
	}
	t.Fatal("the outbreak did not finish within the step limit")
	return
}

func TestInvalidConfiguration(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(o *Options)
	}{
		{"zero width", func(o *Options) { o.Width = 0 }},
		{"negative height", func(o *Options) { o.Height = -3 }},
		{"negative density", func(o *Options) { o.Density = -0.1 }},
		{"density above one", func(o *Options) { o.Density = 1.1 }},
		{"zero maxSteps", func(o *Options) { o.MaxSteps = 0 }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			o := testOptions(10, 10, 0.5, 1)
			c.mutate(o)
			if _, err := NewOutbreak(o, nil); !errors.Is(err, ErrInvalidConfiguration) {
				t.Fatalf("got %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestPopulationSize(t *testing.T) {
	cases := []struct {
		w, h    int
		density float64
		want    int
	}{
		{10, 10, 0.37, 37},
		{50, 50, 0.3, 750},
		{5, 4, 1, 20},
		{8, 8, 0, 0},
	}
	for _, c := range cases {
		u := mustOutbreak(t, testOptions(c.w, c.h, c.density, 11))
		agents := u.Agents()
		if len(agents) != c.want {
			t.Fatalf("%vx%v density %v: created %v agents, want %v", c.w, c.h, c.density, len(agents), c.want)
		}
		seen := map[[2]int]bool{}
		for _, a := range agents {
			if a.X < 0 || a.Y < 0 || a.X >= c.w || a.Y >= c.h {
				t.Fatalf("agent %v settled outside the grid at (%v,%v)", a.ID, a.X, a.Y)
			}
			p := [2]int{a.X, a.Y}
			if seen[p] {
				t.Fatalf("two agents share position (%v,%v)", a.X, a.Y)
			}
			seen[p] = true
		}
	}
}

func TestBoundarySeeding(t *testing.T) {
	u := mustOutbreak(t, testOptions(20, 15, 0.5, 7))
	for _, a := range u.Agents() {
		if a.X == 0 && a.State != Infected {
			t.Fatalf("agent %v at the leftmost column starts %v, want infected", a.ID, a.State)
		}
		if a.X != 0 && a.State != Susceptible {
			t.Fatalf("agent %v at (%v,%v) starts %v, want susceptible", a.ID, a.X, a.Y, a.State)
		}
	}
}

func TestCountsSumInvariant(t *testing.T) {
	u := mustOutbreak(t, testOptions(30, 30, 0.4, 5))
	total := len(u.Agents())
	stepToCompletion(t, u)
	history := u.History()
	if len(history) == 0 {
		t.Fatal("empty history after a completed run")
	}
	for i, c := range history {
		if c.Total() != total {
			t.Fatalf("step %v: counts %+v sum to %v, want %v", i+1, c, c.Total(), total)
		}
	}
}

func TestRemovedIsTerminalAndMonotone(t *testing.T) {
	u := mustOutbreak(t, testOptions(25, 25, 0.5, 3))
	snapshots := stepToCompletion(t, u)
	history := u.History()

	for i := 1; i < len(history); i++ {
		if history[i].Removed < history[i-1].Removed {
			t.Fatalf("removed count dropped from %v to %v at step %v", history[i-1].Removed, history[i].Removed, i+1)
		}
	}
	for i := 1; i < len(snapshots); i++ {
		for id, a := range snapshots[i] {
			if snapshots[i-1][id].State == Removed && a.State != Removed {
				t.Fatalf("agent %v left the removed state at step %v", id, i+1)
			}
			if snapshots[i-1][id].State == Infected && a.State == Susceptible {
				t.Fatalf("agent %v went back from infected to susceptible at step %v", id, i+1)
			}
		}
	}
}

func TestTermination(t *testing.T) {
	u := mustOutbreak(t, testOptions(20, 20, 0.4, 9))
	stepToCompletion(t, u)
	history := u.History()

	last := history[len(history)-1]
	if last.Infected != 0 {
		t.Fatalf("finished with %v infected agents, want 0", last.Infected)
	}
	for i, c := range history[:len(history)-1] {
		if c.Infected == 0 {
			t.Fatalf("step %v has no infected agents but the run went on", i+1)
		}
	}

	//a finished outbreak must ignore further steps
	steps := u.Status().StepNum
	u.step()
	if got := u.Status().StepNum; got != steps {
		t.Fatalf("step after finish advanced the counter to %v, want %v", got, steps)
	}
	if len(u.History()) != len(history) {
		t.Fatal("step after finish extended the history")
	}
}

func TestReproducibility(t *testing.T) {
	a := mustOutbreak(t, testOptions(40, 30, 0.35, 123))
	b := mustOutbreak(t, testOptions(40, 30, 0.35, 123))
	snapA := stepToCompletion(t, a)
	snapB := stepToCompletion(t, b)

	if !reflect.DeepEqual(a.History(), b.History()) {
		t.Fatal("two runs with the same seed produced different histories")
	}
	if !reflect.DeepEqual(snapA, snapB) {
		t.Fatal("two runs with the same seed produced different population snapshots")
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := mustOutbreak(t, testOptions(40, 30, 0.35, 1))
	b := mustOutbreak(t, testOptions(40, 30, 0.35, 2))
	if reflect.DeepEqual(a.Agents(), b.Agents()) {
		t.Fatal("two different seeds produced identical initial populations")
	}
}

func TestZeroDensity(t *testing.T) {
	u := mustOutbreak(t, testOptions(10, 10, 0, 1))
	if n := len(u.Agents()); n != 0 {
		t.Fatalf("density 0 created %v agents, want 0", n)
	}
	u.step()
	if got := u.Status().RunningMode; got != RunningStateFinished {
		t.Fatalf("empty population did not finish after the first step, mode %v", got)
	}
	history := u.History()
	if len(history) != 1 || (history[0] != Counts{}) {
		t.Fatalf("history %+v, want a single all-zero entry", history)
	}
}

//the concrete seeded scenario: 50x50 field, density 0.3
func TestSeededScenarioFirstStep(t *testing.T) {
	u := mustOutbreak(t, testOptions(50, 50, 0.3, 42))

	seeded := 0
	for _, a := range u.Agents() {
		if a.X == 0 {
			seeded++
		}
	}
	if seeded == 0 {
		t.Fatal("no agents settled at the leftmost column")
	}

	u.step()
	first := u.History()[0]
	if first.Total() != 750 {
		t.Fatalf("first step counts %+v sum to %v, want 750", first, first.Total())
	}
	//every seeded agent acts and turns removed within step 1, some of the
	//agents it infects act within the same step as well
	if first.Removed < seeded {
		t.Fatalf("removed %v after step 1, want at least the %v seeded agents", first.Removed, seeded)
	}
	if first.Infected >= seeded {
		t.Fatalf("infected %v after step 1, want strictly less than the %v seeded agents", first.Infected, seeded)
	}
}

//drive the outbreak through the public command surface the way the CLI does
func TestRunViaStateChannel(t *testing.T) {
	stateCh := make(chan Status, 10)
	u, err := NewOutbreak(testOptions(20, 20, 0.4, 17), stateCh)
	if err != nil {
		t.Fatal(err)
	}

	u.Run()
	var last Status
	for {
		st := <-stateCh
		if st.RunningMode == RunningStateFinished {
			last = st
			break
		}
	}

	history := u.History()
	if len(history) == 0 {
		t.Fatal("empty history after a completed run")
	}
	if last.StepNum != len(history) {
		t.Fatalf("final status reports step %v, history holds %v entries", last.StepNum, len(history))
	}
	if last.Counts != history[len(history)-1] {
		t.Fatalf("final status counts %+v disagree with the history tail %+v", last.Counts, history[len(history)-1])
	}

	u.Close()
	close(stateCh)
}

func TestOptionsSnapshotIsolated(t *testing.T) {
	u := mustOutbreak(t, testOptions(10, 10, 0.3, 5))
	o := u.Options()
	o.Advanced["seed"] = int64(-1)
	if got := u.Options().Advanced["seed"]; got != int64(5) {
		t.Fatalf("mutating the returned options changed the engine seed to %v", got)
	}
}

//reseeding must not race with viewers reading the configuration
func TestOptionsDuringReset(t *testing.T) {
	stateCh := make(chan Status, 10)
	u, err := NewOutbreak(testOptions(20, 20, 0.3, 5), stateCh)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if u.Options().Advanced["seed"] == nil {
				t.Error("options snapshot lost the effective seed")
				return
			}
		}
	}()

	for i := 0; i < 20; i++ {
		u.Reset(int64(i) + 1)
		<-stateCh //wait for the reseed
	}
	<-done

	u.Close()
	close(stateCh)
}

func TestMaxStepsCap(t *testing.T) {
	o := testOptions(60, 20, 0.5, 13)
	o.MaxSteps = 3
	u := mustOutbreak(t, o)
	stepToCompletion(t, u)

	history := u.History()
	if len(history) != 3 {
		t.Fatalf("history holds %v entries, want exactly the %v capped steps", len(history), o.MaxSteps)
	}
	st := u.Status()
	if st.StepNum != 3 {
		t.Fatalf("finished at step %v, want %v", st.StepNum, o.MaxSteps)
	}
	if st.RunningMode != RunningStateFinished {
		t.Fatalf("mode %v after the step cap, want finished", st.RunningMode)
	}
	if history[2].Infected == 0 {
		t.Fatal("the infestation died out before the cap, the scenario must outlive it")
	}

	//the cap must hold further steps off as well
	u.step()
	if len(u.History()) != 3 {
		t.Fatal("step after the cap extended the history")
	}
}
