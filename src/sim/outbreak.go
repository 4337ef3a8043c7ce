package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

//ErrInvalidConfiguration indicates unusable initialization parameters
//it is surfaced to the caller before any simulation state is created
var ErrInvalidConfiguration = errors.New("invalid configuration")

//Options represents the outbreak's configurable options
type Options struct {
	Width           int
	Height          int
	Density         float64 //target fraction of occupied cells, in [0,1]
	MaxSteps        int
	Seed            int64 //0 means derive the seed from the clock
	Interval        time.Duration
	MaxSkippedTicks int
	Advanced        map[string]interface{} //advanced options (seed actually used etc)
}

//Counts is the aggregate population split for one completed step
type Counts struct {
	Susceptible int
	Infected    int
	Removed     int
}

//Total is the whole population size
func (c Counts) Total() int {
	return c.Susceptible + c.Infected + c.Removed
}

//Status represents the status of the outbreak at concrete moment
type Status struct {
	StepNum     int
	RunningMode RunningState
	Counts      Counts
	StepTime    time.Duration
	Details     map[string]interface{}
}

//Viewer is the interface to any Viewer - the object who can display simulation data or control the engine
type Viewer interface {
	Refresh()
	Register(o *Outbreak)
	Start()
}

//The outbreak running status at the concrete moment
type RunningState int

//default options
const (
	DefSimulationInterval = time.Millisecond * 100
	DefMaxSteps           = 1000
	DefWidth              = 50
	DefHeight             = 50
	DefDensity            = 0.3
	DefMaxSkippedTicks    = 5
)

const (
	RunningStateManual   RunningState = 0x0
	RunningStateStep     RunningState = 0x1
	RunningStateRun      RunningState = 0x2
	RunningStateFinished RunningState = 0x3
)

var DefaultOutbreakOptions = Options{
	Width:           DefWidth,
	Height:          DefHeight,
	Density:         DefDensity,
	MaxSteps:        DefMaxSteps,
	Interval:        DefSimulationInterval,
	MaxSkippedTicks: DefMaxSkippedTicks,
}

//Outbreak is the pest infestation engine
//implements Simulation interface
//owns the grid and the agent population exclusively, all mutation goes
//through the control channel of the main loop
type Outbreak struct {
	options Options
	state   struct {
		Status
		sync.Mutex
	}
	grid struct {
		*Grid
		sync.Mutex
	}
	rng       *rand.Rand
	agents    []*Agent //creation order, visitation order is shuffled per step
	history   []Counts
	stateCh   chan Status
	views     []Viewer
	controlCh chan func()
	closeCh   chan bool
}

//NewOutbreak creates the Outbreak instance
//the configuration is validated before any simulation state is created
func NewOutbreak(o *Options, stateCh chan Status) (*Outbreak, error) {
	if o == nil {
		o = &DefaultOutbreakOptions
	}
	if err := validateOptions(o); err != nil {
		return nil, err
	}
	o.Advanced = make(map[string]interface{})
	o.Advanced["engine"] = "outbreak"

	u := Outbreak{
		options:   *o,
		controlCh: make(chan func(), 1),
		closeCh:   make(chan bool, 1),
		stateCh:   stateCh,
	}
	u.state.Details = make(map[string]interface{})

	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	u.rng = rand.New(rand.NewSource(seed))
	u.options.Advanced["seed"] = seed

	if err := u.populate(); err != nil {
		return nil, err
	}
	u.refreshView()
	go u.mainLoop()
	return &u, nil
}

func validateOptions(o *Options) error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("%w: dimensions %vx%v must be positive", ErrInvalidConfiguration, o.Width, o.Height)
	}
	if o.Density < 0 || o.Density > 1 {
		return fmt.Errorf("%w: density %v must be in [0,1]", ErrInvalidConfiguration, o.Density)
	}
	if o.MaxSteps <= 0 {
		return fmt.Errorf("%w: maxSteps %v must be positive", ErrInvalidConfiguration, o.MaxSteps)
	}
	return nil
}

//populate creates the grid and settles floor(W*H*density) agents on
//shuffled distinct coordinates
//agents settled at the leftmost column start infected, all others susceptible
func (u *Outbreak) populate() error {
	w := u.options.Width
	h := u.options.Height
	g := NewGrid(w, h)

	coords := make([][2]int, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			coords = append(coords, [2]int{x, y})
		}
	}
	u.rng.Shuffle(len(coords), func(i, j int) {
		coords[i], coords[j] = coords[j], coords[i]
	})

	n := int(float64(w*h) * u.options.Density)
	agents := make([]*Agent, 0, n)
	for id := 0; id < n; id++ {
		c := coords[id]
		st := Susceptible
		if c[0] == 0 {
			st = Infected
		}
		a := &Agent{ID: id, State: st}
		if err := g.Place(a, c[0], c[1]); err != nil {
			return err
		}
		agents = append(agents, a)
	}

	u.grid.Grid = g
	u.agents = agents
	u.history = nil
	u.state.Counts = u.countStates()
	return nil
}

//RegisterViewer registers the viewer - the outbreak will call the viewer when the state is changed
func (u *Outbreak) RegisterViewer(v Viewer) {
	u.views = append(u.views, v)
	v.Register(u)
}

//StateCh returns the channel with the outbreak's status updates
func (u *Outbreak) StateCh() chan Status {
	return u.stateCh
}

//Status returns current outbreak status represented by Status struct
func (u *Outbreak) Status() Status {
	u.state.Lock()
	defer u.state.Unlock()
	return u.state.Status
}

//Options returns current outbreak configuration represented by Options struct
//the Advanced map is cloned, reset updates it while viewers repaint
func (u *Outbreak) Options() Options {
	u.state.Lock()
	defer u.state.Unlock()
	o := u.options
	o.Advanced = make(map[string]interface{}, len(u.options.Advanced))
	for k, v := range u.options.Advanced {
		o.Advanced[k] = v
	}
	return o
}

//Agents returns the snapshot of the whole population with position and current state
func (u *Outbreak) Agents() []Agent {
	u.grid.Lock()
	defer u.grid.Unlock()
	snapshot := make([]Agent, len(u.agents))
	for i, a := range u.agents {
		snapshot[i] = *a
	}
	return snapshot
}

//History returns the cumulative per-step aggregate counts, one entry per completed step
func (u *Outbreak) History() []Counts {
	u.grid.Lock()
	defer u.grid.Unlock()
	history := make([]Counts, len(u.history))
	copy(history, u.history)
	return history
}

//Run starts the outbreak simulation, returns immediately
func (u *Outbreak) Run() {
	u.controlCh <- u.run
}

//Stop stops the outbreak simulation, returns immediately
//the Status struct will be written to the stateCh on finish
func (u *Outbreak) Stop() {
	u.controlCh <- u.stop
}

//Step does one simulation step, returns immediately
//the Status struct will be written to the stateCh on start and on finish
func (u *Outbreak) Step() {
	u.controlCh <- u.step
}

//Reset re-populates the outbreak with the given seed and resets all counters,
//returns immediately
//seed 0 means derive a fresh seed from the clock
func (u *Outbreak) Reset(seed int64) {
	u.controlCh <- func() {
		u.reset(seed)
	}
}

//Close stops the main loop, closes the channels, returns immediately
func (u *Outbreak) Close() {
	u.closeCh <- true
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
//all state mutation is serialized here, the step itself is strictly sequential
func (u *Outbreak) mainLoop() {
	var c = false
	for !c {
		select {
		case cmd := <-u.controlCh:
			cmd()
		case c = <-u.closeCh:

		}
	}
	close(u.closeCh)
	close(u.controlCh)
}

//countStates calculates the aggregate population split
func (u *Outbreak) countStates() (c Counts) {
	for _, a := range u.agents {
		switch a.State {
		case Susceptible:
			c.Susceptible++
		case Infected:
			c.Infected++
		case Removed:
			c.Removed++
		}
	}
	return
}

//switchRunningState switches the state of the outbreak to RunningState
//also writes the new state to the stateCh to signal upper control software
func (u *Outbreak) switchRunningState(to RunningState) {
	u.state.Lock()
	u.state.RunningMode = to
	st := u.state.Status
	u.state.Unlock()
	if u.stateCh != nil {
		u.stateCh <- st
	}
}

//run starts the outbreak running cycle
//simulation will stop on Stop() calling or when the termination predicate fires
func (u *Outbreak) run() {
	go func() {
		u.switchRunningState(RunningStateRun)
		skipped := 0
		done := make(chan bool)
		defer close(done)
		for {
			mode := u.Status().RunningMode
			if mode != RunningStateRun && mode != RunningStateStep {
				break
			}
			if skipped > u.options.MaxSkippedTicks {
				u.switchRunningState(RunningStateFinished)
				break
			}
			//skip the tick if the outbreak is still in the calculation mode
			if mode != RunningStateStep {
				skipped = 0
				u.controlCh <- func() {
					u.step()
					done <- true
				}
				<-done
			} else {
				skipped++
			}
			if u.options.Interval > 0 {
				time.Sleep(u.options.Interval)
			}
		}
	}()
}

//stop stops the outbreak running cycle
func (u *Outbreak) stop() {
	if u.Status().RunningMode == RunningStateRun {
		u.switchRunningState(RunningStateManual)
	}
}

//step runs the step procedure: visit every agent once in randomized order,
//record the aggregate counts and evaluate the termination predicate
func (u *Outbreak) step() {
	st := u.Status()
	if st.RunningMode == RunningStateFinished {
		return
	}
	finished := false
	rm := st.RunningMode
	maxSteps := u.options.MaxSteps
	u.state.Lock()
	u.state.StepNum++
	stepNum := u.state.StepNum
	u.state.Unlock()
	defer func() {
		if finished {
			u.switchRunningState(RunningStateFinished)
		} else {
			u.switchRunningState(rm)
		}
		u.refreshView()
	}()

	u.switchRunningState(RunningStateStep)
	infected := u.advance()
	if infected == 0 || stepNum >= maxSteps {
		finished = true
	}
}

//advance visits every agent exactly once in a freshly shuffled order and
//applies the transition rule, then appends the counts to the history
//the visitation order is snapshotted up front: an agent infected mid-step
//acts no earlier than its own single slot in the current order
func (u *Outbreak) advance() (infected int) {
	u.grid.Lock()
	defer u.grid.Unlock()
	start := time.Now()

	order := make([]*Agent, len(u.agents))
	copy(order, u.agents)
	u.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	for _, a := range order {
		u.maybeSpreadInfestation(a)
	}

	c := u.countStates()
	u.history = append(u.history, c)
	u.state.Lock()
	u.state.Counts = c
	u.state.StepTime = time.Since(start)
	u.state.Unlock()
	return c.Infected
}

//maybeSpreadInfestation applies the transition rule to one agent
//the rule fires only for an agent infected at visit time: every susceptible
//8-neighbor turns infected immediately (within the same step, so propagation
//speed depends on the visitation order) and the agent itself turns removed
func (u *Outbreak) maybeSpreadInfestation(a *Agent) {
	if a.State != Infected {
		return
	}
	for _, n := range u.grid.Neighbors(a.X, a.Y) {
		if n.State == Susceptible {
			n.State = Infected
		}
	}
	a.State = Removed
}

//reset re-populates the outbreak data, resets all counters
func (u *Outbreak) reset(seed int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	u.state.Lock()
	u.grid.Lock()
	u.state.StepNum = 0
	u.state.StepTime = 0
	u.state.RunningMode = RunningStateManual
	u.rng = rand.New(rand.NewSource(seed))
	u.options.Advanced["seed"] = seed
	if err := u.populate(); err != nil {
		//placement never fails for validated options, N <= W*H by construction
		panic(err)
	}
	u.grid.Unlock()
	u.state.Unlock()
	u.switchRunningState(RunningStateManual)
	u.refreshView()
}

//refreshView calls Refresh event for all registered views
func (u *Outbreak) refreshView() {
	for _, v := range u.views {
		v.Refresh()
	}
}
