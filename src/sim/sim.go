package sim

type Simulation interface {
	Status() Status
	Options() Options
	Agents() []Agent
	History() []Counts
	StateCh() chan Status
	RegisterViewer(v Viewer)
	Run()
	Stop()
	Step()
	Reset(seed int64)
	Close()
}
