package sim

//State is the infection state of a single agent
type State int

const (
	Susceptible State = iota
	Infected
	Removed
)

var stateNames = map[State]string{
	Susceptible: "susceptible",
	Infected:    "infected",
	Removed:     "removed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

//Agent is one stationary occupant of the grid
//the position is assigned once at populate time and never changes
type Agent struct {
	ID    int
	X     int
	Y     int
	State State
}
