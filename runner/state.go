package runner

// State is the lifecycle position of a runner.
type State int

const (
	StateCreated State = iota
	StateRunOpen
	StateFitted
	StatePredicted
	StateEvaluated
	StateLogged
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateRunOpen:
		return "RUN_OPEN"
	case StateFitted:
		return "FITTED"
	case StatePredicted:
		return "PREDICTED"
	case StateEvaluated:
		return "EVALUATED"
	case StateLogged:
		return "LOGGED"
	default:
		return "UNKNOWN"
	}
}
