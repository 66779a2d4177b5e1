package pool

type Status int

const (
	StatusOpen = Status(iota)
	StatusDraining
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusDraining:
		return "DRAINING"
	case StatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// State is a lifecycle state of a pooled session
type State int

const (
	StateFree = State(iota)
	StateInUse
	StateDropped
)

func (s State) String() string {
	switch s {
	case StateFree:
		return "FREE"
	case StateInUse:
		return "IN_USE"
	case StateDropped:
		return "DROPPED"
	default:
		return "UNKNOWN"
	}
}
