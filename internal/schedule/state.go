package schedule

import (
	"fmt"

	"github.com/samber/mo"
)

type Phase int

const (
	Idle Phase = iota
	Loading
	Ready
	Error
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is a snapshot of the controller. ScheduleID is absent while the
// default schedule is being requested.
type State struct {
	Phase      Phase
	ScheduleID mo.Option[string]
	Silent     bool
	Err        error
}

func (s State) String() string {
	id := s.ScheduleID.OrElse("<default>")
	switch s.Phase {
	case Idle:
		return "idle"
	case Error:
		return fmt.Sprintf("error(%s): %v", id, s.Err)
	default:
		return fmt.Sprintf("%s(%s)", s.Phase, id)
	}
}
