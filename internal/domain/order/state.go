package order

import "fmt"

type Status string

const (
	StatusPlaced     Status = "placed"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var allStatuses = []Status{StatusPlaced, StatusInProgress, StatusReady, StatusDelivered, StatusCancelled}

// Statuses lists every lifecycle status in progression order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

func ParseStatus(s string) (Status, error) {
	for _, st := range allStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// lifecycleState is one node of the kitchen workflow. Each handler returns the
// next node, or ErrInvalidStateTransition. Re-applying the current step is a no-op.
type lifecycleState interface {
	Status() Status
	Start() (lifecycleState, error)
	MarkReady() (lifecycleState, error)
	Deliver() (lifecycleState, error)
	Cancel() (lifecycleState, error)
}

type placedState struct{}

func (placedState) Status() Status                     { return StatusPlaced }
func (placedState) Start() (lifecycleState, error)     { return inProgressState{}, nil }
func (placedState) MarkReady() (lifecycleState, error) { return nil, ErrInvalidStateTransition }
func (placedState) Deliver() (lifecycleState, error)   { return nil, ErrInvalidStateTransition }
func (placedState) Cancel() (lifecycleState, error)    { return cancelledState{}, nil }

type inProgressState struct{}

func (inProgressState) Status() Status                     { return StatusInProgress }
func (inProgressState) Start() (lifecycleState, error)     { return inProgressState{}, nil }
func (inProgressState) MarkReady() (lifecycleState, error) { return readyState{}, nil }
func (inProgressState) Deliver() (lifecycleState, error)   { return nil, ErrInvalidStateTransition }
func (inProgressState) Cancel() (lifecycleState, error)    { return cancelledState{}, nil }

type readyState struct{}

func (readyState) Status() Status                     { return StatusReady }
func (readyState) Start() (lifecycleState, error)     { return nil, ErrInvalidStateTransition }
func (readyState) MarkReady() (lifecycleState, error) { return readyState{}, nil }
func (readyState) Deliver() (lifecycleState, error)   { return deliveredState{}, nil }
func (readyState) Cancel() (lifecycleState, error)    { return cancelledState{}, nil }

type deliveredState struct{}

func (deliveredState) Status() Status                     { return StatusDelivered }
func (deliveredState) Start() (lifecycleState, error)     { return nil, ErrInvalidStateTransition }
func (deliveredState) MarkReady() (lifecycleState, error) { return nil, ErrInvalidStateTransition }
func (deliveredState) Deliver() (lifecycleState, error)   { return deliveredState{}, nil }
func (deliveredState) Cancel() (lifecycleState, error)    { return nil, ErrInvalidStateTransition }

type cancelledState struct{}

func (cancelledState) Status() Status                     { return StatusCancelled }
func (cancelledState) Start() (lifecycleState, error)     { return nil, ErrInvalidStateTransition }
func (cancelledState) MarkReady() (lifecycleState, error) { return nil, ErrInvalidStateTransition }
func (cancelledState) Deliver() (lifecycleState, error)   { return nil, ErrInvalidStateTransition }
func (cancelledState) Cancel() (lifecycleState, error)    { return cancelledState{}, nil }

func stateFor(s Status) (lifecycleState, error) {
	switch s {
	case StatusPlaced:
		return placedState{}, nil
	case StatusInProgress:
		return inProgressState{}, nil
	case StatusReady:
		return readyState{}, nil
	case StatusDelivered:
		return deliveredState{}, nil
	case StatusCancelled:
		return cancelledState{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// TransitionTo moves the order to target. It reports whether the status
// actually changed; asking for the current status returns false, nil.
func (o *Order) TransitionTo(target Status) (bool, error) {
	current, err := stateFor(o.Status)
	if err != nil {
		return false, err
	}

	var next lifecycleState
	switch target {
	case StatusPlaced:
		if o.Status != StatusPlaced {
			return false, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, target)
		}
		next = current
	case StatusInProgress:
		next, err = current.Start()
	case StatusReady:
		next, err = current.MarkReady()
	case StatusDelivered:
		next, err = current.Deliver()
	case StatusCancelled:
		next, err = current.Cancel()
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownStatus, target)
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s -> %s", err, o.Status, target)
	}

	if next.Status() == o.Status {
		return false, nil
	}
	o.Status = next.Status()
	o.touch()
	return true, nil
}
