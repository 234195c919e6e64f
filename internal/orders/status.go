package orders

type Status string

const (
	StatusRequiresConfirmation Status = "requires_confirmation"
	StatusPending              Status = "pending"
	StatusPaid                 Status = "paid"
	StatusShipped              Status = "shipped"
	StatusDelivered            Status = "delivered"
	StatusCanceled             Status = "canceled"
)

// Action is what a dashboard user, customer or the payment webhook asks the order to do.
type Action string

const (
	ActionConfirm Action = "confirm"
	ActionPay     Action = "pay"
	ActionShip    Action = "ship"
	ActionDeliver Action = "deliver"
	ActionCancel  Action = "cancel"
)

var transitions = map[Status]map[Action]Status{
	StatusRequiresConfirmation: {ActionConfirm: StatusPending, ActionCancel: StatusCanceled},
	StatusPending:              {ActionPay: StatusPaid, ActionCancel: StatusCanceled},
	StatusPaid:                 {ActionShip: StatusShipped, ActionCancel: StatusCanceled},
	StatusShipped:              {ActionDeliver: StatusDelivered, ActionCancel: StatusCanceled},
	StatusDelivered:            {},
	StatusCanceled:             {},
}

// Next returns the status reached by applying a to s.
func Next(s Status, a Action) (Status, bool) {
	to, ok := transitions[s][a]
	return to, ok
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

func (s Status) String() string { return string(s) }

// stageIndex orders the happy-path stages; canceled sits outside it.
func stageIndex(s Status) int {
	switch s {
	case StatusRequiresConfirmation:
		return 0
	case StatusPending:
		return 1
	case StatusPaid:
		return 2
	case StatusShipped:
		return 3
	case StatusDelivered:
		return 4
	}
	return -1
}
