package model

import "time"

type Action string

const (
	ActionGet        Action = "get"
	ActionConfirm    Action = "confirm"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
)

// Target is the status an action moves an appointment to. Get has none.
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionConfirm:
		return StatusConfirmed, true
	case ActionCancel:
		return StatusCancelled, true
	case ActionReschedule:
		return StatusRescheduled, true
	}
	return "", false
}

// Policy decides which status changes the public action endpoint accepts.
type Policy map[Status]map[Action]bool

var allActions = map[Action]bool{ActionConfirm: true, ActionCancel: true, ActionReschedule: true}

// LatestWins accepts every action from every status, repeats included.
// Transition timestamps accumulate on the row.
var LatestWins = Policy{
	StatusPending:     allActions,
	StatusConfirmed:   allActions,
	StatusCancelled:   allActions,
	StatusRescheduled: allActions,
}

// Strict is LatestWins except that a cancelled appointment is final.
var Strict = Policy{
	StatusPending:     allActions,
	StatusConfirmed:   allActions,
	StatusCancelled:   {},
	StatusRescheduled: allActions,
}

func (p Policy) Allows(from Status, a Action) bool {
	return p[from][a]
}

// Change is the row update produced by one accepted action.
type Change struct {
	Status        Status
	ConfirmedAt   *time.Time
	CancelledAt   *time.Time
	RescheduledAt *time.Time
	StartsAt      *time.Time
}

// ChangeFor builds the update for action a at time now. startsAt is only
// read for reschedule.
func ChangeFor(a Action, now time.Time, startsAt time.Time) (Change, bool) {
	target, ok := a.Target()
	if !ok {
		return Change{}, false
	}
	c := Change{Status: target}
	switch a {
	case ActionConfirm:
		c.ConfirmedAt = &now
	case ActionCancel:
		c.CancelledAt = &now
	case ActionReschedule:
		c.RescheduledAt = &now
		c.StartsAt = &startsAt
	}
	return c, true
}

// Apply mutates a in place the way the store update does.
func (c Change) Apply(a *Appointment) {
	a.Status = c.Status
	if c.ConfirmedAt != nil {
		a.ConfirmedAt = c.ConfirmedAt
	}
	if c.CancelledAt != nil {
		a.CancelledAt = c.CancelledAt
	}
	if c.RescheduledAt != nil {
		a.RescheduledAt = c.RescheduledAt
	}
	if c.StartsAt != nil {
		a.StartsAt = *c.StartsAt
	}
}
