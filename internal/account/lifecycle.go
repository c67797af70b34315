// AngelaMos | 2026
// lifecycle.go

package account

import (
	"errors"
	"fmt"

	"github.com/carterperez-dev/templates/identity-service/internal/core"
)

var (
	ErrInvalidTransition = fmt.Errorf("invalid account status transition: %w", core.ErrConflict)
	ErrTerminalState     = fmt.Errorf("account status is terminal: %w", core.ErrConflict)
)

var transitions = map[Status]map[Status]struct{}{
	StatusInactive: {
		StatusActive:  {},
		StatusBanned:  {},
		StatusDeleted: {},
	},
	StatusActive: {
		StatusBanned:  {},
		StatusDeleted: {},
	},
	StatusBanned: {
		StatusDeleted: {},
	},
	StatusDeleted: {},
}

func CanTransition(from, to Status) bool {
	allowed, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = allowed[to]
	return ok
}

func Transition(from, to Status) (Status, error) {
	if from == StatusDeleted {
		return from, ErrTerminalState
	}
	if !CanTransition(from, to) {
		return from, fmt.Errorf("%s -> %s: %w", from, to, ErrInvalidTransition)
	}
	return to, nil
}

// CheckLogin decides whether an account whose credentials matched may
// open a session.
func CheckLogin(s Status) error {
	switch s {
	case StatusActive:
		return nil
	case StatusInactive:
		return core.ErrAccountNotActivated
	case StatusBanned:
		return core.ErrAccountBlocked
	case StatusDeleted:
		return core.ErrAccountDeleted
	default:
		return fmt.Errorf("unknown status %d: %w", int(s), core.ErrForbidden)
	}
}

// CheckSession is the weaker check applied to a resolved session: only
// deletion invalidates it.
func CheckSession(s Status) error {
	if s == StatusDeleted {
		return core.ErrAccountDeleted
	}
	return nil
}

// CheckOperator applies on top of CheckSession for mutating actions.
func CheckOperator(s Status) error {
	if err := CheckSession(s); err != nil {
		return err
	}
	switch s {
	case StatusInactive:
		return core.ErrAccountNotActivated
	case StatusBanned:
		return core.ErrAccountBlocked
	default:
		return nil
	}
}

// VisibleTo reports whether an account in status s can be read by a viewer.
// Only active accounts are public; the rest need elevated read access.
func VisibleTo(s Status, elevated bool) bool {
	return s == StatusActive || elevated
}

func IsLifecycleError(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrTerminalState)
}
