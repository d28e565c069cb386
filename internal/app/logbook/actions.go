package logbook

import (
	"fmt"

	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Cadence Actions ────────────────────────────────────────────────────────
// The UI's cadence context menu maps to a tagged action consumed by one
// dispatch function, so every entry point funnels through the same rules.

// ActionKind tags a cadence context action.
type ActionKind string

const (
	ActionStartNewPeriod ActionKind = "start_new_period"
	ActionCloseCadence   ActionKind = "close_cadence"
	ActionDeleteCadence  ActionKind = "delete_cadence"
)

// Action is one user-initiated cadence operation. Only the fields the kind
// needs are read.
type Action struct {
	Kind      ActionKind `json:"kind"`
	CadenceID int64      `json:"cadence_id"`

	// start_new_period
	EndDate int64   `json:"end_date,omitempty"`
	Notes   *string `json:"notes,omitempty"`

	// close_cadence
	Closing domain.CadenceClosing `json:"closing,omitempty"`
}

// Dispatch executes the action against the lifecycle engine.
func (l *Lifecycle) Dispatch(a Action) error {
	switch a.Kind {
	case ActionStartNewPeriod:
		_, err := l.ClosePeriodAndRoll(a.CadenceID, a.EndDate, a.Notes)
		return err
	case ActionCloseCadence:
		_, err := l.CloseCadence(a.CadenceID, a.Closing)
		return err
	case ActionDeleteCadence:
		return l.DeleteCadence(a.CadenceID)
	default:
		return fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, a.Kind)
	}
}
