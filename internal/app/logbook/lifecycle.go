// Package logbook contains the cadence/period lifecycle engine and the
// aggregation engine. All the rules live here: when a cadence or period may
// open or close, how the successor period is created, how child records are
// scoped to the currently open period, and how derived figures are computed.
package logbook

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/infra/changefeed"
	"github.com/cadencelog/cadence/internal/infra/observability"
)

// Lifecycle enforces the cadence and period state machines. Every mutation
// runs against the store and, on success, publishes a change event.
type Lifecycle struct {
	store domain.Store
	feed  *changefeed.Hub
}

// NewLifecycle creates the lifecycle engine. feed may be nil (no
// notifications, CLI one-shot use).
func NewLifecycle(store domain.Store, feed *changefeed.Hub) *Lifecycle {
	return &Lifecycle{store: store, feed: feed}
}

func (l *Lifecycle) publish(e changefeed.Event) {
	if l.feed != nil {
		l.feed.Publish(e)
	}
}

// ─── Cadence State Machine ──────────────────────────────────────────────────

// CreateCadence validates and inserts a new cadence together with its first
// period. A blank cadence number is replaced by the suggested one.
func (l *Lifecycle) CreateCadence(c domain.Cadence) (*domain.Cadence, error) {
	if strings.TrimSpace(c.Driver1) == "" {
		return nil, fmt.Errorf("%w: driver is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Truck) == "" {
		return nil, fmt.Errorf("%w: truck is required", domain.ErrInvalidInput)
	}
	if c.StartDate <= 0 {
		return nil, fmt.Errorf("%w: start date is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(c.Number) == "" {
		suggested, err := l.SuggestCadenceNumber()
		if err != nil {
			return nil, err
		}
		c.Number = suggested
	}

	// New cadences never carry end fields or totals.
	c.EndDate, c.EndTrailer, c.EndOdometer = nil, nil, nil
	c.EndTruckFuel, c.EndTrailerFuel, c.EndEngineHours = nil, nil, nil
	c.TotalMileage, c.TotalDays = 0, 0

	cadenceID, periodID, err := l.store.CreateCadence(c)
	observability.RecordOutcome("cadence", "create", err)
	if err != nil {
		return nil, err
	}
	c.ID = cadenceID

	l.publish(changefeed.Event{Table: changefeed.TableCadences, Op: changefeed.OpInsert, CadenceID: cadenceID})
	l.publish(changefeed.Event{Table: changefeed.TablePeriods, Op: changefeed.OpInsert, CadenceID: cadenceID, PeriodID: periodID})
	return &c, nil
}

// CloseCadence closes an open cadence, computing total mileage and whole
// days from the end readings. The cadence's open period, if any, is closed
// at the same timestamp in the same transaction.
func (l *Lifecycle) CloseCadence(id int64, closing domain.CadenceClosing) (*domain.Cadence, error) {
	c, err := l.store.GetCadence(id)
	if err != nil {
		return nil, err
	}
	if c.Closed() {
		return nil, domain.ErrCadenceClosed
	}
	if closing.EndDate < c.StartDate {
		return nil, domain.ErrDateBackwards
	}
	if closing.EndOdometer <= c.StartOdometer {
		return nil, domain.ErrOdometerBackwards
	}
	if closing.EndEngineHours < c.StartEngineHours {
		return nil, domain.ErrEngineHoursBackwards
	}

	totalMileage := closing.EndOdometer - c.StartOdometer
	totalDays := domain.WholeDays(c.StartDate, closing.EndDate)

	err = l.store.CloseCadence(id, closing, totalMileage, totalDays)
	observability.RecordOutcome("cadence", "close", err)
	if err != nil {
		return nil, err
	}
	observability.CadencesClosed.Inc()

	l.publish(changefeed.Event{Table: changefeed.TableCadences, Op: changefeed.OpClose, CadenceID: id})
	l.publish(changefeed.Event{Table: changefeed.TablePeriods, Op: changefeed.OpClose, CadenceID: id})
	return l.store.GetCadence(id)
}

// UpdateCadence rewrites a cadence from the edit form.
func (l *Lifecycle) UpdateCadence(c domain.Cadence) error {
	err := l.store.UpdateCadence(c)
	observability.RecordOutcome("cadence", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableCadences, Op: changefeed.OpUpdate, CadenceID: c.ID})
	return nil
}

// DeleteCadence removes a cadence and everything under it.
func (l *Lifecycle) DeleteCadence(id int64) error {
	err := l.store.DeleteCadence(id)
	observability.RecordOutcome("cadence", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TableCadences, Op: changefeed.OpDelete, CadenceID: id})
	return nil
}

// SuggestCadenceNumber proposes the next cadence number: the digits of each
// existing number are concatenated and parsed, and the suggestion is the
// highest such value plus one. Numbers with no digits are skipped; an empty
// logbook suggests "1". The user may override the suggestion before submit.
func (l *Lifecycle) SuggestCadenceNumber() (string, error) {
	cadences, err := l.store.ListCadences()
	if err != nil {
		return "", err
	}

	max := 0
	for _, c := range cadences {
		n, ok := numericValue(c.Number)
		if ok && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1), nil
}

// numericValue extracts every digit of s as one concatenated number.
// "K-12b3" parses as 123.
func numericValue(s string) (int, bool) {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		// Digit run too long to fit an int; treat as unparseable.
		return 0, false
	}
	return n, true
}

// ─── Period State Machine ───────────────────────────────────────────────────

// CurrentPeriod returns the cadence's open period, or ErrNoActivePeriod.
func (l *Lifecycle) CurrentPeriod(cadenceID int64) (*domain.Period, error) {
	p, err := l.store.FindOpenPeriod(cadenceID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNoActivePeriod
	}
	return p, nil
}

// ClosePeriodAndRoll closes the cadence's current period at endDate and
// opens the successor in the same transaction. The successor starts exactly
// at endDate and is numbered max(existing)+1.
func (l *Lifecycle) ClosePeriodAndRoll(cadenceID int64, endDate int64, notes *string) (*domain.Period, error) {
	if endDate <= 0 {
		return nil, fmt.Errorf("%w: end date is required", domain.ErrInvalidInput)
	}

	next, err := l.store.RolloverPeriod(cadenceID, endDate, notes)
	observability.RecordOutcome("period", "rollover", err)
	if err != nil {
		return nil, err
	}
	observability.Rollovers.Inc()

	l.publish(changefeed.Event{Table: changefeed.TablePeriods, Op: changefeed.OpRollover, CadenceID: cadenceID, PeriodID: next.ID})
	return next, nil
}

// UpdatePeriod rewrites a period (back-fill/edit path).
func (l *Lifecycle) UpdatePeriod(p domain.Period) error {
	err := l.store.UpdatePeriod(p)
	observability.RecordOutcome("period", "update", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TablePeriods, Op: changefeed.OpUpdate, CadenceID: p.CadenceID, PeriodID: p.ID})
	return nil
}

// DeletePeriod removes a period and its child records.
func (l *Lifecycle) DeletePeriod(id int64) error {
	p, err := l.store.GetPeriod(id)
	if err != nil {
		return err
	}
	err = l.store.DeletePeriod(id)
	observability.RecordOutcome("period", "delete", err)
	if err != nil {
		return err
	}
	l.publish(changefeed.Event{Table: changefeed.TablePeriods, Op: changefeed.OpDelete, CadenceID: p.CadenceID, PeriodID: id})
	return nil
}
