package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Lifecycle errors
	ErrNoActivePeriod = errors.New("no active period for this cadence")
	ErrCadenceClosed  = errors.New("cadence is already closed")
	ErrCouplingClosed = errors.New("coupling is already closed")

	// Lookup errors
	ErrCadenceNotFound   = errors.New("cadence not found")
	ErrPeriodNotFound    = errors.New("period not found")
	ErrRouteNotFound     = errors.New("route not found")
	ErrRefuelingNotFound = errors.New("refueling not found")
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrCouplingNotFound  = errors.New("coupling not found")

	// Validation errors
	ErrOdometerBackwards    = errors.New("end odometer not greater than start odometer")
	ErrEngineHoursBackwards = errors.New("end engine hours not greater than start engine hours")
	ErrDateBackwards        = errors.New("end date before start date")
	ErrInvalidInput         = errors.New("invalid input")
)
