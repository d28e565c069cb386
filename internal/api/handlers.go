package api

import (
	"net/http"

	"github.com/cadencelog/cadence/internal/app/logbook"
	"github.com/cadencelog/cadence/internal/domain"
)

// ─── Cadences ───────────────────────────────────────────────────────────────

// handleListCadences returns every cadence, newest first.
// GET /api/cadences
func (s *Server) handleListCadences(w http.ResponseWriter, r *http.Request) {
	cadences, err := s.store.ListCadences()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if cadences == nil {
		cadences = []domain.Cadence{}
	}
	writeJSON(w, http.StatusOK, cadences)
}

// handleCreateCadence starts a new cadence and its first period.
// POST /api/cadences
func (s *Server) handleCreateCadence(w http.ResponseWriter, r *http.Request) {
	var c domain.Cadence
	if !decode(w, r, &c) {
		return
	}
	created, err := s.lifecycle.CreateCadence(c)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GET /api/cadences/suggest-number
func (s *Server) handleSuggestNumber(w http.ResponseWriter, r *http.Request) {
	n, err := s.lifecycle.SuggestCadenceNumber()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"number": n})
}

// GET /api/cadences/{id}
func (s *Server) handleGetCadence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := s.store.GetCadence(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// PUT /api/cadences/{id}
func (s *Server) handleUpdateCadence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c domain.Cadence
	if !decode(w, r, &c) {
		return
	}
	c.ID = id
	if err := s.lifecycle.UpdateCadence(c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /api/cadences/{id}
// Deletion cascades through periods and their child records.
func (s *Server) handleDeleteCadence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeleteCadence(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCloseCadence closes a cadence with its end readings. The open
// period is closed with it and the totals are computed server-side.
// POST /api/cadences/{id}/close
func (s *Server) handleCloseCadence(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var closing domain.CadenceClosing
	if !decode(w, r, &closing) {
		return
	}
	closed, err := s.lifecycle.CloseCadence(id, closing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}

// ─── Periods ────────────────────────────────────────────────────────────────

// GET /api/cadences/{id}/periods
func (s *Server) handleListPeriods(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	periods, err := s.store.ListPeriods(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if periods == nil {
		periods = []domain.Period{}
	}
	writeJSON(w, http.StatusOK, periods)
}

// GET /api/cadences/{id}/current-period
func (s *Server) handleCurrentPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.lifecycle.CurrentPeriod(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleRollover closes the open period and opens the next one in a single
// transaction. The new period starts where the old one ended.
// POST /api/cadences/{id}/rollover
func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		EndDate int64   `json:"end_date"`
		Notes   *string `json:"notes,omitempty"`
	}
	if !decode(w, r, &body) {
		return
	}
	next, err := s.lifecycle.ClosePeriodAndRoll(id, body.EndDate, body.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, next)
}

// GET /api/periods/{id}
func (s *Server) handleGetPeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetPeriod(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// PUT /api/periods/{id}
func (s *Server) handleUpdatePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var p domain.Period
	if !decode(w, r, &p) {
		return
	}
	p.ID = id
	if err := s.lifecycle.UpdatePeriod(p); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DELETE /api/periods/{id}
func (s *Server) handleDeletePeriod(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeletePeriod(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handlePeriodSummary returns the full aggregate figure set for a period.
// GET /api/periods/{id}/summary
func (s *Server) handlePeriodSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, err := s.agg.Summarize(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ─── Routes ─────────────────────────────────────────────────────────────────

// GET /api/periods/{id}/routes
func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	routes, err := s.store.ListRoutes(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if routes == nil {
		routes = []domain.Route{}
	}
	writeJSON(w, http.StatusOK, routes)
}

// POST /api/cadences/{id}/routes
func (s *Server) handleAddRouteScoped(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var route domain.Route
	if !decode(w, r, &route) {
		return
	}
	created, err := s.lifecycle.AddRouteToCurrentPeriod(id, route)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// POST /api/periods/{id}/routes
func (s *Server) handleAddRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var route domain.Route
	if !decode(w, r, &route) {
		return
	}
	created, err := s.lifecycle.AddRoute(id, route)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleCompleteRoute fills in a draft route's unloading fields.
// POST /api/routes/{id}/complete
func (s *Server) handleCompleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		EndDate        int64  `json:"end_date"`
		EndOdometer    int64  `json:"end_odometer"`
		EndEngineHours int64  `json:"end_engine_hours"`
		ArrivalCountry string `json:"arrival_country"`
	}
	if !decode(w, r, &body) {
		return
	}
	route, err := s.lifecycle.CompleteRoute(id, body.EndDate, body.EndOdometer, body.EndEngineHours, body.ArrivalCountry)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// PUT /api/routes/{id}
func (s *Server) handleUpdateRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var route domain.Route
	if !decode(w, r, &route) {
		return
	}
	route.ID = id
	if err := s.lifecycle.UpdateRoute(route); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

// DELETE /api/routes/{id}
func (s *Server) handleDeleteRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeleteRoute(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Refuelings ─────────────────────────────────────────────────────────────

// GET /api/periods/{id}/refuelings
func (s *Server) handleListRefuelings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	refuelings, err := s.store.ListRefuelings(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if refuelings == nil {
		refuelings = []domain.Refueling{}
	}
	writeJSON(w, http.StatusOK, refuelings)
}

// POST /api/cadences/{id}/refuelings
func (s *Server) handleAddRefuelingScoped(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var ref domain.Refueling
	if !decode(w, r, &ref) {
		return
	}
	created, err := s.lifecycle.AddRefuelingToCurrentPeriod(id, ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// POST /api/periods/{id}/refuelings
func (s *Server) handleAddRefueling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var ref domain.Refueling
	if !decode(w, r, &ref) {
		return
	}
	created, err := s.lifecycle.AddRefueling(id, ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PUT /api/refuelings/{id}
func (s *Server) handleUpdateRefueling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var ref domain.Refueling
	if !decode(w, r, &ref) {
		return
	}
	ref.ID = id
	if err := s.lifecycle.UpdateRefueling(ref); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

// DELETE /api/refuelings/{id}
func (s *Server) handleDeleteRefueling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeleteRefueling(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Expenses ───────────────────────────────────────────────────────────────

// handleListExpenses lists a period's expenses. With ?card=X the response
// narrows to that payment card.
// GET /api/periods/{id}/expenses[?card=X]
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	expenses, err := s.store.ListExpenses(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if card := r.URL.Query().Get("card"); card != "" {
		filtered := make([]domain.Expense, 0, len(expenses))
		for _, e := range expenses {
			if e.Card == card {
				filtered = append(filtered, e)
			}
		}
		expenses = filtered
	}
	if expenses == nil {
		expenses = []domain.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

// POST /api/cadences/{id}/expenses
func (s *Server) handleAddExpenseScoped(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e domain.Expense
	if !decode(w, r, &e) {
		return
	}
	created, err := s.lifecycle.AddExpenseToCurrentPeriod(id, e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// POST /api/periods/{id}/expenses
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e domain.Expense
	if !decode(w, r, &e) {
		return
	}
	created, err := s.lifecycle.AddExpense(id, e)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// PUT /api/expenses/{id}
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e domain.Expense
	if !decode(w, r, &e) {
		return
	}
	e.ID = id
	if err := s.lifecycle.UpdateExpense(e); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// DELETE /api/expenses/{id}
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeleteExpense(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Trailer Couplings ──────────────────────────────────────────────────────

// GET /api/periods/{id}/couplings
func (s *Server) handleListCouplings(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	couplings, err := s.store.ListCouplings(id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if couplings == nil {
		couplings = []domain.TrailerCoupling{}
	}
	writeJSON(w, http.StatusOK, couplings)
}

// POST /api/cadences/{id}/couplings
func (s *Server) handleAddCouplingScoped(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c domain.TrailerCoupling
	if !decode(w, r, &c) {
		return
	}
	created, err := s.lifecycle.AddCouplingToCurrentPeriod(id, c)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// POST /api/periods/{id}/couplings
func (s *Server) handleAddCoupling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c domain.TrailerCoupling
	if !decode(w, r, &c) {
		return
	}
	created, err := s.lifecycle.AddCoupling(id, c)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleCloseCoupling records the trailer hand-back: all end fields are set
// together and the engine-hour total is computed server-side.
// POST /api/couplings/{id}/close
func (s *Server) handleCloseCoupling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var closing domain.CouplingClosing
	if !decode(w, r, &closing) {
		return
	}
	closed, err := s.lifecycle.CloseCoupling(id, closing)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, closed)
}

// PUT /api/couplings/{id}
func (s *Server) handleUpdateCoupling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var c domain.TrailerCoupling
	if !decode(w, r, &c) {
		return
	}
	c.ID = id
	if err := s.lifecycle.UpdateCoupling(c); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// DELETE /api/couplings/{id}
func (s *Server) handleDeleteCoupling(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.lifecycle.DeleteCoupling(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Actions ────────────────────────────────────────────────────────────────

// handleDispatch runs one tagged lifecycle action.
// POST /api/actions
func (s *Server) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var a logbook.Action
	if !decode(w, r, &a) {
		return
	}
	if err := s.lifecycle.Dispatch(a); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
