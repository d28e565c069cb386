// Package export renders a closed or in-progress cadence as an XLSX
// workbook: one summary sheet, then one sheet per period with that
// period's routes, refuelings, expenses, and trailer couplings.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/cadencelog/cadence/internal/app/logbook"
	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/infra/observability"
)

// Reporter renders cadence reports from the store.
type Reporter struct {
	store domain.Store
	agg   *logbook.Aggregator
}

// NewReporter creates a report renderer.
func NewReporter(store domain.Store, agg *logbook.Aggregator) *Reporter {
	return &Reporter{store: store, agg: agg}
}

// WriteCadenceReport renders the cadence to dir and returns the file path.
func (r *Reporter) WriteCadenceReport(cadenceID int64, dir string) (string, error) {
	data, err := r.CadenceReport(cadenceID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	c, err := r.store.GetCadence(cadenceID)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("cadence-%s.xlsx", c.Number))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	observability.ReportsExported.Inc()
	return path, nil
}

// CadenceReport renders the cadence workbook to bytes.
func (r *Reporter) CadenceReport(cadenceID int64) ([]byte, error) {
	c, err := r.store.GetCadence(cadenceID)
	if err != nil {
		return nil, err
	}
	periods, err := r.store.ListPeriods(cadenceID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	// Don't defer Close() here: WriteTo needs the file open.

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}

	if err := r.writeSummarySheet(f, headerStyle, c, periods); err != nil {
		f.Close()
		return nil, err
	}
	for _, p := range periods {
		if err := r.writePeriodSheet(f, headerStyle, p); err != nil {
			f.Close()
			return nil, err
		}
	}
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ─── Summary Sheet ──────────────────────────────────────────────────────────

func (r *Reporter) writeSummarySheet(f *excelize.File, headerStyle int, c *domain.Cadence, periods []domain.Period) error {
	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Cadence", c.Number},
		{"Driver 1", c.Driver1},
		{"Driver 2", strOr(c.Driver2, "-")},
		{"Truck", c.Truck},
		{"Start trailer", c.StartTrailer},
		{"End trailer", strOr(c.EndTrailer, "-")},
		{"Start date", domain.FormatMillis(c.StartDate)},
		{"End date", millisOr(c.EndDate, "open")},
		{"Start odometer", c.StartOdometer},
		{"End odometer", intOr(c.EndOdometer)},
		{"Total mileage", domain.HumanKm(c.TotalMileage)},
		{"Total days", c.TotalDays},
		{"Periods", len(periods)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row %d: %w", i+1, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(sheet, "A", "A", 18); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "B", 24)
}

// ─── Period Sheets ──────────────────────────────────────────────────────────

func (r *Reporter) writePeriodSheet(f *excelize.File, headerStyle int, p domain.Period) error {
	sheet := fmt.Sprintf("Period %d", p.Number)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	summary, err := r.agg.Summarize(p.ID)
	if err != nil {
		return err
	}
	routes, err := r.store.ListRoutes(p.ID)
	if err != nil {
		return err
	}
	refuelings, err := r.store.ListRefuelings(p.ID)
	if err != nil {
		return err
	}
	expenses, err := r.store.ListExpenses(p.ID)
	if err != nil {
		return err
	}
	couplings, err := r.store.ListCouplings(p.ID)
	if err != nil {
		return err
	}

	w := &sheetWriter{f: f, sheet: sheet, style: headerStyle}

	w.header("Period", fmt.Sprintf("%d (%s — %s)", p.Number,
		domain.FormatMillis(p.StartDate), millisOr(p.EndDate, "open")))
	w.row("Mileage", domain.HumanKm(summary.Mileage))
	w.row("Fuel", summary.Fuel)
	w.row("AdBlue", summary.AdBlue)
	w.row("Engine hours", summary.EngineHours)
	w.row("Expenses", summary.Expenses)
	if p.Notes != nil {
		w.row("Notes", *p.Notes)
	}
	w.blank()

	w.header("Routes", "")
	w.row("#", "Start", "End", "From", "To", "Cargo", "Mileage", "Status")
	for _, rt := range routes {
		w.row(rt.Number, domain.FormatMillis(rt.StartDate), millisOr(rt.EndDate, "-"),
			rt.DepartureCountry, strOr(rt.ArrivalCountry, "-"), rt.CargoName,
			rt.Mileage, string(rt.Status()))
	}
	w.blank()

	w.header("Refuelings", "")
	w.row("#", "Date", "Truck", "Trailer", "AdBlue", "Country", "Card")
	for _, rf := range refuelings {
		w.row(rf.Number, domain.FormatMillis(rf.Date), intOr(rf.TruckFuel),
			intOr(rf.TrailerFuel), intOr(rf.AdBlue), strOr(rf.Country, "-"), rf.Card)
	}
	w.blank()

	w.header("Expenses", "")
	w.row("#", "Date", "Description", "Amount", "Currency", "Country", "Card")
	for _, e := range expenses {
		w.row(e.Number, domain.FormatMillis(e.Date), e.Description, e.Amount,
			e.Currency, e.Country, e.Card)
	}
	w.blank()

	w.header("Trailer couplings", "")
	w.row("#", "Trailer", "Start", "End", "Engine hours", "From", "To")
	for _, cp := range couplings {
		w.row(cp.Number, cp.Trailer, domain.FormatMillis(cp.StartDate),
			millisOr(cp.EndDate, "open"), cp.TotalEngineHours,
			cp.StartCountry, strOr(cp.EndCountry, "-"))
	}

	if w.err != nil {
		return fmt.Errorf("write %s: %w", sheet, w.err)
	}
	return nil
}

// sheetWriter appends rows top to bottom, carrying the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	style int
	line  int
	err   error
}

func (w *sheetWriter) row(values ...interface{}) {
	if w.err != nil {
		return
	}
	w.line++
	cell, err := excelize.CoordinatesToCellName(1, w.line)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *sheetWriter) header(values ...interface{}) {
	start := w.line + 1
	w.row(values...)
	if w.err != nil {
		return
	}
	first, err := excelize.CoordinatesToCellName(1, start)
	if err != nil {
		w.err = err
		return
	}
	last, err := excelize.CoordinatesToCellName(len(values), start)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetCellStyle(w.sheet, first, last, w.style)
}

func (w *sheetWriter) blank() { w.line++ }

// ─── Formatting helpers ─────────────────────────────────────────────────────

func strOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func intOr(p *int64) interface{} {
	if p == nil {
		return ""
	}
	return *p
}

func millisOr(p *int64, fallback string) string {
	if p == nil {
		return fallback
	}
	return domain.FormatMillis(*p)
}
