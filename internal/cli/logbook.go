package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cadencelog/cadence/internal/app/logbook"
	"github.com/cadencelog/cadence/internal/daemon"
	"github.com/cadencelog/cadence/internal/domain"
	"github.com/cadencelog/cadence/internal/export"
	"github.com/cadencelog/cadence/internal/infra/sqlite"
)

// The list/show/export commands open the database directly rather than
// going through the daemon, so they work whether or not it is running.

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("out", "o", "", "Output directory (default [export].dir from config)")
}

// openStore opens the configured database for a one-shot command.
func openStore() (*sqlite.DB, daemon.Config, error) {
	cfg, err := daemon.LoadConfig(configPath)
	if err != nil {
		return nil, cfg, err
	}
	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, cfg, err
	}
	return db, cfg, nil
}

func parseCadenceID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cadence id %q", arg)
	}
	return id, nil
}

// ─── list ───────────────────────────────────────────────────────────────────

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cadences",
	Long:  `List all cadences in the logbook, newest first.`,
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	cadences, err := db.ListCadences()
	if err != nil {
		return err
	}
	if len(cadences) == 0 {
		fmt.Fprintln(os.Stdout, "No cadences recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNUMBER\tDRIVER\tTRUCK\tSTART\tEND\tMILEAGE")
	for _, c := range cadences {
		end := "open"
		if c.EndDate != nil {
			end = domain.FormatMillis(*c.EndDate)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			c.ID, c.Number, c.Driver1, c.Truck,
			domain.FormatMillis(c.StartDate), end, domain.HumanKm(c.TotalMileage))
	}
	return w.Flush()
}

// ─── show ───────────────────────────────────────────────────────────────────

var showCmd = &cobra.Command{
	Use:   "show CADENCE_ID",
	Short: "Show one cadence with its periods",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := parseCadenceID(args[0])
	if err != nil {
		return err
	}

	db, _, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := db.GetCadence(id)
	if err != nil {
		return err
	}
	periods, err := db.ListPeriods(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Cadence %s — %s, %s\n", c.Number, c.Driver1, c.Truck)
	fmt.Fprintf(os.Stdout, "  started %s", domain.FormatMillis(c.StartDate))
	if c.Closed() {
		fmt.Fprintf(os.Stdout, ", closed %s (%s over %d days)",
			domain.FormatMillis(*c.EndDate), domain.HumanKm(c.TotalMileage), c.TotalDays)
	}
	fmt.Fprintln(os.Stdout)

	agg := logbook.NewAggregator(db)
	for _, p := range periods {
		summary, err := agg.Summarize(p.ID)
		if err != nil {
			return err
		}
		state := "open"
		if !p.Active() {
			state = "closed " + domain.FormatMillis(*p.EndDate)
		}
		fmt.Fprintf(os.Stdout, "  period %d (%s): %d routes, %s, %.2f expenses\n",
			p.Number, state, summary.Routes, domain.HumanKm(summary.Mileage), summary.Expenses)
	}
	return nil
}

// ─── export ─────────────────────────────────────────────────────────────────

var exportCmd = &cobra.Command{
	Use:   "export CADENCE_ID",
	Short: "Export a cadence report as XLSX",
	Long:  `Render one cadence (summary plus one sheet per period) to an XLSX workbook.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := parseCadenceID(args[0])
	if err != nil {
		return err
	}

	db, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	dir, _ := cmd.Flags().GetString("out")
	if dir == "" {
		dir = cfg.Export.Dir
	}

	reporter := export.NewReporter(db, logbook.NewAggregator(db))
	path, err := reporter.WriteCadenceReport(id, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Report written to %s\n", path)
	return nil
}
