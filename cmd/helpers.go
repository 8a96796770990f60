package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/grid"
	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/numeric"
	"github.com/sells-group/boq-console/internal/store"
	"github.com/sells-group/boq-console/pkg/estimator"
)

func newBackendClient() estimator.Client {
	return estimator.NewClient(cfg.Backend.BaseURL,
		estimator.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		}),
		estimator.WithRateLimit(cfg.Backend.RateLimitRPS),
	)
}

func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

func printYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// renderDashboard writes the KPI cards, insight chip, cost walk, and match
// distribution as aligned text.
func renderDashboard(w io.Writer, d analytics.Dashboard) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "KPI\tCOUNT")
	fmt.Fprintf(tw, "Exact Match\t%d\n", d.Stats.Exact)
	fmt.Fprintf(tw, "Moderate Deviation\t%d\n", d.Stats.Moderate)
	fmt.Fprintf(tw, "Critical Overrun\t%d\n", d.Stats.Overpriced)
	fmt.Fprintf(tw, "Potential Savings\t%d\n", d.Stats.Savings)
	fmt.Fprintf(tw, "Errors / Missing\t%d\n", d.Stats.Errors)
	fmt.Fprintf(tw, "Total Items\t%d\n", d.Stats.Total)
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Largest deviation: %s (%.1f%%)\n", d.Insight.MaxDeviationItem, d.Insight.MaxDeviationPercent)
	fmt.Fprintf(w, "Potential savings: %s\n", numeric.FormatINR(d.Insight.TotalSavings))

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COST WALK\tAMOUNT")
	for _, e := range d.CostWalk {
		fmt.Fprintf(tw, "%s\t%s\n", e.Label, numeric.FormatINR(e.Value))
	}
	tw.Flush()

	if len(d.Pie) > 0 {
		fmt.Fprintln(w)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "MATCH DISTRIBUTION\tITEMS")
		for _, slice := range d.Pie {
			fmt.Fprintf(tw, "%s\t%d\n", slice.Name, slice.Value)
		}
		tw.Flush()
	}
}

// renderGrid writes the current grid projection as an aligned table, with a
// filter-count footer. Expanded rows get their reasoning printed underneath.
func renderGrid(w io.Writer, v *grid.View) {
	cols := v.Columns()
	if len(cols) == 0 {
		fmt.Fprintln(w, "no recognizable columns")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	headers := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		headers = append(headers, strings.ToUpper(col.Canonical))
	}
	headers = append(headers, "STATUS")
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, c := range v.Rows() {
		cells := make([]string, 0, len(cols)+1)
		for _, col := range cols {
			cells = append(cells, grid.FormatCell(c.Row.Value(col.Name), col.Name))
		}
		cells = append(cells, string(c.Highlight))
		fmt.Fprintln(tw, strings.Join(cells, "\t"))

		if v.Expanded(c.ID) {
			fmt.Fprintf(tw, "  └ %s\n", c.Reasoning)
		}
	}
	tw.Flush()

	counts := v.Counts()
	fmt.Fprintf(w, "\n%d rows (%d deviations, %d critical, %d errors)\n",
		counts.All, counts.Deviations, counts.Critical, counts.Errors)
}

func renderJobs(w io.Writer, jobs []model.Job) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK ID\tFILE\tSTATE\tPROGRESS\tUPDATED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.0f%%\t%s\n",
			j.TaskID, j.Filename, j.State, j.ProgressPercent,
			j.UpdatedAt.Format(time.RFC3339))
	}
	tw.Flush()
}
