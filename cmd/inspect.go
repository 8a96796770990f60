package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/grid"
	"github.com/sells-group/boq-console/internal/report"
)

var (
	inspectSheet  string
	inspectGrid   bool
	inspectFilter string
	inspectSort   string
	inspectDesc   bool
	inspectSearch string
	inspectYAML   bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.xlsx>",
	Short: "Analyze a downloaded comparison report locally",
	Long:  "Re-runs classification and aggregation over a comparison report on disk, without touching the backend.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := report.Load(args[0], report.Options{SheetName: inspectSheet})
		if err != nil {
			return err
		}

		classified := analytics.ClassifyAll(rows)

		if inspectGrid {
			v := grid.FromClassified(classified)
			v.SetFilter(grid.ParseFilter(inspectFilter))
			if inspectSort != "" {
				v.SetSort(inspectSort, !inspectDesc)
			}
			v.SetSearch(inspectSearch)
			renderGrid(cmd.OutOrStdout(), v)
			return nil
		}

		dashboard := analytics.DashboardFrom(classified)
		if inspectYAML {
			return printYAML(cmd.OutOrStdout(), dashboard)
		}
		renderDashboard(cmd.OutOrStdout(), dashboard)
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "sheet name (default first sheet)")
	inspectCmd.Flags().BoolVar(&inspectGrid, "grid", false, "render the detailed grid instead of the dashboard")
	inspectCmd.Flags().StringVar(&inspectFilter, "filter", "all", "grid filter: all|errors|deviations|critical")
	inspectCmd.Flags().StringVar(&inspectSort, "sort", "", "column to sort the grid by")
	inspectCmd.Flags().BoolVar(&inspectDesc, "desc", false, "sort descending")
	inspectCmd.Flags().StringVar(&inspectSearch, "search", "", "search term applied after filtering and sorting")
	inspectCmd.Flags().BoolVar(&inspectYAML, "yaml", false, "emit the dashboard as YAML")
	rootCmd.AddCommand(inspectCmd)
}
