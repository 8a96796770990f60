package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boq-console/internal/report"
)

var sorCmd = &cobra.Command{
	Use:   "sor",
	Short: "Manage the backend's SOR reference database",
}

var sorUpdateCmd = &cobra.Command{
	Use:   "update <sor.xlsx>",
	Short: "Replace the backend's SOR reference database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		path := args[0]

		if _, err := os.Stat(path); err != nil {
			return eris.Wrapf(err, "sor file %s", path)
		}

		// Parse locally first so an unreadable workbook fails fast instead of
		// round-tripping through the backend.
		rows, err := report.Load(path, report.Options{})
		if err != nil {
			return err
		}
		zap.L().Info("sor file parsed", zap.String("file", path), zap.Int("rows", len(rows)))

		client := newBackendClient()
		if err := client.UpdateSOR(ctx, path); err != nil {
			return err
		}
		cmd.Printf("sor database updated (%d rows)\n", len(rows))
		return nil
	},
}

func init() {
	sorCmd.AddCommand(sorUpdateCmd)
	rootCmd.AddCommand(sorCmd)
}
