package main

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/poller"
)

var (
	analyzeSORPath  string
	analyzeDownload bool
	analyzeNoWait   bool
	analyzeYAML     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <boq.xlsx>",
	Short: "Submit a BOQ for estimation and show the comparison dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		boqPath := args[0]

		if _, err := os.Stat(boqPath); err != nil {
			return eris.Wrapf(err, "boq file %s", boqPath)
		}

		client := newBackendClient()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		taskID, err := client.SubmitEstimate(ctx, boqPath, analyzeSORPath)
		if err != nil {
			return err
		}
		if taskID, err = ensureUUID(taskID); err != nil {
			return err
		}

		job := model.Job{
			TaskID:    taskID,
			Filename:  boqPath,
			State:     model.JobStatePending,
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		}
		if err := st.SaveJob(ctx, job); err != nil {
			return err
		}
		zap.L().Info("job submitted",
			zap.String("task_id", taskID),
			zap.String("file", boqPath),
		)

		if analyzeNoWait {
			cmd.Printf("submitted: %s\n", taskID)
			return nil
		}

		p := poller.New(client, cfg.Poll.Interval(), func(j model.Job) {
			if err := st.UpdateJob(ctx, j); err != nil {
				zap.L().Warn("persist job update failed", zap.Error(err))
			}
		})
		job, err = p.Run(ctx, job)
		if err != nil {
			return eris.Wrap(err, "polling interrupted")
		}

		if job.State == model.JobStateFailed {
			return eris.Errorf("estimation failed: %s", job.Error)
		}

		result, err := client.Analysis(ctx, taskID)
		if err != nil {
			return err
		}

		dashboard := analytics.BuildDashboard(result.GridData)
		if analyzeYAML {
			if err := printYAML(cmd.OutOrStdout(), dashboard); err != nil {
				return eris.Wrap(err, "encode dashboard")
			}
		} else {
			renderDashboard(cmd.OutOrStdout(), dashboard)
		}

		if analyzeDownload && job.OutputFile != "" {
			dest, err := client.Download(ctx, job.OutputFile, cfg.Download.Dir)
			if err != nil {
				return err
			}
			cmd.Printf("\nreport saved: %s\n", dest)
		}

		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeSORPath, "sor", "", "SOR reference file to submit alongside the BOQ")
	analyzeCmd.Flags().BoolVar(&analyzeDownload, "download", false, "download the comparison report when the job completes")
	analyzeCmd.Flags().BoolVar(&analyzeNoWait, "no-wait", false, "submit and exit without polling")
	analyzeCmd.Flags().BoolVar(&analyzeYAML, "yaml", false, "emit the dashboard as YAML")
	rootCmd.AddCommand(analyzeCmd)
}

// ensureUUID guards against backends that echo the filename instead of a
// task ID on older versions.
func ensureUUID(taskID string) (string, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return "", eris.Wrapf(err, "backend returned malformed task id %q", taskID)
	}
	return taskID, nil
}
