package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/boq-console/internal/model"
)

var (
	downloadDir  string
	downloadKeep bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <task-id>",
	Short: "Download the comparison report for a completed job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		job, err := st.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		if job.State != model.JobStateCompleted {
			return eris.Errorf("job %s is %s, not completed", job.TaskID, job.State)
		}
		if job.OutputFile == "" {
			return eris.Errorf("job %s has no report file", job.TaskID)
		}

		dir := downloadDir
		if dir == "" {
			dir = cfg.Download.Dir
		}

		client := newBackendClient()
		dest, err := client.Download(ctx, job.OutputFile, dir)
		if err != nil {
			return err
		}
		cmd.Printf("report saved: %s\n", dest)

		// A downloaded job is done with: drop it from the registry unless
		// asked to keep it around.
		if !downloadKeep {
			if err := st.DeleteJob(ctx, job.TaskID); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	downloadCmd.Flags().StringVar(&downloadDir, "dir", "", "destination directory (default from config)")
	downloadCmd.Flags().BoolVar(&downloadKeep, "keep", false, "keep the job in the registry after downloading")
	rootCmd.AddCommand(downloadCmd)
}
