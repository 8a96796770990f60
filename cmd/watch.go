package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/poller"
	"github.com/sells-group/boq-console/internal/store"
)

var watchConcurrency int

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll every active job until it settles",
	Long:  "Finds all non-terminal jobs in the registry and polls each one to a terminal state, persisting progress as it goes.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		client := newBackendClient()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs(ctx, store.JobFilter{Active: true})
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			cmd.Println("no active jobs")
			return nil
		}

		zap.L().Info("watching jobs", zap.Int("count", len(jobs)))

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(watchConcurrency)

		for _, job := range jobs {
			g.Go(func() error {
				p := poller.New(client, cfg.Poll.Interval(), func(j model.Job) {
					if err := st.UpdateJob(ctx, j); err != nil {
						zap.L().Warn("persist job update failed",
							zap.String("task_id", j.TaskID),
							zap.Error(err),
						)
					}
				})
				final, err := p.Run(ctx, job)
				if err != nil {
					return eris.Wrapf(err, "watch %s", job.TaskID)
				}
				cmd.Printf("%s: %s\n", final.TaskID, final.State)
				return nil
			})
		}

		return g.Wait()
	},
}

func init() {
	watchCmd.Flags().IntVar(&watchConcurrency, "concurrency", 4, "jobs polled in parallel")
	rootCmd.AddCommand(watchCmd)
}
