package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/store"
)

var (
	jobsState  string
	jobsActive bool
	jobsLimit  int
	jobsYAML   bool
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage tracked estimation jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tracked jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		jobs, err := st.ListJobs(ctx, store.JobFilter{
			State:  model.JobState(jobsState),
			Active: jobsActive,
			Limit:  jobsLimit,
		})
		if err != nil {
			return err
		}

		if jobsYAML {
			return printYAML(cmd.OutOrStdout(), jobs)
		}
		renderJobs(cmd.OutOrStdout(), jobs)
		return nil
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one job in full",
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
		return printYAML(cmd.OutOrStdout(), job)
	},
}

var jobsDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Remove a job from the registry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.DeleteJob(ctx, args[0]); err != nil {
			return err
		}
		cmd.Printf("deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	jobsListCmd.Flags().StringVar(&jobsState, "state", "", "filter by state (pending|processing|completed|failed)")
	jobsListCmd.Flags().BoolVar(&jobsActive, "active", false, "only non-terminal jobs")
	jobsListCmd.Flags().IntVar(&jobsLimit, "limit", 50, "maximum jobs to list")
	jobsListCmd.Flags().BoolVar(&jobsYAML, "yaml", false, "emit jobs as YAML")

	jobsCmd.AddCommand(jobsListCmd, jobsShowCmd, jobsDeleteCmd)
	rootCmd.AddCommand(jobsCmd)
}
