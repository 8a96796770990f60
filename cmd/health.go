package main

import (
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether the estimation backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newBackendClient()
		if err := client.Health(cmd.Context()); err != nil {
			return err
		}
		cmd.Printf("backend ok: %s\n", cfg.Backend.BaseURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
