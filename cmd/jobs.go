package cmd

import (
	"os"
	"os/signal"

	"github.com/emrgen/recall/internal/config"
	"github.com/emrgen/recall/internal/jobs"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(jobsCmd())
}

func jobsCmd() *cobra.Command {
	command := &cobra.Command{
		Use:   "jobs",
		Short: "run the background storage janitor",
		Run: func(cmd *cobra.Command, args []string) {
			cnf := config.LoadConfig()
			runner := jobs.NewRunner(jobs.NewJanitor(cnf.StorageRoot))
			if err := runner.Start(); err != nil {
				color.Red("failed to start jobs: %v", err)
				return
			}
			defer runner.Stop()

			color.Green("janitor running over %s", cnf.StorageRoot)

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt)
			<-sig
		},
	}

	return command
}
