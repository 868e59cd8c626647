package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var retryCmd = &cobra.Command{
	Use:   "retry [job_id]",
	Short: "Retry a job immediately",
	Long:  `Reset a job to pending with retries=0 and nudge the engine to pick it up immediately, regardless of its current status.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			cmd.Printf("Error: invalid job id %q\n", args[0])
			return
		}

		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		if err := client.Retry(id); err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("Job %d queued for retry.\n", id)
	},
}

func init() {
	rootCmd.AddCommand(retryCmd)
}
