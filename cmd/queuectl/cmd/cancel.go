package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [job_id]",
	Short: "Cancel a job",
	Long:  `Delete a job regardless of its current status.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			cmd.Printf("Error: invalid job id %q\n", args[0])
			return
		}

		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		if err := client.Cancel(id); err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("Job %d cancelled.\n", id)
	},
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func printAPIError(cmd *cobra.Command, err error) {
	if apiErr, ok := err.(*APIError); ok {
		cmd.Printf("Error (%d): %s\n", apiErr.StatusCode, apiErr.Message)
		return
	}
	cmd.Printf("Error: %v\n", err)
}
