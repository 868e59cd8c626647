package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	Long: `List jobs, optionally filtered by status.

Example:
  queuectl list --status pending
  queuectl list --status failed --limit 20`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		status, _ := flags.GetString("status")
		limit, _ := flags.GetInt("limit")

		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		result, err := client.List(status, limit)
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		if len(result.Jobs) == 0 {
			cmd.Println("No jobs found.")
			return
		}

		cmd.Printf("%-6s %-20s %-10s %-10s %-8s\n", "ID", "NAME", "STATUS", "PRIORITY", "RETRIES")
		for _, j := range result.Jobs {
			cmd.Printf("%-6d %-20s %-10s %-10d %-8d\n", j.ID, j.JobName, j.Status, j.Priority, j.Retries)
		}
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Count jobs by status",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		result, err := client.CountByStatus()
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		for _, status := range []string{"pending", "processing", "completed", "failed"} {
			cmd.Println(fmt.Sprintf("%-12s %d", status, result.Counts[status]))
		}
	},
}

func init() {
	flags := listCmd.Flags()
	flags.String("status", "", "Filter by status: pending, processing, completed, failed")
	flags.Int("limit", 100, "Maximum number of jobs to return")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(countCmd)
}
