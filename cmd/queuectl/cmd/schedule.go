package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobqueue/pkg/api"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Register a recurring job",
	Long: `Register a job name to be enqueued on a fixed interval.

Valid intervals: every_minute, hourly, twicedaily, daily.

Example:
  queuectl schedule --name nightly_report --interval daily`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		payload, _ := flags.GetString("payload")
		interval, _ := flags.GetString("interval")
		priority, _ := flags.GetInt("priority")

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}
		if interval == "" {
			cmd.Println("Error: --interval is required")
			return
		}

		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		result, err := client.ScheduleRecurring(api.ScheduleRecurringRequest{
			JobName:  name,
			Payload:  []byte(payload),
			Interval: interval,
			Priority: priority,
		})
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		if result.Registered {
			cmd.Println("Recurring schedule registered.")
		} else {
			cmd.Println("A recurring schedule for this job name already exists.")
		}
	},
}

func init() {
	flags := scheduleCmd.Flags()
	flags.StringP("name", "n", "", "Registered job name (required)")
	flags.StringP("payload", "p", "", "JSON payload")
	flags.String("interval", "", "Cadence: every_minute, hourly, twicedaily, or daily (required)")
	flags.Int("priority", 5, "Priority, 1 (highest) to 10 (lowest)")

	rootCmd.AddCommand(scheduleCmd)
}
