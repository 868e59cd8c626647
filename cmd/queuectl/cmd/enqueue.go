package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobqueue/pkg/api"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue",
	Short: "Enqueue a new job",
	Long: `Submit a new job to the queue.

Example:
  queuectl enqueue --name send_email --payload '{"to":"a@example.com"}' --priority 3
  queuectl enqueue --name cleanup_tmp --delay 300`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		name, _ := flags.GetString("name")
		payload, _ := flags.GetString("payload")
		delay, _ := flags.GetInt("delay")
		priority, _ := flags.GetInt("priority")

		if name == "" {
			cmd.Println("Error: --name is required")
			return
		}

		client := NewClient(viper.GetString("url"), viper.GetString("api-key"))
		result, err := client.Enqueue(api.EnqueueRequest{
			JobName:      name,
			Payload:      []byte(payload),
			DelaySeconds: delay,
			Priority:     priority,
		})
		if err != nil {
			printAPIError(cmd, err)
			return
		}

		cmd.Printf("Job enqueued.\nID: %d\n", result.ID)
	},
}

func init() {
	flags := enqueueCmd.Flags()
	flags.StringP("name", "n", "", "Registered job name (required)")
	flags.StringP("payload", "p", "", "JSON payload")
	flags.Int("delay", 0, "Delay before the job becomes eligible, in seconds")
	flags.Int("priority", 5, "Priority, 1 (highest) to 10 (lowest)")

	rootCmd.AddCommand(enqueueCmd)
}
