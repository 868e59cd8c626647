package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "queuectl",
	Short: "queuectl is a command line tool for interacting with queued",
	Long: `queuectl is the command-line interface for the queued background
job engine: a durable, priority-aware queue with lease-based worker
coordination and bounded-retry backoff.

Common workflows:

  Enqueue a job:
    queuectl enqueue --name send_email --payload '{"to":"a@example.com"}' --priority 3

  Schedule a recurring job:
    queuectl schedule --name nightly_report --interval 24h

  List jobs by status:
    queuectl list --status pending

  Retry a failed job:
    queuectl retry 42

  Cancel a job:
    queuectl cancel 42

Configuration:
  Set the API endpoint and key via environment variables or a config file:
    QUEUECTL_URL      Admin API endpoint (default: http://localhost:6161)
    QUEUECTL_API_KEY  Admin API key, if the daemon requires one`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".queuectl")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("QUEUECTL")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.queuectl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "queued admin API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().String("api-key", "", "Admin API key")
	viper.BindPFlag("api-key", rootCmd.PersistentFlags().Lookup("api-key"))
}
