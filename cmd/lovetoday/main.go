// Command lovetoday serves the Love Today app API and push dispatcher.
package main

import (
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "lovetoday",
	Short: "Daily love ideas, streaks, and reminders",
	Long: `lovetoday serves the Love Today app API and delivers daily web push
reminders. Configuration is read from LOVETODAY_* environment variables.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(dispatchCmd)
	rootCmd.AddCommand(vapidKeysCmd)
	rootCmd.AddCommand(ideaCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
