package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dataDir  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Record Engage job applications from company mailboxes",
	Long: `engine reads Engage application notices from each active account's
mailbox, appends new applications to the applicant sheet and notifies the
client over Chatwork (and LINE for instant accounts).

  engine run              # one scheduled pass
  engine run --instant    # one pass over instant-reaction accounts
  engine watch --every 1m # repeat passes and serve a status API`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A missing .env is normal in CI, where the environment is set directly.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: <data-dir>/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "engine data directory (default: $ENGINE_DATA_DIR or .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")

	rootCmd.AddCommand(runCmd, watchCmd, secretsCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
