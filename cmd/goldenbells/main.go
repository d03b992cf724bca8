package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/park285/goldenbells-bot/internal/config"
	"github.com/park285/goldenbells-bot/internal/obslog"
)

var cfg *config.AppConfig

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "goldenbells",
	Short: "Church quiz and fellowship bot for KakaoTalk (via Iris)",
	Long: `goldenbells answers chat commands relayed by an Iris bridge: trivia quizzes,
best-of-ten rounds, quiz battles, lyrics, teachings, teams and prayer requests.

All settings come from the environment (IRIS_BASE_URL, STORE_BACKEND, ...).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		cfg = c
		logger, err := obslog.Init(obslog.Options{
			Level:   c.Log.Level,
			Format:  c.Log.Format,
			Console: c.Log.Console,
			ToFile:  c.Log.ToFile,
			File:    c.Log.File,
			Caller:  c.Log.Caller,
		})
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger.Debug("config_loaded",
			zap.String("store", c.StoreBackend),
			zap.String("egress", c.EgressMode),
			zap.Int("allowed_rooms", len(c.AllowedRooms)),
			zap.Int("admins", len(c.AdminIDs)))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = obslog.L().Sync()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(seedCmd)
}
