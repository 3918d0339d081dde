package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kilianp07/rakeplan/app"
	"github.com/kilianp07/rakeplan/config"
	"github.com/kilianp07/rakeplan/core/monitoring"
	"github.com/kilianp07/rakeplan/infra/logger"
	inframon "github.com/kilianp07/rakeplan/infra/monitoring"
)

var (
	cfgPath string
	envFile string
	asJSON  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:               "rakeplan",
	Short:             "Railway rake demand forecasting and scheduling",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before the configuration")
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "print results as JSON")
}

// Execute runs the CLI and flushes reported errors before returning.
func Execute() error {
	defer monitoring.Flush(2 * time.Second)
	return rootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file: %w", err)
		}
	}
	c, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.SetLevel(c.LogLevel)
	mon, err := inframon.NewSentryMonitor(c.Sentry)
	if err != nil {
		return fmt.Errorf("init sentry: %w", err)
	}
	monitoring.Init(mon)
	cfg = c
	return nil
}

func newService() (*app.Service, error) {
	return app.New(cfg)
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("main").Errorf("service close: %v", err)
	}
}
