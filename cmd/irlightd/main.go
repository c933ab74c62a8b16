package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dokzlo13/irlightd/internal/app"
	"github.com/dokzlo13/irlightd/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "irlightd",
	Short:         "Drive IR-remote lights as smart lights",
	Long:          `irlightd models IR-controlled lights as dimmable, colored lights and turns requested states into button presses.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the light daemon (default)",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to configuration file")
	serveCmd.Flags().Bool("reset-state", false, "Forget the stored state of every light on startup")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())

	rootCmd.AddCommand(serveCmd, validateCmd, pressCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("irlightd failed")
		os.Exit(1)
	}
}

// loadConfig loads the configuration and sets up logging from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	setupLogging(cfg.Log.Level, cfg.Log.UseJSON, cfg.Log.Colors)
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Info().Str("config", configPath).Msg("Starting irlightd")

	reset, _ := cmd.Flags().GetBool("reset-state")
	application, err := app.New(cfg, app.Options{ResetState: reset})
	if err != nil {
		return err
	}

	ctx, stop := app.SignalContext()
	defer stop()

	if err := application.Start(ctx); err != nil {
		application.Stop()
		return err
	}

	application.Wait()

	return application.Stop()
}
