package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/theme"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"face-restore-studio/internal/gui"
	"face-restore-studio/internal/workflow"
)

func newRootCommand(opts ...func(*commandContext)) *cobra.Command {
	var flags rootFlags
	ctx := newCommandContext(&flags)
	for _, opt := range opts {
		opt(ctx)
	}

	rootCmd := &cobra.Command{
		Use:           "facerestore",
		Short:         "Restore a face image and compare it with the original",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.apiURL, "api-url", "", "Restoration service base URL (overrides config)")

	rootCmd.AddCommand(newEnhanceCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// shouldSkipConfig reports whether cmd must run even with a broken config.
func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfig"] == "true" {
			return true
		}
	}
	return false
}

func runGUI(ctx *commandContext) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.logger()
	logger.WithFields(logrus.Fields{
		"version": AppVersion,
		"service": cfg.EnhanceURL(),
	}).Info("Starting " + AppName)

	fyneApp := app.NewWithID(AppID)
	fyneApp.SetIcon(theme.MediaPhotoIcon())

	controller := ctx.newController(workflow.WithDispatcher(fyne.Do))
	mainApp := gui.NewApplication(fyneApp, controller, gui.Options{
		Policy:      ctx.policy(),
		DownloadDir: cfg.Output.DownloadDir,
		Logger:      logger,
	})
	mainApp.ShowAndRun()

	logger.Info("Application shutting down gracefully")
	return nil
}
