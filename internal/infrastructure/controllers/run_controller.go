package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// RunController handles the "run" subcommand (batch mode).
type RunController struct {
	command commands.Run
}

// NewRunController creates a new RunController.
func NewRunController(command commands.Run) *RunController {
	return &RunController{command: command}
}

// GetBind returns the Cobra command metadata for the run controller.
func (it *RunController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "run",
		Short: "Download every configured project",
		Long: `Download all projects of the configuration file in parallel.

It reads the configuration file, downloads each project into its
directory on a bounded worker pool and prints one result per project.
A project that fails to download is reported with its error and does
not stop the others.`,
	}
}

// Execute runs the batch download mode.
func (it *RunController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	projectFilter, _ := cmd.Flags().GetString("project")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	// Load configuration
	cfgPath := configPath
	if cfgPath == "" {
		var err error
		cfgPath, err = entities.FindConfigFile()
		if err != nil {
			logger.Errorf(
				"no config file found: %v\nSpecify one with --config or create downloader.yaml",
				err,
			)
			return
		}
	}

	logger.Infof("Using config file: %s", cfgPath)

	settings, err := entities.NewSettings(cfgPath)
	if err != nil {
		logger.Errorf("failed to load config: %v", err)
		return
	}

	logger.Info("Starting downloader run...")

	results, runErr := it.command.Execute(ctx, settings, commands.RunOptions{
		Verbose:     verbose,
		ProjectName: projectFilter,
		Concurrency: concurrency,
	})
	if runErr != nil {
		logger.Errorf("Run failed: %v", runErr)
	}

	if writeErr := writeOutput(cmd, results); writeErr != nil {
		logger.Errorf("Failed to write results: %v", writeErr)
	}
}

// AddFlags adds the run-specific flags to the given Cobra command.
func (it *RunController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("project", "", "Only download this project")
	cmd.Flags().Int("concurrency", 0, "Number of parallel downloads (default from settings)")
}
