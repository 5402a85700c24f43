package controllers

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// InspectController handles the "inspect" subcommand.
type InspectController struct {
	command commands.Inspect
}

// NewInspectController creates a new InspectController.
func NewInspectController(command commands.Inspect) *InspectController {
	return &InspectController{command: command}
}

// GetBind returns the Cobra command metadata for the inspect controller.
func (it *InspectController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "inspect [path]",
		Short: "Describe an existing checkout",
		Long: `Detect the VCS of a local directory and print its remote, revision,
position inside the checkout and nested submodules.
With --remote the branches and tags of the remote are listed as well.`,
	}
}

// Execute inspects the given directory, the current one by default.
func (it *InspectController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	remote, _ := cmd.Flags().GetBool("remote")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	report, err := it.command.Execute(ctx, commands.InspectOptions{
		Dir:     dir,
		Remote:  remote,
		Timeout: timeout,
	})
	if err != nil {
		logger.Errorf("Inspect failed: %v", err)
		return
	}

	if writeErr := writeOutput(cmd, report); writeErr != nil {
		logger.Errorf("Failed to write report: %v", writeErr)
	}
}

// AddFlags adds the inspect-specific flags to the given Cobra command.
func (it *InspectController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("remote", false, "Also list remote branches and tags")
	cmd.Flags().Duration("timeout", entities.DefaultRemoteQueryTimeout, "Timeout for the remote listings")
}
