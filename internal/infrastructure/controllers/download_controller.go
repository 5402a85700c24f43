package controllers

import (
	"context"
	"path/filepath"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/downloader/internal/domain/commands"
	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// DownloadController handles the "download" subcommand and the root command
// with a URL argument (single repository).
type DownloadController struct {
	command  commands.Download
	settings *entities.Settings
}

// NewDownloadController creates a new DownloadController.
func NewDownloadController(command commands.Download, settings *entities.Settings) *DownloadController {
	return &DownloadController{command: command, settings: settings}
}

// GetBind returns the Cobra command metadata for the download controller.
func (it *DownloadController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "download <url>",
		Short: "Download a single repository",
		Long: `Clone or update a repository, check out the requested revision
and all nested submodules, then print the resolved provenance.

The VCS type is detected when --type is not given.`,
	}
}

// Execute downloads the repository named by the first argument.
func (it *DownloadController) Execute(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	if len(args) != 1 {
		logger.Error("Exactly one repository URL is required")
		return
	}

	vcsType, _ := cmd.Flags().GetString("type")
	revision, _ := cmd.Flags().GetString("revision")
	subPath, _ := cmd.Flags().GetString("path")
	dir, _ := cmd.Flags().GetString("dir")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")

	info := entities.VcsInfo{
		Type:     entities.ParseVcsType(vcsType),
		URL:      args[0],
		Revision: revision,
		Path:     subPath,
	}
	if vcsType != "" && info.Type.IsUnknown() {
		logger.Errorf("Unknown VCS type %q", vcsType)
		return
	}
	if dir == "" {
		dir = filepath.Join(it.settings.StoragePath, entities.RepositoryName(info.URL))
	}

	opts := it.settings.DownloadOptions()
	if maxDepth > 0 {
		opts.MaxSubmoduleDepth = maxDepth
	}

	logger.Infof("Downloading %s into %s", info, dir)
	provenance, err := it.command.Execute(ctx, info, dir, opts)
	if err != nil {
		logger.Errorf("Download failed: %v", err)
		return
	}

	if writeErr := writeOutput(cmd, provenance); writeErr != nil {
		logger.Errorf("Failed to write provenance: %v", writeErr)
	}
}

// AddFlags adds the download-specific flags to the given Cobra command.
func (it *DownloadController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("type", "t", "", "VCS type (git, hg, svn, cvs); detected when empty")
	cmd.Flags().StringP("revision", "r", "", "Commit, tag or branch to check out (default branch tip when empty)")
	cmd.Flags().String("path", "", "Sub-path of interest inside the repository")
	cmd.Flags().StringP("dir", "d", "", "Target directory (default: <storage_path>/<repository name>)")
	cmd.Flags().Int("max-depth", 0, "Maximum submodule nesting depth (default from settings)")
}
