package commands

import (
	"context"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// Run is the interface for the run command (batch mode).
type Run interface {
	Execute(ctx context.Context, settings *entities.Settings, opts RunOptions) ([]entities.DownloadResult, error)
}

// RunOptions holds runtime options for a single run.
type RunOptions struct {
	Verbose     bool
	ProjectName string // If set, only process this project (CLI override)
	Concurrency int    // If set, overrides settings.Concurrency
}

// RunCommand downloads every configured project on a bounded worker pool.
// A failing project is reported in its result and never stops the others.
type RunCommand struct {
	download Download
}

// NewRunCommand creates a new RunCommand.
func NewRunCommand(download Download) *RunCommand {
	return &RunCommand{download: download}
}

// Execute runs the batch. Results keep the order of settings.Projects.
func (it *RunCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	runOpts RunOptions,
) ([]entities.DownloadResult, error) {
	if runOpts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	projects := make([]entities.ProjectConfig, 0, len(settings.Projects))
	for _, project := range settings.Projects {
		// Skip if CLI filter is set and doesn't match
		if runOpts.ProjectName != "" && project.Name != runOpts.ProjectName {
			continue
		}
		projects = append(projects, project)
	}

	concurrency := settings.Concurrency
	if runOpts.Concurrency > 0 {
		concurrency = runOpts.Concurrency
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]entities.DownloadResult, len(projects))
	opts := settings.DownloadOptions()

	var group errgroup.Group
	group.SetLimit(concurrency)
	for i, project := range projects {
		group.Go(func() error {
			results[i] = it.processProject(ctx, settings, project, opts)
			return nil
		})
	}
	_ = group.Wait()

	totalErrors := 0
	for _, result := range results {
		if result.Failed() {
			totalErrors++
		}
	}

	logger.Infof(
		"Run complete: %d projects processed, %d downloaded, %d errors",
		len(results), len(results)-totalErrors, totalErrors,
	)
	return results, ctx.Err()
}

// processProject downloads a single project and converts a failure into its result.
func (it *RunCommand) processProject(
	ctx context.Context,
	settings *entities.Settings,
	project entities.ProjectConfig,
	opts entities.DownloadOptions,
) entities.DownloadResult {
	result := entities.DownloadResult{
		Project:   project.Name,
		Directory: settings.ProjectDirectory(project),
		Requested: project.Vcs,
	}

	logger.Infof("Downloading %s into %s", project.Name, result.Directory)
	provenance, err := it.download.Execute(ctx, project.Vcs, result.Directory, opts)
	if err != nil {
		logger.Errorf("Failed to download %s: %v", project.Name, err)
		result.Provenance = entities.NewProvenance(entities.EmptyVcsInfo)
		result.Error = err.Error()
		return result
	}

	logger.Infof("Downloaded %s at %s (%d submodules)", project.Name, provenance.VcsInfo.Revision, provenance.Submodules.Len())
	result.Provenance = provenance
	return result
}
