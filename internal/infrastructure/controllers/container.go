package controllers

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/downloader/internal/domain/entities"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewDownloadController); err != nil {
		return err
	}
	if err := container.Provide(NewRunController); err != nil {
		return err
	}
	if err := container.Provide(NewInspectController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	downloadController *DownloadController,
	runController *RunController,
	inspectController *InspectController,
) *[]entities.Controller {
	return &[]entities.Controller{
		downloadController,
		runController,
		inspectController,
	}
}
