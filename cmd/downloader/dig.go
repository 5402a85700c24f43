package main

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/downloader/internal"
	"github.com/rios0rios0/downloader/internal/infrastructure/controllers"
)

// injectAppContext builds the container once for the subcommands: download,
// run and inspect share one VCS registry and one directory locker.
func injectAppContext() *internal.AppInternal {
	container := dig.New()

	// Register all providers
	if err := internal.RegisterProviders(container); err != nil {
		panic(err)
	}

	// Invoke to get AppInternal
	var appInternal *internal.AppInternal
	if err := container.Invoke(func(ai *internal.AppInternal) {
		appInternal = ai
	}); err != nil {
		panic(err)
	}

	return appInternal
}

// injectDownloadController resolves the controller behind "downloader <url>",
// the root command that downloads a single repository without a settings file.
func injectDownloadController() *controllers.DownloadController {
	container := dig.New()

	if err := internal.RegisterProviders(container); err != nil {
		panic(err)
	}

	var downloadController *controllers.DownloadController
	if err := container.Invoke(func(dc *controllers.DownloadController) {
		downloadController = dc
	}); err != nil {
		panic(err)
	}

	return downloadController
}
