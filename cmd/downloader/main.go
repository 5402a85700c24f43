package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/downloader/internal"
	"github.com/rios0rios0/downloader/internal/infrastructure/controllers"
)

func buildRootCommand(downloadController *controllers.DownloadController) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "downloader [url]",
		Short: "Version control working tree downloader",
		Long: `Materializes source code from Git, Mercurial, Subversion and CVS
repositories, resolves the requested revision, downloads nested
submodules and prints the resolved provenance.

Usage modes:
  downloader <url>              Download a single repository
  downloader download <url>     Same, with all download flags
  downloader run                Batch mode using a config file
  downloader inspect [path]     Describe an existing checkout`,
		Args: cobra.MaximumNArgs(1),
		PersistentPreRun: func(command *cobra.Command, _ []string) {
			if verbose, _ := command.Flags().GetBool("verbose"); verbose {
				logger.SetLevel(logger.DebugLevel)
			}
		},
		RunE: func(command *cobra.Command, args []string) error {
			if len(args) == 0 {
				return command.Help()
			}
			downloadController.Execute(command, args)
			return nil
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().StringP("format", "o", "yaml",
		"Output format (yaml, json)")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	// The root command downloads as well, so it takes the download flags
	downloadController.AddFlags(cmd)

	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run: func(command *cobra.Command, arguments []string) {
				ctrl.Execute(command, arguments)
			},
		}

		// Add controller-specific flags
		ctrl.AddFlags(subCmd)

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	// provenance goes to stdout, so keep the logs apart
	logger.SetOutput(os.Stderr)
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	// Inject controllers via DIG
	downloadController := injectDownloadController()
	cobraRoot := buildRootCommand(downloadController)

	// Add all subcommands
	appContext := injectAppContext()
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'downloader': %s", err)
	}
}
