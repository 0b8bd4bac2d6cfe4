// Package cli provides the command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/osokin/repomerge/internal/branches"
	"github.com/osokin/repomerge/internal/clipboard"
	"github.com/osokin/repomerge/internal/config"
	"github.com/osokin/repomerge/internal/flow"
	"github.com/osokin/repomerge/internal/gitrepo"
	"github.com/osokin/repomerge/internal/merge"
	"github.com/osokin/repomerge/internal/tokenizer"
	"github.com/osokin/repomerge/internal/tui"
	"github.com/osokin/repomerge/internal/types"
	"github.com/osokin/repomerge/internal/utils"
	"github.com/osokin/repomerge/internal/workspace"
)

const (
	rootUse              = "repomerge"
	rootShortDescription = "repomerge command line interface"
	rootLongDescription  = `repomerge clones a remote repository into a transient workspace and merges
its file tree into a single annotated text artifact.
Run merge without a URL for the interactive session.`

	mergeUse              = "merge [url]"
	mergeShortDescription = "merge a repository into one text artifact"
	mergeUsageExample     = `  # Merge the default branch, TypeScript sources only
  repomerge merge https://github.com/owner/repo.git --extension .ts

  # Merge a specific branch into a chosen output file
  repomerge merge https://github.com/owner/repo.git --branch dev --output repo.txt

  # Interactive session with branch and extension prompts
  repomerge merge`

	branchesUse              = "branches <url>"
	branchesShortDescription = "list branches discovered on a remote"

	versionFlagName        = "version"
	versionFlagDescription = "display application version"
	versionTemplate        = "repomerge version: %s\n"

	branchFlagName         = "branch"
	outputFlagName         = "output"
	extensionFlagName      = "extension"
	excludeDirFlagName     = "exclude-dir"
	excludeFileFlagName    = "exclude-file"
	includeGlobFlagName    = "include-glob"
	gitignoreFlagName      = "gitignore"
	copyFlagName           = "copy"
	tokensFlagName         = "tokens"
	modelFlagName          = "model"
	configFlagName         = "config"

	branchFlagDescription      = "branch to merge (default branch when empty)"
	outputFlagDescription      = "merge artifact path"
	extensionFlagDescription   = "extension to include, repeatable (all when empty)"
	excludeDirFlagDescription  = "directory name to exclude, replaces defaults"
	excludeFileFlagDescription = "file name to exclude, replaces defaults"
	includeGlobFlagDescription = "repository-relative path glob to include, repeatable"
	gitignoreFlagDescription   = "honor the clone's .gitignore during walks"
	copyFlagDescription        = "copy the artifact to the system clipboard"
	tokensFlagDescription      = "report the artifact token count"
	modelFlagDescription       = "tokenizer model used for token counting"
	configFlagDescription      = "explicit configuration file path"

	mergeCompleteFormat  = "merged %d files (%s) into %s"
	tokenCountFormat     = "artifact holds %d tokens (%s)"
	branchListLineFormat = "%s\n"
	branchTierFormat     = "tier: %s"

	warningClipboardFormat  = "failed to copy artifact to clipboard: %v"
	warningTokenCountFormat = "failed to count artifact tokens: %v"
)

// mergeOptions collects every flag of the merge command.
type mergeOptions struct {
	branch          string
	output          string
	extensions      []string
	excludeDirs     []string
	excludeFiles    []string
	includeGlobs    []string
	useGitignore    bool
	copyToClipboard bool
	countTokens     bool
	tokenizerModel  string
	configPath      string
}

// application bundles the long-lived collaborators shared by every command.
type application struct {
	logger     *zap.Logger
	workspaces *workspace.Manager
	gitClient  *gitrepo.Client
}

// Execute runs the repomerge application.
func Execute(logger *zap.Logger) error {
	workspaces, managerError := workspace.NewManager("", logger)
	if managerError != nil {
		return managerError
	}
	workspaces.InstallInterruptHandler()
	defer workspaces.ReleaseAll()

	app := &application{
		logger:     logger,
		workspaces: workspaces,
		gitClient:  gitrepo.NewClient(logger),
	}
	return createRootCommand(app).Execute()
}

// createRootCommand builds the root cobra command.
func createRootCommand(app *application) *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createMergeCommand(app),
		createBranchesCommand(app),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// createMergeCommand returns the merge subcommand.
func createMergeCommand(app *application) *cobra.Command {
	var options mergeOptions

	mergeCommand := &cobra.Command{
		Use:     mergeUse,
		Short:   mergeShortDescription,
		Example: mergeUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			configuration := buildMergeConfiguration(command, options)
			appConfiguration, loadError := config.LoadApplicationConfiguration(config.LoadOptions{ExplicitFilePath: options.configPath})
			if loadError != nil {
				return loadError
			}
			resolved := resolveMergeSettings(appConfiguration.Merge, options, configuration, command)

			if len(arguments) == 0 {
				return app.runInteractiveSession(command.Context(), resolved)
			}
			return app.runMerge(command.Context(), arguments[0], resolved)
		},
	}

	flags := mergeCommand.Flags()
	flags.StringVar(&options.branch, branchFlagName, "", branchFlagDescription)
	flags.StringVar(&options.output, outputFlagName, types.DefaultOutputFileName, outputFlagDescription)
	flags.StringArrayVar(&options.extensions, extensionFlagName, nil, extensionFlagDescription)
	flags.StringArrayVar(&options.excludeDirs, excludeDirFlagName, nil, excludeDirFlagDescription)
	flags.StringArrayVar(&options.excludeFiles, excludeFileFlagName, nil, excludeFileFlagDescription)
	flags.StringArrayVar(&options.includeGlobs, includeGlobFlagName, nil, includeGlobFlagDescription)
	flags.BoolVar(&options.useGitignore, gitignoreFlagName, false, gitignoreFlagDescription)
	flags.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagDescription)
	flags.BoolVar(&options.countTokens, tokensFlagName, false, tokensFlagDescription)
	flags.StringVar(&options.tokenizerModel, modelFlagName, tokenizer.DefaultModel, modelFlagDescription)
	flags.StringVar(&options.configPath, configFlagName, "", configFlagDescription)
	return mergeCommand
}

// createBranchesCommand returns the branches subcommand.
func createBranchesCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   branchesUse,
		Short: branchesShortDescription,
		Args:  cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			scratch, allocateError := app.workspaces.Allocate()
			if allocateError != nil {
				return allocateError
			}
			defer app.workspaces.Release(scratch)

			discovery := branches.NewDiscovery(app.gitClient, app.logger)
			discovered, discoverError := discovery.Discover(command.Context(), arguments[0], scratch.Path)
			if discoverError != nil {
				return discoverError
			}
			for _, name := range discovered.Names {
				fmt.Printf(branchListLineFormat, name)
			}
			app.logger.Info(fmt.Sprintf(branchTierFormat, discovered.Tier))
			return nil
		},
	}
}

// mergeSettings is the fully resolved per-run configuration, combining the
// literal defaults, the configuration files, and the command line flags.
type mergeSettings struct {
	configuration   types.MergeConfig
	copyToClipboard bool
	countTokens     bool
	tokenizerModel  string
}

// buildMergeConfiguration converts the merge flags into a MergeConfig built
// from the literal defaults.
func buildMergeConfiguration(command *cobra.Command, options mergeOptions) types.MergeConfig {
	configuration := types.NewMergeConfig()
	configuration.Branch = options.branch
	configuration.OutputPath = options.output
	configuration.IncludeGlobs = options.includeGlobs
	configuration.UseGitignore = options.useGitignore
	if command.Flags().Changed(excludeDirFlagName) {
		configuration.ExcludeDirs = types.StringSet(options.excludeDirs)
	}
	if command.Flags().Changed(excludeFileFlagName) {
		configuration.ExcludeFiles = types.StringSet(options.excludeFiles)
	}
	if len(options.extensions) > 0 {
		configuration.IncludeExtensions = types.StringSet(normalizeExtensionFlags(options.extensions))
	}
	return configuration
}

// resolveMergeSettings overlays configuration file defaults beneath explicit flags.
func resolveMergeSettings(
	fileConfiguration config.MergeCommandConfiguration,
	options mergeOptions,
	flagConfiguration types.MergeConfig,
	command *cobra.Command,
) mergeSettings {
	configuration := fileConfiguration.ApplyToMergeConfig(types.NewMergeConfig())

	// Explicit flags win over configuration files.
	if command.Flags().Changed(outputFlagName) {
		configuration.OutputPath = flagConfiguration.OutputPath
	} else if configuration.OutputPath == "" {
		configuration.OutputPath = flagConfiguration.OutputPath
	}
	if command.Flags().Changed(excludeDirFlagName) {
		configuration.ExcludeDirs = flagConfiguration.ExcludeDirs
	}
	if command.Flags().Changed(excludeFileFlagName) {
		configuration.ExcludeFiles = flagConfiguration.ExcludeFiles
	}
	if len(options.extensions) > 0 {
		configuration.IncludeExtensions = flagConfiguration.IncludeExtensions
	}
	if command.Flags().Changed(gitignoreFlagName) {
		configuration.UseGitignore = flagConfiguration.UseGitignore
	}
	configuration.IncludeGlobs = flagConfiguration.IncludeGlobs
	configuration.Branch = flagConfiguration.Branch

	settings := mergeSettings{
		configuration:   configuration,
		copyToClipboard: options.copyToClipboard,
		countTokens:     options.countTokens,
		tokenizerModel:  options.tokenizerModel,
	}
	if !command.Flags().Changed(copyFlagName) && fileConfiguration.Clipboard != nil {
		settings.copyToClipboard = *fileConfiguration.Clipboard
	}
	if !command.Flags().Changed(tokensFlagName) && fileConfiguration.Tokens.Enabled != nil {
		settings.countTokens = *fileConfiguration.Tokens.Enabled
	}
	if !command.Flags().Changed(modelFlagName) && fileConfiguration.Tokens.Model != "" {
		settings.tokenizerModel = fileConfiguration.Tokens.Model
	}
	return settings
}

// runMerge executes one non-interactive merge, consuming progress events
// through an errgroup producer/consumer pair.
func (app *application) runMerge(executionContext context.Context, url string, settings mergeSettings) error {
	merger := merge.NewMerger(app.workspaces, app.gitClient, app.logger)

	group, groupContext := errgroup.WithContext(executionContext)
	events := make(chan merge.Event)
	var result merge.Result

	group.Go(func() error {
		defer close(events)
		runResult, runError := merger.Run(groupContext, url, settings.configuration, events)
		if runError != nil {
			return runError
		}
		result = runResult
		return nil
	})

	group.Go(func() error {
		for event := range events {
			if event.Kind == merge.EventKindFile {
				app.logger.Debug("merged file", zap.String("path", event.Path))
			}
		}
		return nil
	})

	if waitError := group.Wait(); waitError != nil {
		return waitError
	}

	app.logger.Info(fmt.Sprintf(mergeCompleteFormat, result.FileCount, utils.FormatFileSize(result.TotalBytes), result.OutputPath))
	app.finishMerge(result, settings)
	return nil
}

// runInteractiveSession drives the flow state machine with terminal prompts.
func (app *application) runInteractiveSession(executionContext context.Context, settings mergeSettings) error {
	merger := merge.NewMerger(app.workspaces, app.gitClient, app.logger)
	discovery := branches.NewDiscovery(app.gitClient, app.logger)
	machine := flow.NewMachine(app.workspaces, discovery, merger, app.gitClient, tui.NewPrompter(), settings.configuration, app.logger)

	if runError := machine.Run(executionContext); runError != nil {
		if errors.Is(runError, flow.ErrAborted) {
			app.logger.Info("session aborted")
			return nil
		}
		return runError
	}

	result := machine.Result()
	app.logger.Info(fmt.Sprintf(mergeCompleteFormat, result.FileCount, utils.FormatFileSize(result.TotalBytes), result.OutputPath))
	app.finishMerge(result, settings)
	return nil
}

// finishMerge applies the post-merge conveniences: clipboard copy and token count.
func (app *application) finishMerge(result merge.Result, settings mergeSettings) {
	if settings.copyToClipboard {
		if copyError := clipboard.NewService().Copy(result.Content); copyError != nil {
			app.logger.Warn(fmt.Sprintf(warningClipboardFormat, copyError))
		}
	}
	if settings.countTokens {
		counter, resolvedModel, counterError := tokenizer.NewCounter(settings.tokenizerModel)
		if counterError != nil {
			app.logger.Warn(fmt.Sprintf(warningTokenCountFormat, counterError))
			return
		}
		tokenCount, countError := counter.CountString(result.Content)
		if countError != nil {
			app.logger.Warn(fmt.Sprintf(warningTokenCountFormat, countError))
			return
		}
		app.logger.Info(fmt.Sprintf(tokenCountFormat, tokenCount, resolvedModel))
	}
}

// normalizeExtensionFlags lowercases extensions and ensures a leading dot.
func normalizeExtensionFlags(extensions []string) []string {
	normalized := make([]string, 0, len(extensions))
	for _, extension := range extensions {
		candidate := extension
		if candidate == "" {
			continue
		}
		if candidate[0] != '.' {
			candidate = "." + candidate
		}
		normalized = append(normalized, strings.ToLower(candidate))
	}
	return utils.DeduplicateStrings(normalized)
}
