// Package config loads optional application configuration files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/osokin/repomerge/internal/types"
	"github.com/osokin/repomerge/internal/utils"
)

// ConfigFileName is the configuration file looked up in the home and working
// directories. The working directory copy overrides the home copy.
const ConfigFileName = ".repomerge.yaml"

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds merge command defaults.
type ApplicationConfiguration struct {
	Merge MergeCommandConfiguration `mapstructure:"merge"`
}

// MergeCommandConfiguration defines configurable merge defaults.
type MergeCommandConfiguration struct {
	Output       string             `mapstructure:"output"`
	ExcludeDirs  []string           `mapstructure:"exclude_dirs"`
	ExcludeFiles []string           `mapstructure:"exclude_files"`
	Extensions   []string           `mapstructure:"extensions"`
	UseGitignore *bool              `mapstructure:"use_gitignore"`
	Clipboard    *bool              `mapstructure:"clipboard"`
	Tokens       TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the home directory and
// the working directory, overlaying the latter onto the former.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", workingDirectoryError)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, homeError := os.UserHomeDir(); homeError == nil && homeDirectory != "" {
		homeConfiguration, loadError := loadConfigurationFromPath(filepath.Join(homeDirectory, ConfigFileName))
		if loadError != nil {
			return ApplicationConfiguration{}, loadError
		}
		merged = merged.merge(homeConfiguration)
	}

	localPath := filepath.Join(workingDirectory, ConfigFileName)
	if options.ExplicitFilePath != "" {
		localPath = options.ExplicitFilePath
		if !filepath.IsAbs(localPath) {
			localPath = filepath.Join(workingDirectory, localPath)
		}
	}
	localConfiguration, loadError := loadConfigurationFromPath(localPath)
	if loadError != nil {
		return ApplicationConfiguration{}, loadError
	}
	merged = merged.merge(localConfiguration)

	merged.Merge.ExcludeDirs = utils.DeduplicateStrings(merged.Merge.ExcludeDirs)
	merged.Merge.ExcludeFiles = utils.DeduplicateStrings(merged.Merge.ExcludeFiles)
	merged.Merge.Extensions = utils.DeduplicateStrings(merged.Merge.Extensions)

	return merged, nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	fileInformation, statError := os.Stat(path)
	if statError != nil {
		if os.IsNotExist(statError) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statError)
	}
	if fileInformation.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readError := reader.ReadInConfig(); readError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readError)
	}
	var configuration ApplicationConfiguration
	if decodeError := reader.Unmarshal(&configuration); decodeError != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeError)
	}
	return configuration, nil
}

// merge overlays override onto the receiver returning the combined configuration.
func (configuration ApplicationConfiguration) merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := configuration
	result.Merge = result.Merge.merge(override.Merge)
	return result
}

func (configuration MergeCommandConfiguration) merge(override MergeCommandConfiguration) MergeCommandConfiguration {
	result := configuration
	if override.Output != "" {
		result.Output = override.Output
	}
	if len(override.ExcludeDirs) > 0 {
		result.ExcludeDirs = append([]string{}, override.ExcludeDirs...)
	}
	if len(override.ExcludeFiles) > 0 {
		result.ExcludeFiles = append([]string{}, override.ExcludeFiles...)
	}
	if len(override.Extensions) > 0 {
		result.Extensions = append([]string{}, override.Extensions...)
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	if override.Clipboard != nil {
		result.Clipboard = cloneBool(override.Clipboard)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (configuration TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := configuration
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

// ApplyToMergeConfig overlays the loaded configuration onto a MergeConfig built
// from the literal defaults.
func (configuration MergeCommandConfiguration) ApplyToMergeConfig(base types.MergeConfig) types.MergeConfig {
	result := base
	if configuration.Output != "" {
		result.OutputPath = configuration.Output
	}
	if len(configuration.ExcludeDirs) > 0 {
		result.ExcludeDirs = types.StringSet(configuration.ExcludeDirs)
	}
	if len(configuration.ExcludeFiles) > 0 {
		result.ExcludeFiles = types.StringSet(configuration.ExcludeFiles)
	}
	if len(configuration.Extensions) > 0 {
		result.IncludeExtensions = types.StringSet(normalizeExtensions(configuration.Extensions))
	}
	if configuration.UseGitignore != nil {
		result.UseGitignore = *configuration.UseGitignore
	}
	return result
}

// normalizeExtensions lowercases configured extensions and ensures the leading dot.
func normalizeExtensions(extensions []string) []string {
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
	return normalized
}
