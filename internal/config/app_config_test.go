package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/osokin/repomerge/internal/config"
	"github.com/osokin/repomerge/internal/types"
)

func writeConfigFile(testingInstance *testing.T, directory string, content string) {
	testingInstance.Helper()
	path := filepath.Join(directory, config.ConfigFileName)
	if writeError := os.WriteFile(path, []byte(content), 0o644); writeError != nil {
		testingInstance.Fatalf("writing configuration file: %v", writeError)
	}
}

// isolateHome points the home directory lookup at an empty directory so a
// developer's real configuration never leaks into the test.
func isolateHome(testingInstance *testing.T) string {
	testingInstance.Helper()
	homeDirectory := testingInstance.TempDir()
	testingInstance.Setenv("HOME", homeDirectory)
	return homeDirectory
}

// TestLoadMissingFilesYieldsZeroConfiguration verifies absent files are not errors.
func TestLoadMissingFilesYieldsZeroConfiguration(testingInstance *testing.T) {
	isolateHome(testingInstance)
	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: testingInstance.TempDir(),
	})
	if loadError != nil {
		testingInstance.Fatalf("loading configuration: %v", loadError)
	}
	if loaded.Merge.Output != "" || loaded.Merge.UseGitignore != nil {
		testingInstance.Errorf("expected zero configuration, got %+v", loaded)
	}
}

// TestLoadWorkingDirectoryOverridesHome verifies the overlay precedence.
func TestLoadWorkingDirectoryOverridesHome(testingInstance *testing.T) {
	homeDirectory := isolateHome(testingInstance)
	writeConfigFile(testingInstance, homeDirectory, strings.Join([]string{
		"merge:",
		"  output: from-home.txt",
		"  extensions: [ts, md]",
		"  use_gitignore: true",
	}, "\n"))

	workingDirectory := testingInstance.TempDir()
	writeConfigFile(testingInstance, workingDirectory, strings.Join([]string{
		"merge:",
		"  output: from-local.txt",
	}, "\n"))

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
	})
	if loadError != nil {
		testingInstance.Fatalf("loading configuration: %v", loadError)
	}

	if loaded.Merge.Output != "from-local.txt" {
		testingInstance.Errorf("expected local output to win, got %q", loaded.Merge.Output)
	}
	if len(loaded.Merge.Extensions) != 2 {
		testingInstance.Errorf("expected home extensions preserved, got %v", loaded.Merge.Extensions)
	}
	if loaded.Merge.UseGitignore == nil || !*loaded.Merge.UseGitignore {
		testingInstance.Error("expected home use_gitignore preserved")
	}
}

// TestLoadExplicitFilePath verifies an explicit path replaces the working directory lookup.
func TestLoadExplicitFilePath(testingInstance *testing.T) {
	isolateHome(testingInstance)
	explicitDirectory := testingInstance.TempDir()
	explicitPath := filepath.Join(explicitDirectory, "custom.yaml")
	if writeError := os.WriteFile(explicitPath, []byte("merge:\n  output: explicit.txt\n"), 0o644); writeError != nil {
		testingInstance.Fatalf("writing configuration file: %v", writeError)
	}

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: testingInstance.TempDir(),
		ExplicitFilePath: explicitPath,
	})
	if loadError != nil {
		testingInstance.Fatalf("loading configuration: %v", loadError)
	}
	if loaded.Merge.Output != "explicit.txt" {
		testingInstance.Errorf("expected explicit file to apply, got %q", loaded.Merge.Output)
	}
}

// TestLoadMalformedFileFails verifies parse failures surface instead of being swallowed.
func TestLoadMalformedFileFails(testingInstance *testing.T) {
	isolateHome(testingInstance)
	workingDirectory := testingInstance.TempDir()
	writeConfigFile(testingInstance, workingDirectory, "merge: [unclosed\n")

	if _, loadError := config.LoadApplicationConfiguration(config.LoadOptions{
		WorkingDirectory: workingDirectory,
	}); loadError == nil {
		testingInstance.Fatal("expected parse error for malformed configuration")
	}
}

// TestApplyToMergeConfig verifies overlay onto the literal defaults, including
// extension normalization.
func TestApplyToMergeConfig(testingInstance *testing.T) {
	useGitignore := true
	fileConfiguration := config.MergeCommandConfiguration{
		Output:       "custom.txt",
		ExcludeDirs:  []string{"vendor"},
		Extensions:   []string{"TS", ".Md"},
		UseGitignore: &useGitignore,
	}

	applied := fileConfiguration.ApplyToMergeConfig(types.NewMergeConfig())

	if applied.OutputPath != "custom.txt" {
		testingInstance.Errorf("expected custom output path, got %q", applied.OutputPath)
	}
	if _, present := applied.ExcludeDirs["vendor"]; !present || len(applied.ExcludeDirs) != 1 {
		testingInstance.Errorf("expected exclude_dirs replaced, got %v", applied.ExcludeDirs)
	}
	for _, expected := range []string{".ts", ".md"} {
		if _, present := applied.IncludeExtensions[expected]; !present {
			testingInstance.Errorf("expected normalized extension %q, got %v", expected, applied.IncludeExtensions)
		}
	}
	if !applied.UseGitignore {
		testingInstance.Error("expected use_gitignore applied")
	}

	untouched := config.MergeCommandConfiguration{}.ApplyToMergeConfig(types.NewMergeConfig())
	if untouched.OutputPath != types.DefaultOutputFileName {
		testingInstance.Errorf("expected default output path, got %q", untouched.OutputPath)
	}
	if _, present := untouched.ExcludeDirs["node_modules"]; !present {
		testingInstance.Error("expected default exclude_dirs preserved")
	}
	if untouched.IncludeExtensions != nil {
		testingInstance.Errorf("expected absent extension filter, got %v", untouched.IncludeExtensions)
	}
}
