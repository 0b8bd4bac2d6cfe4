package tree_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/osokin/repomerge/internal/tree"
	"github.com/osokin/repomerge/internal/types"
)

// writeFixture creates the given relative files under root with empty content.
func writeFixture(testingInstance *testing.T, root string, relativePaths ...string) {
	testingInstance.Helper()
	for _, relativePath := range relativePaths {
		fullPath := filepath.Join(root, filepath.FromSlash(relativePath))
		if mkdirError := os.MkdirAll(filepath.Dir(fullPath), 0o755); mkdirError != nil {
			testingInstance.Fatalf("creating fixture directory: %v", mkdirError)
		}
		if writeError := os.WriteFile(fullPath, []byte("content of "+relativePath+"\n"), 0o644); writeError != nil {
			testingInstance.Fatalf("creating fixture file: %v", writeError)
		}
	}
}

func childNames(node *types.TreeNode) []string {
	names := make([]string, 0, len(node.Children))
	for _, child := range node.Children {
		names = append(names, child.Name)
	}
	return names
}

// TestBuildOrdersDirectoriesBeforeFiles verifies sibling ordering.
func TestBuildOrdersDirectoriesBeforeFiles(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	writeFixture(testingInstance, root, "zebra.go", "alpha.go", "src/one.go", "cmd/two.go")

	builder := &tree.Builder{}
	rootNode, buildError := builder.Build(root, "repo")
	if buildError != nil {
		testingInstance.Fatalf("building tree: %v", buildError)
	}

	expected := []string{"cmd", "src", "alpha.go", "zebra.go"}
	actual := childNames(rootNode)
	if len(actual) != len(expected) {
		testingInstance.Fatalf("expected children %v, got %v", expected, actual)
	}
	for position, name := range expected {
		if actual[position] != name {
			testingInstance.Fatalf("expected children %v, got %v", expected, actual)
		}
	}
}

// TestBuildPrunesEmptyDirectories verifies that no directory node survives
// without at least one descendant file.
func TestBuildPrunesEmptyDirectories(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	writeFixture(testingInstance, root, "keep/main.ts", "drop/readme.md", "drop/nested/notes.md")

	builder := &tree.Builder{IncludeExtensions: types.StringSet([]string{".ts"})}
	rootNode, buildError := builder.Build(root, "repo")
	if buildError != nil {
		testingInstance.Fatalf("building tree: %v", buildError)
	}

	actual := childNames(rootNode)
	if len(actual) != 1 || actual[0] != "keep" {
		testingInstance.Fatalf("expected only the keep directory, got %v", actual)
	}
	assertNoEmptyDirectories(testingInstance, rootNode)
}

func assertNoEmptyDirectories(testingInstance *testing.T, node *types.TreeNode) {
	testingInstance.Helper()
	for _, child := range node.Children {
		if child.IsDirectory() {
			if len(child.Children) == 0 {
				testingInstance.Errorf("directory %s has no children after filtering", child.Name)
			}
			assertNoEmptyDirectories(testingInstance, child)
		}
	}
}

// TestBuildExtensionMatchingIsCaseInsensitive verifies X.TS matches .ts.
func TestBuildExtensionMatchingIsCaseInsensitive(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	writeFixture(testingInstance, root, "X.TS", "lower.ts", "other.md")

	builder := &tree.Builder{IncludeExtensions: types.StringSet([]string{".ts"})}
	rootNode, buildError := builder.Build(root, "repo")
	if buildError != nil {
		testingInstance.Fatalf("building tree: %v", buildError)
	}

	actual := childNames(rootNode)
	if len(actual) != 2 || actual[0] != "X.TS" || actual[1] != "lower.ts" {
		testingInstance.Fatalf("expected [X.TS lower.ts], got %v", actual)
	}
}

// TestBuildSkipsExcludedDirectories verifies the directory exclusion predicate.
func TestBuildSkipsExcludedDirectories(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	writeFixture(testingInstance, root, "a.ts", "node_modules/x.ts", ".git/config")

	builder := &tree.Builder{ExcludeDirs: types.StringSet(types.DefaultExcludedDirectories)}
	rootNode, buildError := builder.Build(root, "repo")
	if buildError != nil {
		testingInstance.Fatalf("building tree: %v", buildError)
	}

	actual := childNames(rootNode)
	if len(actual) != 1 || actual[0] != "a.ts" {
		testingInstance.Fatalf("expected only a.ts, got %v", actual)
	}
}

// TestBuildSurvivesDeepNesting exercises the explicit traversal stack.
func TestBuildSurvivesDeepNesting(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	deepPath := root
	for depth := 0; depth < 200; depth++ {
		deepPath = filepath.Join(deepPath, "d")
	}
	if mkdirError := os.MkdirAll(deepPath, 0o755); mkdirError != nil {
		testingInstance.Skipf("filesystem rejected deep nesting: %v", mkdirError)
	}
	if writeError := os.WriteFile(filepath.Join(deepPath, "leaf.txt"), []byte("x"), 0o644); writeError != nil {
		testingInstance.Fatalf("creating leaf file: %v", writeError)
	}

	builder := &tree.Builder{}
	rootNode, buildError := builder.Build(root, "repo")
	if buildError != nil {
		testingInstance.Fatalf("building tree: %v", buildError)
	}

	node := rootNode
	depth := 0
	for len(node.Children) == 1 && node.Children[0].IsDirectory() {
		node = node.Children[0]
		depth++
	}
	if depth != 200 {
		testingInstance.Errorf("expected 200 nested directories, walked %d", depth)
	}
}

// TestScanExtensions verifies distinct sorted lowercase extensions.
func TestScanExtensions(testingInstance *testing.T) {
	root := testingInstance.TempDir()
	writeFixture(testingInstance, root,
		"main.ts", "util.TS", "doc/readme.md", "Makefile", "node_modules/dep.js")

	builder := &tree.Builder{ExcludeDirs: types.StringSet([]string{"node_modules"})}
	extensions, scanError := builder.ScanExtensions(root)
	if scanError != nil {
		testingInstance.Fatalf("scanning extensions: %v", scanError)
	}

	expected := []string{".md", ".ts"}
	if len(extensions) != len(expected) {
		testingInstance.Fatalf("expected %v, got %v", expected, extensions)
	}
	for position, extension := range expected {
		if extensions[position] != extension {
			testingInstance.Fatalf("expected %v, got %v", expected, extensions)
		}
	}
}

// TestRender verifies the box-drawing representation.
func TestRender(testingInstance *testing.T) {
	rootNode := &types.TreeNode{
		Name: "repo",
		Type: types.NodeTypeDirectory,
		Children: []*types.TreeNode{
			{
				Name: "src",
				Type: types.NodeTypeDirectory,
				Children: []*types.TreeNode{
					{Name: "a.ts", Type: types.NodeTypeFile},
					{Name: "b.ts", Type: types.NodeTypeFile},
				},
			},
			{Name: "main.ts", Type: types.NodeTypeFile},
		},
	}

	expected := "repo\n" +
		"├─ src\n" +
		"│  ├─ a.ts\n" +
		"│  └─ b.ts\n" +
		"└─ main.ts\n"
	actual := tree.Render(rootNode)
	if actual != expected {
		testingInstance.Errorf("unexpected rendering:\n%s\nexpected:\n%s", actual, expected)
	}
}
