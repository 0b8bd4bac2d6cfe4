package tree

import (
	"strings"

	"github.com/osokin/repomerge/internal/types"
)

const (
	branchConnector      = "├─ "
	elbowConnector       = "└─ "
	continuationPrefix   = "│  "
	terminalIndentPrefix = "   "
)

// Render produces the box-drawing representation of the tree. The root name
// appears on the first line without a connector; every descendant is printed
// with a branch or elbow prefix depending on its sibling position.
func Render(rootNode *types.TreeNode) string {
	var rendered strings.Builder
	rendered.WriteString(rootNode.Name)
	rendered.WriteString("\n")
	renderChildren(&rendered, rootNode, "")
	return rendered.String()
}

func renderChildren(rendered *strings.Builder, parentNode *types.TreeNode, prefix string) {
	for childIndex, childNode := range parentNode.Children {
		isLastSibling := childIndex == len(parentNode.Children)-1
		connector := branchConnector
		childPrefix := prefix + continuationPrefix
		if isLastSibling {
			connector = elbowConnector
			childPrefix = prefix + terminalIndentPrefix
		}
		rendered.WriteString(prefix)
		rendered.WriteString(connector)
		rendered.WriteString(childNode.Name)
		rendered.WriteString("\n")
		if childNode.IsDirectory() {
			renderChildren(rendered, childNode, childPrefix)
		}
	}
}
