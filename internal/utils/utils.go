// Package utils contains general helper functions used across the repomerge tool.
package utils

import (
	"path/filepath"
	"strings"
)

// NormalizedExtension returns the lowercase extension of fileName including the
// leading dot, or an empty string when the file has no extension.
func NormalizedExtension(fileName string) string {
	extension := filepath.Ext(fileName)
	if extension == "" {
		return ""
	}
	return strings.ToLower(extension)
}

// DeduplicateStrings removes duplicate values from a slice while preserving
// order. The first occurrence of each unique value is kept.
func DeduplicateStrings(values []string) []string {
	encountered := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if _, exists := encountered[value]; exists {
			continue
		}
		encountered[value] = struct{}{}
		result = append(result, value)
	}
	return result
}
