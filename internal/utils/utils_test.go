package utils_test

import (
	"testing"

	"github.com/osokin/repomerge/internal/utils"
)

// TestNormalizedExtension verifies lowercase extension extraction with the leading dot.
func TestNormalizedExtension(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		fileName string
		expected string
	}{
		{testName: "lowercase extension", fileName: "main.ts", expected: ".ts"},
		{testName: "uppercase extension is lowered", fileName: "X.TS", expected: ".ts"},
		{testName: "mixed case extension", fileName: "Readme.Md", expected: ".md"},
		{testName: "no extension", fileName: "Makefile", expected: ""},
		{testName: "dotfile counts as extension", fileName: ".env", expected: ".env"},
		{testName: "multiple dots keep last segment", fileName: "archive.tar.gz", expected: ".gz"},
	}
	for _, testCase := range testCases {
		actual := utils.NormalizedExtension(testCase.fileName)
		if actual != testCase.expected {
			testingInstance.Errorf("%s: expected %q, got %q", testCase.testName, testCase.expected, actual)
		}
	}
}

// TestDeduplicateStrings verifies duplicate removal with order preservation.
func TestDeduplicateStrings(testingInstance *testing.T) {
	testCases := []struct {
		testName string
		values   []string
		expected []string
	}{
		{testName: "removes duplicates", values: []string{"a", "b", "a"}, expected: []string{"a", "b"}},
		{testName: "keeps unique", values: []string{"a", "b"}, expected: []string{"a", "b"}},
		{testName: "empty input", values: nil, expected: []string{}},
	}
	for _, testCase := range testCases {
		actual := utils.DeduplicateStrings(testCase.values)
		if len(actual) != len(testCase.expected) {
			testingInstance.Errorf("%s: expected length %d, got %d", testCase.testName, len(testCase.expected), len(actual))
			continue
		}
		for position, value := range actual {
			if value != testCase.expected[position] {
				testingInstance.Errorf("%s: expected %q at position %d, got %q", testCase.testName, testCase.expected[position], position, value)
			}
		}
	}
}

// TestFormatFileSize verifies human-readable size formatting.
func TestFormatFileSize(testingInstance *testing.T) {
	testCases := []struct {
		bytes    int64
		expected string
	}{
		{bytes: 0, expected: "0b"},
		{bytes: 512, expected: "512b"},
		{bytes: 2048, expected: "2kb"},
		{bytes: 1536, expected: "1.5kb"},
	}
	for _, testCase := range testCases {
		actual := utils.FormatFileSize(testCase.bytes)
		if actual != testCase.expected {
			testingInstance.Errorf("bytes %d: expected %q, got %q", testCase.bytes, testCase.expected, actual)
		}
	}
}

// TestIsBinary verifies binary content detection.
func TestIsBinary(testingInstance *testing.T) {
	if utils.IsBinary([]byte("plain text\n")) {
		testingInstance.Error("plain text misclassified as binary")
	}
	if !utils.IsBinary([]byte{0x00, 0x01}) {
		testingInstance.Error("NUL bytes not classified as binary")
	}
	if utils.IsBinary(nil) {
		testingInstance.Error("empty content misclassified as binary")
	}
}
