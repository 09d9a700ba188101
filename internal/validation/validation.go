// Package validation produces the human-readable problems reported when a
// file is checked against a provider's export layout.
package validation

import (
	"fmt"
	"os"
	"strings"
)

// Problem messages shared by every dialect.
const (
	ProblemEmptyFile  = "file is empty"
	ProblemNoDataRows = "file contains no data rows"
)

// MissingColumns returns one problem per required column absent from headers.
// Matching ignores case and surrounding whitespace.
func MissingColumns(headers, required []string) []string {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[normalize(h)] = true
	}
	var problems []string
	for _, r := range required {
		if !present[normalize(r)] {
			problems = append(problems, fmt.Sprintf("missing required column %q", r))
		}
	}
	return problems
}

// MissingKeys returns one problem per required key absent from a decoded
// JSON object.
func MissingKeys(obj map[string]interface{}, required []string) []string {
	var problems []string
	for _, k := range required {
		if _, ok := obj[k]; !ok {
			problems = append(problems, fmt.Sprintf("first record is missing %q", k))
		}
	}
	return problems
}

// HasColumns reports whether every required column is present.
func HasColumns(headers, required []string) bool {
	return len(MissingColumns(headers, required)) == 0
}

// IsReadableFile checks that path exists and is a regular file.
func IsReadableFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	if err != nil {
		return fmt.Errorf("error checking path %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("path %s is not a regular file", path)
	}
	return nil
}

// IsValidFilePermissions rejects modes that grant anything to others.
func IsValidFilePermissions(mode os.FileMode) error {
	if mode&0007 != 0 {
		return fmt.Errorf("file permissions are too permissive: %s. Recommended 0600 or 0644", mode.String())
	}
	return nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
