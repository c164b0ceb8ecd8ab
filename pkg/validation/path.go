// Package validation provides path containment checks for code that writes
// or changes ownership under a fixed base directory.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinRoot checks that fullPath is rootDir itself or lies
// below it once both are cleaned.
func ValidatePathWithinRoot(rootDir, fullPath string) error {
	cleanRoot := filepath.Clean(rootDir)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) && cleanPath != cleanRoot {
		return fmt.Errorf("path escapes root directory")
	}
	return nil
}

// ValidateStrictlyWithinRoot is ValidatePathWithinRoot without the root
// itself.
func ValidateStrictlyWithinRoot(rootDir, fullPath string) error {
	if filepath.Clean(rootDir) == filepath.Clean(fullPath) {
		return fmt.Errorf("path is the root directory itself")
	}
	return ValidatePathWithinRoot(rootDir, fullPath)
}

// ValidateDirectChild checks that fullPath is an absolute path naming an
// immediate entry of rootDir, such as one site's directory under the web
// root.
func ValidateDirectChild(rootDir, fullPath string) error {
	if strings.ContainsRune(fullPath, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	cleanPath := filepath.Clean(fullPath)
	if !filepath.IsAbs(cleanPath) {
		return fmt.Errorf("path %q is not absolute", fullPath)
	}
	if filepath.Dir(cleanPath) != filepath.Clean(rootDir) {
		return fmt.Errorf("path %q is not directly under %s", fullPath, rootDir)
	}
	return nil
}
