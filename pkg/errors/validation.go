package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxPackageNameLength is the registry limit for package names.
const maxPackageNameLength = 214

// packageNameRegex matches registry-valid package names, scoped or not.
var packageNameRegex = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

// ValidatePackageName validates a dependency name before it is written into a
// manifest's dependency block.
//
// The rules follow the registry naming constraints:
//   - No empty names
//   - Maximum length of 214 characters
//   - No control characters, whitespace or backslashes
//   - No path traversal sequences
//   - Lowercase, optionally scoped (@scope/name)
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > maxPackageNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", name)
		}
	}

	for _, pattern := range []string{"..", "//", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "package names must be lowercase: %q", name)
	}

	if !packageNameRegex.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid package name: %q", name)
	}

	return nil
}

// ValidateVersionSpec validates a version specifier (range, tag, URL or
// protocol spec such as "workspace:*"). Only structural problems are
// rejected; the specifier grammar belongs to the resolver.
func ValidateVersionSpec(spec string) error {
	if strings.TrimSpace(spec) == "" {
		return New(ErrCodeInvalidInput, "version spec cannot be empty")
	}
	for _, r := range spec {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "version spec contains control characters: %q", spec)
		}
	}
	return nil
}
