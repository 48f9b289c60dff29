package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateName validates a snapshot name for safety.
// Names become file names and store keys, so they must be a simple
// basename without path components.
func ValidateName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "snapshot name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "snapshot name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "snapshot name contains invalid control characters")
		}
	}
	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "snapshot name cannot contain path separators")
	}
	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidName, "snapshot name cannot be a hidden file")
	}
	return nil
}

// ownerRegex matches Docker Hub namespaces and GitHub owners.
var ownerRegex = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9_.-]*[A-Za-z0-9])?$`)

// ValidateOwner validates a Docker Hub namespace or GitHub owner.
func ValidateOwner(owner string) error {
	if owner == "" {
		return New(ErrCodeInvalidRepo, "owner cannot be empty")
	}
	if len(owner) > 255 || !ownerRegex.MatchString(owner) {
		return New(ErrCodeInvalidRepo, "invalid owner: %q", owner)
	}
	return nil
}

// repoNameRegex matches repository names on both Docker Hub and GitHub.
var repoNameRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateRepo validates a repository key of the form "owner/name".
func ValidateRepo(key string) error {
	owner, name, ok := strings.Cut(key, "/")
	if !ok {
		return New(ErrCodeInvalidRepo, "repository must be owner/name: %q", key)
	}
	if err := ValidateOwner(owner); err != nil {
		return err
	}
	if name == "." || name == ".." || !repoNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRepo, "invalid repository name: %q", key)
	}
	return nil
}

// ValidatePathPrefix validates a URL path prefix such as "/blog/".
func ValidatePathPrefix(prefix string) error {
	if !strings.HasPrefix(prefix, "/") {
		return New(ErrCodeInvalidInput, "path prefix must start with /: %q", prefix)
	}
	for _, r := range prefix {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "path prefix contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
