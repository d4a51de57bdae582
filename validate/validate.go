package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Patterns and length constraints are exported for reuse (e.g., JSON Schema).
const (
	OwnerPattern      = "^[A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?$"
	RepoNamePattern   = "^[A-Za-z0-9._-]{1,100}$"
	IdentifierPattern = "^[A-Za-z_][A-Za-z0-9_]{0,62}$"
	VercelIDPattern   = "^[A-Za-z0-9][A-Za-z0-9._-]{0,127}$"

	OwnerMin = 1
	OwnerMax = 39

	RepoNameMin = 1
	RepoNameMax = 100

	IdentifierMax = 63
	RefMax        = 255
	PathMax       = 4096

	// ListLimitMax caps vercel_list_projects; the API rejects larger pages.
	ListLimitMax = 100
)

var (
	reOwner      = regexp.MustCompile(OwnerPattern)
	reRepo       = regexp.MustCompile(RepoNamePattern)
	reIdentifier = regexp.MustCompile(IdentifierPattern)
	reVercelID   = regexp.MustCompile(VercelIDPattern)
)

// Sentinel errors for classification by callers.
var (
	ErrInvalidOwner      = errors.New("invalid owner")
	ErrInvalidRepoName   = errors.New("invalid repository name")
	ErrInvalidPath       = errors.New("invalid path")
	ErrInvalidRef        = errors.New("invalid ref")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidVercelID   = errors.New("invalid vercel id")
	ErrInvalidLimit      = errors.New("invalid limit")
	ErrRequired          = errors.New("missing required argument")
)

// Required reports ErrRequired when value is blank.
func Required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrRequired, name)
	}
	return nil
}

// ValidateOwner checks the GitHub account rule: 1-39 chars, alnum or hyphen,
// cannot start/end with hyphen.
func ValidateOwner(s string) error {
	if len(s) < OwnerMin || len(s) > OwnerMax || !reOwner.MatchString(s) {
		return fmt.Errorf("%w: %q must be %d-%d chars alnum or hyphen, no leading/trailing hyphen", ErrInvalidOwner, s, OwnerMin, OwnerMax)
	}
	return nil
}

// ValidateRepoName checks repository name rule: 1-100 chars, alnum, dot, underscore, or hyphen.
func ValidateRepoName(s string) error {
	if len(s) < RepoNameMin || len(s) > RepoNameMax || !reRepo.MatchString(s) || s == "." || s == ".." {
		return fmt.Errorf("%w: %q must be %d-%d chars, alnum, dot, underscore, or hyphen only", ErrInvalidRepoName, s, RepoNameMin, RepoNameMax)
	}
	return nil
}

// ValidatePath checks a repository-relative path. The empty path denotes the
// repository root; absolute paths and ".." segments are rejected.
func ValidatePath(s string) error {
	if len(s) > PathMax {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidPath, PathMax)
	}
	if strings.HasPrefix(s, "/") {
		return fmt.Errorf("%w: %q must be relative to the repository root", ErrInvalidPath, s)
	}
	if strings.ContainsAny(s, "\x00\\") {
		return fmt.Errorf("%w: %q contains a forbidden character", ErrInvalidPath, s)
	}
	for _, seg := range strings.Split(s, "/") {
		if seg == ".." {
			return fmt.Errorf("%w: %q must not contain '..' segments", ErrInvalidPath, s)
		}
	}
	return nil
}

// ValidateRef checks a branch, tag or commit name against the git ref
// format rules that matter for URL construction.
func ValidateRef(s string) error {
	if s == "" || len(s) > RefMax {
		return fmt.Errorf("%w: length must be 1-%d", ErrInvalidRef, RefMax)
	}
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "/") || strings.HasSuffix(s, "/") ||
		strings.HasSuffix(s, ".") || strings.HasSuffix(s, ".lock") ||
		strings.Contains(s, "..") || strings.Contains(s, "//") || strings.Contains(s, "@{") {
		return fmt.Errorf("%w: %q is not a valid git ref", ErrInvalidRef, s)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f || strings.ContainsRune(" ~^:?*[\\", r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidRef, s, r)
		}
	}
	return nil
}

// ValidateIdentifier checks a table or column name: a letter or underscore
// followed by up to 62 alnum or underscore characters.
func ValidateIdentifier(s string) error {
	if !reIdentifier.MatchString(s) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidIdentifier, s, IdentifierPattern)
	}
	return nil
}

// ParseColumns splits a select list ("*" or "a,b,c") and validates each column.
func ParseColumns(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if err := ValidateIdentifier(p); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
		cols = append(cols, p)
	}
	return cols, nil
}

// ValidateVercelID checks a project or deployment id (or name).
func ValidateVercelID(s string) error {
	if !reVercelID.MatchString(s) {
		return fmt.Errorf("%w: %q must match %s", ErrInvalidVercelID, s, VercelIDPattern)
	}
	return nil
}

// ValidateLimit checks 1 <= n <= max.
func ValidateLimit(n, max int) error {
	if n < 1 || n > max {
		return fmt.Errorf("%w: %d must be between 1 and %d", ErrInvalidLimit, n, max)
	}
	return nil
}
