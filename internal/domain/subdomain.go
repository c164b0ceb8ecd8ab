package domain

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MinSubdomainLength is the shortest subdomain accepted.
	MinSubdomainLength = 3
	// MaxSubdomainLength is the longest DNS label.
	MaxSubdomainLength = 63
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// DefaultReservedNames are the subdomains that can never be provisioned.
var DefaultReservedNames = []string{"admin", "api", "www", "mail", "ftp", "root", "test", "main"}

// Subdomain is a validated, normalized DNS label. Values of this type are
// only produced by Validate, so holding one means the name is safe to use as
// a directory name, a config file name and a hostname.
type Subdomain string

// String returns the subdomain as a plain string.
func (s Subdomain) String() string {
	return string(s)
}

// Host returns the fully qualified hostname under baseDomain.
func (s Subdomain) Host(baseDomain string) string {
	return string(s) + "." + baseDomain
}

// URL returns the public HTTPS URL of the site under baseDomain.
func (s Subdomain) URL(baseDomain string) string {
	return "https://" + s.Host(baseDomain)
}

// Validator validates subdomains against a reserved name set.
type Validator struct {
	reserved map[string]struct{}
}

// NewValidator creates a validator. An empty reserved list falls back to
// DefaultReservedNames.
func NewValidator(reserved []string) *Validator {
	if len(reserved) == 0 {
		reserved = DefaultReservedNames
	}
	set := make(map[string]struct{}, len(reserved))
	for _, name := range reserved {
		set[normalize(name)] = struct{}{}
	}
	return &Validator{reserved: set}
}

// Validate normalizes raw (trim, lowercase) and checks it against the
// subdomain rules. Validating an already normalized name returns it unchanged.
func (v *Validator) Validate(raw string) (Subdomain, error) {
	name := normalize(raw)
	if name == "" {
		return "", fmt.Errorf("%w: subdomain is required", ErrInvalidInput)
	}
	if !subdomainPattern.MatchString(name) {
		return "", fmt.Errorf("%w: subdomain can only contain lowercase letters, numbers, and hyphens", ErrInvalidFormat)
	}
	if len(name) < MinSubdomainLength || len(name) > MaxSubdomainLength {
		return "", fmt.Errorf("%w: subdomain must be between %d and %d characters", ErrInvalidLength, MinSubdomainLength, MaxSubdomainLength)
	}
	if _, ok := v.reserved[name]; ok {
		return "", fmt.Errorf("%w: subdomain %q is not allowed", ErrReservedName, name)
	}
	return Subdomain(name), nil
}

// IsReserved reports whether raw is in the reserved set after normalization.
func (v *Validator) IsReserved(raw string) bool {
	_, ok := v.reserved[normalize(raw)]
	return ok
}

var defaultValidator = NewValidator(nil)

// ValidateSubdomain validates raw against DefaultReservedNames.
func ValidateSubdomain(raw string) (Subdomain, error) {
	return defaultValidator.Validate(raw)
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
