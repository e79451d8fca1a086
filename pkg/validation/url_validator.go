package validation

import (
	"net/url"
	"strings"

	apperrors "go-ultrasound-inspector/internal/errors"
)

// URLValidator checks API endpoint URLs taken from configuration
type URLValidator struct {
	allowedSchemes []string
	allowedHosts   []string
}

// NewURLValidator creates a new URL validator with default settings
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom options
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// ValidateEndpoint validates a base URL that requests will be sent to.
// Query strings and fragments are rejected since clients append paths to the base.
func (v *URLValidator) ValidateEndpoint(endpoint string) error {
	if strings.TrimSpace(endpoint) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(endpoint)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(strings.ToLower(parsedURL.Scheme)) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return apperrors.NewValidationError("URL must not carry a query or fragment", nil)
	}

	if !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	return nil
}

func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if strings.EqualFold(host, allowed) {
			return true
		}
	}
	return false
}
