package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateServiceURL checks that a service URL is well-formed and uses an
// http(s) scheme. This is a pure function with no side effects.
func ValidateServiceURL(serviceURL string) error {
	if strings.TrimSpace(serviceURL) == "" {
		return fmt.Errorf("URL is empty")
	}

	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("cannot parse URL: %v", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL has no host")
	}

	return nil
}
