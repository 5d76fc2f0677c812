package realtime

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// EndpointURL derives the realtime channel address from the REST base
// address. The channel scheme follows the REST scheme deterministically:
// https becomes wss, http becomes ws. The subscriber id is the final path
// segment.
func EndpointURL(baseURL, realtimePath, subscriberID string) (string, error) {
	if baseURL == "" {
		return "", errors.New("base URL is required")
	}
	if subscriberID == "" {
		return "", errors.New("subscriber id is required")
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported base URL scheme %q", u.Scheme)
	}

	// The channel path replaces any REST path prefix. URL escaping is left
	// to String().
	u.Path = strings.TrimSuffix(realtimePath, "/") + "/" + subscriberID
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}
