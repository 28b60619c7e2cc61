package network

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// NormalizePeerAddress validates a peer address and brings it to the
// canonical form every other component uses: scheme plus host, no trailing
// slash. Addresses without a scheme default to http.
func NormalizePeerAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", errors.New("peer address is empty")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported peer scheme: %s", u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("peer address has no host")
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
