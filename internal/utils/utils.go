package utils

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var (
	ErrEmptyURL       = errors.New("empty url")
	ErrMissingHost    = errors.New("missing host")
	ErrBadScheme      = errors.New("scheme must be http or https")
	ErrURLCredentials = errors.New("url must not carry credentials")
)

// CanonicalEndpoint validates and normalizes the scoring endpoint URL once at
// startup. Scheme and host are lower-cased, IDN hosts converted to punycode,
// default ports and fragments dropped. Path and query are kept as given since
// the remote may treat them as significant.
func CanonicalEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrEmptyURL}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrBadScheme}
	}
	if u.Host == "" {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: ErrMissingHost}
	}
	if u.User != nil {
		return "", &url.Error{Op: "canonicalize", URL: u.Redacted(), Err: ErrURLCredentials}
	}

	// IP literals are not domain names; IDNA rejects the colons of IPv6.
	host := strings.ToLower(u.Hostname())
	if ip := net.ParseIP(host); ip != nil {
		host = ip.String()
	} else if host, err = idna.Lookup.ToASCII(host); err != nil {
		return "", &url.Error{Op: "canonicalize", URL: raw, Err: fmt.Errorf("idna: %w", err)}
	}

	port := u.Port()
	switch {
	case (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443"), port == "":
		if strings.Contains(host, ":") {
			host = "[" + host + "]"
		}
		u.Host = host
	default:
		u.Host = net.JoinHostPort(host, port)
	}

	u.Fragment = ""
	u.RawFragment = ""

	return u.String(), nil
}
