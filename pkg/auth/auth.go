// Package auth applies origin credentials to asset requests. Credentials are bound to a
// single host so absolute asset URLs on third-party hosts never receive them.
package auth

import (
	"fmt"
	"net/http"
	"strings"
)

// Authenticator decorates an outgoing asset request.
type Authenticator interface {
	Apply(req *http.Request) error
}

// Scheme selects how Credentials are sent.
type Scheme string

const (
	SchemeBasic  Scheme = "basic"
	SchemeHeader Scheme = "header"
	SchemeBearer Scheme = "bearer"
)

// ErrUnknownScheme is returned by Apply for a Scheme it cannot send.
var ErrUnknownScheme = fmt.Errorf("unknown authentication scheme")

// Credentials are sent to requests whose host equals Host (host[:port], case-insensitive).
// An empty Host matches nothing; bind one with Scoped.
type Credentials struct {
	Scheme Scheme
	Host   string

	Username string // basic
	Password string // basic
	Token    string // bearer
	Headers  map[string]string
}

// Basic returns unbound basic credentials.
func Basic(username, password string) *Credentials {
	return &Credentials{Scheme: SchemeBasic, Username: username, Password: password}
}

// Bearer returns unbound bearer credentials.
func Bearer(token string) *Credentials {
	return &Credentials{Scheme: SchemeBearer, Token: token}
}

// Header returns unbound credentials sent as custom headers.
func Header(headers map[string]string) *Credentials {
	return &Credentials{Scheme: SchemeHeader, Headers: headers}
}

// Scoped returns a copy of c bound to host. A nil c yields nil.
func (c *Credentials) Scoped(host string) *Credentials {
	if c == nil {
		return nil
	}
	scoped := *c
	scoped.Host = host
	return &scoped
}

// Matches reports whether req targets the bound host.
func (c *Credentials) Matches(req *http.Request) bool {
	if c == nil || c.Host == "" || req.URL == nil {
		return false
	}
	return strings.EqualFold(req.URL.Host, c.Host)
}

// Apply adds the credentials to req when it targets the bound host and leaves it
// untouched otherwise.
func (c *Credentials) Apply(req *http.Request) error {
	if !c.Matches(req) {
		return nil
	}
	switch c.Scheme {
	case SchemeBasic:
		req.SetBasicAuth(c.Username, c.Password)
	case SchemeBearer:
		req.Header.Set("Authorization", "Bearer "+c.Token)
	case SchemeHeader:
		for k, v := range c.Headers {
			req.Header.Set(k, v)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScheme, c.Scheme)
	}
	return nil
}

// String describes the credentials without their secrets.
func (c *Credentials) String() string {
	if c == nil {
		return "none"
	}
	if c.Host == "" {
		return string(c.Scheme) + " (unbound)"
	}
	return string(c.Scheme) + " for " + c.Host
}
