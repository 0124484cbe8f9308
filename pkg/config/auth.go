package config

import (
	"fmt"

	"github.com/cperrin88/assetmirror/pkg/auth"
)

// AuthConfig holds the credentials sent to the origin host. At most one kind may be set.
type AuthConfig struct {
	BasicAuth  *BasicAuth  `yaml:"basic,omitempty"`
	HeaderAuth *HeaderAuth `yaml:"header,omitempty"`
	BearerAuth *BearerAuth `yaml:"bearer,omitempty"`
}

// BasicAuth holds configuration for HTTP Basic Authentication.
type BasicAuth struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// HeaderAuth holds configuration for custom header-based authentication.
type HeaderAuth struct {
	Headers map[string]string `yaml:"headers"`
}

// BearerAuth holds configuration for Bearer token authentication.
type BearerAuth struct {
	Token string `yaml:"token"`
}

// Credentials returns the configured origin credentials, or nil. The downloader binds
// them to the origin host.
func (a *AuthConfig) Credentials() *auth.Credentials {
	switch {
	case a == nil:
		return nil
	case a.BasicAuth != nil:
		return auth.Basic(a.BasicAuth.Username, a.BasicAuth.Password)
	case a.HeaderAuth != nil:
		return auth.Header(a.HeaderAuth.Headers)
	case a.BearerAuth != nil:
		return auth.Bearer(a.BearerAuth.Token)
	}
	return nil
}

func (a *AuthConfig) validate() error {
	if a == nil {
		return nil
	}
	set := 0
	for _, present := range []bool{a.BasicAuth != nil, a.HeaderAuth != nil, a.BearerAuth != nil} {
		if present {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("origin_auth: only one of basic, header or bearer may be set")
	}
	return nil
}
