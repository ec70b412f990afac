package api

import (
	"maps"
	"slices"
)

// Endpoint is a backend target inside an endpoint group.
type Endpoint struct {
	Name    string   `json:"name" yaml:"name"`
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Weight  int      `json:"weight" yaml:"weight"`
	Backup  bool     `json:"backup,omitempty" yaml:"backup,omitempty"`
	Tenants []string `json:"tenants,omitempty" yaml:"tenants,omitempty"`
	Inherit bool     `json:"inherit,omitempty" yaml:"inherit,omitempty"`

	HTTP    *HTTPClientOptions `json:"http,omitempty" yaml:"http,omitempty"`
	Proxy   *HTTPProxy         `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	SSL     *SSLOptions        `json:"ssl,omitempty" yaml:"ssl,omitempty"`
	Headers map[string]string  `json:"headers,omitempty" yaml:"headers,omitempty"`
}

// HTTPClientOptions configures the gateway's HTTP client for one endpoint.
// Timeouts are in milliseconds.
type HTTPClientOptions struct {
	ConnectTimeout           int  `json:"connectTimeout" yaml:"connectTimeout"`
	IdleTimeout              int  `json:"idleTimeout" yaml:"idleTimeout"`
	KeepAlive                bool `json:"keepAlive" yaml:"keepAlive"`
	ReadTimeout              int  `json:"readTimeout" yaml:"readTimeout"`
	Pipelining               bool `json:"pipelining" yaml:"pipelining"`
	MaxConcurrentConnections int  `json:"maxConcurrentConnections" yaml:"maxConcurrentConnections"`
	UseCompression           bool `json:"useCompression" yaml:"useCompression"`
	FollowRedirects          bool `json:"followRedirects" yaml:"followRedirects"`
}

// ProxyType is the kind of forward proxy an endpoint is reached through.
type ProxyType string

const (
	ProxyTypeHTTP   ProxyType = "HTTP"
	ProxyTypeSOCKS4 ProxyType = "SOCKS4"
	ProxyTypeSOCKS5 ProxyType = "SOCKS5"
)

// ProxyTypeChoice is a selectable proxy type with its display label.
type ProxyTypeChoice struct {
	Name  string
	Value ProxyType
}

// ProxyTypes lists the proxy types offered when editing an endpoint.
func ProxyTypes() []ProxyTypeChoice {
	return []ProxyTypeChoice{
		{Name: "HTTP CONNECT proxy", Value: ProxyTypeHTTP},
		{Name: "SOCKS4/4a tcp proxy", Value: ProxyTypeSOCKS4},
		{Name: "SOCKS5 tcp proxy", Value: ProxyTypeSOCKS5},
	}
}

// HTTPProxy routes endpoint traffic through a forward proxy.
type HTTPProxy struct {
	Enabled   bool      `json:"enabled" yaml:"enabled"`
	UseSystem bool      `json:"useSystemProxy,omitempty" yaml:"useSystemProxy,omitempty"`
	Type      ProxyType `json:"type,omitempty" yaml:"type,omitempty"`
	Host      string    `json:"host,omitempty" yaml:"host,omitempty"`
	Port      int       `json:"port,omitempty" yaml:"port,omitempty"`
	Username  string    `json:"username,omitempty" yaml:"username,omitempty"`
	Password  string    `json:"password,omitempty" yaml:"password,omitempty"`
}

// TrustStore holds the certificates an endpoint trusts.
type TrustStore struct {
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty"`
	Content string `json:"content,omitempty" yaml:"content,omitempty"`
}

// SSLOptions configures TLS towards an endpoint.
type SSLOptions struct {
	Enabled          bool        `json:"enabled" yaml:"enabled"`
	TrustAll         bool        `json:"trustAll" yaml:"trustAll"`
	HostnameVerifier bool        `json:"hostnameVerifier,omitempty" yaml:"hostnameVerifier,omitempty"`
	TrustStore       *TrustStore `json:"trustStore,omitempty" yaml:"trustStore,omitempty"`
}

// DefaultEndpoint returns the shape used when an endpoint is created.
func DefaultEndpoint() *Endpoint {
	return &Endpoint{
		Weight: 1,
		HTTP: &HTTPClientOptions{
			ConnectTimeout:           5000,
			IdleTimeout:              60000,
			KeepAlive:                true,
			ReadTimeout:              10000,
			Pipelining:               false,
			MaxConcurrentConnections: 100,
			UseCompression:           true,
			FollowRedirects:          false,
		},
	}
}

// Key returns the endpoint name.
func (e *Endpoint) Key() string { return e.Name }

// Clone returns a deep copy of the endpoint.
func (e *Endpoint) Clone() *Endpoint {
	if e == nil {
		return nil
	}
	out := *e
	out.Tenants = slices.Clone(e.Tenants)
	out.Headers = maps.Clone(e.Headers)
	if e.HTTP != nil {
		h := *e.HTTP
		out.HTTP = &h
	}
	if e.Proxy != nil {
		p := *e.Proxy
		out.Proxy = &p
	}
	if e.SSL != nil {
		s := *e.SSL
		if e.SSL.TrustStore != nil {
			ts := *e.SSL.TrustStore
			s.TrustStore = &ts
		}
		out.SSL = &s
	}
	return &out
}

// SetTrustAll sets the trust-all flag. Trusting all certificates only makes
// sense over TLS, so enabling it also enables SSL. Clearing it on an endpoint
// without SSL options leaves them absent.
func (e *Endpoint) SetTrustAll(trustAll bool) {
	if !trustAll && e.SSL == nil {
		return
	}
	ssl := e.ensureSSL()
	ssl.TrustAll = trustAll
	if trustAll {
		ssl.Enabled = true
	}
}

// SetSSLEnabled sets the SSL flag. Disabling SSL clears trust-all.
func (e *Endpoint) SetSSLEnabled(enabled bool) {
	if !enabled && e.SSL == nil {
		return
	}
	ssl := e.ensureSSL()
	ssl.Enabled = enabled
	if !enabled {
		ssl.TrustAll = false
	}
}

func (e *Endpoint) ensureSSL() *SSLOptions {
	if e.SSL == nil {
		e.SSL = &SSLOptions{}
	}
	return e.SSL
}
