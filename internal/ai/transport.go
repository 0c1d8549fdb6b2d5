package ai

import (
	"flashgen/internal/config"
	"fmt"
	"net/http"
	"net/url"
)

// NewHTTPClient builds the client handed to every SDK. Proxy selection lives
// on the transport only; the process environment is read but never modified.
func NewHTTPClient(cfg config.TransportConfig) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	switch {
	case cfg.NoProxy:
		transport.Proxy = nil
	case cfg.ProxyURL != "":
		proxyURL, err := url.Parse(cfg.ProxyURL)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid proxy url: %v", config.ErrConfiguration, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	default:
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}, nil
}
