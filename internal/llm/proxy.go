package llm

import (
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http/httpproxy"
)

// NewProxyFunc creates a proxy function based on configuration.
// If no proxy URLs are provided, falls back to the HTTP_PROXY, HTTPS_PROXY
// and NO_PROXY environment variables. NO_PROXY is honoured in both cases.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	cfg := httpproxy.FromEnvironment()
	if httpProxy != "" || httpsProxy != "" {
		cfg = &httpproxy.Config{
			HTTPProxy:  httpProxy,
			HTTPSProxy: httpsProxy,
			NoProxy:    noProxy,
		}
	} else if noProxy != "" {
		cfg.NoProxy = noProxy
	}

	proxy := cfg.ProxyFunc()
	return func(req *http.Request) (*url.URL, error) {
		return proxy(req.URL)
	}
}

// newHTTPClient builds the client shared by the REST providers
func newHTTPClient(config Config, fallback time.Duration) *http.Client {
	return &http.Client{
		Timeout: config.timeout(fallback),
		Transport: &http.Transport{
			Proxy: NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}
}
