package handlers

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

// NewUpstream returns a reverse proxy forwarding every request to the KIE server at target.
func NewUpstream(target string, log logger.Logger) (http.Handler, error) {
	remote, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid upstream url %q: %w", target, err)
	}
	if remote.Scheme == "" || remote.Host == "" {
		return nil, fmt.Errorf("invalid upstream url %q: scheme and host are required", target)
	}

	proxy := httputil.NewSingleHostReverseProxy(remote)

	// The KIE server checks the Host header, so present the upstream host.
	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = remote.Host
		req.URL.Host = remote.Host
		req.URL.Scheme = remote.Scheme
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream request failed",
			logger.String("upstream", remote.Host),
			logger.String("path", r.URL.Path),
			logger.Error(err))
		w.WriteHeader(http.StatusBadGateway)
		_, _ = fmt.Fprintf(w, "upstream %s unavailable", remote.Host)
	}

	return proxy, nil
}
