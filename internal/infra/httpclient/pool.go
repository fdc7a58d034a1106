package httpclient

import (
	"net/http"
	"time"
)

// sharedTransport is reused across all pooled clients so the embedder,
// chat and extractor clients draw from one connection pool instead of
// opening fresh connections per service.
var sharedTransport = &http.Transport{
	MaxIdleConns:        20,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     120 * time.Second,
	DisableKeepAlives:   false,
}

// NewPooledClient creates an http.Client with the given timeout that
// shares the process-wide connection pool.
func NewPooledClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: sharedTransport,
	}
}
