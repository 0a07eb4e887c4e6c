package utils

import (
	"net"
	"net/http"
	"time"
)

var (
	// GlobalHTTPClient is shared by the Rover, Open Cloud and log webhook clients.
	GlobalHTTPClient = NewHTTPClient(30 * time.Second)
)

// NewHTTPClient builds a pooled client. Callers still bound each request with a context.
func NewHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConnsPerHost:   10,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}
