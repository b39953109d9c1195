package httpx

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type HTTPStatusCoder interface {
	HTTPStatusCode() int
}

// StatusCode returns the HTTP status carried by err, or -1 when err carries
// none (the request never produced a response).
func StatusCode(err error) int {
	var sc HTTPStatusCoder
	if errors.As(err, &sc) {
		return sc.HTTPStatusCode()
	}
	return -1
}

// NewClient returns an http.Client whose transport emits client spans.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
