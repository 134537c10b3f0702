package httpclient

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// BasicAuthTransport implements http.RoundTripper and adds Basic Auth
// authentication to outgoing requests.
type BasicAuthTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewBasicAuthTransport creates a new BasicAuthTransport with the given
// credentials and optional underlying transport. If transport is nil,
// http.DefaultTransport will be used.
func NewBasicAuthTransport(username, password string, transport http.RoundTripper, logger *slog.Logger) *BasicAuthTransport {
	if transport == nil {
		transport = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &BasicAuthTransport{
		Username:  username,
		Password:  password,
		Transport: transport,
		Logger:    logger,
	}
}

// RoundTrip implements the http.RoundTripper interface. It adds Basic Auth
// credentials to the request and delegates to the underlying transport.
func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.Logger.Debug("outgoing request",
		"method", req.Method,
		"url", req.URL.String(),
		"user", t.Username)

	if t.Username == "" {
		return nil, errors.New("basic auth username cannot be empty")
	}
	if t.Password == "" {
		return nil, errors.New("basic auth password cannot be empty")
	}
	if t.Transport == nil {
		return nil, errors.New("transport cannot be nil")
	}

	// RoundTrip must not modify the caller's request.
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.Username, t.Password)
	resp, err := t.Transport.RoundTrip(req)

	if err == nil && resp != nil {
		t.Logger.Debug("incoming response",
			"status", resp.Status,
			"content_type", resp.Header.Get("Content-Type"),
			"content_length", resp.ContentLength)
	}

	return resp, err
}
