// Package httpclient fetches published iCalendar feeds.
package httpclient

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
)

// CalendarClient downloads and decodes calendars.
type CalendarClient interface {
	GetCalendar(url string) (*Calendar, error)
}

type calendarClient struct {
	client  *http.Client
	baseURL url.URL
	logger  *slog.Logger
}

// resolveURL resolves a URL string against the base URL
func (c *calendarClient) resolveURL(urlStr string) (*url.URL, error) {
	ref, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %q: %w", urlStr, err)
	}
	return c.baseURL.ResolveReference(ref), nil
}

// NewCalendarClient creates a client. Relative URLs passed to GetCalendar are
// resolved against baseURL.
func NewCalendarClient(client *http.Client, baseURL url.URL, logger *slog.Logger) (CalendarClient, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &calendarClient{client: client, baseURL: baseURL, logger: logger}, nil
}
