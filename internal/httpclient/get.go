package httpclient

import (
	"fmt"
	"mime"
	"net/http"
	"strings"

	"github.com/emersion/go-ical"
)

// Calendar is a downloaded calendar with its cache validators.
type Calendar struct {
	*ical.Calendar
	ETag         string
	LastModified string
}

// GetCalendar sends a GET request and decodes the iCalendar body.
func (c *calendarClient) GetCalendar(urlStr string) (*Calendar, error) {
	c.logger.Debug("starting GET request", "url", urlStr)

	resolvedURL, err := c.resolveURL(urlStr)
	if err != nil {
		c.logger.Debug("failed to resolve URL", "url", urlStr, "error", err)
		return nil, fmt.Errorf("failed to resolve URL %q: %w", urlStr, err)
	}

	req, err := http.NewRequest(http.MethodGet, resolvedURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	req.Header.Set("Accept", ical.MIMEType)

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "error", err)
		return nil, fmt.Errorf("failed to send GET request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("received response", "status", resp.Status)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET request failed with status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		// Feeds are also served as text/plain.
		if mediaType, _, err := mime.ParseMediaType(ct); err == nil && !strings.HasPrefix(mediaType, "text/") {
			return nil, fmt.Errorf("unexpected content type %q", mediaType)
		}
	}

	cal, err := ical.NewDecoder(resp.Body).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	c.logger.Debug("GET request complete",
		"url", resolvedURL.String(),
		"components", len(cal.Children))
	return &Calendar{
		Calendar:     cal,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}
