package handlers

import (
	"net/url"
	"time"
)

const dateLayout = "2006-01-02"

const (
	defaultAnalyticsMonths = 3
	defaultExportMonths    = 6
)

// dateRange returns the inclusive [start, end] filter for an endpoint with a
// trailing default window in months. Values are passed through raw: the
// range predicates compare ISO date text, so a malformed value silently
// yields an empty result set instead of a 400.
func dateRange(q url.Values, defaultMonths int) (start, end string) {
	now := time.Now()
	end = q.Get("end_date")
	if end == "" {
		end = now.Format(dateLayout)
	}
	start = q.Get("start_date")
	if start == "" {
		start = now.AddDate(0, -defaultMonths, 0).Format(dateLayout)
	}
	return start, end
}
