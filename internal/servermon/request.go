// Copyright 2026 Canonical.

package servermon

import (
	"time"
)

// Request represents an API request that is being monitored.
// A request can only be used for a single API request at
// any one time.
type Request struct {
	startTime time.Time
	method    string
}

// Start should be called when an API request starts.
func (r *Request) Start(method string) {
	r.method = method
	r.startTime = time.Now()
}

// End should be called when the API request completes, with the matched
// route and the status code written to the response. The Request value
// may then be reused for another API request.
func (r *Request) End(route, statusCode string) {
	ResponseTimeHistogram.WithLabelValues(route, r.method, statusCode).Observe(time.Since(r.startTime).Seconds())
}
