package metrics

import (
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Move outcomes
const (
	MoveSucceeded  = "succeeded"
	MoveRolledBack = "rolled_back"
	MoveRejected   = "rejected"
	MoveNoop       = "noop"
)

var (
	uuidPattern    = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	numericSegment = regexp.MustCompile(`^[0-9]+$`)
)

// collections maps a path segment to the placeholder for the segment after it
var collections = map[string]string{
	"tasks":       "{id}",
	"comments":    "{id}",
	"attachments": "{id}",
	"projects":    "{id}",
	"users":       "{query}",
}

// literalSegments are fixed routes that follow a collection name
var literalSegments = map[string]bool{
	"me":   true,
	"user": true,
}

// RecordAPICall records one request against the TaskFlow API
func (m *Metrics) RecordAPICall(endpoint, method string, statusCode int, duration time.Duration, err error) {
	m.safeExecute("RecordAPICall", func() {
		endpoint = NormalizeEndpoint(endpoint)
		status := strconv.Itoa(statusCode)

		m.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		m.APIRequestDuration.WithLabelValues(endpoint, status).Observe(duration.Seconds())

		if err != nil || statusCode >= 400 {
			m.APIErrors.WithLabelValues(endpoint, ErrorType(statusCode, err)).Inc()
		}
	})
}

// RecordMove counts a board move by outcome
func (m *Metrics) RecordMove(outcome string) {
	m.safeExecute("RecordMove", func() {
		m.BoardMovesTotal.WithLabelValues(outcome).Inc()
	})
}

// NormalizeEndpoint replaces ids and search terms in a path with
// placeholders and drops the query, so labels stay bounded and carry no
// user data
//
//	/api/tasks/123e4567-e89b-12d3-a456-426614174000/comments -> /api/tasks/{id}/comments
//	/api/tasks/42 -> /api/tasks/{id}
//	/api/users/bob@example.com -> /api/users/{query}
func NormalizeEndpoint(endpoint string) string {
	if i := strings.IndexByte(endpoint, '?'); i >= 0 {
		endpoint = endpoint[:i]
	}
	segments := strings.Split(endpoint, "/")
	prev := ""
	for i, seg := range segments {
		placeholder, afterCollection := collections[prev]
		prev = seg
		switch {
		case seg == "" || literalSegments[seg]:
		case afterCollection:
			segments[i] = placeholder
		case uuidPattern.MatchString(seg), numericSegment.MatchString(seg):
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// ErrorType categorizes a failed call for the errors counter
func ErrorType(statusCode int, err error) string {
	switch {
	case statusCode == 400:
		return "bad_request"
	case statusCode == 401:
		return "unauthorized"
	case statusCode == 403:
		return "forbidden"
	case statusCode == 404:
		return "not_found"
	case statusCode == 409:
		return "conflict"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	}

	if err == nil {
		return "unknown"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "connection_refused"
	case strings.Contains(msg, "no such host"):
		return "dns_error"
	case strings.Contains(msg, "deadline exceeded"), strings.Contains(msg, "timeout"):
		return "timeout"
	case strings.Contains(msg, "canceled"):
		return "canceled"
	case strings.Contains(msg, "EOF"), strings.Contains(msg, "connection reset"):
		return "connection_reset"
	}
	return "network_error"
}
