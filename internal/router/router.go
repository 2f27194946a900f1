// Package router maps request paths to backend services.
package router

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// BodyMode describes how a route's request bodies are handled.
type BodyMode string

const (
	// BodyModeJSON routes carry JSON payloads; the logging layer may buffer
	// and inspect them.
	BodyModeJSON BodyMode = "json"

	// BodyModeMultipart routes carry multipart uploads; bodies are streamed
	// byte-for-byte and never buffered.
	BodyModeMultipart BodyMode = "multipart"
)

// Route describes one backend service behind a path prefix.
type Route struct {
	// Name identifies the route in logs and metrics.
	Name string

	// Prefix is the path prefix that selects this route.
	Prefix string

	// Target is the backend service base URL.
	Target *url.URL

	// BodyMode controls request body handling.
	BodyMode BodyMode

	// RequireAuth gates the route behind session token validation.
	RequireAuth bool
}

// Table matches request paths against a fixed set of routes.
type Table struct {
	routes []*Route
}

// NewTable builds a route table. Routes are matched longest prefix first, so
// overlapping prefixes resolve to the most specific route.
func NewTable(routes []*Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("at least one route is required")
	}

	seen := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		if r.Name == "" {
			return nil, fmt.Errorf("route name is required")
		}
		if !strings.HasPrefix(r.Prefix, "/") {
			return nil, fmt.Errorf("route %s: prefix must start with /, got %q", r.Name, r.Prefix)
		}
		if r.Target == nil {
			return nil, fmt.Errorf("route %s: target is required", r.Name)
		}
		if _, dup := seen[r.Prefix]; dup {
			return nil, fmt.Errorf("duplicate route prefix %q", r.Prefix)
		}
		seen[r.Prefix] = struct{}{}
	}

	sorted := make([]*Route, len(routes))
	copy(sorted, routes)
	sort.Slice(sorted, func(i, j int) bool {
		return len(sorted[i].Prefix) > len(sorted[j].Prefix)
	})

	return &Table{routes: sorted}, nil
}

// Match returns the route for the given path, or nil when no prefix matches.
// A prefix matches the path itself or any segment below it, so /v1/auth
// matches /v1/auth and /v1/auth/login but not /v1/authority.
func (t *Table) Match(path string) *Route {
	for _, r := range t.routes {
		if path == r.Prefix || strings.HasPrefix(path, r.Prefix+"/") {
			return r
		}
	}
	return nil
}

// Routes returns all routes in match order.
func (t *Table) Routes() []*Route {
	return t.routes
}
