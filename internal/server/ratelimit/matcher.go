package ratelimit

import (
	"net/http"
	"strings"
)

// HealthPath is never rate limited.
const HealthPath = "/api/health"

var unlimited = EndpointConfig{Path: HealthPath, Method: http.MethodGet}

// MatchEndpoint returns the configuration for method and path: an exact path
// wins, then the longest "/"-terminated prefix. It returns nil when nothing
// matches and the default limit applies.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == HealthPath && method == http.MethodGet {
		ep := unlimited
		return &ep
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method {
			continue
		}
		if c.Path == path {
			return c
		}
		if strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) &&
			(best == nil || len(c.Path) > len(best.Path)) {
			best = c
		}
	}
	return best
}
