package routing

import (
	"fmt"
	"net/url"
	"strings"
)

// RoutePath matches request paths against a pattern such as
// "/tasks/:id/complete". Segments starting with ':' capture one non-empty
// path segment.
type RoutePath struct {
	pattern  string
	segments []segment
}

type segment struct {
	value string
	param bool
}

// BuildRoutePath panics on patterns with an empty or repeated parameter
// name; routes are registered at startup.
func BuildRoutePath(pattern string) RoutePath {
	parts := splitPath(pattern)
	segments := make([]segment, 0, len(parts))
	seen := make(map[string]bool)

	for _, part := range parts {
		if !strings.HasPrefix(part, ":") {
			segments = append(segments, segment{value: part})
			continue
		}
		name := part[1:]
		if name == "" {
			panic(fmt.Sprintf("routing: empty parameter name in %q", pattern))
		}
		if seen[name] {
			panic(fmt.Sprintf("routing: duplicate parameter %q in %q", name, pattern))
		}
		seen[name] = true
		segments = append(segments, segment{value: name, param: true})
	}

	return RoutePath{pattern: pattern, segments: segments}
}

func (p RoutePath) String() string {
	return p.pattern
}

// Match expects an escaped path (url.URL.EscapedPath) so that an encoded
// slash stays inside its segment. Captured values are unescaped.
func (p RoutePath) Match(path string) (map[string]string, bool) {
	parts := splitPath(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}

	params := make(map[string]string)
	for i, seg := range p.segments {
		part := parts[i]
		if !seg.param {
			if part != seg.value {
				return nil, false
			}
			continue
		}

		value, err := url.PathUnescape(part)
		if err != nil || value == "" {
			return nil, false
		}
		params[seg.value] = value
	}
	return params, true
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
