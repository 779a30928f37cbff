// README: Document change events and path matching for the transition watchers.
package watcher

import (
	"errors"
	"fmt"
	"strings"

	"ridenotify/internal/types"
)

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

var ErrUnknownKind = errors.New("unknown change kind")

// Document is the raw field map of a stored document.
type Document map[string]any

// Field returns a string field, or "" when absent or of another type.
func (d Document) Field(key string) string {
	if d == nil {
		return ""
	}
	s, _ := d[key].(string)
	return s
}

func (d Document) ID(key string) types.ID {
	return types.ID(d.Field(key))
}

// Change is one storage mutation. Path is relative to the database root,
// e.g. "rides/R1/requests/Q1". Before is nil on create, After on delete.
type Change struct {
	Path   string   `json:"path"`
	Kind   Kind     `json:"kind"`
	Before Document `json:"before,omitempty"`
	After  Document `json:"after,omitempty"`
}

func (c Change) Validate() error {
	switch c.Kind {
	case KindCreate, KindUpdate, KindDelete:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, c.Kind)
	}
	if strings.Trim(c.Path, "/") == "" {
		return errors.New("change path is required")
	}
	return nil
}

// matchPath matches a slash separated path against a pattern whose {name}
// segments capture one path segment each.
func matchPath(pattern, path string) (map[string]string, bool) {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range ps {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if xs[i] == "" {
				return nil, false
			}
			params[p[1:len(p)-1]] = xs[i]
			continue
		}
		if p != xs[i] {
			return nil, false
		}
	}
	return params, true
}

// relativePath strips the "projects/.../documents/" prefix from a full
// Firestore resource name.
func relativePath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return strings.Trim(full, "/")
}
