// Package pathtemplate matches request paths against REST route templates and
// rebuilds them with substituted variables.
package pathtemplate

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var ErrMissingVariable = errors.New("missing path variable")

// Variable names used by the KIE server routes.
const (
	VarContainerID     = "id"
	VarCorrelationKey  = "correlationKey"
	VarJobID           = "jobId"
	VarProcessInstance = "pInstanceId"
	VarTaskInstance    = "tInstanceId"
	VarWorkItem        = "workItemId"
)

const (
	numericExpr = `[0-9]+`
	anyExpr     = `[^/]+`
)

var numericVariables = map[string]bool{
	VarJobID:           true,
	VarProcessInstance: true,
	VarTaskInstance:    true,
	VarWorkItem:        true,
}

var placeholder = regexp.MustCompile(`^\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*(?::[^}]*)?\}$`)

// Template is a compiled route template such as /containers/{id}/processes.
type Template struct {
	raw       string
	matcher   *regexp.Regexp // nil when the template has no placeholders
	positions map[int]string // segment index -> variable name
	names     []string
}

// New compiles a template. Placeholders must span a whole path segment.
func New(raw string) *Template {
	raw = normalize(raw)
	t := &Template{raw: raw, positions: make(map[int]string)}

	segments := split(raw)
	exprs := make([]string, len(segments))
	for i, seg := range segments {
		m := placeholder.FindStringSubmatch(seg)
		if m == nil {
			exprs[i] = regexp.QuoteMeta(seg)
			continue
		}
		name := m[1]
		t.positions[i] = name
		t.names = append(t.names, name)
		if numericVariables[name] {
			exprs[i] = numericExpr
		} else {
			exprs[i] = anyExpr
		}
	}

	if len(t.positions) > 0 {
		t.matcher = regexp.MustCompile("^/" + strings.Join(exprs, "/") + "$")
	}
	return t
}

func (t *Template) String() string { return t.raw }

// Variables lists the placeholder names in path order.
func (t *Template) Variables() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

// HasVariable reports whether name is one of the template placeholders.
func (t *Template) HasVariable(name string) bool {
	for _, n := range t.names {
		if n == name {
			return true
		}
	}
	return false
}

// Matches is false for templates without placeholders.
func (t *Template) Matches(path string) bool {
	if t.matcher == nil {
		return false
	}
	return t.matcher.MatchString(normalize(path))
}

// Extract returns the path variables, or nil when path does not match.
func (t *Template) Extract(path string) map[string]string {
	if !t.Matches(path) {
		return nil
	}
	segments := split(normalize(path))
	vars := make(map[string]string, len(t.positions))
	for i, name := range t.positions {
		if i >= len(segments) {
			continue
		}
		v, err := url.PathUnescape(segments[i])
		if err != nil {
			v = segments[i]
		}
		vars[name] = v
	}
	return vars
}

// BuildPath substitutes every placeholder from vars, path-escaping the values.
func (t *Template) BuildPath(vars map[string]string) (string, error) {
	segments := split(t.raw)
	for i, name := range t.positions {
		v, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("%w: %s in %s", ErrMissingVariable, name, t.raw)
		}
		segments[i] = url.PathEscape(v)
	}
	return "/" + strings.Join(segments, "/"), nil
}

// BuildRedirectPath rebuilds originalPath with the container id replaced and
// prefixes the servlet base.
func (t *Template) BuildRedirectPath(originalPath, base, containerID string) (string, error) {
	vars := t.Extract(originalPath)
	if vars == nil {
		return "", fmt.Errorf("path %s does not match %s", originalPath, t.raw)
	}
	vars[VarContainerID] = containerID
	p, err := t.BuildPath(vars)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(base, "/") + p, nil
}

func normalize(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// split drops the leading slash and returns the segments.
func split(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
