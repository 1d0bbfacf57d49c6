package pathtemplate

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed routes.yaml
var defaultRoutes []byte

// Route is one exposed REST endpoint.
type Route struct {
	Method string `yaml:"method" json:"method"`
	Path   string `yaml:"path" json:"path"`
}

type routeCatalog struct {
	Routes []Route `yaml:"routes"`
}

// DefaultRoutes returns the KIE server routes shipped with the binary.
func DefaultRoutes() []Route {
	routes, err := ParseRoutes(defaultRoutes)
	if err != nil {
		panic(fmt.Sprintf("embedded route catalog: %v", err))
	}
	return routes
}

// ParseRoutes reads a YAML route catalog.
func ParseRoutes(data []byte) ([]Route, error) {
	var c routeCatalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse route catalog: %w", err)
	}
	return c.Routes, nil
}

// Registry tries longer templates first so a short wildcard template never
// shadows a nested one. Read-only after construction.
type Registry struct {
	templates []*Template
}

// NewRegistry dedupes route paths and orders them longest first, then lexically.
func NewRegistry(routes []Route) *Registry {
	seen := make(map[string]bool, len(routes))
	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		p := normalize(r.Path)
		if seen[p] {
			continue
		}
		seen[p] = true
		paths = append(paths, p)
	}

	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) > len(paths[j])
		}
		return paths[i] < paths[j]
	})

	r := &Registry{templates: make([]*Template, 0, len(paths))}
	for _, p := range paths {
		r.templates = append(r.templates, New(p))
	}
	return r
}

// Match returns the first template matching path with its variables.
func (r *Registry) Match(path string) (*Template, map[string]string, bool) {
	for _, t := range r.templates {
		if vars := t.Extract(path); vars != nil {
			return t, vars, true
		}
	}
	return nil, nil, false
}

// Templates returns the ordered templates.
func (r *Registry) Templates() []*Template {
	out := make([]*Template, len(r.templates))
	copy(out, r.templates)
	return out
}

func (r *Registry) Len() int { return len(r.templates) }
