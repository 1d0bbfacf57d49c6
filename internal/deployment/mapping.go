package deployment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jboss-openshift/openshift-kieserver/internal/coordinate"
)

// Mapping binds an alias to one release coordinate.
type Mapping struct {
	Alias      string
	Coordinate coordinate.Coordinate
}

// ContainerConfig is the "alias=group:artifact:version" form hashed into a deployment id.
func (m Mapping) ContainerConfig() string {
	return m.Alias + "=" + m.Coordinate.ExternalForm()
}

// ParseMappings reads "alias=g:a:v|alias=g:a:v". Malformed units are skipped.
func ParseMappings(spec string) []Mapping {
	var out []Mapping
	for _, unit := range strings.Split(spec, "|") {
		m, ok := parseUnit(unit)
		if !ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

func parseUnit(unit string) (Mapping, bool) {
	parts := strings.Split(strings.TrimSpace(unit), "=")
	if len(parts) != 2 {
		return Mapping{}, false
	}
	alias := strings.TrimSpace(parts[0])
	if alias == "" || strings.Contains(alias, "|") {
		return Mapping{}, false
	}
	c, err := coordinate.Parse(parts[1])
	if err != nil {
		return Mapping{}, false
	}
	return Mapping{Alias: alias, Coordinate: c}, true
}

// FormatMappings is the inverse of ParseMappings.
func FormatMappings(ms []Mapping) string {
	units := make([]string, 0, len(ms))
	for _, m := range ms {
		units = append(units, m.ContainerConfig())
	}
	return strings.Join(units, "|")
}

// mappingFile is the optional YAML form of the container mappings:
//
//	containers:
//	  - alias: c1
//	    release: g1:a1:v1
type mappingFile struct {
	Containers []struct {
		Alias   string `yaml:"alias"`
		Release string `yaml:"release"`
	} `yaml:"containers"`
}

// LoadMappingFile reads mappings from a YAML file. Entries are validated like
// spec units and malformed ones are skipped; an unreadable file is an error.
func LoadMappingFile(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read mapping file: %v", ErrConfiguration, err)
	}

	var f mappingFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: failed to parse mapping file %s: %v", ErrConfiguration, path, err)
	}

	out := make([]Mapping, 0, len(f.Containers))
	for _, c := range f.Containers {
		if m, ok := parseUnit(c.Alias + "=" + c.Release); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
