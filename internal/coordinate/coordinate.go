// Package coordinate models group:artifact:version release identifiers.
package coordinate

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrMalformed = errors.New("malformed coordinate")

// Coordinate identifies one build of a deployment unit.
type Coordinate struct {
	Group    string
	Artifact string
	Version  string
}

// Parse reads "group:artifact:version". All three fields are required.
func Parse(s string) (Coordinate, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	c := Coordinate{
		Group:    strings.TrimSpace(parts[0]),
		Artifact: strings.TrimSpace(parts[1]),
		Version:  strings.TrimSpace(parts[2]),
	}
	if c.Group == "" || c.Artifact == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	return c, nil
}

func (c Coordinate) ExternalForm() string {
	return c.Group + ":" + c.Artifact + ":" + c.Version
}

func (c Coordinate) String() string { return c.ExternalForm() }

func (c Coordinate) IsSnapshot() bool {
	return strings.HasSuffix(c.Version, "-SNAPSHOT")
}

// Compare orders by version first, then group, then artifact.
func Compare(a, b Coordinate) int {
	if c := CompareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	if c := strings.Compare(a.Group, b.Group); c != 0 {
		return c
	}
	return strings.Compare(a.Artifact, b.Artifact)
}

// SortDescending sorts highest first.
func SortDescending(cs []Coordinate) {
	sort.SliceStable(cs, func(i, j int) bool { return Compare(cs[i], cs[j]) > 0 })
}

// Latest returns the highest of the parsable external forms.
func Latest(forms ...string) (Coordinate, bool) {
	return pick(forms, func(c int) bool { return c > 0 })
}

// Earliest returns the lowest of the parsable external forms.
func Earliest(forms ...string) (Coordinate, bool) {
	return pick(forms, func(c int) bool { return c < 0 })
}

func pick(forms []string, better func(int) bool) (Coordinate, bool) {
	var (
		best  Coordinate
		found bool
	)
	for _, f := range forms {
		c, err := Parse(f)
		if err != nil {
			continue
		}
		if !found || better(Compare(c, best)) {
			best, found = c, true
		}
	}
	return best, found
}
