// Package conversation reads and mints KIE conversation ids.
//
// A conversation id is four single-quoted fields joined by ':' and query escaped:
//
//	'serverId':'containerId':'group:artifact:version':'suffix'
package conversation

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"

	"github.com/google/uuid"
)

var ErrMalformed = errors.New("malformed conversation id")

var format = regexp.MustCompile(`^'([^']*)':'([^']*)':'([^']*)':'([^']*)'$`)

type ID struct {
	ServerID    string
	ContainerID string
	ReleaseID   string
	Suffix      string
}

// New mints an id with a random suffix.
func New(serverID, containerID, releaseID string) ID {
	return ID{
		ServerID:    serverID,
		ContainerID: containerID,
		ReleaseID:   releaseID,
		Suffix:      uuid.NewString(),
	}
}

// Parse decodes the wire form. Unescaped input is accepted as well.
func Parse(s string) (ID, error) {
	decoded, err := url.QueryUnescape(s)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	m := format.FindStringSubmatch(decoded)
	if m == nil {
		return ID{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}
	if m[2] == "" {
		return ID{}, fmt.Errorf("%w: empty container id", ErrMalformed)
	}
	return ID{ServerID: m[1], ContainerID: m[2], ReleaseID: m[3], Suffix: m[4]}, nil
}

func (id ID) raw() string {
	return "'" + id.ServerID + "':'" + id.ContainerID + "':'" + id.ReleaseID + "':'" + id.Suffix + "'"
}

// String returns the escaped wire form.
func (id ID) String() string {
	return url.QueryEscape(id.raw())
}
