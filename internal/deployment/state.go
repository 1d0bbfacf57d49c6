package deployment

import (
	"encoding/json"
	"encoding/xml"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	ConfigRepo     = "org.kie.server.repo"
	ConfigServerID = "org.kie.server.id"
	StatusStarted  = "STARTED"
)

// State mirrors the kie-server-state document a KIE server boots from.
type State struct {
	XMLName       xml.Name      `xml:"kie-server-state" json:"-" yaml:"-"`
	Configuration Configuration `xml:"configuration" json:"configuration" yaml:"configuration"`
	Containers    []Container   `xml:"containers>container" json:"containers" yaml:"containers"`
}

type Configuration struct {
	Items []ConfigItem `xml:"configItems>config-item" json:"configItems" yaml:"configItems"`
}

type ConfigItem struct {
	Name  string `xml:"name" json:"name" yaml:"name"`
	Value string `xml:"value" json:"value" yaml:"value"`
	Type  string `xml:"type" json:"type" yaml:"type"`
}

type Container struct {
	ContainerID string    `xml:"containerId" json:"containerId" yaml:"containerId"`
	ReleaseID   ReleaseID `xml:"releaseId" json:"releaseId" yaml:"releaseId"`
	Status      string    `xml:"status" json:"status" yaml:"status"`
}

type ReleaseID struct {
	GroupID    string `xml:"groupId" json:"groupId" yaml:"groupId"`
	ArtifactID string `xml:"artifactId" json:"artifactId" yaml:"artifactId"`
	Version    string `xml:"version" json:"version" yaml:"version"`
}

// State exports one STARTED container per retained mapping.
func (r *Registry) State() State {
	s := State{
		Configuration: Configuration{Items: []ConfigItem{
			{Name: ConfigRepo, Value: r.repo, Type: "java.lang.String"},
			{Name: ConfigServerID, Value: r.serverID, Type: "java.lang.String"},
		}},
	}
	for _, alias := range r.aliases {
		for _, id := range r.aliasToIDs[alias] {
			c := r.idToMapping[id].Coordinate
			s.Containers = append(s.Containers, Container{
				ContainerID: id,
				ReleaseID:   ReleaseID{GroupID: c.Group, ArtifactID: c.Artifact, Version: c.Version},
				Status:      StatusStarted,
			})
		}
	}
	return s
}

func (s State) XML() ([]byte, error) {
	data, err := xml.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state xml: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func (s State) YAML() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state yaml: %w", err)
	}
	return data, nil
}

func (s State) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state json: %w", err)
	}
	return append(data, '\n'), nil
}
