// Package deployment holds the alias to deployment id table of a KIE server.
package deployment

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jboss-openshift/openshift-kieserver/internal/coder"
	"github.com/jboss-openshift/openshift-kieserver/internal/coordinate"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

var ErrConfiguration = errors.New("configuration error")

const (
	DefaultRepo     = "."
	DefaultServerID = "kieserver"
)

// Options feed New. Zero values fall back to the KIE defaults.
type Options struct {
	Repo            string
	ServerID        string
	StateFile       string
	Mappings        []Mapping
	RedirectEnabled bool
	Coder           coder.Coder // deployment id digest, MD5 when nil
}

// Registry is immutable once built and safe for concurrent reads.
type Registry struct {
	repo            string
	serverID        string
	stateFile       string
	redirectEnabled bool

	configToID  map[string]string
	idToAlias   map[string]string
	idToMapping map[string]Mapping
	aliasToIDs  map[string][]string
	aliases     []string
}

// New validates the repo/state file pair and builds the indices.
func New(opts Options, log logger.Logger) (*Registry, error) {
	repo := opts.Repo
	if repo == "" {
		repo = DefaultRepo
	}
	serverID := opts.ServerID
	if serverID == "" {
		serverID = DefaultServerID
	}
	stateFile := opts.StateFile
	if stateFile == "" {
		stateFile = filepath.Join(repo, serverID+".xml")
	}

	repoDir := canonical(repo)
	stateDir := canonical(filepath.Dir(stateFile))
	if repoDir != stateDir {
		return nil, fmt.Errorf("%w: serverStateFile: %s with serverId: %s must exist in serverRepo: %s",
			ErrConfiguration, stateFile, serverID, repo)
	}

	digest := opts.Coder
	if digest == nil {
		digest = coder.MustSumCoder(coder.MD5)
	}

	r := &Registry{
		repo:            repo,
		serverID:        serverID,
		stateFile:       stateFile,
		redirectEnabled: opts.RedirectEnabled,
		configToID:      make(map[string]string),
		idToAlias:       make(map[string]string),
		idToMapping:     make(map[string]Mapping),
		aliasToIDs:      make(map[string][]string),
	}

	for alias, coords := range groupByAlias(opts.Mappings) {
		coordinate.SortDescending(coords)
		if !r.redirectEnabled {
			coords = coords[:1]
		}
		for _, c := range coords {
			m := Mapping{Alias: alias, Coordinate: c}
			cfg := m.ContainerConfig()
			id := alias
			if r.redirectEnabled {
				id = digest.Encode(cfg)
			}
			r.configToID[cfg] = id
			r.idToAlias[id] = alias
			r.idToMapping[id] = m
			r.aliasToIDs[alias] = append(r.aliasToIDs[alias], id)
		}
		r.aliases = append(r.aliases, alias)
	}
	sort.Strings(r.aliases)

	if log != nil {
		log.Info("deployment registry built",
			logger.String("repo", repo),
			logger.String("server_id", serverID),
			logger.Bool("redirect_enabled", r.redirectEnabled),
			logger.Int("aliases", len(r.aliases)),
			logger.Int("deployments", len(r.idToAlias)))
	}
	return r, nil
}

// groupByAlias drops exact duplicates and keeps declaration order within an alias.
func groupByAlias(ms []Mapping) map[string][]coordinate.Coordinate {
	out := make(map[string][]coordinate.Coordinate)
	seen := make(map[Mapping]bool)
	for _, m := range ms {
		if seen[m] {
			continue
		}
		seen[m] = true
		out[m.Alias] = append(out[m.Alias], m.Coordinate)
	}
	return out
}

// canonical resolves symlinks when the path exists and falls back to the absolute path.
func canonical(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func (r *Registry) Repo() string            { return r.repo }
func (r *Registry) ServerID() string        { return r.serverID }
func (r *Registry) StateFile() string       { return r.stateFile }
func (r *Registry) IsRedirectEnabled() bool { return r.redirectEnabled }

func (r *Registry) HasDeploymentID(id string) bool {
	if id == "" {
		return false
	}
	_, ok := r.idToAlias[id]
	return ok
}

func (r *Registry) DeploymentIDForContainerConfig(containerConfig string) (string, bool) {
	id, ok := r.configToID[containerConfig]
	return id, ok
}

func (r *Registry) AliasForDeploymentID(id string) (string, bool) {
	alias, ok := r.idToAlias[id]
	return alias, ok
}

func (r *Registry) ContainerConfigForDeploymentID(id string) (string, bool) {
	m, ok := r.idToMapping[id]
	if !ok {
		return "", false
	}
	return m.ContainerConfig(), true
}

// CoordinateForDeploymentID returns the release the deployment was built from.
func (r *Registry) CoordinateForDeploymentID(id string) (coordinate.Coordinate, bool) {
	m, ok := r.idToMapping[id]
	return m.Coordinate, ok
}

// DefaultDeploymentIDForAlias returns the id of the highest version registered under alias.
func (r *Registry) DefaultDeploymentIDForAlias(alias string) (string, bool) {
	ids := r.aliasToIDs[alias]
	if len(ids) == 0 {
		return "", false
	}
	return ids[0], true
}

// DeploymentIDsForAlias returns a copy, default first.
func (r *Registry) DeploymentIDsForAlias(alias string) []string {
	ids := r.aliasToIDs[alias]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Aliases returns the known aliases sorted.
func (r *Registry) Aliases() []string {
	out := make([]string, len(r.aliases))
	copy(out, r.aliases)
	return out
}

// Mappings returns the retained mappings by alias, default first.
func (r *Registry) Mappings() []Mapping {
	out := make([]Mapping, 0, len(r.idToMapping))
	for _, alias := range r.aliases {
		for _, id := range r.aliasToIDs[alias] {
			out = append(out, r.idToMapping[id])
		}
	}
	return out
}

// EnvString renders the retained mappings in KIE_CONTAINER_DEPLOYMENT form.
func (r *Registry) EnvString() string {
	return FormatMappings(r.Mappings())
}

func (r *Registry) String() string {
	return fmt.Sprintf("deployment registry: stateFile=[%s], containerDeployment=[%s]", r.stateFile, r.EnvString())
}

// WriteStateFile persists the XML state to the configured state file.
func (r *Registry) WriteStateFile() error {
	data, err := r.State().XML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(r.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file %s: %w", r.stateFile, err)
	}
	return nil
}
