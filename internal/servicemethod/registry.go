package servicemethod

import (
	"sort"

	"github.com/jboss-openshift/openshift-kieserver/internal/command"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

type key struct {
	service string
	method  string
}

// Registry is keyed by (service, method). Read-only after construction.
type Registry struct {
	methods map[key]*Method
}

// NewRegistry indexes methods. A later entry for the same pair replaces an
// earlier one; differing overloads are logged.
func NewRegistry(methods []*Method, log logger.Logger) *Registry {
	r := &Registry{methods: make(map[key]*Method, len(methods))}
	for _, m := range methods {
		k := key{m.service, m.name}
		if prev, ok := r.methods[k]; ok && !prev.Equal(m) && log != nil {
			log.Warnf("overriding service method %s with overloaded service method %s", prev, m)
		}
		r.methods[k] = m
	}
	return r
}

// Default builds the registry from DefaultTable.
func Default(log logger.Logger) *Registry {
	return NewRegistry(DefaultTable(), log)
}

func (r *Registry) Describe(service, method string) (*Method, bool) {
	m, ok := r.methods[key{service, method}]
	return m, ok
}

// Methods returns every descriptor sorted by service then method.
func (r *Registry) Methods() []*Method {
	out := make([]*Method, 0, len(r.methods))
	for _, m := range r.methods {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].service != out[j].service {
			return out[i].service < out[j].service
		}
		return out[i].name < out[j].name
	})
	return out
}

func (r *Registry) Len() int { return len(r.methods) }

// Signals are the correlating identifiers found in a descriptor's arguments.
type Signals struct {
	ContainerID        string
	ProcessInstanceID  int64
	HasProcessInstance bool
	ProcessInstanceIDs []int64
	CorrelationKey     string
	TaskInstanceID     int64
	HasTaskInstance    bool
	WorkItemID         int64
	HasWorkItem        bool
	JobID              int64
	HasJob             bool
}

// Signals reads every tracked role of d.
// Unknown service methods yield empty signals.
func (r *Registry) Signals(d *command.Descriptor) (Signals, error) {
	var s Signals
	if d == nil {
		return s, nil
	}
	m, ok := r.Describe(d.Service, d.Method)
	if !ok {
		return s, nil
	}

	var err error
	if s.ContainerID, _, err = m.ReadString(d, ContainerID); err != nil {
		return s, err
	}
	if s.ProcessInstanceID, s.HasProcessInstance, err = m.ReadInt64(d, ProcessInstanceID); err != nil {
		return s, err
	}
	if s.ProcessInstanceIDs, _, err = m.ReadInt64s(d, ProcessInstanceIDs); err != nil {
		return s, err
	}
	if s.CorrelationKey, _, err = m.ReadString(d, CorrelationKey); err != nil {
		return s, err
	}
	if s.TaskInstanceID, s.HasTaskInstance, err = m.ReadInt64(d, TaskInstanceID); err != nil {
		return s, err
	}
	if s.WorkItemID, s.HasWorkItem, err = m.ReadInt64(d, WorkItemID); err != nil {
		return s, err
	}
	if s.JobID, s.HasJob, err = m.ReadInt64(d, JobID); err != nil {
		return s, err
	}
	return s, nil
}
