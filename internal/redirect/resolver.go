// Package redirect picks the deployment a request really targets.
package redirect

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jboss-openshift/openshift-kieserver/internal/deployment"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

// Strategy names the step of the chain that produced a decision.
type Strategy int

const (
	StrategyNone Strategy = iota
	StrategyContainerConfig
	StrategyProcessInstance
	StrategyCorrelationKey
	StrategyTaskInstance
	StrategyWorkItem
	StrategyJob
	StrategyConversation
	StrategyDefault
)

var strategyNames = map[Strategy]string{
	StrategyNone:            "none",
	StrategyContainerConfig: "container_config",
	StrategyProcessInstance: "process_instance",
	StrategyCorrelationKey:  "correlation_key",
	StrategyTaskInstance:    "task_instance",
	StrategyWorkItem:        "work_item",
	StrategyJob:             "job",
	StrategyConversation:    "conversation",
	StrategyDefault:         "default",
}

func (s Strategy) String() string {
	if n, ok := strategyNames[s]; ok {
		return n
	}
	return "Strategy(" + strconv.Itoa(int(s)) + ")"
}

// Guard decides whether a conversation may redirect an explicitly named request.
type Guard int

const (
	// GuardAliasOrConfig accepts the owning alias or its alias=g:a:v form.
	GuardAliasOrConfig Guard = iota
	// GuardAlias accepts only the owning alias.
	GuardAlias
)

// ParseGuard reads "alias" or "alias-or-config".
func ParseGuard(s string) (Guard, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "alias-or-config":
		return GuardAliasOrConfig, nil
	case "alias":
		return GuardAlias, nil
	}
	return 0, fmt.Errorf("unknown conversation guard %q", s)
}

func (g Guard) String() string {
	if g == GuardAlias {
		return "alias"
	}
	return "alias-or-config"
}

// Lookup is the instance lookup surface the chain consults.
type Lookup interface {
	DeploymentIDByProcessInstanceID(ctx context.Context, id string) (string, bool)
	DeploymentIDByProcessInstances(ctx context.Context, ids []int64) (string, bool)
	DeploymentIDByCorrelationKey(ctx context.Context, key string) (string, bool)
	DeploymentIDByTaskInstanceID(ctx context.Context, id string) (string, bool)
	DeploymentIDByWorkItemID(ctx context.Context, id string) (string, bool)
	DeploymentIDByJobID(ctx context.Context, id string) (string, bool)
	DeploymentIDByConversationID(conversationID string) (string, bool)
}

// Signals are the identifiers a transport extracted from one request.
type Signals struct {
	RequestedID        string
	ProcessInstanceID  string
	ProcessInstanceIDs []int64
	CorrelationKey     string
	TaskInstanceID     string
	WorkItemID         string
	JobID              string
	ConversationID     string
}

// Decision is the outcome for one request. DeploymentID is empty when no
// redirection applies.
type Decision struct {
	RequestedID  string
	DeploymentID string
	Strategy     Strategy
}

// Redirect reports whether the request must be rewritten.
func (d Decision) Redirect() bool {
	return d.DeploymentID != "" && d.DeploymentID != d.RequestedID
}

type strategy struct {
	kind    Strategy
	resolve func(ctx context.Context, s Signals) (string, bool)
}

// Resolver runs the fallback chain. Safe for concurrent use.
type Resolver struct {
	registry *deployment.Registry
	lookup   Lookup
	guard    Guard
	logger   logger.Logger
	chain    []strategy
}

// New builds the chain in its fixed order.
func New(registry *deployment.Registry, lookup Lookup, guard Guard, log logger.Logger) *Resolver {
	r := &Resolver{registry: registry, lookup: lookup, guard: guard, logger: log}
	r.chain = []strategy{
		{StrategyContainerConfig, r.byContainerConfig},
		{StrategyProcessInstance, r.byProcessInstance},
		{StrategyCorrelationKey, r.byCorrelationKey},
		{StrategyTaskInstance, r.byTaskInstance},
		{StrategyWorkItem, r.byWorkItem},
		{StrategyJob, r.byJob},
		{StrategyConversation, r.byConversation},
		{StrategyDefault, r.byDefault},
	}
	return r
}

func (r *Resolver) Registry() *deployment.Registry { return r.registry }

// Resolve never fails: no match means no redirection.
func (r *Resolver) Resolve(ctx context.Context, s Signals) Decision {
	s.RequestedID = strings.TrimSpace(s.RequestedID)
	d := Decision{RequestedID: s.RequestedID}

	if r.registry.HasDeploymentID(s.RequestedID) {
		return d
	}

	for _, st := range r.chain {
		id, ok := st.resolve(ctx, s)
		if !ok || !r.registry.HasDeploymentID(id) {
			continue
		}
		d.DeploymentID = id
		d.Strategy = st.kind
		if r.logger != nil {
			r.logger.Debug("redirect resolved",
				logger.String("requested", s.RequestedID),
				logger.String("deployment_id", id),
				logger.String("strategy", st.kind.String()))
		}
		return d
	}
	return d
}

func (r *Resolver) byContainerConfig(_ context.Context, s Signals) (string, bool) {
	if s.RequestedID == "" {
		return "", false
	}
	return r.registry.DeploymentIDForContainerConfig(s.RequestedID)
}

func (r *Resolver) byProcessInstance(ctx context.Context, s Signals) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	if s.ProcessInstanceID != "" {
		if id, ok := r.lookup.DeploymentIDByProcessInstanceID(ctx, s.ProcessInstanceID); ok && r.registry.HasDeploymentID(id) {
			return id, true
		}
	}
	if len(s.ProcessInstanceIDs) > 0 {
		return r.lookup.DeploymentIDByProcessInstances(ctx, s.ProcessInstanceIDs)
	}
	return "", false
}

func (r *Resolver) byCorrelationKey(ctx context.Context, s Signals) (string, bool) {
	if r.lookup == nil || s.CorrelationKey == "" {
		return "", false
	}
	return r.lookup.DeploymentIDByCorrelationKey(ctx, s.CorrelationKey)
}

func (r *Resolver) byTaskInstance(ctx context.Context, s Signals) (string, bool) {
	if r.lookup == nil || s.TaskInstanceID == "" {
		return "", false
	}
	return r.lookup.DeploymentIDByTaskInstanceID(ctx, s.TaskInstanceID)
}

func (r *Resolver) byWorkItem(ctx context.Context, s Signals) (string, bool) {
	if r.lookup == nil || s.WorkItemID == "" {
		return "", false
	}
	return r.lookup.DeploymentIDByWorkItemID(ctx, s.WorkItemID)
}

func (r *Resolver) byJob(ctx context.Context, s Signals) (string, bool) {
	if r.lookup == nil || s.JobID == "" {
		return "", false
	}
	return r.lookup.DeploymentIDByJobID(ctx, s.JobID)
}

// byConversation only follows a conversation when nothing was requested or the
// request names the conversation's owner.
func (r *Resolver) byConversation(_ context.Context, s Signals) (string, bool) {
	if r.lookup == nil || s.ConversationID == "" {
		return "", false
	}
	id, ok := r.lookup.DeploymentIDByConversationID(s.ConversationID)
	if !ok || !r.registry.HasDeploymentID(id) {
		return "", false
	}
	if s.RequestedID == "" || r.ownedBy(id, s.RequestedID) {
		return id, true
	}
	return "", false
}

func (r *Resolver) ownedBy(deploymentID, requested string) bool {
	if alias, ok := r.registry.AliasForDeploymentID(deploymentID); ok && alias == requested {
		return true
	}
	if r.guard == GuardAlias {
		return false
	}
	cfg, ok := r.registry.ContainerConfigForDeploymentID(deploymentID)
	return ok && cfg == requested
}

func (r *Resolver) byDefault(_ context.Context, s Signals) (string, bool) {
	return r.registry.DefaultDeploymentIDForAlias(s.RequestedID)
}
