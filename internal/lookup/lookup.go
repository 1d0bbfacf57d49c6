// Package lookup asks the process runtime which deployment owns an instance.
package lookup

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/jboss-openshift/openshift-kieserver/internal/conversation"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
)

var ErrNotFound = errors.New("not found")

// Instance kinds a deployment can be looked up by.
const (
	KindCorrelationKey  = "correlation"
	KindProcessInstance = "pinstance"
	KindTaskInstance    = "tinstance"
	KindWorkItem        = "workitem"
	KindJob             = "job"
)

// Owner records which deployment owns one instance.
type Owner struct {
	Kind         string
	ID           string
	DeploymentID string
}

// Backend is the query side of the process runtime. Implementations return
// ErrNotFound when nothing matches.
type Backend interface {
	DeploymentIDByCorrelationKey(ctx context.Context, key string) (string, error)
	DeploymentIDByProcessInstanceID(ctx context.Context, id int64) (string, error)
	DeploymentIDByTaskInstanceID(ctx context.Context, id int64) (string, error)
	DeploymentIDByWorkItemID(ctx context.Context, id int64) (string, error)
	DeploymentIDByJobID(ctx context.Context, id int64) (string, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Client wraps a Backend. Every failure is reported as "not found".
// A nil backend finds nothing except conversation ids.
type Client struct {
	backend       Backend
	conversations bool
	logger        logger.Logger
}

// NewClient builds a client. conversations is the capability flag for
// conversation id support.
func NewClient(backend Backend, conversations bool, log logger.Logger) *Client {
	return &Client{backend: backend, conversations: conversations, logger: log}
}

func (c *Client) SupportsConversations() bool { return c.conversations }

// Ping reports backend health; backends without a health check are always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if p, ok := c.backend.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *Client) DeploymentIDByCorrelationKey(ctx context.Context, key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" || c.backend == nil {
		return "", false
	}
	return c.found("correlation_key", key)(c.backend.DeploymentIDByCorrelationKey(ctx, key))
}

func (c *Client) DeploymentIDByProcessInstanceID(ctx context.Context, id string) (string, bool) {
	n, ok := parseID(id)
	if !ok {
		return "", false
	}
	return c.DeploymentIDByProcessInstance(ctx, n)
}

func (c *Client) DeploymentIDByProcessInstance(ctx context.Context, id int64) (string, bool) {
	if c.backend == nil {
		return "", false
	}
	return c.found("process_instance_id", strconv.FormatInt(id, 10))(c.backend.DeploymentIDByProcessInstanceID(ctx, id))
}

// DeploymentIDByProcessInstances tries the distinct ids newest first.
func (c *Client) DeploymentIDByProcessInstances(ctx context.Context, ids []int64) (string, bool) {
	distinct := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			distinct = append(distinct, id)
		}
	}
	sort.Slice(distinct, func(i, j int) bool { return distinct[i] > distinct[j] })

	for _, id := range distinct {
		if dep, ok := c.DeploymentIDByProcessInstance(ctx, id); ok {
			return dep, true
		}
	}
	return "", false
}

func (c *Client) DeploymentIDByTaskInstanceID(ctx context.Context, id string) (string, bool) {
	n, ok := parseID(id)
	if !ok {
		return "", false
	}
	return c.DeploymentIDByTaskInstance(ctx, n)
}

func (c *Client) DeploymentIDByTaskInstance(ctx context.Context, id int64) (string, bool) {
	if c.backend == nil {
		return "", false
	}
	return c.found("task_instance_id", strconv.FormatInt(id, 10))(c.backend.DeploymentIDByTaskInstanceID(ctx, id))
}

func (c *Client) DeploymentIDByWorkItemID(ctx context.Context, id string) (string, bool) {
	n, ok := parseID(id)
	if !ok {
		return "", false
	}
	return c.DeploymentIDByWorkItem(ctx, n)
}

func (c *Client) DeploymentIDByWorkItem(ctx context.Context, id int64) (string, bool) {
	if c.backend == nil {
		return "", false
	}
	return c.found("work_item_id", strconv.FormatInt(id, 10))(c.backend.DeploymentIDByWorkItemID(ctx, id))
}

func (c *Client) DeploymentIDByJobID(ctx context.Context, id string) (string, bool) {
	n, ok := parseID(id)
	if !ok {
		return "", false
	}
	return c.DeploymentIDByJob(ctx, n)
}

func (c *Client) DeploymentIDByJob(ctx context.Context, id int64) (string, bool) {
	if c.backend == nil {
		return "", false
	}
	return c.found("job_id", strconv.FormatInt(id, 10))(c.backend.DeploymentIDByJobID(ctx, id))
}

// DeploymentIDByConversationID reads the container field of a conversation id.
// No backend call is made.
func (c *Client) DeploymentIDByConversationID(conversationID string) (string, bool) {
	conversationID = strings.TrimSpace(conversationID)
	if !c.conversations || conversationID == "" {
		return "", false
	}
	id, err := conversation.Parse(conversationID)
	if err != nil {
		c.debug("conversation id not parsable", logger.String("conversation_id", conversationID), logger.Error(err))
		return "", false
	}
	return id.ContainerID, true
}

// found adapts a backend result; real errors are logged, not returned.
func (c *Client) found(kind, key string) func(string, error) (string, bool) {
	return func(dep string, err error) (string, bool) {
		switch {
		case err == nil && dep != "":
			return dep, true
		case err == nil, errors.Is(err, ErrNotFound):
			return "", false
		}
		c.debug("instance lookup failed",
			logger.String("kind", kind),
			logger.String("key", key),
			logger.Error(err))
		return "", false
	}
}

func (c *Client) debug(msg string, fields ...logger.Field) {
	if c.logger != nil {
		c.logger.Debug(msg, fields...)
	}
}

func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
