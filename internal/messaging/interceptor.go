package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jboss-openshift/openshift-kieserver/internal/command"
	"github.com/jboss-openshift/openshift-kieserver/internal/logger"
	"github.com/jboss-openshift/openshift-kieserver/internal/metrics"
	"github.com/jboss-openshift/openshift-kieserver/internal/redirect"
	"github.com/jboss-openshift/openshift-kieserver/internal/servicemethod"
)

// Resolver picks the target deployment for a set of signals.
type Resolver interface {
	Resolve(ctx context.Context, s redirect.Signals) redirect.Decision
}

// Interceptor rewrites inbound command messages onto the resolved deployment.
type Interceptor struct {
	resolver    Resolver
	methods     *servicemethod.Registry
	marshallers *Marshallers
	metrics     *metrics.Metrics
	logger      logger.Logger
}

func NewInterceptor(
	resolver Resolver,
	methods *servicemethod.Registry,
	marshallers *Marshallers,
	m *metrics.Metrics,
	log logger.Logger,
) *Interceptor {
	if marshallers == nil {
		marshallers = NewMarshallers()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Interceptor{
		resolver:    resolver,
		methods:     methods,
		marshallers: marshallers,
		metrics:     m,
		logger:      log,
	}
}

// Intercept returns msg unchanged when no redirection applies, or a rewritten
// copy targeting the resolved deployment. Errors wrap ErrTransport.
func (i *Interceptor) Intercept(ctx context.Context, msg Message) (Message, error) {
	out, err := i.intercept(ctx, msg)
	if err != nil {
		i.metrics.ObserveTransportError(metrics.TransportMessage)
		i.logger.Warn("message rejected",
			logger.String("correlation_id", msg.CorrelationID),
			logger.String("container_id", msg.ContainerID()),
			logger.Error(err))
		return msg, err
	}
	return out, nil
}

func (i *Interceptor) intercept(ctx context.Context, msg Message) (Message, error) {
	format, err := msg.Format()
	if err != nil {
		return msg, err
	}

	var (
		script    *command.Script
		codec     Marshaller
		decodeErr error
	)
	if len(msg.Body) > 0 {
		codec, decodeErr = i.marshallers.For(format)
		if decodeErr == nil {
			script, decodeErr = codec.Unmarshal(msg.Body)
		}
	}

	signals := redirect.Signals{
		RequestedID:    msg.ContainerID(),
		ConversationID: msg.ConversationID(),
	}
	if script != nil {
		i.collect(script, &signals)
	}

	decision := i.resolver.Resolve(ctx, signals)
	i.metrics.ObserveDecision(metrics.TransportMessage, decision.Strategy.String())
	if !decision.Redirect() {
		return msg, nil
	}

	if msg.CorrelationID == "" {
		return msg, ErrMissingCorrelationID
	}
	switch {
	case decodeErr == nil:
	case errors.Is(decodeErr, ErrUnsupportedFormat):
		// No marshaller for this format: redirect by properties, body forwarded as is.
		i.logger.Debug("message body not inspected",
			logger.String("correlation_id", msg.CorrelationID),
			logger.String("format", format.String()))
	case errors.Is(decodeErr, ErrTransport):
		return msg, decodeErr
	default:
		return msg, fmt.Errorf("%w: %v", ErrTransport, decodeErr)
	}

	out := msg.
		WithProperty(PropertyContainerID, decision.DeploymentID).
		WithoutProperty(PropertyConversationID)

	if script != nil && i.rewrite(script, decision.RequestedID, decision.DeploymentID) {
		body, err := codec.Marshal(script)
		if err != nil {
			return msg, fmt.Errorf("%w: %v", ErrTransport, err)
		}
		out = out.WithBody(body)
	}

	i.logger.Debug("message redirected",
		logger.String("correlation_id", msg.CorrelationID),
		logger.String("requested", decision.RequestedID),
		logger.String("deployment_id", decision.DeploymentID),
		logger.String("strategy", decision.Strategy.String()))
	return out, nil
}

// collect fills the first value found for every signal across the script.
func (i *Interceptor) collect(script *command.Script, s *redirect.Signals) {
	for _, c := range script.Commands {
		if c.Kind != command.KindDescriptor || c.Descriptor == nil {
			continue
		}
		found, err := i.methods.Signals(c.Descriptor)
		if err != nil {
			i.logger.Warn("skipping descriptor signals", logger.Error(err))
			continue
		}
		if s.ProcessInstanceID == "" && found.HasProcessInstance {
			s.ProcessInstanceID = strconv.FormatInt(found.ProcessInstanceID, 10)
		}
		if len(s.ProcessInstanceIDs) == 0 && len(found.ProcessInstanceIDs) > 0 {
			s.ProcessInstanceIDs = found.ProcessInstanceIDs
		}
		if s.CorrelationKey == "" {
			s.CorrelationKey = found.CorrelationKey
		}
		if s.TaskInstanceID == "" && found.HasTaskInstance {
			s.TaskInstanceID = strconv.FormatInt(found.TaskInstanceID, 10)
		}
		if s.WorkItemID == "" && found.HasWorkItem {
			s.WorkItemID = strconv.FormatInt(found.WorkItemID, 10)
		}
		if s.JobID == "" && found.HasJob {
			s.JobID = strconv.FormatInt(found.JobID, 10)
		}
	}
}

// rewrite moves every reference to from onto to and reports whether anything changed.
func (i *Interceptor) rewrite(script *command.Script, from, to string) bool {
	if from == "" {
		return false
	}
	changed := false
	for _, c := range script.Commands {
		switch {
		case c.ContainerScoped():
			if c.ContainerID == from {
				c.ContainerID = to
				changed = true
			}
		case c.Kind == command.KindDescriptor && c.Descriptor != nil:
			m, ok := i.methods.Describe(c.Descriptor.Service, c.Descriptor.Method)
			if !ok {
				continue
			}
			current, ok, err := m.ReadString(c.Descriptor, servicemethod.ContainerID)
			if err != nil || !ok || current != from {
				continue
			}
			written, err := m.Write(c.Descriptor, servicemethod.ContainerID, to)
			if err != nil {
				i.logger.Warn("skipping descriptor rewrite", logger.Error(err))
				continue
			}
			changed = changed || written
		}
	}
	return changed
}
