// Package messaging resolves and rewrites KIE command messages.
package messaging

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Message property names.
const (
	PropertyContainerID    = "kie_container_id"
	PropertyConversationID = "kie_conversation_id"
	PropertyFormat         = "kie_serialization_format"
)

var (
	// ErrTransport marks messages that cannot be processed as received.
	ErrTransport            = errors.New("transport error")
	ErrMissingCorrelationID = fmt.Errorf("%w: unable to retrieve correlation id from message", ErrTransport)
	ErrInvalidFormat        = fmt.Errorf("%w: invalid serialization format property", ErrTransport)
	ErrUnsupportedFormat    = fmt.Errorf("%w: unsupported serialization format", ErrTransport)
)

// Message is an immutable view of one inbound command message.
type Message struct {
	CorrelationID string
	Properties    map[string]string
	Body          []byte
}

func (m Message) Property(name string) string {
	return m.Properties[name]
}

func (m Message) ContainerID() string {
	return strings.TrimSpace(m.Properties[PropertyContainerID])
}

func (m Message) ConversationID() string {
	return strings.TrimSpace(m.Properties[PropertyConversationID])
}

// Format reads the serialization format property. A missing property means JAXB.
func (m Message) Format() (Format, error) {
	raw := strings.TrimSpace(m.Properties[PropertyFormat])
	if raw == "" {
		return FormatJAXB, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	return Format(n), nil
}

// WithProperty returns a copy of m with name set to value.
func (m Message) WithProperty(name, value string) Message {
	out := m.clone()
	out.Properties[name] = value
	return out
}

// WithoutProperty returns a copy of m without name.
func (m Message) WithoutProperty(name string) Message {
	out := m.clone()
	delete(out.Properties, name)
	return out
}

// WithBody returns a copy of m carrying body.
func (m Message) WithBody(body []byte) Message {
	out := m.clone()
	out.Body = body
	return out
}

func (m Message) clone() Message {
	props := make(map[string]string, len(m.Properties)+1)
	for k, v := range m.Properties {
		props[k] = v
	}
	return Message{CorrelationID: m.CorrelationID, Properties: props, Body: m.Body}
}
