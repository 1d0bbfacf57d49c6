package messaging

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/jboss-openshift/openshift-kieserver/internal/command"
)

// Format is the integer serialization format carried by a message.
type Format int

const (
	FormatJAXB    Format = 0
	FormatJSON    Format = 1
	FormatXStream Format = 2
)

func (f Format) String() string {
	switch f {
	case FormatJAXB:
		return "JAXB"
	case FormatJSON:
		return "JSON"
	case FormatXStream:
		return "XSTREAM"
	}
	return "Format(" + strconv.Itoa(int(f)) + ")"
}

// Marshaller converts command scripts to and from one wire format.
type Marshaller interface {
	Format() Format
	Unmarshal(data []byte) (*command.Script, error)
	Marshal(s *command.Script) ([]byte, error)
}

// Marshallers indexes marshallers by format.
type Marshallers struct {
	byFormat map[Format]Marshaller
}

// NewMarshallers registers ms. Without arguments the JSON marshaller is used.
func NewMarshallers(ms ...Marshaller) *Marshallers {
	if len(ms) == 0 {
		ms = []Marshaller{JSONMarshaller{}}
	}
	r := &Marshallers{byFormat: make(map[Format]Marshaller, len(ms))}
	for _, m := range ms {
		r.byFormat[m.Format()] = m
	}
	return r
}

func (r *Marshallers) For(f Format) (Marshaller, error) {
	m, ok := r.byFormat[f]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	return m, nil
}

// Formats lists the registered formats in ascending order.
func (r *Marshallers) Formats() []Format {
	out := make([]Format, 0, len(r.byFormat))
	for f := range r.byFormat {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var wire = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

const (
	fieldLookup      = "lookup"
	fieldCommands    = "commands"
	fieldContainerID = "container-id"
	fieldService     = "service"
	fieldMethod      = "method"
	fieldFormat      = "format"
	fieldArguments   = "arguments"
)

// JSONMarshaller reads and writes the KIE JSON command script:
//
//	{"lookup": "...", "commands": [{"descriptor-command": {"service": "...", "method": "...", "arguments": [...]}}]}
//
// Fields it does not model are carried through unchanged.
type JSONMarshaller struct{}

func (JSONMarshaller) Format() Format { return FormatJSON }

func (JSONMarshaller) Unmarshal(data []byte) (*command.Script, error) {
	var doc map[string]any
	if err := wire.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode command script: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("decode command script: not an object")
	}

	s := &command.Script{}
	if v, ok := doc[fieldLookup]; ok {
		if lookup, ok := v.(string); ok {
			s.Lookup = lookup
			delete(doc, fieldLookup)
		}
	}
	if v, ok := doc[fieldCommands]; ok {
		items, ok := v.([]any)
		if !ok && v != nil {
			return nil, fmt.Errorf("decode command script: commands is not a list")
		}
		for i, item := range items {
			c, err := decodeCommand(item)
			if err != nil {
				return nil, fmt.Errorf("decode command %d: %w", i, err)
			}
			s.Commands = append(s.Commands, c)
		}
		delete(doc, fieldCommands)
	}
	if len(doc) > 0 {
		s.Fields = doc
	}
	return s, nil
}

func decodeCommand(v any) (*command.Command, error) {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return nil, fmt.Errorf("expected a single keyed object")
	}
	var kind string
	var inner any
	for k, v := range obj {
		kind, inner = k, v
	}
	body, ok := inner.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s is not an object", kind)
	}

	c := &command.Command{Kind: command.Kind(kind)}
	switch {
	case c.Kind == command.KindDescriptor:
		d := &command.Descriptor{}
		d.Service, _ = body[fieldService].(string)
		d.Method, _ = body[fieldMethod].(string)
		d.Format, _ = body[fieldFormat].(string)
		if args, ok := body[fieldArguments].([]any); ok {
			d.Arguments = make([]any, len(args))
			for i, a := range args {
				d.Arguments[i] = decodeArgument(a)
			}
		}
		for _, k := range []string{fieldService, fieldMethod, fieldFormat, fieldArguments} {
			delete(body, k)
		}
		c.Descriptor = d
	case c.ContainerScoped():
		if id, ok := body[fieldContainerID].(string); ok {
			c.ContainerID = id
			delete(body, fieldContainerID)
		}
	}
	if len(body) > 0 {
		c.Fields = body
	}
	return c, nil
}

// decodeArgument turns {"fully.qualified.Type": value} into a Wrapped.
func decodeArgument(v any) any {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) != 1 {
		return v
	}
	for k, inner := range obj {
		if strings.Contains(k, ".") {
			return &command.Wrapped{Type: k, Value: inner}
		}
	}
	return v
}

func (JSONMarshaller) Marshal(s *command.Script) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode command script: nil script")
	}
	doc := make(map[string]any, len(s.Fields)+2)
	for k, v := range s.Fields {
		doc[k] = v
	}
	if s.Lookup != "" {
		doc[fieldLookup] = s.Lookup
	}
	cmds := make([]any, 0, len(s.Commands))
	for _, c := range s.Commands {
		cmds = append(cmds, encodeCommand(c))
	}
	doc[fieldCommands] = cmds

	out, err := wire.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode command script: %w", err)
	}
	return out, nil
}

func encodeCommand(c *command.Command) map[string]any {
	body := make(map[string]any, len(c.Fields)+4)
	for k, v := range c.Fields {
		body[k] = v
	}
	switch {
	case c.Kind == command.KindDescriptor && c.Descriptor != nil:
		d := c.Descriptor
		body[fieldService] = d.Service
		body[fieldMethod] = d.Method
		if d.Format != "" {
			body[fieldFormat] = d.Format
		}
		args := make([]any, len(d.Arguments))
		for i, a := range d.Arguments {
			args[i] = encodeArgument(a)
		}
		body[fieldArguments] = args
	case c.ContainerScoped() && c.ContainerID != "":
		body[fieldContainerID] = c.ContainerID
	}
	return map[string]any{string(c.Kind): body}
}

func encodeArgument(v any) any {
	if w, ok := v.(*command.Wrapped); ok {
		return map[string]any{w.Type: w.Value}
	}
	return v
}
