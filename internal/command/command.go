// Package command models KIE command scripts independently of their wire format.
package command

// Kind names a command on the wire.
type Kind string

const (
	KindDescriptor       Kind = "descriptor-command"
	KindCallContainer    Kind = "call-container"
	KindGetContainerInfo Kind = "get-container-info"
	KindGetScannerInfo   Kind = "get-scanner-info"
)

// Script is an ordered batch of commands.
type Script struct {
	Lookup   string
	Commands []*Command
	Fields   map[string]any
}

// Command keeps the fields this module understands typed and everything else
// in Fields so it survives a re-marshal untouched.
type Command struct {
	Kind        Kind
	ContainerID string      // container scoped kinds only
	Descriptor  *Descriptor // KindDescriptor only
	Fields      map[string]any
}

// ContainerScoped reports whether the command addresses a container by id at top level.
func (c *Command) ContainerScoped() bool {
	switch c.Kind {
	case KindCallContainer, KindGetContainerInfo, KindGetScannerInfo:
		return true
	}
	return false
}

// Descriptor is a remote service call: service name, method name, positional arguments.
type Descriptor struct {
	Service   string
	Method    string
	Format    string
	Arguments []any
}

// Wrapped is a typed envelope around an argument value.
type Wrapped struct {
	Type  string
	Value any
}

// Unwrap returns the value inside a Wrapped, or v itself.
func Unwrap(v any) (any, bool) {
	if w, ok := v.(*Wrapped); ok {
		return w.Value, true
	}
	return v, false
}
