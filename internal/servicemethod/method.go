// Package servicemethod records which positional argument of a KIE service
// call carries each correlating identifier.
package servicemethod

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jboss-openshift/openshift-kieserver/internal/command"
)

var ErrRewriteMismatch = errors.New("service method mismatch")

// Role is the meaning of one positional argument.
type Role int

const (
	ContainerID Role = iota
	ProcessInstanceID
	ProcessInstanceIDs
	CorrelationKey
	TaskInstanceID
	WorkItemID
	JobID
	numRoles
)

var roleNames = [numRoles]string{
	ContainerID:        "containerId",
	ProcessInstanceID:  "processInstanceId",
	ProcessInstanceIDs: "processInstanceIds",
	CorrelationKey:     "correlationKey",
	TaskInstanceID:     "taskInstanceId",
	WorkItemID:         "workItemId",
	JobID:              "jobId",
}

func (r Role) String() string {
	if r < 0 || r >= numRoles {
		return "Role(" + strconv.Itoa(int(r)) + ")"
	}
	return roleNames[r]
}

// Roles lists every role in declaration order.
func Roles() []Role {
	out := make([]Role, 0, numRoles)
	for r := Role(0); r < numRoles; r++ {
		out = append(out, r)
	}
	return out
}

const absent = -1

// Method describes one (service, method) pair. Immutable.
type Method struct {
	service   string
	name      string
	positions [numRoles]int
}

// Position pins a role to an argument index.
type Position struct {
	Role  Role
	Index int
}

// At is shorthand for building table entries.
func At(role Role, index int) Position { return Position{Role: role, Index: index} }

// NewMethod builds a descriptor; roles not listed are absent.
func NewMethod(service, name string, positions ...Position) *Method {
	m := &Method{service: service, name: name}
	for i := range m.positions {
		m.positions[i] = absent
	}
	for _, p := range positions {
		m.positions[p.Role] = p.Index
	}
	return m
}

func (m *Method) Service() string { return m.service }
func (m *Method) Name() string    { return m.name }

// Index returns the argument index for role, or -1.
func (m *Method) Index(role Role) int {
	if role < 0 || role >= numRoles {
		return absent
	}
	return m.positions[role]
}

func (m *Method) Equal(o *Method) bool {
	return o != nil && m.service == o.service && m.name == o.name && m.positions == o.positions
}

func (m *Method) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s.%s(", m.service, m.name)
	first := true
	for r := Role(0); r < numRoles; r++ {
		if m.positions[r] == absent {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "%s=%d", r, m.positions[r])
	}
	b.WriteString(")")
	return b.String()
}

func (m *Method) validate(d *command.Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor for %s.%s", ErrRewriteMismatch, m.service, m.name)
	}
	if d.Service != m.service {
		return fmt.Errorf("%w: DescriptorCommand service mismatch: %s != %s", ErrRewriteMismatch, d.Service, m.service)
	}
	if d.Method != m.name {
		return fmt.Errorf("%w: DescriptorCommand method mismatch: %s != %s", ErrRewriteMismatch, d.Method, m.name)
	}
	return nil
}

// Read returns the unwrapped argument for role. ok is false when the role
// is not tracked or the argument list is too short.
func (m *Method) Read(d *command.Descriptor, role Role) (v any, ok bool, err error) {
	if err := m.validate(d); err != nil {
		return nil, false, err
	}
	i := m.Index(role)
	if i == absent || i >= len(d.Arguments) {
		return nil, false, nil
	}
	v, _ = command.Unwrap(d.Arguments[i])
	return v, true, nil
}

// Write replaces the argument for role in place, keeping any wrapper.
func (m *Method) Write(d *command.Descriptor, role Role, v any) (bool, error) {
	if err := m.validate(d); err != nil {
		return false, err
	}
	i := m.Index(role)
	if i == absent || i >= len(d.Arguments) {
		return false, nil
	}
	if w, ok := d.Arguments[i].(*command.Wrapped); ok {
		d.Arguments[i] = &command.Wrapped{Type: w.Type, Value: v}
	} else {
		d.Arguments[i] = v
	}
	return true, nil
}

// ReadString reads a string role. Non-string values are formatted.
func (m *Method) ReadString(d *command.Descriptor, role Role) (string, bool, error) {
	v, ok, err := m.Read(d, role)
	if err != nil || !ok || v == nil {
		return "", false, err
	}
	s := strings.TrimSpace(stringify(v))
	return s, s != "", nil
}

// ReadInt64 reads a numeric role from a number or numeric string.
func (m *Method) ReadInt64(d *command.Descriptor, role Role) (int64, bool, error) {
	v, ok, err := m.Read(d, role)
	if err != nil || !ok {
		return 0, false, err
	}
	n, ok := toInt64(v)
	return n, ok, nil
}

// ReadInt64s reads a list role, dropping entries that are not numeric.
func (m *Method) ReadInt64s(d *command.Descriptor, role Role) ([]int64, bool, error) {
	v, ok, err := m.Read(d, role)
	if err != nil || !ok {
		return nil, false, err
	}
	out := toInt64s(v)
	return out, len(out) > 0, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func toInt64(v any) (int64, bool) {
	v, _ = command.Unwrap(v)
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), true
	case float32:
		return int64(x), float32(int64(x)) == x
	case float64:
		return int64(x), float64(int64(x)) == x
	case json.Number:
		n, err := x.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func toInt64s(v any) []int64 {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []int64:
		return append([]int64(nil), x...)
	case []int:
		for _, n := range x {
			items = append(items, n)
		}
	case []string:
		for _, s := range x {
			items = append(items, s)
		}
	default:
		if n, ok := toInt64(x); ok {
			return []int64{n}
		}
		return nil
	}

	out := make([]int64, 0, len(items))
	for _, it := range items {
		if n, ok := toInt64(it); ok {
			out = append(out, n)
		}
	}
	return out
}
