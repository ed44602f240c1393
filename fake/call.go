package fake

import (
	"strings"

	"github.com/liamcoop/fakerules/constraint"
)

// Call is one intercepted call. A proxy creates it, the Manager that
// intercepts it owns it. Only the return and out slots change after
// interception starts, and only while a rule is being applied.
type Call struct {
	Target any
	Method Method
	Args   []any

	// Base invokes the real implementation; nil when there is none.
	Base func(*Call) error

	// SuppressRecording keeps the call out of the history.
	SuppressRecording bool

	manager     *Manager
	sequence    uint64
	returnValue any
	returnSet   bool
	outValues   []any
	fault       error
}

// NewCall creates a call whose out slots match the method's out parameters.
func NewCall(target any, method Method, args ...any) *Call {
	return &Call{
		Target:    target,
		Method:    method,
		Args:      args,
		outValues: make([]any, method.OutParams),
	}
}

// Manager returns the manager that intercepted the call, nil before interception.
func (c *Call) Manager() *Manager {
	return c.manager
}

// Sequence is the 1-based position in the history, 0 if unrecorded.
func (c *Call) Sequence() uint64 {
	return c.sequence
}

// Arg returns argument i, nil when out of range.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// ReturnValue returns the value placed in the return slot.
func (c *Call) ReturnValue() any {
	return c.returnValue
}

// HasReturnValue reports whether anything wrote the return slot.
func (c *Call) HasReturnValue() bool {
	return c.returnSet
}

// SetReturnValue writes the return slot. The last writer wins.
func (c *Call) SetReturnValue(v any) {
	c.returnValue = v
	c.returnSet = true
}

// OutValues returns a copy of the out slots.
func (c *Call) OutValues() []any {
	out := make([]any, len(c.outValues))
	copy(out, c.outValues)
	return out
}

// SetOutValue writes out slot i.
func (c *Call) SetOutValue(i int, v any) {
	if i < 0 || i >= len(c.outValues) {
		panic(&InvariantViolation{Reason: "out value index out of range for " + c.Method.String()})
	}
	c.outValues[i] = v
}

// Fault returns the error the call completed with.
func (c *Call) Fault() error {
	return c.fault
}

// String renders the call as Owner.Name(arg, ...).
func (c *Call) String() string {
	var b strings.Builder
	b.WriteString(c.Method.String())
	b.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(constraint.FormatValue(arg))
	}
	b.WriteByte(')')
	return b.String()
}
