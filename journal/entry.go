// Package journal persists the calls recorded by fakes.
package journal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/liamcoop/fakerules/constraint"
	"github.com/liamcoop/fakerules/fake"
)

// Entry is one journaled call.
type Entry struct {
	ID          string          `json:"id"`
	FakeID      string          `json:"fakeId"`
	Sequence    uint64          `json:"sequence"`
	Method      string          `json:"method"`
	Arguments   json.RawMessage `json:"arguments"`
	ReturnValue json.RawMessage `json:"returnValue,omitempty"`
	Fault       string          `json:"fault,omitempty"`
	RecordedAt  time.Time       `json:"recordedAt"`
}

// NewEntry captures call as an entry of fakeID. Values that cannot be
// encoded as JSON are stored as their display string.
func NewEntry(fakeID string, call *fake.Call) Entry {
	e := Entry{
		ID:         uuid.NewString(),
		FakeID:     fakeID,
		Sequence:   call.Sequence(),
		Method:     call.Method.String(),
		Arguments:  encodeArguments(call.Args),
		RecordedAt: time.Now().UTC(),
	}
	if call.HasReturnValue() {
		e.ReturnValue = encodeValue(call.ReturnValue())
	}
	if err := call.Fault(); err != nil {
		e.Fault = err.Error()
	}
	return e
}

func encodeArguments(args []any) json.RawMessage {
	if len(args) == 0 {
		return json.RawMessage("[]")
	}
	if data, err := json.Marshal(args); err == nil {
		return data
	}
	parts := make([]json.RawMessage, len(args))
	for i, arg := range args {
		parts[i] = encodeValue(arg)
	}
	data, _ := json.Marshal(parts)
	return data
}

func encodeValue(v any) json.RawMessage {
	if data, err := json.Marshal(v); err == nil {
		return data
	}
	data, _ := json.Marshal(constraint.FormatValue(v))
	return data
}
